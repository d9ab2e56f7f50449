package atm

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates the operations a processor executes.
type Kind string

const (
	KindInquiry    Kind = "INQUIRY"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindDeposit    Kind = "DEPOSIT"
	KindPINChange  Kind = "PIN_CHANGE"
)

// Valid reports whether k is one of the known operation kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInquiry, KindWithdrawal, KindDeposit, KindPINChange:
		return true
	}
	return false
}

// Request is an already-parsed operation. Amount is used by withdrawals and deposits,
// the PIN fields only by PIN changes. Reference is carried into the recorded Transaction.
type Request struct {
	Kind       Kind
	Reference  string
	Amount     decimal.Decimal
	OldPIN     string
	NewPIN     string
	ConfirmPIN string
}

// Inquiry builds a balance inquiry request.
func Inquiry() Request { return Request{Kind: KindInquiry} }

// Withdrawal builds a withdrawal request.
func Withdrawal(amount decimal.Decimal) Request {
	return Request{Kind: KindWithdrawal, Amount: amount}
}

// Deposit builds a deposit request.
func Deposit(amount decimal.Decimal) Request {
	return Request{Kind: KindDeposit, Amount: amount}
}

// PINChange builds a PIN change request.
func PINChange(oldPIN, newPIN, confirmPIN string) Request {
	return Request{Kind: KindPINChange, OldPIN: oldPIN, NewPIN: newPIN, ConfirmPIN: confirmPIN}
}

// Result is the outcome of a successful operation. Balance is the balance after the
// operation; it is zero for PIN changes.
type Result struct {
	Kind    Kind
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

// Transaction is the last operation a session performed, kept for receipts.
type Transaction struct {
	Reference string
	Kind      Kind
	Amount    decimal.Decimal
	Balance   decimal.Decimal
	At        time.Time
}
