// Package atm holds the authenticated-session transaction core of the teller machine:
// accounts, the PIN guard, the transaction processor and the session state machine.
// Nothing in this package performs I/O or logging; callers render outcomes.
package atm

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// PINHasher hashes and verifies PINs. hsm.PINVault satisfies it.
type PINHasher interface {
	HashPIN(pin string, salt []byte) (string, error)
	VerifyPIN(pin string, hashedPIN string) (bool, error)
}

// plainPINs stores PINs as given. Used when no hasher is configured.
type plainPINs struct{}

func (plainPINs) HashPIN(pin string, _ []byte) (string, error) { return pin, nil }

func (plainPINs) VerifyPIN(pin string, stored string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(pin), []byte(stored)) == 1, nil
}

// Account is a card-holder account. All reads and writes go through mu, which is the
// single serialization point for every guard and processor operation on the account.
type Account struct {
	mu      sync.Mutex
	id      string
	pinHash string
	balance decimal.Decimal
	hasher  PINHasher
}

// NewAccount creates an account with an opening balance. A nil hasher keeps PINs in plain form.
func NewAccount(id, pin string, balance decimal.Decimal, hasher PINHasher) (*Account, error) {
	if id == "" {
		return nil, errors.New("account id is required")
	}
	if pin == "" {
		return nil, errors.New("PIN is required")
	}
	if balance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if hasher == nil {
		hasher = plainPINs{}
	}

	hash, err := hasher.HashPIN(pin, nil)
	if err != nil {
		return nil, err
	}

	return &Account{
		id:      id,
		pinHash: hash,
		balance: balance,
		hasher:  hasher,
	}, nil
}

// ID returns the card identifier.
func (a *Account) ID() string {
	return a.id
}

// Balance returns a snapshot of the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// The helpers below assume a.mu is held.

func (a *Account) matchPIN(candidate string) (bool, error) {
	return a.hasher.VerifyPIN(candidate, a.pinHash)
}

func (a *Account) setPIN(pin string) error {
	hash, err := a.hasher.HashPIN(pin, nil)
	if err != nil {
		return err
	}
	a.pinHash = hash
	return nil
}

func (a *Account) debit(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return a.balance, ErrInvalidAmount
	}
	if amount.GreaterThan(a.balance) {
		return a.balance, ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amount)
	return a.balance, nil
}

func (a *Account) credit(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return a.balance, ErrInvalidAmount
	}
	a.balance = a.balance.Add(amount)
	return a.balance, nil
}
