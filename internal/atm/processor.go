package atm

import "github.com/shopspring/decimal"

// Processor executes operations against an authenticated account. The session controller
// is responsible for only handing it accounts whose guard authenticated the holder.
type Processor struct {
	account *Account
	pinRule func(pin string) error
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithPINRule sets the format rule a new PIN must satisfy. It runs only after the old
// PIN and the confirmation have been checked.
func WithPINRule(rule func(pin string) error) ProcessorOption {
	return func(p *Processor) {
		p.pinRule = rule
	}
}

// NewProcessor binds a processor to an account.
func NewProcessor(account *Account, opts ...ProcessorOption) *Processor {
	p := &Processor{account: account}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inquire returns the current balance without mutating the account.
func (p *Processor) Inquire() decimal.Decimal {
	return p.account.Balance()
}

// Withdraw debits amount. The funds check and the debit happen under one lock.
func (p *Processor) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	p.account.mu.Lock()
	defer p.account.mu.Unlock()
	return p.account.debit(amount)
}

// Deposit credits amount.
func (p *Processor) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	p.account.mu.Lock()
	defer p.account.mu.Unlock()
	return p.account.credit(amount)
}

// ChangePIN replaces the PIN. The old PIN is checked before the confirmation so that a
// caller without the old PIN learns nothing about the new pair.
func (p *Processor) ChangePIN(oldPIN, newPIN, confirmPIN string) error {
	p.account.mu.Lock()
	defer p.account.mu.Unlock()

	ok, err := p.account.matchPIN(oldPIN)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIncorrectOldPIN
	}
	if newPIN != confirmPIN {
		return ErrPINMismatch
	}
	if p.pinRule != nil {
		if err := p.pinRule(newPIN); err != nil {
			return err
		}
	}
	return p.account.setPIN(newPIN)
}

// Execute dispatches a request to the matching operation.
func (p *Processor) Execute(req Request) (Result, error) {
	res := Result{Kind: req.Kind}

	switch req.Kind {
	case KindInquiry:
		res.Balance = p.Inquire()
	case KindWithdrawal:
		balance, err := p.Withdraw(req.Amount)
		if err != nil {
			return Result{}, err
		}
		res.Amount, res.Balance = req.Amount, balance
	case KindDeposit:
		balance, err := p.Deposit(req.Amount)
		if err != nil {
			return Result{}, err
		}
		res.Amount, res.Balance = req.Amount, balance
	case KindPINChange:
		if err := p.ChangePIN(req.OldPIN, req.NewPIN, req.ConfirmPIN); err != nil {
			return Result{}, err
		}
	default:
		return Result{}, ErrUnsupportedOperation
	}

	return res, nil
}
