package atm

import (
	"sync"
	"time"
)

// SessionState is a step of the login → operate → logout lifecycle.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateActive
	StateTerminated
	StateRetained
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateActive:
		return "ACTIVE"
	case StateTerminated:
		return "TERMINATED"
	case StateRetained:
		return "RETAINED"
	}
	return "UNKNOWN"
}

// Closed reports whether the state is terminal.
func (s SessionState) Closed() bool {
	return s == StateTerminated || s == StateRetained
}

// Card pairs an account with the guard that mediates its PIN checks. The same guard
// must be handed out for every session on the account so retention outlives a session.
type Card struct {
	Account *Account
	Guard   *Guard
}

// CardReader resolves a card identifier to its account and guard.
type CardReader interface {
	ReadCard(cardID string) (Card, error)
}

// Session drives one customer interaction with the machine.
type Session struct {
	mu        sync.Mutex
	reader    CardReader
	now       func() time.Time
	state     SessionState
	card      Card
	processor *Processor
	pinRule   func(pin string) error
	last      *Transaction
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock overrides the clock used to stamp transactions.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// WithNewPINRule sets the format rule applied to new PINs in PIN changes.
func WithNewPINRule(rule func(pin string) error) SessionOption {
	return func(s *Session) {
		s.pinRule = rule
	}
}

// NewSession starts an unauthenticated session that reads cards from reader.
func NewSession(reader CardReader, opts ...SessionOption) *Session {
	s := &Session{
		reader: reader,
		now:    time.Now,
		state:  StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CardID returns the card bound to the session, or "" before the first login attempt.
func (s *Session) CardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.card.Account == nil {
		return ""
	}
	return s.card.Account.ID()
}

// Login submits a card and PIN. The first attempt binds the card; retries after a
// rejection must present the same card.
func (s *Session) Login(cardID, pin string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUnauthenticated:
		card, err := s.reader.ReadCard(cardID)
		if err != nil {
			return AuthResult{}, err
		}
		s.card = card
		s.state = StateAuthenticating
	case StateAuthenticating:
		if s.card.Account.ID() != cardID {
			return AuthResult{}, ErrCardMismatch
		}
	case StateActive:
		return AuthResult{}, ErrAlreadyAuthenticated
	case StateRetained:
		return AuthResult{Status: AuthLocked}, ErrCardRetained
	default:
		return AuthResult{}, ErrSessionClosed
	}

	res, err := s.card.Guard.CheckPIN(pin)
	if err != nil {
		return AuthResult{}, err
	}

	switch res.Status {
	case AuthAuthenticated:
		s.state = StateActive
		s.processor = NewProcessor(s.card.Account, WithPINRule(s.pinRule))
	case AuthLocked:
		s.state = StateRetained
	}

	return res, nil
}

// Execute runs an operation in an active session and records it for the receipt.
func (s *Session) Execute(req Request) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.activeLocked(); err != nil {
		return Result{}, err
	}

	res, err := s.processor.Execute(req)
	if err != nil {
		return Result{}, err
	}

	s.last = &Transaction{
		Reference: req.Reference,
		Kind:      res.Kind,
		Amount:    res.Amount,
		Balance:   res.Balance,
		At:        s.now(),
	}
	return res, nil
}

// LastTransaction returns the most recent successful operation of the session.
func (s *Session) LastTransaction() (Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Transaction{}, false
	}
	return *s.last, true
}

// Logout ends an active session.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.activeLocked(); err != nil {
		return err
	}
	s.state = StateTerminated
	s.processor = nil
	return nil
}

// Abort closes a session that never became active, e.g. an abandoned login.
// Retained sessions stay retained.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Closed() {
		return
	}
	s.state = StateTerminated
	s.processor = nil
}

func (s *Session) activeLocked() error {
	switch s.state {
	case StateActive:
		return nil
	case StateRetained:
		return ErrCardRetained
	case StateTerminated:
		return ErrSessionClosed
	}
	return ErrNotAuthenticated
}
