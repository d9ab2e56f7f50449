package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/atm/internal/atm"
	"github.com/ruralpay/atm/internal/config"
	"github.com/ruralpay/atm/internal/hsm"
	"github.com/ruralpay/atm/internal/metrics"
	"github.com/ruralpay/atm/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidPINFormat = errors.New("PIN must be numeric and within the allowed length")
)

type liveSession struct {
	id       string
	session  *atm.Session
	lastSeen time.Time
}

// ATMService runs terminal sessions on top of the atm core and records their outcomes
type ATMService struct {
	mu       sync.Mutex
	sessions map[string]*liveSession

	repo     *AccountRepository
	journal  Journal
	tokens   *TokenService
	receipts *ReceiptService
	auditor  hsm.Auditor
	metrics  *metrics.Metrics
	config   *config.ATMConfig
	now      func() time.Time
}

func NewATMService(cfg *config.ATMConfig, repo *AccountRepository, journal Journal, tokens *TokenService, auditor hsm.Auditor, m *metrics.Metrics) *ATMService {
	return &ATMService{
		sessions: make(map[string]*liveSession),
		repo:     repo,
		journal:  journal,
		tokens:   tokens,
		receipts: NewReceiptService(cfg),
		auditor:  auditor,
		metrics:  m,
		config:   cfg,
		now:      time.Now,
	}
}

// StartSession opens a new unauthenticated session
func (s *ATMService) StartSession() *models.SessionResponse {
	id := uuid.New().String()
	live := &liveSession{
		id:       id,
		session:  atm.NewSession(s.repo, atm.WithClock(s.now), atm.WithNewPINRule(s.checkNewPIN)),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = live
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	log.Printf("[ATM] Session %s started", id)

	return &models.SessionResponse{
		SessionID: id,
		State:     atm.StateUnauthenticated.String(),
		ExpiresIn: int(s.config.SessionTimeout.Seconds()),
	}
}

// Login checks a card and PIN. A rejected PIN is not an error; the response carries
// the remaining attempts. Retention is reported as ErrCardRetained.
func (s *ATMService) Login(sessionID, cardID, pin string) (*models.LoginResponse, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := live.session.Login(cardID, pin)
	if err != nil {
		if errors.Is(err, atm.ErrCardRetained) {
			return &models.LoginResponse{SessionID: sessionID, Status: atm.AuthLocked.String()}, err
		}
		if !errors.Is(err, atm.ErrUnknownCard) && !errors.Is(err, atm.ErrCardMismatch) &&
			!errors.Is(err, atm.ErrAlreadyAuthenticated) && !errors.Is(err, atm.ErrSessionClosed) {
			s.auditor.LogError(sessionID, cardID, err)
		}
		return nil, err
	}

	s.metrics.ObservePINCheck(res.Status.String())
	s.auditor.LogAuthentication(sessionID, cardID, res.Status.String(), res.Remaining)

	resp := &models.LoginResponse{SessionID: sessionID, Status: res.Status.String()}

	switch res.Status {
	case atm.AuthAuthenticated:
		token, err := s.tokens.Issue(sessionID, s.config.TerminalID)
		if err != nil {
			live.session.Abort()
			return nil, fmt.Errorf("failed to issue session token: %w", err)
		}
		resp.Token = token
		log.Printf("[ATM] Session %s authenticated card %s", sessionID, hsm.MaskCard(cardID))
	case atm.AuthRejected:
		remaining := res.Remaining
		resp.RemainingAttempts = &remaining
	case atm.AuthLocked:
		if res.Retained {
			s.auditor.LogRetention(sessionID, cardID)
			s.metrics.IncrementCardsRetained()
			s.metrics.SetRetainedCards(s.repo.RetainedCount())
			log.Printf("[ATM] Card %s retained in session %s", hsm.MaskCard(cardID), sessionID)
		}
		return resp, atm.ErrCardRetained
	}

	return resp, nil
}

// Execute runs an operation in an authenticated session and journals the outcome
func (s *ATMService) Execute(ctx context.Context, sessionID string, req atm.Request) (*models.BalanceResponse, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	cardID := live.session.CardID()
	transactionID := uuid.New().String()
	req.Reference = transactionID

	res, err := live.session.Execute(req)
	status := models.StatusSuccess
	if err != nil {
		if errors.Is(err, atm.ErrNotAuthenticated) || errors.Is(err, atm.ErrSessionClosed) || errors.Is(err, atm.ErrCardRetained) {
			return nil, err
		}
		status = outcomeCode(err)
	}

	entry := models.JournalEntry{
		TransactionID: transactionID,
		SessionID:     sessionID,
		TerminalID:    s.config.TerminalID,
		CardID:        hsm.MaskCard(cardID),
		EntryType:     entryType(req.Kind),
		Amount:        req.Amount,
		Status:        status,
		CreatedAt:     s.now(),
	}
	if err == nil && req.Kind != atm.KindPINChange {
		balance := res.Balance
		entry.Balance = &balance
	}
	if jerr := s.journal.Record(ctx, entry); jerr != nil {
		log.Printf("[ATM] Journal write failed for %s: %v", transactionID, jerr)
		s.auditor.LogError(sessionID, cardID, jerr)
	}

	s.metrics.ObserveTransaction(string(req.Kind), status)
	s.auditor.LogTransaction(transactionID, sessionID, cardID, string(req.Kind), req.Amount.String(), status)

	if err != nil {
		return nil, err
	}

	return &models.BalanceResponse{
		TransactionID: transactionID,
		Type:          string(res.Kind),
		Amount:        res.Amount,
		Balance:       res.Balance,
		Currency:      s.config.Currency,
	}, nil
}

// Receipt renders the last successful transaction of an active session
func (s *ATMService) Receipt(sessionID string) (*models.Receipt, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	if state := live.session.State(); state != atm.StateActive {
		if state == atm.StateRetained {
			return nil, atm.ErrCardRetained
		}
		return nil, atm.ErrNotAuthenticated
	}

	tx, ok := live.session.LastTransaction()
	if !ok {
		return nil, ErrNoReceipt
	}

	return s.receipts.Print(tx.Reference, live.session.CardID(), tx)
}

// History returns the journal entries written for a session
func (s *ATMService) History(ctx context.Context, sessionID string) ([]models.JournalEntry, error) {
	if _, err := s.lookup(sessionID); err != nil {
		return nil, err
	}
	return s.journal.ForSession(ctx, sessionID)
}

// Logout ends an active session and revokes its token
func (s *ATMService) Logout(ctx context.Context, sessionID string, claims *SessionClaims) error {
	live, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	if err := live.session.Logout(); err != nil {
		return err
	}

	if claims != nil {
		s.tokens.Revoke(ctx, claims)
	}
	s.remove(sessionID)

	log.Printf("[ATM] Session %s logged out", sessionID)
	return nil
}

// State reports the lifecycle state of a session
func (s *ATMService) State(sessionID string) (atm.SessionState, error) {
	live, err := s.lookup(sessionID)
	if err != nil {
		return 0, err
	}
	return live.session.State(), nil
}

// CleanupExpiredSessions aborts sessions idle past the timeout and drops closed ones
func (s *ATMService) CleanupExpiredSessions() int {
	now := s.now()

	s.mu.Lock()
	var expired []*liveSession
	for id, live := range s.sessions {
		if live.session.State().Closed() || now.Sub(live.lastSeen) > s.config.SessionTimeout {
			expired = append(expired, live)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, live := range expired {
		live.session.Abort()
	}

	if len(expired) > 0 {
		log.Printf("[ATM] Cleaned up %d expired sessions", len(expired))
	}
	s.metrics.SetActiveSessions(count)
	return len(expired)
}

// ActiveSessions returns the number of tracked sessions
func (s *ATMService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *ATMService) lookup(sessionID string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	live.lastSeen = s.now()
	return live, nil
}

func (s *ATMService) remove(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
}

// checkNewPIN is the session's new-PIN rule; it runs after the old PIN is verified
func (s *ATMService) checkNewPIN(pin string) error {
	if len(pin) < s.config.MinPINLength || len(pin) > s.config.MaxPINLength {
		return ErrInvalidPINFormat
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return ErrInvalidPINFormat
		}
	}
	return nil
}

func entryType(kind atm.Kind) string {
	switch kind {
	case atm.KindWithdrawal:
		return models.EntryDispense
	case atm.KindDeposit:
		return models.EntryDeposit
	case atm.KindPINChange:
		return models.EntryPINChange
	}
	return models.EntryInquiry
}

// outcomeCode maps a core error to the status written to the journal
func outcomeCode(err error) string {
	switch {
	case errors.Is(err, atm.ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, atm.ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, atm.ErrIncorrectOldPIN):
		return "INCORRECT_OLD_PIN"
	case errors.Is(err, atm.ErrPINMismatch):
		return "PIN_MISMATCH"
	case errors.Is(err, ErrInvalidPINFormat):
		return "INVALID_PIN_FORMAT"
	case errors.Is(err, atm.ErrUnsupportedOperation):
		return "UNSUPPORTED"
	}
	return "FAILED"
}

// CheckAmountPrecision rejects amounts with more than two decimal places
func CheckAmountPrecision(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return atm.ErrInvalidAmount
	}
	return nil
}
