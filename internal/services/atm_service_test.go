package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruralpay/atm/internal/atm"
	"github.com/ruralpay/atm/internal/hsm"
	"github.com/ruralpay/atm/internal/metrics"
	"github.com/ruralpay/atm/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCard = "5061001234567890"

type serviceFixture struct {
	service *ATMService
	repo    *AccountRepository
	journal *MemoryJournal
	metrics *metrics.Metrics
}

func newServiceFixture(t *testing.T, auditor hsm.Auditor) *serviceFixture {
	t.Helper()
	repo := NewAccountRepository(nil)
	_, err := repo.Open(testCard, "1234", decimal.NewFromInt(100))
	require.NoError(t, err)

	journal := NewMemoryJournal()
	m := metrics.New(prometheus.NewRegistry())
	tokens := NewTokenService("test-secret", 5*time.Minute, nil)
	if auditor == nil {
		auditor = hsm.NewAuditLogger()
	}

	return &serviceFixture{
		service: NewATMService(testATMConfig(), repo, journal, tokens, auditor, m),
		repo:    repo,
		journal: journal,
		metrics: m,
	}
}

func (f *serviceFixture) login(t *testing.T) string {
	t.Helper()
	sessionID := f.service.StartSession().SessionID
	resp, err := f.service.Login(sessionID, testCard, "1234")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return sessionID
}

func TestATMService_StartSession(t *testing.T) {
	f := newServiceFixture(t, nil)

	resp := f.service.StartSession()
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "UNAUTHENTICATED", resp.State)
	assert.Equal(t, 60, resp.ExpiresIn)
	assert.Equal(t, 1, f.service.ActiveSessions())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveSessions))
}

func TestATMService_Login(t *testing.T) {
	t.Run("success issues token", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.service.StartSession().SessionID

		resp, err := f.service.Login(sessionID, testCard, "1234")
		require.NoError(t, err)
		assert.Equal(t, "AUTHENTICATED", resp.Status)
		assert.NotEmpty(t, resp.Token)
		assert.Nil(t, resp.RemainingAttempts)

		state, err := f.service.State(sessionID)
		require.NoError(t, err)
		assert.Equal(t, atm.StateActive, state)
	})

	t.Run("rejection reports remaining attempts", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.service.StartSession().SessionID

		resp, err := f.service.Login(sessionID, testCard, "0000")
		require.NoError(t, err)
		assert.Equal(t, "REJECTED", resp.Status)
		require.NotNil(t, resp.RemainingAttempts)
		assert.Equal(t, 2, *resp.RemainingAttempts)
		assert.Empty(t, resp.Token)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PINChecks.WithLabelValues("REJECTED")))
	})

	t.Run("third failure retains card", func(t *testing.T) {
		auditor := new(MockAuditor)
		auditor.On("LogAuthentication", mock.Anything, testCard, mock.Anything, mock.Anything).Return()
		auditor.On("LogRetention", mock.Anything, testCard).Return().Once()

		f := newServiceFixture(t, auditor)
		sessionID := f.service.StartSession().SessionID

		for i := 0; i < 2; i++ {
			_, err := f.service.Login(sessionID, testCard, "0000")
			require.NoError(t, err)
		}
		resp, err := f.service.Login(sessionID, testCard, "0000")
		assert.ErrorIs(t, err, atm.ErrCardRetained)
		assert.Equal(t, "LOCKED", resp.Status)

		_, err = f.service.Login(sessionID, testCard, "1234")
		assert.ErrorIs(t, err, atm.ErrCardRetained)

		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CardsRetained))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RetainedCards))
		auditor.AssertExpectations(t)
	})

	t.Run("retained card stays retained in a new session", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		first := f.service.StartSession().SessionID
		for i := 0; i < atm.MaxPINAttempts; i++ {
			f.service.Login(first, testCard, "0000")
		}

		second := f.service.StartSession().SessionID
		resp, err := f.service.Login(second, testCard, "1234")
		assert.ErrorIs(t, err, atm.ErrCardRetained)
		assert.Equal(t, "LOCKED", resp.Status)
	})

	t.Run("retention is recorded once per card", func(t *testing.T) {
		auditor := new(MockAuditor)
		auditor.On("LogAuthentication", mock.Anything, testCard, mock.Anything, mock.Anything).Return()
		auditor.On("LogRetention", mock.Anything, testCard).Return().Once()

		f := newServiceFixture(t, auditor)
		first := f.service.StartSession().SessionID
		for i := 0; i < atm.MaxPINAttempts; i++ {
			f.service.Login(first, testCard, "0000")
		}

		for i := 0; i < 3; i++ {
			sessionID := f.service.StartSession().SessionID
			resp, err := f.service.Login(sessionID, testCard, "1234")
			assert.ErrorIs(t, err, atm.ErrCardRetained)
			assert.Equal(t, "LOCKED", resp.Status)
		}

		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CardsRetained))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RetainedCards))
		assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.PINChecks.WithLabelValues("LOCKED")))
		auditor.AssertNumberOfCalls(t, "LogRetention", 1)
		auditor.AssertExpectations(t)
	})

	t.Run("unknown card", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.service.StartSession().SessionID

		_, err := f.service.Login(sessionID, "9999999999", "1234")
		assert.ErrorIs(t, err, atm.ErrUnknownCard)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		_, err := f.service.Login("missing", testCard, "1234")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestATMService_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("withdrawal is journaled as dispense", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		resp, err := f.service.Execute(ctx, sessionID, atm.Withdrawal(decimal.NewFromInt(30)))
		require.NoError(t, err)
		assert.Equal(t, "WITHDRAWAL", resp.Type)
		assert.True(t, resp.Balance.Equal(decimal.NewFromInt(70)))
		assert.Equal(t, "NGN", resp.Currency)

		entries, err := f.service.History(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryDispense, entries[0].EntryType)
		assert.Equal(t, models.StatusSuccess, entries[0].Status)
		assert.Equal(t, resp.TransactionID, entries[0].TransactionID)
		assert.Equal(t, "************7890", entries[0].CardID)
		require.NotNil(t, entries[0].Balance)
		assert.True(t, entries[0].Balance.Equal(decimal.NewFromInt(70)))
	})

	t.Run("insufficient funds is journaled and balance kept", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		_, err := f.service.Execute(ctx, sessionID, atm.Withdrawal(decimal.NewFromInt(500)))
		assert.ErrorIs(t, err, atm.ErrInsufficientFunds)

		entries, _ := f.service.History(ctx, sessionID)
		require.Len(t, entries, 1)
		assert.Equal(t, "INSUFFICIENT_FUNDS", entries[0].Status)
		assert.Nil(t, entries[0].Balance)

		resp, err := f.service.Execute(ctx, sessionID, atm.Inquiry())
		require.NoError(t, err)
		assert.True(t, resp.Balance.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transactions.WithLabelValues("WITHDRAWAL", "INSUFFICIENT_FUNDS")))
	})

	t.Run("deposit then PIN change", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		resp, err := f.service.Execute(ctx, sessionID, atm.Deposit(decimal.RequireFromString("20.25")))
		require.NoError(t, err)
		assert.Equal(t, "120.25", resp.Balance.String())

		_, err = f.service.Execute(ctx, sessionID, atm.PINChange("1234", "5678", "5678"))
		require.NoError(t, err)

		entries, _ := f.service.History(ctx, sessionID)
		require.Len(t, entries, 2)
		assert.Equal(t, models.EntryPINChange, entries[1].EntryType)
		assert.Nil(t, entries[1].Balance)
	})

	t.Run("PIN change rejects malformed new PIN", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		_, err := f.service.Execute(ctx, sessionID, atm.PINChange("1234", "12", "12"))
		assert.ErrorIs(t, err, ErrInvalidPINFormat)
		_, err = f.service.Execute(ctx, sessionID, atm.PINChange("1234", "12ab", "12ab"))
		assert.ErrorIs(t, err, ErrInvalidPINFormat)

		entries, _ := f.service.History(ctx, sessionID)
		require.Len(t, entries, 2)
		assert.Equal(t, "INVALID_PIN_FORMAT", entries[0].Status)

		_, err = f.service.Execute(ctx, sessionID, atm.PINChange("1234", "5678", "5678"))
		assert.NoError(t, err)
	})

	t.Run("wrong old PIN wins over a malformed new PIN", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		_, err := f.service.Execute(ctx, sessionID, atm.PINChange("0000", "12", "12"))
		assert.ErrorIs(t, err, atm.ErrIncorrectOldPIN)
		_, err = f.service.Execute(ctx, sessionID, atm.PINChange("0000", "12", "99"))
		assert.ErrorIs(t, err, atm.ErrIncorrectOldPIN)
	})

	t.Run("not authenticated", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.service.StartSession().SessionID

		_, err := f.service.Execute(ctx, sessionID, atm.Inquiry())
		assert.ErrorIs(t, err, atm.ErrNotAuthenticated)

		entries, _ := f.service.History(ctx, sessionID)
		assert.Empty(t, entries)
	})

	t.Run("journal failure does not fail the operation", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		journal := new(MockJournal)
		journal.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		f.service.journal = journal

		sessionID := f.login(t)
		resp, err := f.service.Execute(ctx, sessionID, atm.Deposit(decimal.NewFromInt(5)))
		require.NoError(t, err)
		assert.True(t, resp.Balance.Equal(decimal.NewFromInt(105)))
		journal.AssertExpectations(t)
	})
}

func TestATMService_Receipt(t *testing.T) {
	ctx := context.Background()

	t.Run("receipt for last transaction", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		_, err := f.service.Execute(ctx, sessionID, atm.Deposit(decimal.NewFromInt(10)))
		require.NoError(t, err)
		resp, err := f.service.Execute(ctx, sessionID, atm.Withdrawal(decimal.NewFromInt(40)))
		require.NoError(t, err)

		receipt, err := f.service.Receipt(sessionID)
		require.NoError(t, err)
		assert.Equal(t, resp.TransactionID, receipt.Reference)
		assert.Equal(t, "WITHDRAWAL", receipt.Type)
		assert.True(t, receipt.Balance.Equal(decimal.NewFromInt(70)))
		assert.NotEmpty(t, receipt.QRCode)
	})

	t.Run("reference matches the recorded transaction under concurrency", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.service.Execute(ctx, sessionID, atm.Deposit(decimal.NewFromInt(1)))
			}()
		}
		wg.Wait()

		receipt, err := f.service.Receipt(sessionID)
		require.NoError(t, err)

		entries, err := f.service.History(ctx, sessionID)
		require.NoError(t, err)
		var matched bool
		for _, entry := range entries {
			if entry.TransactionID == receipt.Reference {
				matched = true
				require.NotNil(t, entry.Balance)
				assert.True(t, entry.Balance.Equal(receipt.Balance))
			}
		}
		assert.True(t, matched)
		assert.True(t, receipt.Balance.Equal(decimal.NewFromInt(120)))
	})

	t.Run("nothing to print", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		_, err := f.service.Receipt(sessionID)
		assert.ErrorIs(t, err, ErrNoReceipt)
	})

	t.Run("failed operation does not replace the receipt", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		_, err := f.service.Execute(ctx, sessionID, atm.Deposit(decimal.NewFromInt(1)))
		require.NoError(t, err)
		_, err = f.service.Execute(ctx, sessionID, atm.Withdrawal(decimal.NewFromInt(-5)))
		require.ErrorIs(t, err, atm.ErrInvalidAmount)

		receipt, err := f.service.Receipt(sessionID)
		require.NoError(t, err)
		assert.Equal(t, "DEPOSIT", receipt.Type)
	})

	t.Run("requires active session", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.service.StartSession().SessionID

		_, err := f.service.Receipt(sessionID)
		assert.ErrorIs(t, err, atm.ErrNotAuthenticated)
	})
}

func TestATMService_Logout(t *testing.T) {
	t.Run("ends session", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.login(t)

		require.NoError(t, f.service.Logout(context.Background(), sessionID, nil))

		_, err := f.service.State(sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.Equal(t, 0, f.service.ActiveSessions())
	})

	t.Run("requires active session", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		sessionID := f.service.StartSession().SessionID

		err := f.service.Logout(context.Background(), sessionID, nil)
		assert.ErrorIs(t, err, atm.ErrNotAuthenticated)
	})

	t.Run("guard survives logout", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		first := f.service.StartSession().SessionID
		_, err := f.service.Login(first, testCard, "0000")
		require.NoError(t, err)
		_, err = f.service.Login(first, testCard, "1234")
		require.NoError(t, err)
		require.NoError(t, f.service.Logout(context.Background(), first, nil))

		card, err := f.repo.ReadCard(testCard)
		require.NoError(t, err)
		assert.Equal(t, 0, card.Guard.FailedAttempts())
	})
}

func TestATMService_CleanupExpiredSessions(t *testing.T) {
	f := newServiceFixture(t, nil)
	now := time.Now()
	f.service.now = func() time.Time { return now }

	idle := f.service.StartSession().SessionID
	active := f.login(t)

	now = now.Add(45 * time.Second)
	_, err := f.service.State(active)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	removed := f.service.CleanupExpiredSessions()
	assert.Equal(t, 1, removed)

	_, err = f.service.State(idle)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.service.State(active)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveSessions))
}

func TestCheckAmountPrecision(t *testing.T) {
	assert.NoError(t, CheckAmountPrecision(decimal.RequireFromString("10.25")))
	assert.NoError(t, CheckAmountPrecision(decimal.NewFromInt(10)))
	assert.ErrorIs(t, CheckAmountPrecision(decimal.RequireFromString("10.255")), atm.ErrInvalidAmount)
}
