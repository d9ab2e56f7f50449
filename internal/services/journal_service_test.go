package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ruralpay/atm/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresJournal_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	journal := NewPostgresJournal(db)
	ctx := context.Background()

	t.Run("successful dispense", func(t *testing.T) {
		balance := decimal.NewFromInt(450)
		entry := models.JournalEntry{
			TransactionID: "tx-1",
			SessionID:     "session-1",
			TerminalID:    "ATM-0001",
			CardID:        "******1234",
			EntryType:     models.EntryDispense,
			Amount:        decimal.NewFromInt(50),
			Balance:       &balance,
			Status:        models.StatusSuccess,
			CreatedAt:     time.Now(),
		}

		mock.ExpectExec("INSERT INTO atm_journal").
			WithArgs("tx-1", "session-1", "ATM-0001", "******1234", "DISPENSE", "50", "450", "SUCCESS", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, journal.Record(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure has no balance", func(t *testing.T) {
		entry := models.JournalEntry{
			TransactionID: "tx-2",
			SessionID:     "session-1",
			TerminalID:    "ATM-0001",
			CardID:        "******1234",
			EntryType:     models.EntryDispense,
			Amount:        decimal.NewFromInt(5000),
			Status:        "INSUFFICIENT_FUNDS",
			CreatedAt:     time.Now(),
		}

		mock.ExpectExec("INSERT INTO atm_journal").
			WithArgs("tx-2", "session-1", "ATM-0001", "******1234", "DISPENSE", "5000", nil, "INSUFFICIENT_FUNDS", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(2, 1))

		assert.NoError(t, journal.Record(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO atm_journal").
			WillReturnError(errors.New("connection reset"))

		err := journal.Record(ctx, models.JournalEntry{TransactionID: "tx-3", CreatedAt: time.Now()})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "tx-3")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresJournal_ForSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	journal := NewPostgresJournal(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "transaction_id", "session_id", "terminal_id", "card_id", "entry_type", "amount", "balance", "status", "created_at"}).
		AddRow(1, "tx-1", "session-1", "ATM-0001", "******1234", "DEPOSIT", "25.50", "125.50", "SUCCESS", now).
		AddRow(2, "tx-2", "session-1", "ATM-0001", "******1234", "PIN_CHANGE", "0", nil, "PIN_MISMATCH", now)

	mock.ExpectQuery("SELECT (.+) FROM atm_journal WHERE session_id = \\$1").
		WithArgs("session-1").
		WillReturnRows(rows)

	entries, err := journal.ForSession(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.EntryDeposit, entries[0].EntryType)
	assert.Equal(t, "25.5", entries[0].Amount.String())
	require.NotNil(t, entries[0].Balance)
	assert.Equal(t, "125.5", entries[0].Balance.String())
	assert.Nil(t, entries[1].Balance)
	assert.Equal(t, "PIN_MISMATCH", entries[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryJournal(t *testing.T) {
	journal := NewMemoryJournal()
	ctx := context.Background()

	require.NoError(t, journal.Record(ctx, models.JournalEntry{TransactionID: "a", SessionID: "s1"}))
	require.NoError(t, journal.Record(ctx, models.JournalEntry{TransactionID: "b", SessionID: "s2"}))
	require.NoError(t, journal.Record(ctx, models.JournalEntry{TransactionID: "c", SessionID: "s1"}))

	entries, err := journal.ForSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].TransactionID)
	assert.Equal(t, 1, entries[0].ID)
	assert.Equal(t, "c", entries[1].TransactionID)
	assert.Equal(t, 3, entries[1].ID)
}
