package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ruralpay/atm/internal/models"
	"github.com/shopspring/decimal"
)

// Journal records every terminal operation, successful or not
type Journal interface {
	Record(ctx context.Context, entry models.JournalEntry) error
	ForSession(ctx context.Context, sessionID string) ([]models.JournalEntry, error)
}

type PostgresJournal struct {
	db *sql.DB
}

func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{db: db}
}

func (j *PostgresJournal) Record(ctx context.Context, entry models.JournalEntry) error {
	var balance any
	if entry.Balance != nil {
		balance = entry.Balance.String()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO atm_journal (transaction_id, session_id, terminal_id, card_id, entry_type, amount, balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.TransactionID, entry.SessionID, entry.TerminalID, entry.CardID, entry.EntryType,
		entry.Amount.String(), balance, entry.Status, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record journal entry %s: %w", entry.TransactionID, err)
	}
	return nil
}

func (j *PostgresJournal) ForSession(ctx context.Context, sessionID string) ([]models.JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, transaction_id, session_id, terminal_id, card_id, entry_type, amount, balance, status, created_at
		FROM atm_journal
		WHERE session_id = $1
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var entry models.JournalEntry
		var balance decimal.NullDecimal
		if err := rows.Scan(&entry.ID, &entry.TransactionID, &entry.SessionID, &entry.TerminalID,
			&entry.CardID, &entry.EntryType, &entry.Amount, &balance, &entry.Status, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if balance.Valid {
			entry.Balance = &balance.Decimal
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MemoryJournal keeps entries in process, used when no database is configured
type MemoryJournal struct {
	mu      sync.Mutex
	entries []models.JournalEntry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Record(_ context.Context, entry models.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry.ID = len(j.entries) + 1
	j.entries = append(j.entries, entry)
	return nil
}

func (j *MemoryJournal) ForSession(_ context.Context, sessionID string) ([]models.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var entries []models.JournalEntry
	for _, entry := range j.entries {
		if entry.SessionID == sessionID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
