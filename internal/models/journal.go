package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal entry types
const (
	EntryInquiry   = "INQUIRY"
	EntryDispense  = "DISPENSE"
	EntryDeposit   = "DEPOSIT"
	EntryPINChange = "PIN_CHANGE"
)

// Journal entry statuses
const (
	StatusSuccess = "SUCCESS"
)

// JournalEntry is one line of the terminal's electronic journal
type JournalEntry struct {
	ID            int              `json:"id" db:"id"`
	TransactionID string           `json:"transaction_id" db:"transaction_id"`
	SessionID     string           `json:"session_id" db:"session_id"`
	TerminalID    string           `json:"terminal_id" db:"terminal_id"`
	CardID        string           `json:"card_id" db:"card_id"` // masked
	EntryType     string           `json:"entry_type" db:"entry_type"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	Balance       *decimal.Decimal `json:"balance,omitempty" db:"balance"` // nil for failures and PIN changes
	Status        string           `json:"status" db:"status"`              // SUCCESS or an error code
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}
