package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the printed record of a session's last transaction
type Receipt struct {
	Reference  string          `json:"reference"`
	BankName   string          `json:"bankName"`
	TerminalID string          `json:"terminalId"`
	CardNumber string          `json:"cardNumber"` // masked
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
	Timestamp  time.Time       `json:"timestamp"`
	QRCode     string          `json:"qrCode,omitempty"` // base64 PNG of the reference
}
