package models

import (
	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	CardID string `json:"cardId" validate:"required,min=4,max=19,numeric"`
	PIN    string `json:"pin" validate:"required,pin"`
}

type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type PINChangeRequest struct {
	OldPIN     string `json:"oldPin" validate:"required,max=12"`
	NewPIN     string `json:"newPin" validate:"required,max=12"`
	ConfirmPIN string `json:"confirmPin" validate:"required,max=12"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

type LoginResponse struct {
	SessionID         string `json:"sessionId"`
	Status            string `json:"status"`
	Token             string `json:"token,omitempty"`
	RemainingAttempts *int   `json:"remainingAttempts,omitempty"`
}

type BalanceResponse struct {
	TransactionID string          `json:"transactionId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
}
