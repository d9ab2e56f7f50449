package hsm

import (
	"encoding/json"
	"log"
	"time"
)

// AuditEvent is one line of the terminal audit trail
type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	SessionID     string    `json:"session_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CardID        string    `json:"card_id,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

// Auditor records security relevant terminal events
type Auditor interface {
	LogAuthentication(sessionID, cardID, outcome string, remaining int)
	LogRetention(sessionID, cardID string)
	LogTransaction(transactionID, sessionID, cardID, kind, amount, status string)
	LogError(sessionID, cardID string, err error)
}

type AuditLogger struct {
	logf func(format string, v ...any)
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{logf: log.Printf}
}

func (a *AuditLogger) LogAuthentication(sessionID, cardID, outcome string, remaining int) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: "PIN_CHECK",
		SessionID: sessionID,
		CardID:    MaskCard(cardID),
		Status:    outcome,
	}
	if outcome == "REJECTED" {
		event.Details = map[string]int{"remaining_attempts": remaining}
	}
	a.log(event)
}

func (a *AuditLogger) LogRetention(sessionID, cardID string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "CARD_RETAINED",
		SessionID: sessionID,
		CardID:    MaskCard(cardID),
		Status:    "RETAINED",
	})
}

func (a *AuditLogger) LogTransaction(transactionID, sessionID, cardID, kind, amount, status string) {
	a.log(AuditEvent{
		Timestamp:     time.Now(),
		EventType:     kind,
		SessionID:     sessionID,
		TransactionID: transactionID,
		CardID:        MaskCard(cardID),
		Amount:        amount,
		Status:        status,
	})
}

func (a *AuditLogger) LogError(sessionID, cardID string, err error) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "ERROR",
		SessionID: sessionID,
		CardID:    MaskCard(cardID),
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	a.logf("AUDIT: %s", string(data))
}

// MaskCard keeps the last four characters of a card number
func MaskCard(cardID string) string {
	if len(cardID) <= 4 {
		return cardID
	}
	masked := make([]byte, len(cardID)-4)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + cardID[len(cardID)-4:]
}
