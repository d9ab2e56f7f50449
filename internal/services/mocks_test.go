package services

import (
	"context"

	"github.com/ruralpay/atm/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) LogAuthentication(sessionID, cardID, outcome string, remaining int) {
	m.Called(sessionID, cardID, outcome, remaining)
}

func (m *MockAuditor) LogRetention(sessionID, cardID string) {
	m.Called(sessionID, cardID)
}

func (m *MockAuditor) LogTransaction(transactionID, sessionID, cardID, kind, amount, status string) {
	m.Called(transactionID, sessionID, cardID, kind, amount, status)
}

func (m *MockAuditor) LogError(sessionID, cardID string, err error) {
	m.Called(sessionID, cardID, err)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, entry models.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournal) ForSession(ctx context.Context, sessionID string) ([]models.JournalEntry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JournalEntry), args.Error(1)
}
