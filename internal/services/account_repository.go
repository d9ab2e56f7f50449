package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ruralpay/atm/internal/atm"
	"github.com/ruralpay/atm/internal/config"
	"github.com/shopspring/decimal"
)

var ErrDuplicateCard = errors.New("card already registered")

// AccountRepository keeps the cards known to the terminal. Each card has a single
// guard for the life of the process so a retained card stays retained.
type AccountRepository struct {
	mu     sync.RWMutex
	hasher atm.PINHasher
	cards  map[string]atm.Card
}

func NewAccountRepository(hasher atm.PINHasher) *AccountRepository {
	return &AccountRepository{
		hasher: hasher,
		cards:  make(map[string]atm.Card),
	}
}

// Open registers a new card with its PIN and opening balance
func (r *AccountRepository) Open(cardID, pin string, balance decimal.Decimal) (*atm.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cards[cardID]; exists {
		return nil, ErrDuplicateCard
	}

	account, err := atm.NewAccount(cardID, pin, balance, r.hasher)
	if err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	r.cards[cardID] = atm.Card{Account: account, Guard: atm.NewGuard(account)}
	return account, nil
}

// ReadCard implements atm.CardReader
func (r *AccountRepository) ReadCard(cardID string) (atm.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card, ok := r.cards[cardID]
	if !ok {
		return atm.Card{}, atm.ErrUnknownCard
	}
	return card, nil
}

// Seed opens every configured account
func (r *AccountRepository) Seed(accounts []config.SeedAccount) error {
	for _, seed := range accounts {
		balance, err := decimal.NewFromString(seed.Balance)
		if err != nil {
			return fmt.Errorf("invalid balance for card %s: %w", seed.CardID, err)
		}
		if _, err := r.Open(seed.CardID, seed.PIN, balance); err != nil {
			return fmt.Errorf("card %s: %w", seed.CardID, err)
		}
	}
	log.Printf("[ACCOUNTS] Loaded %d cards", len(accounts))
	return nil
}

// RetainedCount returns the number of cards whose guard is locked
func (r *AccountRepository) RetainedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, card := range r.cards {
		if card.Guard.Locked() {
			count++
		}
	}
	return count
}
