package atm

// MaxPINAttempts is the number of consecutive wrong PINs that retains a card.
const MaxPINAttempts = 3

// AuthStatus is the outcome kind of a PIN check.
type AuthStatus int

const (
	AuthAuthenticated AuthStatus = iota + 1
	AuthRejected
	AuthLocked
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAuthenticated:
		return "AUTHENTICATED"
	case AuthRejected:
		return "REJECTED"
	case AuthLocked:
		return "LOCKED"
	}
	return "UNKNOWN"
}

// AuthResult is the outcome of a PIN check. Remaining is only meaningful for AuthRejected.
// Retained is set only on the check that locked the guard, not on later checks of a
// guard that was already locked.
type AuthResult struct {
	Status    AuthStatus
	Remaining int
	Retained  bool
}

// Guard mediates PIN checks for one account and retains the card after
// MaxPINAttempts consecutive failures. Guard state is protected by the account mutex.
type Guard struct {
	account        *Account
	failedAttempts int
	locked         bool
}

// NewGuard wraps an account with a fresh guard.
func NewGuard(account *Account) *Guard {
	return &Guard{account: account}
}

// Account returns the guarded account.
func (g *Guard) Account() *Account {
	return g.account
}

// CheckPIN compares candidate against the account PIN. A locked guard never compares.
// An error is returned only when the stored PIN cannot be verified; guard state is
// left untouched in that case.
func (g *Guard) CheckPIN(candidate string) (AuthResult, error) {
	g.account.mu.Lock()
	defer g.account.mu.Unlock()

	if g.locked {
		return AuthResult{Status: AuthLocked}, nil
	}

	ok, err := g.account.matchPIN(candidate)
	if err != nil {
		return AuthResult{}, err
	}

	if ok {
		g.failedAttempts = 0
		return AuthResult{Status: AuthAuthenticated}, nil
	}

	g.failedAttempts++
	if g.failedAttempts >= MaxPINAttempts {
		g.locked = true
		return AuthResult{Status: AuthLocked, Retained: true}, nil
	}

	return AuthResult{Status: AuthRejected, Remaining: MaxPINAttempts - g.failedAttempts}, nil
}

// FailedAttempts returns the current consecutive failure count.
func (g *Guard) FailedAttempts() int {
	g.account.mu.Lock()
	defer g.account.mu.Unlock()
	return g.failedAttempts
}

// Locked reports whether the card has been retained.
func (g *Guard) Locked() bool {
	g.account.mu.Lock()
	defer g.account.mu.Unlock()
	return g.locked
}
