package identity

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-process Directory for tests.
type MemoryDirectory struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryDirectory seeds a directory with the given accounts.
func NewMemoryDirectory(accounts ...Account) *MemoryDirectory {
	dir := &MemoryDirectory{accounts: make(map[string]Account, len(accounts))}
	for _, acct := range accounts {
		dir.accounts[acct.ID] = acct
	}
	return dir
}

// Add registers an account.
func (d *MemoryDirectory) Add(acct Account) {
	d.mu.Lock()
	d.accounts[acct.ID] = acct
	d.mu.Unlock()
}

// Resolve looks up one account by id.
func (d *MemoryDirectory) Resolve(_ context.Context, userID string) (Account, error) {
	d.mu.RLock()
	acct, ok := d.accounts[userID]
	d.mu.RUnlock()
	if !ok {
		return Account{}, ErrUserNotFound
	}
	return acct, nil
}

// AllowAll resolves every non-empty id. It stands in for the account
// directory when no accounts database is configured.
type AllowAll struct{}

// Resolve accepts any non-empty user id.
func (AllowAll) Resolve(_ context.Context, userID string) (Account, error) {
	if userID == "" {
		return Account{}, ErrUserNotFound
	}
	return Account{ID: userID}, nil
}
