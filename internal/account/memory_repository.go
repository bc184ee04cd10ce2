package account

import (
	"context"
	"fmt"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository builds an in-memory account store for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[a.ID]; exists {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	r.accounts[a.ID] = a
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepository) Save(_ context.Context, accounts ...Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range accounts {
		if _, ok := r.accounts[a.ID]; !ok {
			return fmt.Errorf("update account %s: %w", a.ID, ErrNotFound)
		}
	}
	for _, a := range accounts {
		stored := r.accounts[a.ID]
		stored.Balance = a.Balance
		stored.UpdatedAt = a.UpdatedAt
		r.accounts[a.ID] = stored
	}
	return nil
}
