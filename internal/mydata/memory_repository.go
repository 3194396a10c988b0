package mydata

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	loans    map[string][]Loan
}

// NewMemoryRepository builds an in-memory mydata store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		profiles: make(map[string]Profile),
		loans:    make(map[string][]Loan),
	}
}

func (r *memoryRepository) GetProfile(_ context.Context, userID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (r *memoryRepository) UpsertProfile(_ context.Context, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
	return nil
}

func (r *memoryRepository) ListLoans(_ context.Context, userID string) ([]Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Loan, len(r.loans[userID]))
	copy(out, r.loans[userID])
	return out, nil
}

func (r *memoryRepository) CreateLoan(_ context.Context, loan Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[loan.UserID] = append(r.loans[loan.UserID], loan)
	return nil
}

func (r *memoryRepository) DeleteLoan(_ context.Context, userID, loanID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loans := r.loans[userID]
	for i, l := range loans {
		if l.ID == loanID {
			r.loans[userID] = append(loans[:i:i], loans[i+1:]...)
			return nil
		}
	}
	return ErrLoanNotFound
}
