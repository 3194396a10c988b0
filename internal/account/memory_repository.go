package account

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu           sync.RWMutex
	accounts     map[string]Account
	byNumber     map[string]string
	participants map[string][]Participant
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		accounts:     make(map[string]Account),
		byNumber:     make(map[string]string),
		participants: make(map[string][]Participant),
	}
}

func (r *memoryRepository) Create(_ context.Context, acc Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byNumber[acc.Number]; exists {
		return ErrDuplicateNumber
	}
	r.accounts[acc.ID] = acc
	r.byNumber[acc.Number] = acc.ID
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

func (r *memoryRepository) GetByNumber(_ context.Context, number string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[number]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return r.accounts[id], nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Account
	for id, acc := range r.accounts {
		if acc.UserID == userID || r.hasParticipant(id, userID) {
			out = append(out, acc)
		}
	}
	sortAccounts(out)
	return out, nil
}

func (r *memoryRepository) ListByType(_ context.Context, types ...string) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Account
	for _, acc := range r.accounts {
		for _, t := range types {
			if acc.Type == t {
				out = append(out, acc)
				break
			}
		}
	}
	sortAccounts(out)
	return out, nil
}

func (r *memoryRepository) AddParticipant(_ context.Context, p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[p.AccountID]; !ok {
		return ErrAccountNotFound
	}
	if r.hasParticipant(p.AccountID, p.UserID) {
		return ErrAlreadyParticipant
	}
	r.participants[p.AccountID] = append(r.participants[p.AccountID], p)
	return nil
}

func (r *memoryRepository) Participants(_ context.Context, accountID string) ([]Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, len(r.participants[accountID]))
	copy(out, r.participants[accountID])
	return out, nil
}

func (r *memoryRepository) hasParticipant(accountID, userID string) bool {
	for _, p := range r.participants[accountID] {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func sortAccounts(accs []Account) {
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].CreatedAt.Equal(accs[j].CreatedAt) {
			return accs[i].Number < accs[j].Number
		}
		return accs[i].CreatedAt.Before(accs[j].CreatedAt)
	})
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	acc.Status = status
	r.accounts[id] = acc
	return nil
}
