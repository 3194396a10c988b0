package invitation

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu          sync.RWMutex
	invitations map[string]Invitation
}

// NewMemoryRepository returns an in-memory invitation store.
func NewMemoryRepository() Repository {
	return &memoryRepository{invitations: make(map[string]Invitation)}
}

func (r *memoryRepository) Create(_ context.Context, inv Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invitations[inv.ID] = inv
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invitations[id]
	if !ok {
		return Invitation{}, ErrInvitationNotFound
	}
	return inv, nil
}

func (r *memoryRepository) Update(_ context.Context, inv Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invitations[inv.ID]; !ok {
		return ErrInvitationNotFound
	}
	r.invitations[inv.ID] = inv
	return nil
}

func (r *memoryRepository) ByStatus(_ context.Context, status string) ([]Invitation, error) {
	return r.filter(func(inv Invitation) bool { return inv.Status == status }), nil
}

func (r *memoryRepository) ByAccount(_ context.Context, accountID string) ([]Invitation, error) {
	return r.filter(func(inv Invitation) bool { return inv.AccountID == accountID }), nil
}

// filter returns matches newest first.
func (r *memoryRepository) filter(keep func(Invitation) bool) []Invitation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Invitation
	for _, inv := range r.invitations {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
