package couple

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	invites map[string]Invite
	couples map[string]Couple
}

// NewMemoryRepository returns an in-memory couple store.
func NewMemoryRepository() Repository {
	return &memoryRepository{invites: make(map[string]Invite), couples: make(map[string]Couple)}
}

func (r *memoryRepository) CreateInvite(_ context.Context, inv Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invites[inv.ID] = inv
	return nil
}

func (r *memoryRepository) InviteByToken(_ context.Context, token string) (Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return Invite{}, ErrInviteNotFound
}

func (r *memoryRepository) UpdateInviteStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[id]
	if !ok {
		return ErrInviteNotFound
	}
	inv.Status = status
	r.invites[id] = inv
	return nil
}

func (r *memoryRepository) PendingInvites(_ context.Context, inviterID string) ([]Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Invite
	for _, inv := range r.invites {
		if inv.InviterID == inviterID && inv.Status == InvitePending {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) CreateCouple(_ context.Context, c Couple) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.couples {
		if existing.Status != StatusActive {
			continue
		}
		if member(existing, c.UserID1) || member(existing, c.UserID2) {
			return ErrAlreadyCoupled
		}
	}
	r.couples[c.ID] = c
	return nil
}

func (r *memoryRepository) ActiveCouple(_ context.Context, userID string) (Couple, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.couples {
		if c.Status == StatusActive && member(c, userID) {
			return c, nil
		}
	}
	return Couple{}, ErrNoCouple
}

func member(c Couple, userID string) bool {
	return c.UserID1 == userID || c.UserID2 == userID
}
