package savings

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
	savings  map[string]UserSavings
	payments map[string]Payment
}

// NewMemoryRepository constructs an in-memory repository seeded with products.
func NewMemoryRepository(products ...Product) Repository {
	r := &memoryRepository{
		products: make(map[string]Product),
		savings:  make(map[string]UserSavings),
		payments: make(map[string]Payment),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memoryRepository) ListProducts(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepository) GetProduct(_ context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *memoryRepository) CreateSavings(_ context.Context, s UserSavings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.savings {
		if existing.UserID == s.UserID && existing.AccountID == s.AccountID {
			return ErrAlreadyJoined
		}
	}
	r.savings[s.ID] = s
	return nil
}

func (r *memoryRepository) SavingsByUser(_ context.Context, userID string) ([]UserSavings, error) {
	return r.filterSavings(func(s UserSavings) bool { return s.UserID == userID }), nil
}

func (r *memoryRepository) SavingsByAccount(_ context.Context, accountID string) ([]UserSavings, error) {
	return r.filterSavings(func(s UserSavings) bool { return s.AccountID == accountID }), nil
}

func (r *memoryRepository) filterSavings(keep func(UserSavings) bool) []UserSavings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []UserSavings
	for _, s := range r.savings {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memoryRepository) SavePayments(_ context.Context, payments []Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range payments {
		r.payments[p.ID] = p
	}
	return nil
}

func (r *memoryRepository) UpdatePayment(_ context.Context, p Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; !ok {
		return ErrPaymentNotFound
	}
	r.payments[p.ID] = p
	return nil
}

func (r *memoryRepository) Payments(_ context.Context, accountID, userID string) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Payment
	for _, p := range r.payments {
		if p.AccountID == accountID && (userID == "" || p.UserID == userID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}
