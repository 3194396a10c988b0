package loan

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu           sync.RWMutex
	products     map[string]Product
	applications map[string]Application
	invitations  map[string]Invitation
	contracts    map[string]Contract
	repayments   map[string]Repayment
}

// NewMemoryRepository constructs an in-memory repository seeded with products.
func NewMemoryRepository(products ...Product) Repository {
	r := &memoryRepository{
		products:     make(map[string]Product),
		applications: make(map[string]Application),
		invitations:  make(map[string]Invitation),
		contracts:    make(map[string]Contract),
		repayments:   make(map[string]Repayment),
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

func (r *memoryRepository) SaveApplication(_ context.Context, app Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applications[app.ID] = app
	return nil
}

func (r *memoryRepository) GetApplication(_ context.Context, id string) (Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.applications[id]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	return app, nil
}

func (r *memoryRepository) ApplicationsByUser(_ context.Context, userID string) ([]Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Application
	for _, app := range r.applications {
		if app.UserID == userID {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *memoryRepository) SaveInvitation(_ context.Context, inv Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invitations[inv.ID] = inv
	return nil
}

func (r *memoryRepository) GetInvitation(_ context.Context, id string) (Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invitations[id]
	if !ok {
		return Invitation{}, ErrInvitationNotFound
	}
	return inv, nil
}

func (r *memoryRepository) Invitations(_ context.Context, filter InvitationFilter) ([]Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Invitation
	for _, inv := range r.invitations {
		if filter.ApplicationID != "" && inv.ApplicationID != filter.ApplicationID {
			continue
		}
		if filter.InviterID != "" && inv.InviterID != filter.InviterID {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) CreateContract(_ context.Context, c Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[c.ID] = c
	return nil
}

func (r *memoryRepository) GetContract(_ context.Context, id string) (Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[id]
	if !ok {
		return Contract{}, ErrContractNotFound
	}
	return c, nil
}

func (r *memoryRepository) Contracts(_ context.Context, userID, status string) ([]Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Contract
	for _, c := range r.contracts {
		if (userID == "" || c.UserID == userID) && (status == "" || c.Status == status) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) SaveRepayments(_ context.Context, repayments []Repayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rp := range repayments {
		r.repayments[rp.ID] = rp
	}
	return nil
}

func (r *memoryRepository) UpdateRepayment(_ context.Context, rp Repayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.repayments[rp.ID]; !ok {
		return ErrRepaymentNotFound
	}
	r.repayments[rp.ID] = rp
	return nil
}

func (r *memoryRepository) Repayments(_ context.Context, loanID string) ([]Repayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Repayment
	for _, rp := range r.repayments {
		if rp.LoanID == loanID {
			out = append(out, rp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}
