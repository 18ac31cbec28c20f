package orderrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
)

// Repo is an in-memory implementation of orderrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex
	m  map[domain.OrderID]orderrepo.Order
}

func NewRepo() *Repo {
	return &Repo{m: make(map[domain.OrderID]orderrepo.Order)}
}

func (r *Repo) Create(ctx context.Context, o orderrepo.Order) error {
	_ = ctx
	if o.ID == "" {
		return orderrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[o.ID]; ok {
		return orderrepo.ErrAlreadyExists
	}
	r.m[o.ID] = cloneOrder(o)
	return nil
}

func (r *Repo) Get(ctx context.Context, id domain.OrderID) (orderrepo.Order, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[id]
	if !ok {
		return orderrepo.Order{}, orderrepo.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *Repo) Upsert(ctx context.Context, o orderrepo.Order) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[o.ID] = cloneOrder(o)
	return nil
}

func (r *Repo) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]orderrepo.Order, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]orderrepo.Order, 0)
	for _, o := range r.m {
		if o.ProfileID == profileID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneOrder(o orderrepo.Order) orderrepo.Order {
	out := o
	if o.PaymentID != nil {
		v := *o.PaymentID
		out.PaymentID = &v
	}
	return out
}
