package nominationrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/nominationrepo"
)

// Repo is an in-memory implementation of nominationrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.NominationID]domain.Nomination
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.NominationID]domain.Nomination)}
}

func (r *Repo) Create(ctx context.Context, n domain.Nomination) error {
	_ = ctx
	if n.ID == "" {
		return nominationrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[n.ID]; ok {
		return nominationrepo.ErrAlreadyExists
	}
	r.byID[n.ID] = cloneNomination(n)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.NominationID) (domain.Nomination, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return domain.Nomination{}, nominationrepo.ErrNotFound
	}
	return cloneNomination(n), nil
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.NominationStatus) ([]domain.Nomination, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Nomination, 0)
	for _, n := range r.byID {
		if n.Status == status {
			out = append(out, cloneNomination(n))
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

func cloneNomination(n domain.Nomination) domain.Nomination {
	out := n
	out.Links = append([]string(nil), n.Links...)
	if n.Nominator.Email != nil {
		v := *n.Nominator.Email
		out.Nominator.Email = &v
	}
	if n.Nominee.Email != nil {
		v := *n.Nominee.Email
		out.Nominee.Email = &v
	}
	return out
}
