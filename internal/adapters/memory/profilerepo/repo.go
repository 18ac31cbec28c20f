package profilerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
)

// Repo is an in-memory implementation of profilerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID     map[domain.ProfileID]domain.Profile
	idByUser map[domain.UserID]domain.ProfileID
	idBySlug map[string]domain.ProfileID
}

func NewRepo() *Repo {
	return &Repo{
		byID:     make(map[domain.ProfileID]domain.Profile),
		idByUser: make(map[domain.UserID]domain.ProfileID),
		idBySlug: make(map[string]domain.ProfileID),
	}
}

func (r *Repo) Create(ctx context.Context, p domain.Profile) error {
	_ = ctx
	if p.ID == "" {
		return profilerepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	if _, ok := r.idByUser[p.UserID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	if _, ok := r.idBySlug[p.Slug]; ok && p.Slug != "" {
		return profilerepo.ErrSlugTaken
	}

	r.byID[p.ID] = cloneProfile(p)
	r.idByUser[p.UserID] = p.ID
	if p.Slug != "" {
		r.idBySlug[p.Slug] = p.ID
	}
	return nil
}

func (r *Repo) SaveDraft(ctx context.Context, u profilerepo.DraftUpdate) (domain.Profile, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[u.ID]
	if !ok {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	if p.Status != domain.ProfileStatusDraft && p.Status != domain.ProfileStatusRejected {
		return domain.Profile{}, profilerepo.ErrLocked
	}
	if owner, ok := r.idBySlug[u.Slug]; ok && owner != u.ID && u.Slug != "" {
		return domain.Profile{}, profilerepo.ErrSlugTaken
	}

	delete(r.idBySlug, p.Slug)
	if u.Slug != "" {
		r.idBySlug[u.Slug] = u.ID
	}
	p.Tier = u.Tier
	p.Content = append([]byte(nil), u.Content...)
	p.Slug = u.Slug
	p.Status = domain.ProfileStatusDraft
	p.UpdatedAt = u.UpdatedAt
	r.byID[u.ID] = p
	return cloneProfile(p), nil
}

func (r *Repo) MarkPaymentPending(ctx context.Context, id domain.ProfileID, at time.Time) (domain.Profile, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	if p.PaymentStatus == domain.PaymentStatusUnpaid {
		p.PaymentStatus = domain.PaymentStatusPending
		p.UpdatedAt = at
		r.byID[id] = p
	}
	return cloneProfile(p), nil
}

func (r *Repo) PublishPaid(ctx context.Context, id domain.ProfileID, tier domain.Tier, at time.Time) (domain.Profile, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	p.PaymentStatus = domain.PaymentStatusPaid
	p.Tier = tier
	p.Status = domain.ProfileStatusPublished
	if p.PublishedAt == nil {
		t := at
		p.PublishedAt = &t
	}
	p.UpdatedAt = at
	r.byID[id] = p
	return cloneProfile(p), nil
}

// Put stores p as is, replacing any profile with the same ID.
func (r *Repo) Put(p domain.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[p.ID]; ok {
		delete(r.idBySlug, existing.Slug)
		delete(r.idByUser, existing.UserID)
	}
	r.byID[p.ID] = cloneProfile(p)
	r.idByUser[p.UserID] = p.ID
	if p.Slug != "" {
		r.idBySlug[p.Slug] = p.ID
	}
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (r *Repo) GetByUserID(ctx context.Context, userID domain.UserID) (domain.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByUser[userID]
	if !ok {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	return cloneProfile(r.byID[id]), nil
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (domain.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idBySlug[slug]
	if !ok || slug == "" {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	return cloneProfile(r.byID[id]), nil
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.ProfileStatus, limit int) ([]domain.Profile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Profile, 0)
	for _, p := range r.byID {
		if p.Status == status {
			out = append(out, cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneProfile(p domain.Profile) domain.Profile {
	out := p
	if p.Content != nil {
		out.Content = append([]byte(nil), p.Content...)
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		out.PublishedAt = &t
	}
	return out
}
