package profilerepo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
)

func TestRepo_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRepo()

	published := time.Unix(10, 0).UTC()
	p := domain.Profile{
		ID:          "p1",
		UserID:      "u1",
		Slug:        "jane-doe-1",
		Content:     json.RawMessage(`{"name":"Jane Doe"}`),
		PublishedAt: &published,
	}
	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("Create() err=%v", err)
	}
	p.Content[2] = 'X'

	got, err := r.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID() err=%v", err)
	}
	if string(got.Content) != `{"name":"Jane Doe"}` {
		t.Fatalf("stored content mutated: %s", string(got.Content))
	}
	*got.PublishedAt = time.Unix(99, 0)

	again, _ := r.GetByID(ctx, "p1")
	if !again.PublishedAt.Equal(published) {
		t.Fatalf("PublishedAt mutated through returned pointer: %v", again.PublishedAt)
	}
}

func TestRepo_SaveDraftMovesSlugIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRepo()

	if err := r.Create(ctx, domain.Profile{ID: "p1", UserID: "u1", Slug: "a", Status: domain.ProfileStatusDraft}); err != nil {
		t.Fatalf("Create() err=%v", err)
	}
	if _, err := r.SaveDraft(ctx, profilerepo.DraftUpdate{ID: "p1", Slug: "b"}); err != nil {
		t.Fatalf("SaveDraft() err=%v", err)
	}
	if _, err := r.GetBySlug(ctx, "a"); !errors.Is(err, profilerepo.ErrNotFound) {
		t.Fatalf("GetBySlug(old) err=%v", err)
	}
	got, err := r.GetByUserID(ctx, "u1")
	if err != nil || got.Slug != "b" {
		t.Fatalf("GetByUserID()=%+v err=%v", got, err)
	}
}

func TestRepo_PutReplacesIndexes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRepo()

	r.Put(domain.Profile{ID: "p1", UserID: "u1", Slug: "a"})
	r.Put(domain.Profile{ID: "p1", UserID: "u1", Slug: "b", Status: domain.ProfileStatusPublished})

	if _, err := r.GetBySlug(ctx, "a"); !errors.Is(err, profilerepo.ErrNotFound) {
		t.Fatalf("GetBySlug(old) err=%v", err)
	}
	got, err := r.GetBySlug(ctx, "b")
	if err != nil || got.Status != domain.ProfileStatusPublished {
		t.Fatalf("GetBySlug()=%+v err=%v", got, err)
	}
}
