package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	memclock "github.com/legacy-registry/profile-api/internal/adapters/memory/clock"
	"github.com/legacy-registry/profile-api/internal/domain"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	idempotencyport "github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
	nominationrepoport "github.com/legacy-registry/profile-api/internal/ports/out/nominationrepo"
	orderrepoport "github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
	profilerepoport "github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
	userrepoport "github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type ProfileRepoFactory func(t *testing.T) (profilerepoport.Repository, userrepoport.Repository, CleanupFunc)
type NominationRepoFactory func(t *testing.T) (nominationrepoport.Repository, CleanupFunc)
type OrderRepoFactory func(t *testing.T) (orderrepoport.Repository, profilerepoport.Repository, userrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T, clk clockport.Clock) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clk := memclock.NewManualClock(now)
	store, cleanup := newStore(t, clk)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Subject:  domain.SubjectID("sub-1"),
		Method:   "POST",
		Route:    "/api/payment/create-order",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"orderId":"order_1"}`),
		CreatedAt:   now,
		ExpiresAt:   now.Add(idempotencyport.ReplayWindow),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"orderId":"order_1"}` || got.ContentType != "application/json" || got.StatusCode != 200 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"orderId":"order_2"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"orderId":"order_2"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A different body hash is a different fingerprint.
	other := fp
	other.BodyHash = "different"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("expected miss for different fingerprint: ok=%v err=%v", ok, err)
	}

	// Past the replay window the record is a miss.
	clk.Advance(idempotencyport.ReplayWindow)
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("expected miss after expiry: ok=%v err=%v", ok, err)
	}

	// A record without an expiry stays.
	pinned := fp
	pinned.Key = idempotencyport.Key("k-" + uuid.NewString())
	if err := store.Put(ctx, pinned, idempotencyport.Record{StatusCode: 0, ContentType: "text/plain", Body: []byte("hash"), CreatedAt: clk.Now()}); err != nil {
		t.Fatalf("Put pinned: %v", err)
	}
	clk.Advance(10 * idempotencyport.ReplayWindow)
	if _, ok, err := store.Get(ctx, pinned); err != nil || !ok {
		t.Fatalf("expected pinned record: ok=%v err=%v", ok, err)
	}

	// Only the first reservation wins until it expires or is deleted.
	reserved := fp
	reserved.Key = idempotencyport.Key("k-" + uuid.NewString())
	reserved.BodyHash = "hash"
	pending := idempotencyport.Record{CreatedAt: clk.Now(), ExpiresAt: clk.Now().Add(idempotencyport.ReservationWindow)}
	if ok, err := store.PutIfAbsent(ctx, reserved, pending); err != nil || !ok {
		t.Fatalf("PutIfAbsent first: ok=%v err=%v", ok, err)
	}
	if ok, err := store.PutIfAbsent(ctx, reserved, pending); err != nil || ok {
		t.Fatalf("PutIfAbsent second: ok=%v err=%v", ok, err)
	}
	got, ok, err = store.Get(ctx, reserved)
	if err != nil || !ok || !got.Pending() {
		t.Fatalf("expected pending record: %+v ok=%v err=%v", got, ok, err)
	}
	if err := store.Delete(ctx, reserved); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, reserved); err != nil || ok {
		t.Fatalf("expected miss after Delete: ok=%v err=%v", ok, err)
	}
	if err := store.Delete(ctx, reserved); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}

	pending = idempotencyport.Record{CreatedAt: clk.Now(), ExpiresAt: clk.Now().Add(idempotencyport.ReservationWindow)}
	if ok, err := store.PutIfAbsent(ctx, reserved, pending); err != nil || !ok {
		t.Fatalf("PutIfAbsent after Delete: ok=%v err=%v", ok, err)
	}
	clk.Advance(idempotencyport.ReservationWindow)
	done := rec
	done.CreatedAt = clk.Now()
	done.ExpiresAt = clk.Now().Add(idempotencyport.ReplayWindow)
	if ok, err := store.PutIfAbsent(ctx, reserved, done); err != nil || !ok {
		t.Fatalf("PutIfAbsent over expired reservation: ok=%v err=%v", ok, err)
	}
	got, ok, err = store.Get(ctx, reserved)
	if err != nil || !ok || got.Pending() || string(got.Body) != `{"orderId":"order_1"}` {
		t.Fatalf("expected replaced record: %+v ok=%v err=%v", got, ok, err)
	}
}

func newUser(now time.Time) domain.User {
	return domain.User{
		ID:          domain.UserID(uuid.NewString()),
		Subject:     domain.SubjectID("sub-" + uuid.NewString()),
		Email:       "someone@example.com",
		DisplayName: "Someone",
		Role:        domain.RoleVisitor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	a := newUser(now)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if got, err := repo.GetByID(ctx, a.ID); err != nil || got.Subject != a.Subject || got.Role != domain.RoleVisitor {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
	if got, err := repo.GetBySubject(ctx, a.Subject); err != nil || got.ID != a.ID {
		t.Fatalf("GetBySubject: got=%+v err=%v", got, err)
	}

	// Subject uniqueness.
	dup := newUser(now)
	dup.Subject = a.Subject
	if err := repo.Create(ctx, dup); !errors.Is(err, userrepoport.ErrSubjectAlreadyBound) {
		t.Fatalf("expected ErrSubjectAlreadyBound, got %v", err)
	}

	// Update.
	a.Role = domain.RoleMember
	a.DisplayName = "Someone Else"
	a.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByID(ctx, a.ID)
	if err != nil || got.Role != domain.RoleMember || got.DisplayName != "Someone Else" {
		t.Fatalf("after Update: got=%+v err=%v", got, err)
	}

	missing := newUser(now)
	if err := repo.Update(ctx, missing); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on Update, got %v", err)
	}
	if _, err := repo.GetBySubject(ctx, missing.Subject); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func newProfile(userID domain.UserID, now time.Time) domain.Profile {
	return domain.Profile{
		ID:            domain.ProfileID(uuid.NewString()),
		UserID:        userID,
		Tier:          domain.TierElite,
		Content:       json.RawMessage(`{"name":"Jane Doe"}`),
		Slug:          "jane-doe-" + uuid.NewString(),
		Status:        domain.ProfileStatusDraft,
		PaymentStatus: domain.PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func RunProfileRepo(t *testing.T, newRepo ProfileRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, users, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(2000, 0).UTC()
	ua, ub := newUser(now), newUser(now)
	for _, u := range []domain.User{ua, ub} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("Create user: %v", err)
		}
	}

	pa := newProfile(ua.ID, now)
	if err := repo.Create(ctx, pa); err != nil {
		t.Fatalf("Create profile: %v", err)
	}

	// One profile per user.
	if err := repo.Create(ctx, newProfile(ua.ID, now)); !errors.Is(err, profilerepoport.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for second profile, got %v", err)
	}

	// Slug uniqueness across users.
	pb := newProfile(ub.ID, now)
	pb.Slug = pa.Slug
	if err := repo.Create(ctx, pb); !errors.Is(err, profilerepoport.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken on Create, got %v", err)
	}
	pb.Slug = "other-" + uuid.NewString()
	if err := repo.Create(ctx, pb); err != nil {
		t.Fatalf("Create pb: %v", err)
	}
	if _, err := repo.SaveDraft(ctx, profilerepoport.DraftUpdate{ID: pb.ID, Tier: pb.Tier, Content: pb.Content, Slug: pa.Slug, UpdatedAt: now}); !errors.Is(err, profilerepoport.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken on SaveDraft, got %v", err)
	}

	// Lookups.
	if got, err := repo.GetByUserID(ctx, ua.ID); err != nil || got.ID != pa.ID {
		t.Fatalf("GetByUserID: got=%+v err=%v", got, err)
	}
	if got, err := repo.GetBySlug(ctx, pa.Slug); err != nil || got.ID != pa.ID {
		t.Fatalf("GetBySlug: got=%+v err=%v", got, err)
	}

	// Payment state survives a later draft edit.
	pending, err := repo.MarkPaymentPending(ctx, pa.ID, now.Add(time.Minute))
	if err != nil || pending.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("MarkPaymentPending: got=%+v err=%v", pending, err)
	}
	oldSlug := pa.Slug
	edited := profilerepoport.DraftUpdate{
		ID:        pa.ID,
		Tier:      domain.TierLegacy,
		Content:   json.RawMessage(`{"name":"Jane Q Doe"}`),
		Slug:      "jane-doe-" + uuid.NewString(),
		UpdatedAt: now.Add(2 * time.Minute),
	}
	got, err := repo.SaveDraft(ctx, edited)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if got.PaymentStatus != domain.PaymentStatusPending || got.Tier != domain.TierLegacy || got.Slug != edited.Slug ||
		got.Status != domain.ProfileStatusDraft || got.UserID != ua.ID {
		t.Fatalf("unexpected draft: %+v", got)
	}
	if _, err := repo.GetBySlug(ctx, oldSlug); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("expected old slug to be released, got %v", err)
	}

	// Publishing locks the profile and sets PublishedAt once.
	published := now.Add(time.Hour)
	got, err = repo.PublishPaid(ctx, pa.ID, domain.TierElite, published)
	if err != nil {
		t.Fatalf("PublishPaid: %v", err)
	}
	if got.Status != domain.ProfileStatusPublished || got.PaymentStatus != domain.PaymentStatusPaid ||
		got.Tier != domain.TierElite || got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Fatalf("unexpected published profile: %+v", got)
	}
	again, err := repo.PublishPaid(ctx, pa.ID, domain.TierElite, published.Add(time.Hour))
	if err != nil || again.PublishedAt == nil || !again.PublishedAt.Equal(published) {
		t.Fatalf("PublishPaid again: got=%+v err=%v", again, err)
	}
	if p, err := repo.MarkPaymentPending(ctx, pa.ID, published); err != nil || p.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("MarkPaymentPending after paid: got=%+v err=%v", p, err)
	}
	edited.UpdatedAt = published.Add(2 * time.Hour)
	if _, err := repo.SaveDraft(ctx, edited); !errors.Is(err, profilerepoport.ErrLocked) {
		t.Fatalf("expected ErrLocked on SaveDraft of published profile, got %v", err)
	}

	got, err = repo.GetBySlug(ctx, edited.Slug)
	if err != nil {
		t.Fatalf("GetBySlug new: %v", err)
	}
	if got.Status != domain.ProfileStatusPublished {
		t.Fatalf("published profile reverted: %+v", got)
	}
	var c struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(got.Content, &c); err != nil || c.Name != "Jane Q Doe" {
		t.Fatalf("content round trip: %s err=%v", string(got.Content), err)
	}

	list, err := repo.ListByStatus(ctx, domain.ProfileStatusPublished, 0)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	found := false
	for _, p := range list {
		if p.ID == pa.ID {
			found = true
		}
		if p.Status != domain.ProfileStatusPublished {
			t.Fatalf("ListByStatus returned %s profile", p.Status)
		}
	}
	if !found {
		t.Fatalf("expected published profile in list")
	}

	unknown := domain.ProfileID(uuid.NewString())
	if _, err := repo.SaveDraft(ctx, profilerepoport.DraftUpdate{ID: unknown, UpdatedAt: now}); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on SaveDraft of unknown profile, got %v", err)
	}
	if _, err := repo.PublishPaid(ctx, unknown, domain.TierElite, now); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on PublishPaid of unknown profile, got %v", err)
	}
	if _, err := repo.MarkPaymentPending(ctx, unknown, now); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on MarkPaymentPending of unknown profile, got %v", err)
	}
}

func RunNominationRepo(t *testing.T, newRepo NominationRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(3000, 0).UTC()
	email := "nominator@example.com"
	n := domain.Nomination{
		ID:            domain.NominationID(uuid.NewString()),
		Nominator:     domain.Person{Name: "Nora Nominator", Email: &email},
		Nominee:       domain.Person{Name: "Ned Nominee"},
		Pitch:         "An extraordinary career in public service spanning four decades.",
		Links:         []string{"https://example.com/ned"},
		SuggestedTier: domain.TierDistinguished,
		Status:        domain.NominationStatusPending,
		CreatedAt:     now,
	}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, n); !errors.Is(err, nominationrepoport.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.GetByID(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Nominee.Email != nil || got.Nominator.Email == nil || *got.Nominator.Email != email {
		t.Fatalf("unexpected emails: %+v", got)
	}
	if len(got.Links) != 1 || got.SuggestedTier != domain.TierDistinguished {
		t.Fatalf("unexpected nomination: %+v", got)
	}

	pending, err := repo.ListByStatus(ctx, domain.NominationStatusPending)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	found := false
	for _, p := range pending {
		if p.ID == n.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected nomination in pending list")
	}

	if _, err := repo.GetByID(ctx, domain.NominationID(uuid.NewString())); !errors.Is(err, nominationrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func RunOrderRepo(t *testing.T, newRepo OrderRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, profiles, users, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(4000, 0).UTC()
	u := newUser(now)
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	p := newProfile(u.ID, now)
	if err := profiles.Create(ctx, p); err != nil {
		t.Fatalf("Create profile: %v", err)
	}

	o := orderrepoport.Order{
		ID:          domain.OrderID("order_" + uuid.NewString()),
		ProfileID:   p.ID,
		UserID:      u.ID,
		Tier:        domain.TierElite,
		AmountMinor: 1499900,
		Currency:    "INR",
		Receipt:     "rcpt_1",
		Status:      orderrepoport.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, o); !errors.Is(err, orderrepoport.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Last write wins.
	paymentID := "pay_1"
	o.Status = orderrepoport.StatusPaid
	o.PaymentID = &paymentID
	o.UpdatedAt = now.Add(time.Minute)
	if err := repo.Upsert(ctx, o); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := repo.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != orderrepoport.StatusPaid || got.PaymentID == nil || *got.PaymentID != paymentID || got.AmountMinor != 1499900 {
		t.Fatalf("unexpected order: %+v", got)
	}

	second := o
	second.ID = domain.OrderID("order_" + uuid.NewString())
	second.Status = orderrepoport.StatusFailed
	second.PaymentID = nil
	second.CreatedAt = now.Add(time.Hour)
	second.UpdatedAt = second.CreatedAt
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	list, err := repo.ListByProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByProfile: %v", err)
	}
	if len(list) != 2 || list[0].ID != o.ID || list[1].ID != second.ID {
		t.Fatalf("unexpected list ordering: %#v", list)
	}

	if _, err := repo.Get(ctx, domain.OrderID("order_missing_"+uuid.NewString())); !errors.Is(err, orderrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
