package payments

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	memclock "github.com/legacy-registry/profile-api/internal/adapters/memory/clock"
	memorderrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/orderrepo"
	mempaymentgateway "github.com/legacy-registry/profile-api/internal/adapters/memory/paymentgateway"
	memprofilerepo "github.com/legacy-registry/profile-api/internal/adapters/memory/profilerepo"
	memuserrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/userrepo"
	"github.com/legacy-registry/profile-api/internal/app/profiles"
	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
	"github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
)

type fixture struct {
	svc      *Service
	profiles *profiles.Service
	profRepo *memprofilerepo.Repo
	orders   *memorderrepo.Repo
	gateway  *mempaymentgateway.Gateway
	clk      *memclock.ManualClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWithRepo(t, nil)
}

// newFixtureWithRepo builds a fixture whose payment service writes profiles through
// wrap(profRepo) when wrap is non-nil.
func newFixtureWithRepo(t *testing.T, wrap func(profilerepo.Repository) profilerepo.Repository) fixture {
	t.Helper()
	clk := memclock.NewManualClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	profRepo := memprofilerepo.NewRepo()
	orders := memorderrepo.NewRepo()
	us := users.NewService(memuserrepo.NewRepo(), clk)
	ps := profiles.NewService(profRepo, us, content.NewValidator(clk), clk, profiles.Config{})
	gw := mempaymentgateway.NewGateway("rzp_test_key", "secret")
	var repo profilerepo.Repository = profRepo
	if wrap != nil {
		repo = wrap(profRepo)
	}
	svc := NewService(repo, orders, us, ps, gw, clk, Config{})
	svc.SetNewReceiptForTest(func() string { return "rcpt_test" })
	return fixture{svc: svc, profiles: ps, profRepo: profRepo, orders: orders, gateway: gw, clk: clk}
}

func (f fixture) draft(t *testing.T, subject domain.SubjectID) domain.Profile {
	t.Helper()
	b, _ := json.Marshal(map[string]any{"name": "Jane Doe"})
	res, err := f.profiles.SaveDraft(context.Background(), subject, profiles.SaveDraftInput{Content: b, Tier: "rising"})
	if err != nil {
		t.Fatalf("SaveDraft err=%v", err)
	}
	return res.Profile
}

func asError(t *testing.T, err error) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) {
		t.Fatalf("err=%v (type=%T), want *Error", err, err)
	}
	return ae
}

func TestService_CreateOrder_ConvertsPriceToMinorUnits(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.draft(t, "sub-1")

	res, err := f.svc.CreateOrder(context.Background(), "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "elite"})
	if err != nil {
		t.Fatalf("CreateOrder err=%v", err)
	}
	if res.AmountMinor != 1499900 || res.Currency != "INR" || res.Receipt != "rcpt_test" || res.KeyID != "rzp_test_key" {
		t.Fatalf("CreateOrder()=%+v", res)
	}

	o, err := f.orders.Get(context.Background(), res.OrderID)
	if err != nil {
		t.Fatalf("orders.Get err=%v", err)
	}
	if o.Status != orderrepo.StatusCreated || o.Tier != domain.TierElite || o.ProfileID != p.ID {
		t.Fatalf("order=%+v", o)
	}

	got, _ := f.profRepo.GetByID(context.Background(), p.ID)
	if got.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("payment status=%q, want pending", got.PaymentStatus)
	}

	reqs := f.gateway.Requests()
	if len(reqs) != 1 || reqs[0].Notes["tier"] != "elite" || reqs[0].Notes["profile_id"] != string(p.ID) {
		t.Fatalf("gateway requests=%+v", reqs)
	}
}

func TestService_CreateOrder_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.draft(t, "sub-1")
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "gold"})
	if ae := asError(t, err); ae.Status != 422 {
		t.Fatalf("tier err=%+v", ae)
	}

	_, err = f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: "missing", Tier: "elite"})
	if ae := asError(t, err); ae.Status != 404 || ae.Code != "PROFILE_NOT_FOUND" {
		t.Fatalf("missing profile err=%+v", ae)
	}

	_, err = f.svc.CreateOrder(ctx, "sub-2", CreateOrderInput{ProfileID: p.ID, Tier: "elite"})
	if ae := asError(t, err); ae.Code != "PROFILE_NOT_FOUND" {
		t.Fatalf("foreign profile err=%+v", ae)
	}

	f.gateway.SetFailing(true)
	_, err = f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "elite"})
	if ae := asError(t, err); ae.Status != 502 || ae.Code != "PAYMENT_ORDER_FAILED" {
		t.Fatalf("gateway err=%+v", ae)
	}
}

func TestService_Verify_PublishesAtOrderTier(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.draft(t, "sub-1")
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "elite"})
	if err != nil {
		t.Fatalf("CreateOrder err=%v", err)
	}
	in := VerifyInput{
		OrderID:   string(order.OrderID),
		PaymentID: "pay_1",
		Signature: f.gateway.Sign(string(order.OrderID), "pay_1"),
	}

	res, err := f.svc.Verify(ctx, "sub-1", in)
	if err != nil {
		t.Fatalf("Verify err=%v", err)
	}
	if !res.Success || res.Slug != p.Slug || res.RedirectURL != "/profile/"+p.Slug {
		t.Fatalf("Verify()=%+v", res)
	}

	got, _ := f.profRepo.GetByID(ctx, p.ID)
	if got.PaymentStatus != domain.PaymentStatusPaid || got.Status != domain.ProfileStatusPublished ||
		got.Tier != domain.TierElite || got.PublishedAt == nil {
		t.Fatalf("profile=%+v", got)
	}
	o, _ := f.orders.Get(ctx, order.OrderID)
	if o.Status != orderrepo.StatusPaid || o.PaymentID == nil || *o.PaymentID != "pay_1" {
		t.Fatalf("order=%+v", o)
	}

	// Replaying the callback is a no-op success.
	f.clk.Advance(time.Hour)
	again, err := f.svc.Verify(ctx, "sub-1", in)
	if err != nil || !again.Success {
		t.Fatalf("replay Verify()=%+v err=%v", again, err)
	}
	replayed, _ := f.profRepo.GetByID(ctx, p.ID)
	if !replayed.PublishedAt.Equal(*got.PublishedAt) {
		t.Fatalf("published_at moved on replay")
	}

	_, err = f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "legacy"})
	if ae := asError(t, err); ae.Status != 409 || ae.Code != "ALREADY_PAID" {
		t.Fatalf("paid err=%+v", ae)
	}
}

// failingPublishRepo fails the first n PublishPaid calls.
type failingPublishRepo struct {
	profilerepo.Repository
	n atomic.Int32
}

func (r *failingPublishRepo) PublishPaid(ctx context.Context, id domain.ProfileID, tier domain.Tier, at time.Time) (domain.Profile, error) {
	if r.n.Add(-1) >= 0 {
		return domain.Profile{}, errors.New("connection reset")
	}
	return r.Repository.PublishPaid(ctx, id, tier, at)
}

func TestService_Verify_ProfileWriteFailureLeavesOrderRetryable(t *testing.T) {
	t.Parallel()
	f := newFixtureWithRepo(t, func(r profilerepo.Repository) profilerepo.Repository {
		fr := &failingPublishRepo{Repository: r}
		fr.n.Store(1)
		return fr
	})
	p := f.draft(t, "sub-1")
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "elite"})
	if err != nil {
		t.Fatalf("CreateOrder err=%v", err)
	}
	in := VerifyInput{
		OrderID:   string(order.OrderID),
		PaymentID: "pay_1",
		Signature: f.gateway.Sign(string(order.OrderID), "pay_1"),
	}

	if _, err := f.svc.Verify(ctx, "sub-1", in); err == nil {
		t.Fatalf("Verify err=nil, want profile write failure")
	}
	o, _ := f.orders.Get(ctx, order.OrderID)
	if o.Status == orderrepo.StatusPaid {
		t.Fatalf("order marked paid although the profile was not published")
	}

	res, err := f.svc.Verify(ctx, "sub-1", in)
	if err != nil || !res.Success {
		t.Fatalf("retry Verify()=%+v err=%v", res, err)
	}
	if _, err := f.profiles.GetPublished(ctx, p.Slug); err != nil {
		t.Fatalf("GetPublished err=%v", err)
	}
	o, _ = f.orders.Get(ctx, order.OrderID)
	if o.Status != orderrepo.StatusPaid {
		t.Fatalf("order status=%q, want paid", o.Status)
	}
}

func TestService_Verify_PaidOrderRepublishesProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.draft(t, "sub-1")
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "legacy"})
	if err != nil {
		t.Fatalf("CreateOrder err=%v", err)
	}
	// An order recorded as paid whose profile write never landed.
	o, _ := f.orders.Get(ctx, order.OrderID)
	paymentID := "pay_1"
	o.Status = orderrepo.StatusPaid
	o.PaymentID = &paymentID
	if err := f.orders.Upsert(ctx, o); err != nil {
		t.Fatalf("Upsert err=%v", err)
	}

	res, err := f.svc.Verify(ctx, "sub-1", VerifyInput{
		OrderID:   string(order.OrderID),
		PaymentID: paymentID,
		Signature: f.gateway.Sign(string(order.OrderID), paymentID),
	})
	if err != nil || !res.Success {
		t.Fatalf("Verify()=%+v err=%v", res, err)
	}
	got, _ := f.profRepo.GetByID(ctx, p.ID)
	if !got.IsPublished() || got.PaymentStatus != domain.PaymentStatusPaid || got.Tier != domain.TierLegacy {
		t.Fatalf("profile=%+v", got)
	}
}

func TestService_Verify_BadSignatureMarksOrderFailed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.draft(t, "sub-1")
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "rising"})
	if err != nil {
		t.Fatalf("CreateOrder err=%v", err)
	}
	_, err = f.svc.Verify(ctx, "sub-1", VerifyInput{OrderID: string(order.OrderID), PaymentID: "pay_1", Signature: "deadbeef"})
	if ae := asError(t, err); ae.Status != 400 || ae.Code != "PAYMENT_VERIFICATION_FAILED" {
		t.Fatalf("verify err=%+v", ae)
	}

	o, _ := f.orders.Get(ctx, order.OrderID)
	if o.Status != orderrepo.StatusFailed {
		t.Fatalf("order status=%q, want failed", o.Status)
	}
	got, _ := f.profRepo.GetByID(ctx, p.ID)
	if got.IsPublished() || got.PaymentStatus == domain.PaymentStatusPaid {
		t.Fatalf("profile=%+v", got)
	}
}

func TestService_Verify_InputAndOwnership(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.draft(t, "sub-1")
	ctx := context.Background()

	_, err := f.svc.Verify(ctx, "sub-1", VerifyInput{OrderID: "order_x"})
	ae := asError(t, err)
	if ae.Status != 422 || ae.Details["razorpay_payment_id"] == nil || ae.Details["razorpay_signature"] == nil {
		t.Fatalf("validation err=%+v", ae)
	}

	_, err = f.svc.Verify(ctx, "sub-1", VerifyInput{OrderID: "order_x", PaymentID: "pay", Signature: "sig"})
	if ae := asError(t, err); ae.Status != 404 || ae.Code != "ORDER_NOT_FOUND" {
		t.Fatalf("missing order err=%+v", ae)
	}

	order, err := f.svc.CreateOrder(ctx, "sub-1", CreateOrderInput{ProfileID: p.ID, Tier: "rising"})
	if err != nil {
		t.Fatalf("CreateOrder err=%v", err)
	}
	sig := f.gateway.Sign(string(order.OrderID), "pay_1")
	_, err = f.svc.Verify(ctx, "sub-2", VerifyInput{OrderID: string(order.OrderID), PaymentID: "pay_1", Signature: sig})
	if ae := asError(t, err); ae.Code != "ORDER_NOT_FOUND" {
		t.Fatalf("foreign order err=%+v", ae)
	}
}
