package client_test

import (
	"context"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/legacy-registry/profile-api/internal/adapters/authprovider"
	"github.com/legacy-registry/profile-api/internal/adapters/httpapi"
	memclock "github.com/legacy-registry/profile-api/internal/adapters/memory/clock"
	memidempotency "github.com/legacy-registry/profile-api/internal/adapters/memory/idempotency"
	memmediastore "github.com/legacy-registry/profile-api/internal/adapters/memory/mediastore"
	memnominationrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/nominationrepo"
	memorderrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/orderrepo"
	mempaymentgateway "github.com/legacy-registry/profile-api/internal/adapters/memory/paymentgateway"
	memprofilerepo "github.com/legacy-registry/profile-api/internal/adapters/memory/profilerepo"
	memquota "github.com/legacy-registry/profile-api/internal/adapters/memory/quota"
	memuserrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/userrepo"
	"github.com/legacy-registry/profile-api/internal/app/aipolish"
	"github.com/legacy-registry/profile-api/internal/app/media"
	"github.com/legacy-registry/profile-api/internal/app/nominations"
	"github.com/legacy-registry/profile-api/internal/app/payments"
	"github.com/legacy-registry/profile-api/internal/app/profiles"
	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/pkg/client"
)

func newLocalAPI(t *testing.T) (string, *mempaymentgateway.Gateway) {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	profileRepo := memprofilerepo.NewRepo()
	usersSvc := users.NewService(memuserrepo.NewRepo(), clk)
	profilesSvc := profiles.NewService(profileRepo, usersSvc, content.NewValidator(clk), clk, profiles.Config{})
	gateway := mempaymentgateway.NewGateway("rzp_test_key", "test-secret")

	api := httpapi.NewServer(httpapi.Services{
		Users:       usersSvc,
		Profiles:    profilesSvc,
		Payments:    payments.NewService(profileRepo, memorderrepo.NewRepo(), usersSvc, profilesSvc, gateway, clk, payments.Config{}),
		AIPolish:    aipolish.NewService(profileRepo, usersSvc, nil, memquota.NewCounter(clk), clk),
		Media:       media.NewService(memmediastore.NewStore("http://media.local"), usersSvc, media.Config{}),
		Nominations: nominations.NewService(memnominationrepo.NewRepo(), clk),
		Auth:        authprovider.NewDevProvider(clk),
		Idem:        memidempotency.NewStore(clk),
		Clock:       clk,
	}, nil, nil, httpapi.CookieOptions{})

	srv := httptest.NewServer(httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: httpapi.NewDevAuthMiddleware(""),
	}))
	t.Cleanup(srv.Close)
	return srv.URL, gateway
}

func TestClient_DraftCheckoutPublish(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	baseURL, gateway := newLocalAPI(t)
	c := client.New(baseURL, client.WithDebugSubject("client|jane"))

	me, err := c.Me(ctx)
	if err != nil || me.Role != "visitor" {
		t.Fatalf("me=%+v err=%v", me, err)
	}

	saved, err := c.SaveDraft(ctx, client.SaveDraftRequest{
		Content:    content.Content{Name: "Jane Doe", Tagline: "Engineer"},
		Tier:       "rising",
		ManualSave: true,
	})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if !regexp.MustCompile(`^jane-doe-\d+$`).MatchString(saved.Profile.Slug) {
		t.Fatalf("slug=%q", saved.Profile.Slug)
	}
	got, err := saved.Profile.DecodeContent()
	if err != nil || got.Tagline != "Engineer" {
		t.Fatalf("content=%+v err=%v", got, err)
	}

	pub, err := c.Publish(ctx, saved.Profile.Slug)
	if err != nil || !pub.RequiresPayment || pub.ProfileID != saved.Profile.ID {
		t.Fatalf("publish=%+v err=%v", pub, err)
	}

	order, err := c.CreateOrder(ctx, pub.ProfileID, pub.Tier, "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	verified, err := c.VerifyPayment(ctx, client.PaymentCallback{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: gateway.Sign(order.OrderID, "pay_1"),
	})
	if err != nil || !verified.Success {
		t.Fatalf("verify=%+v err=%v", verified, err)
	}

	st, err := client.New(baseURL).PublishStatus(ctx, saved.Profile.Slug)
	if err != nil || !st.IsPublished || st.PublishedAt == nil {
		t.Fatalf("status=%+v err=%v", st, err)
	}

	page, err := client.New(baseURL).PublicProfile(ctx, saved.Profile.Slug)
	if err != nil || page.Content.Name != "Jane Doe" {
		t.Fatalf("page=%+v err=%v", page, err)
	}
}

func TestClient_UnauthenticatedIsAPIError(t *testing.T) {
	t.Parallel()
	baseURL, _ := newLocalAPI(t)

	_, err := client.New(baseURL).GetDraft(context.Background())
	if !client.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("err=%v", err)
	}
}
