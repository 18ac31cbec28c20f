package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	authadapter "github.com/legacy-registry/profile-api/internal/adapters/authprovider"
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
	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/platform/metrics"
	"github.com/legacy-registry/profile-api/internal/ports/out/paymentgateway"
	"github.com/legacy-registry/profile-api/internal/ports/out/polisher"
)

type stubPolisher struct{}

func (stubPolisher) Polish(_ context.Context, req polisher.Request) (string, error) {
	return "Polished (" + string(req.Tone) + "): " + req.Bio, nil
}

type testAPI struct {
	h        http.Handler
	clk      *memclock.ManualClock
	gateway  *mempaymentgateway.Gateway
	users    *users.Service
	media    *memmediastore.Store
	registry *prometheus.Registry
}

type testAPIOptions struct {
	auth            func(http.Handler) http.Handler
	nominationLimit int64
	adminSubjects   []string
	// wrapGateway, when set, decorates the gateway the payments service calls.
	wrapGateway func(paymentgateway.Gateway) paymentgateway.Gateway
}

func newTestAPI(t *testing.T, opts testAPIOptions) testAPI {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	profileRepo := memprofilerepo.NewRepo()
	usersSvc := users.NewService(memuserrepo.NewRepo(), clk)
	if len(opts.adminSubjects) > 0 {
		usersSvc.AdminSubjects = map[domain.SubjectID]bool{}
		for _, s := range opts.adminSubjects {
			usersSvc.AdminSubjects[domain.SubjectID(s)] = true
		}
	}
	profilesSvc := profiles.NewService(profileRepo, usersSvc, content.NewValidator(clk), clk, profiles.Config{})
	gateway := mempaymentgateway.NewGateway("rzp_test_key", "test-secret")
	var gw paymentgateway.Gateway = gateway
	if opts.wrapGateway != nil {
		gw = opts.wrapGateway(gateway)
	}
	paymentsSvc := payments.NewService(profileRepo, memorderrepo.NewRepo(), usersSvc, profilesSvc, gw, clk, payments.Config{})
	counter := memquota.NewCounter(clk)
	aiSvc := aipolish.NewService(profileRepo, usersSvc, stubPolisher{}, counter, clk)
	store := memmediastore.NewStore("https://media.test")
	mediaSvc := media.NewService(store, usersSvc, media.Config{MaxBytes: 1024})
	nominationsSvc := nominations.NewService(memnominationrepo.NewRepo(), clk)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	api := NewServer(Services{
		Users:       usersSvc,
		Profiles:    profilesSvc,
		Payments:    paymentsSvc,
		AIPolish:    aiSvc,
		Media:       mediaSvc,
		Nominations: nominationsSvc,
		Auth:        authadapter.NewDevProvider(clk),
		Idem:        memidempotency.NewStore(clk),
		Clock:       clk,
	}, nil, m, CookieOptions{})

	auth := opts.auth
	if auth == nil {
		auth = NewDevAuthMiddleware("")
	}
	ro := RouterOptions{AuthMiddleware: auth, Metrics: m, Gatherer: reg}
	if opts.nominationLimit > 0 {
		ro.NominationLimiter = &RateLimiter{
			Name:    "nominations",
			Counter: counter,
			Limit:   opts.nominationLimit,
			Window:  time.Hour,
			Clock:   clk,
			Metrics: m,
		}
	}

	return testAPI{
		h:        NewRouter(api, ro),
		clk:      clk,
		gateway:  gateway,
		users:    usersSvc,
		media:    store,
		registry: reg,
	}
}

// doJSON sends body as JSON. An empty subject sends no X-Debug-Subject header.
func (a testAPI) doJSON(t *testing.T, method, path, subject string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, string(b))
	}
	return v
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, status, rec.Body.String())
	}
	er := mustUnmarshal[ErrorResponse](t, rec.Body.Bytes())
	if er.Error.Code != code {
		t.Fatalf("code: got %q want %q", er.Error.Code, code)
	}
	return er
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, status, rec.Body.String())
	}
}

func draftBody(name string) map[string]any {
	return map[string]any{
		"content":     map[string]any{"name": name, "tagline": "Builder of bridges"},
		"tier":        "elite",
		"manual_save": true,
	}
}
