package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
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
	pgidempotency "github.com/legacy-registry/profile-api/internal/adapters/postgres/idempotency"
	pgnominationrepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/nominationrepo"
	pgorderrepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/orderrepo"
	pgprofilerepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/profilerepo"
	postgres_testutil "github.com/legacy-registry/profile-api/internal/adapters/postgres/testutil"
	pguserrepo "github.com/legacy-registry/profile-api/internal/adapters/postgres/userrepo"
	"github.com/legacy-registry/profile-api/internal/app/aipolish"
	"github.com/legacy-registry/profile-api/internal/app/media"
	"github.com/legacy-registry/profile-api/internal/app/nominations"
	"github.com/legacy-registry/profile-api/internal/app/payments"
	"github.com/legacy-registry/profile-api/internal/app/profiles"
	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/content"
	idempotencyport "github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
	nominationrepoport "github.com/legacy-registry/profile-api/internal/ports/out/nominationrepo"
	orderrepoport "github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
	profilerepoport "github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
	userrepoport "github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	gateway *mempaymentgateway.Gateway
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	const issuer = "itest-issuer"
	clk := memclock.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var (
		userRepo       userrepoport.Repository
		profileRepo    profilerepoport.Repository
		orderRepo      orderrepoport.Repository
		nominationRepo nominationrepoport.Repository
		idemStore      idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		userRepo = pguserrepo.NewRepo(pool, issuer)
		profileRepo = pgprofilerepo.NewRepo(pool)
		orderRepo = pgorderrepo.NewRepo(pool)
		nominationRepo = pgnominationrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, issuer, clk)
	case backendMemory:
		userRepo = memuserrepo.NewRepo()
		profileRepo = memprofilerepo.NewRepo()
		orderRepo = memorderrepo.NewRepo()
		nominationRepo = memnominationrepo.NewRepo()
		idemStore = memidempotency.NewStore(clk)
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	usersSvc := users.NewService(userRepo, clk)
	profilesSvc := profiles.NewService(profileRepo, usersSvc, content.NewValidator(clk), clk, profiles.Config{})
	gateway := mempaymentgateway.NewGateway("rzp_itest", "itest-secret")
	api := httpapi.NewServer(httpapi.Services{
		Users:       usersSvc,
		Profiles:    profilesSvc,
		Payments:    payments.NewService(profileRepo, orderRepo, usersSvc, profilesSvc, gateway, clk, payments.Config{}),
		AIPolish:    aipolish.NewService(profileRepo, usersSvc, nil, memquota.NewCounter(clk), clk),
		Media:       media.NewService(memmediastore.NewStore("http://media.local"), usersSvc, media.Config{}),
		Nominations: nominations.NewService(nominationRepo, clk),
		Auth:        authprovider.NewDevProvider(clk),
		Idem:        idemStore,
		Clock:       clk,
	}, nil, nil, httpapi.CookieOptions{})

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// We pass empty default subject to ensure requests MUST provide X-Debug-Subject, allowing
	// auth-failure coverage.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{AuthMiddleware: authMW})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		gateway: gateway,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}
