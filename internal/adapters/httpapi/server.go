package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/app/aipolish"
	"github.com/legacy-registry/profile-api/internal/app/media"
	"github.com/legacy-registry/profile-api/internal/app/nominations"
	"github.com/legacy-registry/profile-api/internal/app/payments"
	"github.com/legacy-registry/profile-api/internal/app/profiles"
	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/domain"
	platformclock "github.com/legacy-registry/profile-api/internal/platform/clock"
	"github.com/legacy-registry/profile-api/internal/platform/metrics"
	"github.com/legacy-registry/profile-api/internal/ports/out/authprovider"
	"github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
)

const maxJSONBody = 1 << 20

// Services bundles the application services the HTTP adapter delegates to.
type Services struct {
	Users       *users.Service
	Profiles    *profiles.Service
	Payments    *payments.Service
	AIPolish    *aipolish.Service
	Media       *media.Service
	Nominations *nominations.Service

	Auth authprovider.Provider
	Idem idempotency.Store
	// Clock stamps idempotency records; nil means the system clock.
	Clock clock.Clock
}

type CookieOptions struct {
	Secure bool
	// Domain is optional; empty scopes the cookie to the request host.
	Domain string
}

// Server is the HTTP adapter. Handlers decode requests, call one service operation and encode
// the result; all business rules live in the services.
type Server struct {
	svc     Services
	logger  *zap.Logger
	metrics *metrics.Metrics
	cookie  CookieOptions
}

func NewServer(svc Services, logger *zap.Logger, m *metrics.Metrics, cookie CookieOptions) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if svc.Clock == nil {
		svc.Clock = platformclock.NewSystemClock()
	}
	return &Server{svc: svc, logger: logger, metrics: m, cookie: cookie}
}

// subject returns the authenticated caller or writes a 401.
func subject(w http.ResponseWriter, r *http.Request) (domain.SubjectID, bool) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return "", false
	}
	return domain.SubjectID(sub), true
}

// decodeJSON reads a single JSON object into dst or writes a 422.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large", nil)
		case errors.Is(err, io.EOF):
			writeValidation(w, r, "missing request body", nil)
		default:
			writeValidation(w, r, "invalid JSON body", map[string]any{"body": err.Error()})
		}
		return false
	}
	return true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
