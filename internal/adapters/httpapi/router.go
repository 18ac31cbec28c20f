package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/platform/metrics"
)

type RouterOptions struct {
	// AuthMiddleware guards the authenticated routes. It must set the subject in context.
	AuthMiddleware func(http.Handler) http.Handler

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer

	CORSOrigins []string
	// NominationLimiter throttles public nomination submissions; nil disables it.
	NominationLimiter *RateLimiter
	RequestTimeout    time.Duration
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.Logger != nil {
		r.Use(LoggerMiddleware(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(MetricsMiddleware(opts.Metrics))
	}
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id", "Retry-After", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// Health and metrics endpoints serve infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/auth/callback", s.AuthCallback)
	r.Post("/auth/signout", s.SignOut)

	// Public API.
	r.Group(func(r chi.Router) {
		if opts.NominationLimiter != nil {
			r.With(opts.NominationLimiter.Middleware).Post("/api/nominations", s.SubmitNomination)
		} else {
			r.Post("/api/nominations", s.SubmitNomination)
		}
		r.Get("/api/nominations/{id}", func(w http.ResponseWriter, r *http.Request) {
			s.GetNomination(w, r, chi.URLParam(r, "id"))
		})
		r.Get("/api/profiles/publish", s.GetPublishStatus)
		r.Get("/api/profiles/{slug}", func(w http.ResponseWriter, r *http.Request) {
			s.GetPublicProfile(w, r, chi.URLParam(r, "slug"))
		})
	})

	r.Group(func(r chi.Router) {
		if opts.AuthMiddleware != nil {
			r.Use(opts.AuthMiddleware)
		}

		r.Get("/api/me", s.GetMe)

		r.Get("/api/profiles/draft", s.GetDraft)
		r.Post("/api/profiles/draft", s.SaveDraft)
		r.Post("/api/profiles/publish", s.Publish)

		r.Post("/api/payment/create-order", s.CreatePaymentOrder)
		r.Post("/api/payment/verify", s.VerifyPayment)

		r.Get("/api/ai/polish-bio", s.GetPolishStatus)
		r.Post("/api/ai/polish-bio", s.PolishBio)

		r.Post("/api/media", s.UploadMedia)
		r.Delete("/api/media", s.DeleteMedia)

		r.Get("/api/editorial/profiles", s.ListProfilesForReview)
		r.Get("/api/editorial/nominations", s.ListNominationsForReview)
		r.Put("/api/admin/users/{id}/role", func(w http.ResponseWriter, r *http.Request) {
			s.SetUserRole(w, r, chi.URLParam(r, "id"))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}
