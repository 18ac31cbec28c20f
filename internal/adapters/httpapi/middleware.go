package httpapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/platform/metrics"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/quota"
)

// LoggerMiddleware logs one line per request once the response is written.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			)
		})
	}
}

// MetricsMiddleware records request counts and latency keyed by the matched route pattern.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// RateLimiter caps requests per client within a fixed window.
type RateLimiter struct {
	Name    string
	Counter quota.Counter
	Limit   int64
	Window  time.Duration
	Clock   clockport.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Middleware keys the limit on the client IP. Counter failures let the request through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.Clock.Now()
		start, reset := clockport.Window(now, l.Window)
		key := "rl:" + l.Name + ":" + clientIP(r) + ":" + strconv.FormatInt(start.Unix(), 10)
		n, err := l.Counter.Incr(r.Context(), key, reset.Sub(now))
		if err != nil {
			if l.Logger != nil {
				l.Logger.Warn("rate limiter unavailable", zap.String("limiter", l.Name), zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		remaining := l.Limit - n
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if n > l.Limit {
			retry := int(math.Ceil(reset.Sub(now).Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			if l.Metrics != nil {
				l.Metrics.RateLimited.WithLabelValues(l.Name).Inc()
			}
			writeError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", map[string]any{
				"limit":      l.Limit,
				"retryAfter": retry,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
