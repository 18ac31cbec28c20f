package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/legacy-registry/profile-api/internal/platform/auth/jwtverifier"
)

// AccessTokenCookie carries the session token set by the auth callback.
const AccessTokenCookie = "access_token"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (jwtverifier.Principal, error)
}

// NewAuthMiddleware requires a valid JWT, read from Authorization: Bearer <JWT> or, when the
// header is absent, from the access_token cookie.
//
// On success, it stores the verified principal in request context.
func NewAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, msg := bearerOrCookie(r)
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", msg, nil)
				return
			}

			p, err := v.Verify(r.Context(), raw)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerOrCookie(r *http.Request) (token string, problem string) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		if c, err := r.Cookie(AccessTokenCookie); err == nil && strings.TrimSpace(c.Value) != "" {
			return strings.TrimSpace(c.Value), ""
		}
		return "", "missing Authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", "malformed Authorization header"
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if raw == "" {
		return "", "missing bearer token"
	}
	return raw, ""
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// The subject comes from X-Debug-Subject, then the access_token cookie set by the dev auth
// provider, then defaultSubject. Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				if c, err := r.Cookie(AccessTokenCookie); err == nil {
					sub = strings.TrimSpace(c.Value)
				}
			}
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject (set X-Debug-Subject)", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
		})
	}
}
