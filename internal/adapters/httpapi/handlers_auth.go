package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/domain"
)

const (
	defaultAfterLogin = "/dashboard"
	authErrorPath     = "/auth/auth-code-error"
)

// AuthCallback completes the hosted sign-in redirect: it exchanges the code, provisions the
// user on first sign-in and stores the session token in a cookie.
func (s *Server) AuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := strings.TrimSpace(q.Get("code"))
	next := safeNext(q.Get("next"))
	if code == "" || s.svc.Auth == nil {
		http.Redirect(w, r, authErrorPath, http.StatusFound)
		return
	}

	sess, err := s.svc.Auth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn("auth code exchange failed", zap.Error(err))
		http.Redirect(w, r, authErrorPath, http.StatusFound)
		return
	}

	u, created, err := s.svc.Users.Provision(r.Context(), domain.SubjectID(sess.Subject), users.ProvisionInput{
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
	})
	if err != nil {
		s.logger.Error("provision user failed", zap.String("subject", sess.Subject), zap.Error(err))
		http.Redirect(w, r, authErrorPath, http.StatusFound)
		return
	}
	if created {
		s.logger.Info("user provisioned", zap.String("user_id", string(u.ID)), zap.String("role", string(u.Role)))
	}

	http.SetCookie(w, s.sessionCookie(sess.AccessToken, sess.ExpiresAt))
	http.Redirect(w, r, next, http.StatusFound)
}

// SignOut clears the session cookie.
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	c := s.sessionCookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   s.cookie.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// safeNext only allows same-origin absolute paths.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return defaultAfterLogin
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return defaultAfterLogin
	}
	return next
}

func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	u, _, err := s.svc.Users.Provision(r.Context(), domain.SubjectID(p.Subject), users.ProvisionInput{
		Email:       p.Email,
		DisplayName: p.Name,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userToDTO(u)})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetUserRole lets an admin change another user's role.
func (s *Server) SetUserRole(w http.ResponseWriter, r *http.Request, userID string) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var req setRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.svc.Users.SetRole(r.Context(), sub, domain.UserID(userID), domain.Role(strings.TrimSpace(req.Role)))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": userToDTO(u)})
}
