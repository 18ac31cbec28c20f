package authprovider

import (
	"context"
	"strings"
	"time"

	"github.com/legacy-registry/profile-api/internal/ports/out/authprovider"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
)

// DevProvider accepts codes of the form "dev:<subject>" for local development.
// The returned access token is the bare subject, which the dev auth middleware accepts from the cookie.
type DevProvider struct {
	clock clockport.Clock
	ttl   time.Duration
}

func NewDevProvider(clk clockport.Clock) *DevProvider {
	return &DevProvider{clock: clk, ttl: 24 * time.Hour}
}

func (p *DevProvider) Exchange(ctx context.Context, code string) (authprovider.Session, error) {
	_ = ctx
	sub, ok := strings.CutPrefix(strings.TrimSpace(code), "dev:")
	sub = strings.TrimSpace(sub)
	if !ok || sub == "" {
		return authprovider.Session{}, authprovider.ErrInvalidCode
	}
	return authprovider.Session{
		AccessToken: sub,
		ExpiresAt:   p.clock.Now().Add(p.ttl),
		Subject:     sub,
		Email:       sub + "@dev.local",
	}, nil
}
