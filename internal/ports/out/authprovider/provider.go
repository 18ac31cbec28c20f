package authprovider

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidCode indicates the authorization code was rejected.
var ErrInvalidCode = errors.New("invalid authorization code")

type Session struct {
	AccessToken string
	ExpiresAt   time.Time

	Subject     string
	Email       string
	DisplayName string
}

// Provider exchanges a hosted-auth authorization code for a session.
type Provider interface {
	Exchange(ctx context.Context, code string) (Session, error)
}
