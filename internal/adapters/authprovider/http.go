// Package authprovider exchanges hosted-auth authorization codes for sessions.
package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/ports/out/authprovider"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPProvider talks to a GoTrue-compatible token endpoint.
type HTTPProvider struct {
	cfg        Config
	httpClient *http.Client
	clock      clockport.Clock
	logger     *zap.Logger
}

func NewHTTPProvider(cfg Config, clk clockport.Clock, logger *zap.Logger) *HTTPProvider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProvider{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}, clock: clk, logger: logger}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			FullName string `json:"full_name"`
			Name     string `json:"name"`
		} `json:"user_metadata"`
	} `json:"user"`
}

func (p *HTTPProvider) Exchange(ctx context.Context, code string) (authprovider.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return authprovider.Session{}, authprovider.ErrInvalidCode
	}
	body, _ := json.Marshal(map[string]string{"auth_code": code})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/auth/v1/token?grant_type=pkce", bytes.NewReader(body))
	if err != nil {
		return authprovider.Session{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return authprovider.Session{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return authprovider.Session{}, fmt.Errorf("read token response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		p.logger.Info("auth code rejected", zap.Int("status", resp.StatusCode))
		return authprovider.Session{}, authprovider.ErrInvalidCode
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return authprovider.Session{}, fmt.Errorf("token exchange: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return authprovider.Session{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" || tr.User.ID == "" {
		return authprovider.Session{}, fmt.Errorf("token exchange: incomplete session")
	}

	name := tr.User.UserMetadata.FullName
	if name == "" {
		name = tr.User.UserMetadata.Name
	}
	expiresIn := time.Duration(tr.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return authprovider.Session{
		AccessToken: tr.AccessToken,
		ExpiresAt:   p.clock.Now().Add(expiresIn),
		Subject:     tr.User.ID,
		Email:       tr.User.Email,
		DisplayName: name,
	}, nil
}
