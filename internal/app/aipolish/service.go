package aipolish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/legacy-registry/profile-api/internal/domain"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/polisher"
	"github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
	"github.com/legacy-registry/profile-api/internal/ports/out/quota"
)

type UserResolver interface {
	EnsureUser(ctx context.Context, subject domain.SubjectID) (domain.User, error)
}

type Service struct {
	profiles profilerepo.Repository
	users    UserResolver
	polisher polisher.Polisher
	counter  quota.Counter
	clk      clockport.Clock
}

// NewService wires the polish service. A nil polisher leaves the feature unavailable.
func NewService(profiles profilerepo.Repository, users UserResolver, p polisher.Polisher, counter quota.Counter, clk clockport.Clock) *Service {
	return &Service{profiles: profiles, users: users, polisher: p, counter: counter, clk: clk}
}

// Polish rewrites the caller's biography, charging one unit of the daily quota.
// Quota is refunded when the request is rejected or the provider fails.
func (s *Service) Polish(ctx context.Context, subject domain.SubjectID, in PolishInput) (PolishResult, error) {
	bio := strings.TrimSpace(in.Bio)
	details := map[string]any{}
	if n := utf8.RuneCountInString(bio); n < MinBioLength || n > MaxBioLength {
		details["bio"] = fmt.Sprintf("must be between %d and %d characters", MinBioLength, MaxBioLength)
	}
	tone, ok := parseTone(in.Tone)
	if !ok {
		details["tone"] = "must be one of: professional, warm, inspirational, formal"
	}
	if len(details) > 0 {
		return PolishResult{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid polish request", Details: details}
	}

	if s.polisher == nil {
		return PolishResult{}, unavailable()
	}

	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return PolishResult{}, err
	}
	tier, err := s.resolveTier(ctx, u, in.Tier)
	if err != nil {
		return PolishResult{}, err
	}

	now := s.clk.Now()
	key, resetsAt := usageKey(u.ID, now)
	limit := tier.Capabilities().AIPolishDailyLimit

	n, err := s.counter.Incr(ctx, key, resetsAt.Sub(now))
	if err != nil {
		return PolishResult{}, fmt.Errorf("increment ai quota: %w", err)
	}
	if int(n) > limit {
		_ = s.counter.Decr(ctx, key)
		return PolishResult{}, &Error{
			Status:  429,
			Code:    "AI_RATE_LIMITED",
			Message: "Daily AI polish limit reached. Try again tomorrow.",
			Details: map[string]any{"limit": limit, "resetsAt": resetsAt.Format(time.RFC3339)},
		}
	}

	out, err := s.polisher.Polish(ctx, polisher.Request{Bio: bio, Tone: tone})
	if err != nil {
		_ = s.counter.Decr(ctx, key)
		return PolishResult{}, mapPolisherError(err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		_ = s.counter.Decr(ctx, key)
		return PolishResult{}, unavailable()
	}

	used := int(n)
	return PolishResult{
		PolishedBio: out,
		Tone:        tone,
		Usage:       Usage{Tier: tier, Used: used, Limit: limit, Remaining: limit - used, ResetsAt: resetsAt},
	}, nil
}

// Status reports the caller's quota for today without consuming it.
func (s *Service) Status(ctx context.Context, subject domain.SubjectID, requestTier string) (StatusResult, error) {
	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return StatusResult{}, err
	}
	tier, err := s.resolveTier(ctx, u, requestTier)
	if err != nil {
		return StatusResult{}, err
	}
	now := s.clk.Now()
	key, resetsAt := usageKey(u.ID, now)
	n, err := s.counter.Get(ctx, key)
	if err != nil {
		return StatusResult{}, fmt.Errorf("read ai quota: %w", err)
	}

	limit := tier.Capabilities().AIPolishDailyLimit
	used := int(n)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return StatusResult{
		Available: s.polisher != nil && remaining > 0,
		Usage:     Usage{Tier: tier, Used: used, Limit: limit, Remaining: remaining, ResetsAt: resetsAt},
	}, nil
}

// resolveTier prefers the tier stored on the caller's profile over the one in the request.
func (s *Service) resolveTier(ctx context.Context, u domain.User, requested string) (domain.Tier, error) {
	p, err := s.profiles.GetByUserID(ctx, u.ID)
	switch {
	case err == nil:
		return p.Tier, nil
	case !errors.Is(err, profilerepo.ErrNotFound):
		return "", err
	}
	if strings.TrimSpace(requested) == "" {
		return domain.TierRising, nil
	}
	tier, err := domain.ParseTier(requested)
	if err != nil {
		return "", &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid tier",
			Details: map[string]any{"tier": "must be a known tier"},
		}
	}
	return tier, nil
}

func parseTone(s string) (polisher.Tone, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return polisher.ToneProfessional, true
	}
	for _, t := range polisher.Tones() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// usageKey buckets usage per user per UTC day; the window ends at the next UTC midnight.
func usageKey(userID domain.UserID, now time.Time) (string, time.Time) {
	day, next := clockport.Window(now, 24*time.Hour)
	return "ai:polish:" + string(userID) + ":" + day.Format("2006-01-02"), next
}

func mapPolisherError(err error) error {
	switch {
	case errors.Is(err, polisher.ErrRateLimited):
		return &Error{Status: 429, Code: "AI_RATE_LIMITED", Message: "The AI service is busy. Please try again shortly."}
	case errors.Is(err, polisher.ErrContentPolicy):
		return &Error{Status: 422, Code: "AI_CONTENT_POLICY", Message: "This biography could not be polished. Please revise it and try again."}
	default:
		return unavailable()
	}
}

func unavailable() *Error {
	return &Error{Status: 503, Code: "AI_UNAVAILABLE", Message: "AI polish is temporarily unavailable."}
}
