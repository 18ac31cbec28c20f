package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
)

// UserResolver maps an authenticated subject to its user, provisioning on first use.
type UserResolver interface {
	EnsureUser(ctx context.Context, subject domain.SubjectID) (domain.User, error)
}

const maxSlugLength = 80

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Service struct {
	repo      profilerepo.Repository
	users     UserResolver
	validator *content.Validator
	clk       clockport.Clock
	cfg       Config

	newProfileID func() domain.ProfileID
}

func NewService(repo profilerepo.Repository, users UserResolver, validator *content.Validator, clk clockport.Clock, cfg Config) *Service {
	if cfg.SlugPolicy == "" {
		cfg.SlugPolicy = SlugPolicyPerSave
	}
	if cfg.TierEnforcement == "" {
		cfg.TierEnforcement = TierEnforcementAdvisory
	}
	return &Service{
		repo:      repo,
		users:     users,
		validator: validator,
		clk:       clk,
		cfg:       cfg,
		newProfileID: func() domain.ProfileID {
			return domain.ProfileID(uuid.NewString())
		},
	}
}

// SetNewProfileIDForTest overrides profile ID generation for deterministic tests.
func (s *Service) SetNewProfileIDForTest(fn func() domain.ProfileID) {
	if fn != nil {
		s.newProfileID = fn
	}
}

func (s *Service) SaveDraft(ctx context.Context, subject domain.SubjectID, in SaveDraftInput) (SaveDraftResult, error) {
	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return SaveDraftResult{}, err
	}

	tier, err := domain.ParseTier(in.Tier)
	if err != nil {
		return SaveDraftResult{}, validationError("invalid tier", map[string]any{"tier": "must be a known tier"})
	}

	c, err := s.validator.Validate(in.Content)
	if err != nil {
		return SaveDraftResult{}, contentError(err)
	}
	normalized, err := json.Marshal(c)
	if err != nil {
		return SaveDraftResult{}, fmt.Errorf("encode content: %w", err)
	}

	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if slug != "" && (len(slug) > maxSlugLength || !slugPattern.MatchString(slug)) {
		return SaveDraftResult{}, validationError("invalid slug", map[string]any{
			"slug": "must be lower-case letters, digits and single hyphens",
		})
	}

	now := s.clk.Now()
	existing, err := s.repo.GetByUserID(ctx, u.ID)
	if errors.Is(err, profilerepo.ErrNotFound) {
		p := domain.Profile{
			ID:            s.newProfileID(),
			UserID:        u.ID,
			Tier:          tier,
			Content:       normalized,
			Slug:          slug,
			Status:        domain.ProfileStatusDraft,
			PaymentStatus: domain.PaymentStatusUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if p.Slug == "" {
			p.Slug = domain.NewSlug(c.Name, now)
		}
		createErr := s.repo.Create(ctx, p)
		if createErr == nil {
			return SaveDraftResult{Profile: p, Created: true, DisallowedSections: content.DisallowedSections(c, tier)}, nil
		}
		if !errors.Is(createErr, profilerepo.ErrAlreadyExists) && !errors.Is(createErr, profilerepo.ErrSlugTaken) {
			return SaveDraftResult{}, writeError(createErr)
		}
		// A concurrent first save may have won; continue as an edit of its profile.
		existing, err = s.repo.GetByUserID(ctx, u.ID)
		if errors.Is(err, profilerepo.ErrNotFound) {
			return SaveDraftResult{}, writeError(createErr)
		}
	}
	if err != nil {
		return SaveDraftResult{}, err
	}

	if existing.Status == domain.ProfileStatusUnderReview || existing.Status == domain.ProfileStatusPublished {
		return SaveDraftResult{}, profileLocked(existing.Status)
	}

	switch {
	case s.cfg.SlugPolicy == SlugPolicyStable && existing.Slug != "":
		slug = existing.Slug
	case slug == "":
		slug = domain.NewSlug(c.Name, now)
	}

	p, err := s.repo.SaveDraft(ctx, profilerepo.DraftUpdate{
		ID:        existing.ID,
		Tier:      tier,
		Content:   normalized,
		Slug:      slug,
		UpdatedAt: now,
	})
	if errors.Is(err, profilerepo.ErrLocked) {
		cur, gerr := s.repo.GetByID(ctx, existing.ID)
		if gerr != nil {
			return SaveDraftResult{}, gerr
		}
		return SaveDraftResult{}, profileLocked(cur.Status)
	}
	if err != nil {
		return SaveDraftResult{}, writeError(err)
	}
	return SaveDraftResult{Profile: p, DisallowedSections: content.DisallowedSections(c, tier)}, nil
}

func (s *Service) GetDraft(ctx context.Context, subject domain.SubjectID) (DraftResult, error) {
	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return DraftResult{}, err
	}
	p, err := s.repo.GetByUserID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return DraftResult{HasDraft: false}, nil
		}
		return DraftResult{}, err
	}
	return DraftResult{HasDraft: true, Profile: &p}, nil
}

// Publish publishes the caller's profile at slug when it is paid. Unpaid profiles are moved to
// payment pending and the result asks the caller to pay first.
func (s *Service) Publish(ctx context.Context, subject domain.SubjectID, slug string) (PublishResult, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return PublishResult{}, validationError("invalid slug", map[string]any{"slug": "is required"})
	}
	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return PublishResult{}, err
	}
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return PublishResult{}, profileNotFound()
		}
		return PublishResult{}, err
	}
	// Other users' profiles are indistinguishable from missing ones.
	if p.UserID != u.ID {
		return PublishResult{}, profileNotFound()
	}

	if p.IsPublished() {
		return PublishResult{Profile: p}, nil
	}
	if p.Status == domain.ProfileStatusRejected {
		return PublishResult{}, &Error{
			Status:  409,
			Code:    "PROFILE_LOCKED",
			Message: "A rejected profile must be saved as a draft before publishing.",
			Details: map[string]any{"status": string(p.Status)},
		}
	}
	if err := s.CheckTier(p, p.Tier); err != nil {
		return PublishResult{}, err
	}

	now := s.clk.Now()
	if p.PaymentStatus == domain.PaymentStatusPaid {
		p, err = s.repo.PublishPaid(ctx, p.ID, p.Tier, now)
		if err != nil {
			return PublishResult{}, writeError(err)
		}
		return PublishResult{Profile: p, NewlyPublished: true}, nil
	}

	p, err = s.repo.MarkPaymentPending(ctx, p.ID, now)
	if err != nil {
		return PublishResult{}, writeError(err)
	}
	if p.PaymentStatus == domain.PaymentStatusPaid {
		// Paid between the read and the write.
		return PublishResult{Profile: p, NewlyPublished: p.IsPublished()}, nil
	}
	return PublishResult{Profile: p, RequiresPayment: true}, nil
}

// PublishStatus never fails for unknown slugs; they simply are not published.
func (s *Service) PublishStatus(ctx context.Context, slug string) (PublishStatus, error) {
	p, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return PublishStatus{}, nil
		}
		return PublishStatus{}, err
	}
	if !p.IsPublished() {
		return PublishStatus{}, nil
	}
	return PublishStatus{IsPublished: true, PublishedAt: p.PublishedAt}, nil
}

func (s *Service) GetPublished(ctx context.Context, slug string) (PublicProfile, error) {
	p, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return PublicProfile{}, profileNotFound()
		}
		return PublicProfile{}, err
	}
	if !p.IsPublished() {
		return PublicProfile{}, profileNotFound()
	}

	var c content.Content
	if err := json.Unmarshal(p.Content, &c); err != nil {
		return PublicProfile{}, fmt.Errorf("decode stored content: %w", err)
	}
	content.ApplyAutoHide(&c)

	caps := p.Tier.Capabilities()
	visible := make([]domain.Section, 0, len(caps.Sections))
	for _, sec := range caps.Sections {
		if c.Settings(sec).Visible && c.Len(sec) > 0 {
			visible = append(visible, sec)
		}
	}
	return PublicProfile{Profile: p, Content: c, VisibleSections: visible}, nil
}

// ListForReview returns profiles in the given status for the editorial desk.
func (s *Service) ListForReview(ctx context.Context, status domain.ProfileStatus, limit int) ([]domain.Profile, error) {
	switch status {
	case domain.ProfileStatusDraft, domain.ProfileStatusUnderReview, domain.ProfileStatusPublished, domain.ProfileStatusRejected:
	default:
		return nil, validationError("invalid status", map[string]any{"status": "must be draft, under_review, published or rejected"})
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, status, limit)
}

// CheckTier enforces tier-gated sections in strict mode. Advisory mode always passes.
func (s *Service) CheckTier(p domain.Profile, tier domain.Tier) error {
	if s.cfg.TierEnforcement != TierEnforcementStrict {
		return nil
	}
	var c content.Content
	if len(p.Content) > 0 {
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return fmt.Errorf("decode stored content: %w", err)
		}
	}
	disallowed := content.DisallowedSections(c, tier)
	if len(disallowed) == 0 {
		return nil
	}
	names := make([]string, len(disallowed))
	for i, sec := range disallowed {
		names[i] = string(sec)
	}
	return &Error{
		Status:  422,
		Code:    "TIER_SECTION_NOT_ALLOWED",
		Message: "The profile uses sections that its tier does not include.",
		Details: map[string]any{"sections": names, "tier": string(tier)},
	}
}

func profileNotFound() *Error {
	return &Error{Status: 404, Code: "PROFILE_NOT_FOUND", Message: "Profile not found."}
}

func profileLocked(status domain.ProfileStatus) *Error {
	return &Error{
		Status:  409,
		Code:    "PROFILE_LOCKED",
		Message: "The profile can no longer be edited as a draft.",
		Details: map[string]any{"status": string(status)},
	}
}

func validationError(msg string, details map[string]any) *Error {
	return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: msg, Details: details}
}

func contentError(err error) error {
	var verr *content.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	details := make(map[string]any, len(verr.Fields))
	for k, v := range verr.Fields {
		details["content."+k] = v
	}
	return validationError("invalid profile content", details)
}

func writeError(err error) error {
	if errors.Is(err, profilerepo.ErrSlugTaken) {
		return &Error{Status: 409, Code: "SLUG_TAKEN", Message: "The slug is already used by another profile."}
	}
	return err
}
