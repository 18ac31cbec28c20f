package nominations

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/legacy-registry/profile-api/internal/domain"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/nominationrepo"
)

type Service struct {
	repo     nominationrepo.Repository
	clk      clockport.Clock
	validate *validator.Validate

	newNominationID func() domain.NominationID
}

func NewService(repo nominationrepo.Repository, clk clockport.Clock) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &Service{
		repo:     repo,
		clk:      clk,
		validate: v,
		newNominationID: func() domain.NominationID {
			return domain.NominationID(uuid.NewString())
		},
	}
}

// SetNewNominationIDForTest overrides nomination ID generation for deterministic tests.
func (s *Service) SetNewNominationIDForTest(fn func() domain.NominationID) {
	if fn != nil {
		s.newNominationID = fn
	}
}

// Submit records a public nomination with status pending.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.Nomination, error) {
	sub := submission{
		NominatorName:  domain.NormalizeHumanName(in.NominatorName),
		NominatorEmail: strings.TrimSpace(in.NominatorEmail),
		NomineeName:    domain.NormalizeHumanName(in.NomineeName),
		Pitch:          strings.TrimSpace(in.Pitch),
		SuggestedTier:  strings.TrimSpace(in.SuggestedTier),
	}
	if in.NomineeEmail != nil {
		sub.NomineeEmail = strings.TrimSpace(*in.NomineeEmail)
	}
	for _, l := range in.Links {
		if l = strings.TrimSpace(l); l != "" {
			sub.Links = append(sub.Links, l)
		}
	}

	details := s.check(sub)
	tier, err := domain.ParseTier(sub.SuggestedTier)
	if err != nil && details["suggestedTier"] == nil {
		details["suggestedTier"] = "must be a known tier"
	}
	if len(details) > 0 {
		return domain.Nomination{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid nomination",
			Details: details,
		}
	}

	nominatorEmail := sub.NominatorEmail
	n := domain.Nomination{
		ID:            s.newNominationID(),
		Nominator:     domain.Person{Name: sub.NominatorName, Email: &nominatorEmail},
		Nominee:       domain.Person{Name: sub.NomineeName},
		Pitch:         sub.Pitch,
		Links:         sub.Links,
		SuggestedTier: tier,
		Status:        domain.NominationStatusPending,
		CreatedAt:     s.clk.Now(),
	}
	if sub.NomineeEmail != "" {
		e := sub.NomineeEmail
		n.Nominee.Email = &e
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return domain.Nomination{}, fmt.Errorf("create nomination: %w", err)
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id domain.NominationID) (domain.Nomination, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, nominationrepo.ErrNotFound) {
			return domain.Nomination{}, &Error{Status: 404, Code: "NOMINATION_NOT_FOUND", Message: "Nomination not found."}
		}
		return domain.Nomination{}, err
	}
	return n, nil
}

// ListByStatus serves the editorial desk; callers check the reviewer role.
func (s *Service) ListByStatus(ctx context.Context, status domain.NominationStatus) ([]domain.Nomination, error) {
	switch status {
	case domain.NominationStatusPending, domain.NominationStatusApproved, domain.NominationStatusRejected:
	default:
		return nil, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid status",
			Details: map[string]any{"status": "must be pending, approved or rejected"},
		}
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) check(sub submission) map[string]any {
	details := map[string]any{}
	err := s.validate.Struct(sub)
	if err == nil {
		return details
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["nomination"] = err.Error()
		return details
	}
	for _, fe := range verrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		if _, seen := details[key]; seen {
			continue
		}
		details[key] = describe(fe)
	}
	return details
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "http_url":
		return "must be an http(s) URL"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
