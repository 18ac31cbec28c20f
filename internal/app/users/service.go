package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/legacy-registry/profile-api/internal/domain"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

type Service struct {
	repo userrepo.Repository
	clk  clockport.Clock

	newUserID func() domain.UserID

	// AdminSubjects are provisioned with the admin role instead of visitor.
	AdminSubjects map[domain.SubjectID]bool
}

func NewService(repo userrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo: repo,
		clk:  clk,
		newUserID: func() domain.UserID {
			return domain.UserID(uuid.NewString())
		},
	}
}

// SetNewUserIDForTest overrides user ID generation for deterministic tests.
func (s *Service) SetNewUserIDForTest(fn func() domain.UserID) {
	if fn != nil {
		s.newUserID = fn
	}
}

// Provision binds subject to a user, creating a visitor on first sign-in.
// Known users get missing email and display name filled in. created reports whether a row was inserted.
func (s *Service) Provision(ctx context.Context, subject domain.SubjectID, in ProvisionInput) (u domain.User, created bool, err error) {
	if strings.TrimSpace(string(subject)) == "" {
		return domain.User{}, false, &Error{Status: 401, Code: "UNAUTHORIZED", Message: "missing subject"}
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, perr := mail.ParseAddress(email); perr != nil {
			email = ""
		}
	}
	displayName := domain.NormalizeHumanName(in.DisplayName)

	existing, err := s.repo.GetBySubject(ctx, subject)
	switch {
	case err == nil:
		changed := false
		if existing.Email == "" && email != "" {
			existing.Email = email
			changed = true
		}
		if existing.DisplayName == "" && displayName != "" {
			existing.DisplayName = displayName
			changed = true
		}
		if changed {
			existing.UpdatedAt = s.clk.Now()
			if err := s.repo.Update(ctx, existing); err != nil {
				return domain.User{}, false, err
			}
		}
		return existing, false, nil
	case !errors.Is(err, userrepo.ErrNotFound):
		return domain.User{}, false, err
	}

	role := domain.RoleVisitor
	if s.AdminSubjects[subject] {
		role = domain.RoleAdmin
	}
	now := s.clk.Now()
	u = domain.User{
		ID:          s.newUserID(),
		Subject:     subject,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// Lost a race with a concurrent sign-in for the same subject.
		if errors.Is(err, userrepo.ErrSubjectAlreadyBound) {
			got, gerr := s.repo.GetBySubject(ctx, subject)
			return got, false, gerr
		}
		return domain.User{}, false, err
	}
	return u, true, nil
}

// EnsureUser returns the user bound to subject, provisioning a visitor when none exists yet.
func (s *Service) EnsureUser(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	u, err := s.repo.GetBySubject(ctx, subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.User{}, err
	}
	u, _, err = s.Provision(ctx, subject, ProvisionInput{})
	return u, err
}

// RequireReviewer returns the caller when they hold an editorial role.
func (s *Service) RequireReviewer(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	u, err := s.EnsureUser(ctx, subject)
	if err != nil {
		return domain.User{}, err
	}
	if !u.Role.CanReview() {
		return domain.User{}, &Error{Status: 403, Code: "FORBIDDEN", Message: "Editorial access is required."}
	}
	return u, nil
}

// SetRole changes a user's role. Only admins may call it.
func (s *Service) SetRole(ctx context.Context, caller domain.SubjectID, target domain.UserID, role domain.Role) (domain.User, error) {
	me, err := s.EnsureUser(ctx, caller)
	if err != nil {
		return domain.User{}, err
	}
	if me.Role != domain.RoleAdmin {
		return domain.User{}, &Error{Status: 403, Code: "FORBIDDEN", Message: "Admin access is required."}
	}
	switch role {
	case domain.RoleVisitor, domain.RoleMember, domain.RoleEditor, domain.RoleAdmin:
	default:
		return domain.User{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid role",
			Details: map[string]any{"role": "must be one of visitor, member, editor, admin"},
		}
	}
	u, err := s.repo.GetByID(ctx, target)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "User not found."}
		}
		return domain.User{}, err
	}
	u.Role = role
	u.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
