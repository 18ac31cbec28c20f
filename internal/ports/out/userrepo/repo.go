package userrepo

import (
	"context"

	"github.com/legacy-registry/profile-api/internal/domain"
)

// Repository provides access to provisioned users.
type Repository interface {
	Create(ctx context.Context, u domain.User) error
	Update(ctx context.Context, u domain.User) error

	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
	GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error)
}
