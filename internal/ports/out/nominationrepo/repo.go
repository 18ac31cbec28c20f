package nominationrepo

import (
	"context"

	"github.com/legacy-registry/profile-api/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, n domain.Nomination) error
	GetByID(ctx context.Context, id domain.NominationID) (domain.Nomination, error)
	// ListByStatus returns nominations ordered by CreatedAt ascending.
	ListByStatus(ctx context.Context, status domain.NominationStatus) ([]domain.Nomination, error)
}
