package profilerepo

import (
	"context"
	"time"

	"github.com/legacy-registry/profile-api/internal/domain"
)

// DraftUpdate carries the owner-editable columns of a profile.
type DraftUpdate struct {
	ID        domain.ProfileID
	Tier      domain.Tier
	Content   []byte
	Slug      string
	UpdatedAt time.Time
}

// Repository provides access to persisted profiles. A user owns at most one profile and
// slugs are unique across all profiles.
//
// Writes after Create touch only the columns their transition owns.
type Repository interface {
	Create(ctx context.Context, p domain.Profile) error

	// SaveDraft applies u to a draft or rejected profile and moves it back to draft.
	// It returns ErrLocked when the profile is under review or published.
	SaveDraft(ctx context.Context, u DraftUpdate) (domain.Profile, error)
	// MarkPaymentPending moves an unpaid profile to pending. Other payment states are left as is.
	MarkPaymentPending(ctx context.Context, id domain.ProfileID, at time.Time) (domain.Profile, error)
	// PublishPaid records payment at tier and publishes the profile. PublishedAt is set once;
	// repeating the call is a no-op apart from UpdatedAt.
	PublishPaid(ctx context.Context, id domain.ProfileID, tier domain.Tier, at time.Time) (domain.Profile, error)

	GetByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error)
	GetByUserID(ctx context.Context, userID domain.UserID) (domain.Profile, error)
	GetBySlug(ctx context.Context, slug string) (domain.Profile, error)

	// ListByStatus returns profiles with the given status ordered by UpdatedAt descending.
	ListByStatus(ctx context.Context, status domain.ProfileStatus, limit int) ([]domain.Profile, error)
}
