package profilerepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/legacy-registry/profile-api/internal/adapters/postgres"
	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
)

// Repo is a Postgres implementation of profilerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const profileColumns = `
		p.external_id,
		u.external_id,
		p.tier,
		p.content,
		p.slug,
		p.status,
		p.payment_status,
		p.published_at,
		p.created_at,
		p.updated_at
`

const selectProfile = `
	SELECT` + profileColumns + `
	FROM profiles p
	JOIN users u ON u.id = p.user_id
`

// updateProfile runs update, which must end in RETURNING *, and scans the row joined with its owner.
func (r *Repo) updateProfile(ctx context.Context, update string, args ...any) (domain.Profile, error) {
	q := `WITH p AS (` + update + `) SELECT` + profileColumns + `FROM p JOIN users u ON u.id = p.user_id`
	p, err := scanProfile(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		return domain.Profile{}, mapWriteError(err)
	}
	return p, nil
}

func (r *Repo) Create(ctx context.Context, p domain.Profile) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(p.ID))
	if err != nil {
		return fmt.Errorf("invalid profile id: %w", err)
	}
	userID, err := uuid.Parse(string(p.UserID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO profiles (
			external_id,
			user_id,
			tier,
			content,
			slug,
			status,
			payment_status,
			published_at,
			created_at,
			updated_at
		) VALUES (
			$1,
			(SELECT id FROM users WHERE external_id = $2),
			$3, $4, $5, $6, $7, $8, $9, $10
		)
	`,
		id,
		userID,
		string(p.Tier),
		contentArg(p.Content),
		slugArg(p.Slug),
		string(p.Status),
		string(p.PaymentStatus),
		utcPtr(p.PublishedAt),
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	return mapWriteError(err)
}

func (r *Repo) SaveDraft(ctx context.Context, u profilerepo.DraftUpdate) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return domain.Profile{}, profilerepo.ErrNotFound
	}

	p, err := r.updateProfile(ctx, `
		UPDATE profiles
		SET tier = $2,
		    content = $3,
		    slug = $4,
		    status = 'draft',
		    updated_at = $5
		WHERE external_id = $1 AND status IN ('draft', 'rejected')
		RETURNING *
	`,
		id,
		string(u.Tier),
		contentArg(u.Content),
		slugArg(u.Slug),
		u.UpdatedAt.UTC(),
	)
	if !errors.Is(err, profilerepo.ErrNotFound) {
		return p, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE external_id = $1)`, id).Scan(&exists); err != nil {
		return domain.Profile{}, err
	}
	if exists {
		return domain.Profile{}, profilerepo.ErrLocked
	}
	return domain.Profile{}, profilerepo.ErrNotFound
}

func (r *Repo) MarkPaymentPending(ctx context.Context, id domain.ProfileID, at time.Time) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	pid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Profile{}, profilerepo.ErrNotFound
	}

	p, err := r.updateProfile(ctx, `
		UPDATE profiles
		SET payment_status = 'pending',
		    updated_at = $2
		WHERE external_id = $1 AND payment_status = 'unpaid'
		RETURNING *
	`, pid, at.UTC())
	if errors.Is(err, profilerepo.ErrNotFound) {
		// Already pending or paid.
		return r.GetByID(ctx, id)
	}
	return p, err
}

func (r *Repo) PublishPaid(ctx context.Context, id domain.ProfileID, tier domain.Tier, at time.Time) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	pid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Profile{}, profilerepo.ErrNotFound
	}

	return r.updateProfile(ctx, `
		UPDATE profiles
		SET payment_status = 'paid',
		    tier = $2,
		    status = 'published',
		    published_at = COALESCE(published_at, $3),
		    updated_at = $3
		WHERE external_id = $1
		RETURNING *
	`, pid, string(tier), at.UTC())
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	pid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	return scanProfile(r.pool.QueryRow(ctx, selectProfile+` WHERE p.external_id = $1`, pid))
}

func (r *Repo) GetByUserID(ctx context.Context, userID domain.UserID) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(userID))
	if err != nil {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	return scanProfile(r.pool.QueryRow(ctx, selectProfile+` WHERE u.external_id = $1`, uid))
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (domain.Profile, error) {
	if r.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	if slug == "" {
		return domain.Profile{}, profilerepo.ErrNotFound
	}
	return scanProfile(r.pool.QueryRow(ctx, selectProfile+` WHERE p.slug = $1`, slug))
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.ProfileStatus, limit int) ([]domain.Profile, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	q := selectProfile + ` WHERE p.status = $1 ORDER BY p.updated_at DESC, p.external_id ASC`
	args := []any{string(status)}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := postgres.AsPgError(err); ok {
		switch {
		case pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "profiles_slug_unique":
			return profilerepo.ErrSlugTaken
		case pe.Code == postgres.UniqueViolationCode:
			return profilerepo.ErrAlreadyExists
		case pe.Code == "23502" && pe.ColumnName == "user_id":
			// The owning user does not exist.
			return fmt.Errorf("profile owner not found: %w", err)
		}
	}
	return err
}

func contentArg(b []byte) string {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}

func slugArg(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var (
		externalID    uuid.UUID
		userID        uuid.UUID
		tier          string
		content       []byte
		slug          *string
		status        string
		paymentStatus string
		publishedAt   *time.Time
		createdAt     time.Time
		updatedAt     time.Time
	)
	if err := row.Scan(
		&externalID,
		&userID,
		&tier,
		&content,
		&slug,
		&status,
		&paymentStatus,
		&publishedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, profilerepo.ErrNotFound
		}
		return domain.Profile{}, err
	}
	p := domain.Profile{
		ID:            domain.ProfileID(externalID.String()),
		UserID:        domain.UserID(userID.String()),
		Tier:          domain.Tier(tier),
		Content:       content,
		Status:        domain.ProfileStatus(status),
		PaymentStatus: domain.PaymentStatus(paymentStatus),
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     updatedAt.UTC(),
	}
	if slug != nil {
		p.Slug = *slug
	}
	if publishedAt != nil {
		t := publishedAt.UTC()
		p.PublishedAt = &t
	}
	return p, nil
}
