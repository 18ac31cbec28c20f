package nominationrepo

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
	"github.com/legacy-registry/profile-api/internal/ports/out/nominationrepo"
)

// Repo is a Postgres implementation of nominationrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectNomination = `
	SELECT
		external_id,
		nominator_name,
		nominator_email,
		nominee_name,
		nominee_email,
		pitch,
		links,
		suggested_tier,
		status,
		created_at
	FROM nominations
`

func (r *Repo) Create(ctx context.Context, n domain.Nomination) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(n.ID))
	if err != nil {
		return fmt.Errorf("invalid nomination id: %w", err)
	}
	links := n.Links
	if links == nil {
		links = []string{}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO nominations (
			external_id,
			nominator_name,
			nominator_email,
			nominee_name,
			nominee_email,
			pitch,
			links,
			suggested_tier,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		id,
		n.Nominator.Name,
		n.Nominator.Email,
		n.Nominee.Name,
		n.Nominee.Email,
		n.Pitch,
		links,
		string(n.SuggestedTier),
		string(n.Status),
		n.CreatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "nominations_external_id_unique" {
			return nominationrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.NominationID) (domain.Nomination, error) {
	if r.pool == nil {
		return domain.Nomination{}, errors.New("nil postgres pool")
	}
	nid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Nomination{}, nominationrepo.ErrNotFound
	}
	return scanNomination(r.pool.QueryRow(ctx, selectNomination+` WHERE external_id = $1`, nid))
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.NominationStatus) ([]domain.Nomination, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectNomination+` WHERE status = $1 ORDER BY created_at ASC, external_id ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Nomination, 0)
	for rows.Next() {
		n, err := scanNomination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanNomination(row pgx.Row) (domain.Nomination, error) {
	var (
		externalID     uuid.UUID
		nominatorName  string
		nominatorEmail *string
		nomineeName    string
		nomineeEmail   *string
		pitch          string
		links          []string
		suggestedTier  string
		status         string
		createdAt      time.Time
	)
	if err := row.Scan(
		&externalID,
		&nominatorName,
		&nominatorEmail,
		&nomineeName,
		&nomineeEmail,
		&pitch,
		&links,
		&suggestedTier,
		&status,
		&createdAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Nomination{}, nominationrepo.ErrNotFound
		}
		return domain.Nomination{}, err
	}
	return domain.Nomination{
		ID:            domain.NominationID(externalID.String()),
		Nominator:     domain.Person{Name: nominatorName, Email: nominatorEmail},
		Nominee:       domain.Person{Name: nomineeName, Email: nomineeEmail},
		Pitch:         pitch,
		Links:         links,
		SuggestedTier: domain.Tier(suggestedTier),
		Status:        domain.NominationStatus(status),
		CreatedAt:     createdAt.UTC(),
	}, nil
}
