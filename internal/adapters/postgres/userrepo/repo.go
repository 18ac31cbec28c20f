package userrepo

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
	"github.com/legacy-registry/profile-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool   *pgxpool.Pool
	issuer string
}

func NewRepo(pool *pgxpool.Pool, jwtIssuer string) *Repo {
	return &Repo{pool: pool, issuer: jwtIssuer}
}

const selectUser = `
	SELECT external_id, subject_sub, email, display_name, role, created_at, updated_at
	FROM users
`

func (r *Repo) Create(ctx context.Context, u domain.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (
			external_id,
			subject_iss,
			subject_sub,
			email,
			display_name,
			role,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id,
		r.issuer,
		string(u.Subject),
		u.Email,
		u.DisplayName,
		string(u.Role),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "users_subject_unique":
				return userrepo.ErrSubjectAlreadyBound
			case "users_external_id_unique":
				return userrepo.ErrAlreadyExists
			}
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, u domain.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return userrepo.ErrNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		existing, err := scanUser(tx.QueryRow(ctx, selectUser+` WHERE external_id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		// Subject binding is immutable.
		if existing.Subject != u.Subject {
			return userrepo.ErrSubjectAlreadyBound
		}
		ct, err := tx.Exec(ctx, `
			UPDATE users
			SET email = $2,
			    display_name = $3,
			    role = $4,
			    updated_at = $5
			WHERE external_id = $1
		`,
			id,
			u.Email,
			u.DisplayName,
			string(u.Role),
			u.UpdatedAt.UTC(),
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return userrepo.ErrNotFound
		}
		return nil
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.User{}, userrepo.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE external_id = $1`, uid))
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE subject_iss = $1 AND subject_sub = $2`, r.issuer, string(subject)))
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		externalID  uuid.UUID
		sub         string
		email       string
		displayName string
		role        string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&externalID, &sub, &email, &displayName, &role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, userrepo.ErrNotFound
		}
		return domain.User{}, err
	}
	return domain.User{
		ID:          domain.UserID(externalID.String()),
		Subject:     domain.SubjectID(sub),
		Email:       email,
		DisplayName: displayName,
		Role:        domain.Role(role),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}
