package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
)

// Store persists replayable responses in idempotency_keys. Keys are scoped by token issuer so
// subjects from different identity providers never collide.
type Store struct {
	pool   *pgxpool.Pool
	issuer string
	clk    clock.Clock
}

func NewStore(pool *pgxpool.Pool, jwtIssuer string, clk clock.Clock) *Store {
	return &Store{pool: pool, issuer: jwtIssuer, clk: clk}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errors.New("nil postgres pool")
	}
	var (
		rec       idempotency.Record
		expiresAt *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT status_code, content_type, body, created_at, expires_at
		FROM idempotency_keys
		WHERE idempotency_key = $1 AND subject_iss = $2 AND subject_sub = $3
		  AND method = $4 AND route = $5 AND body_hash = $6
		  AND (expires_at IS NULL OR expires_at > $7)
	`, string(fp.Key), s.issuer, string(fp.Subject), fp.Method, fp.Route, fp.BodyHash, s.clk.Now()).
		Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return idempotency.Record{}, false, nil
	}
	if err != nil {
		return idempotency.Record{}, false, fmt.Errorf("load idempotency record: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if expiresAt != nil {
		rec.ExpiresAt = expiresAt.UTC()
	}
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clk.Now()
	}
	var expiresAt *time.Time
	if !rec.ExpiresAt.IsZero() {
		t := rec.ExpiresAt.UTC()
		expiresAt = &t
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (
			idempotency_key, subject_iss, subject_sub, method, route, body_hash,
			status_code, content_type, body, created_at, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (idempotency_key, subject_iss, subject_sub, method, route, body_hash)
		DO UPDATE SET
			status_code = EXCLUDED.status_code,
			content_type = EXCLUDED.content_type,
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`, string(fp.Key), s.issuer, string(fp.Subject), fp.Method, fp.Route, fp.BodyHash,
		rec.StatusCode, rec.ContentType, bodyArg(rec.Body), createdAt.UTC(), expiresAt)
	if err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	return nil
}

func (s *Store) PutIfAbsent(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) (bool, error) {
	if s.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	now := s.clk.Now()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	var expiresAt *time.Time
	if !rec.ExpiresAt.IsZero() {
		t := rec.ExpiresAt.UTC()
		expiresAt = &t
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (
			idempotency_key, subject_iss, subject_sub, method, route, body_hash,
			status_code, content_type, body, created_at, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (idempotency_key, subject_iss, subject_sub, method, route, body_hash)
		DO UPDATE SET
			status_code = EXCLUDED.status_code,
			content_type = EXCLUDED.content_type,
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at IS NOT NULL AND idempotency_keys.expires_at <= $12
	`, string(fp.Key), s.issuer, string(fp.Subject), fp.Method, fp.Route, fp.BodyHash,
		rec.StatusCode, rec.ContentType, bodyArg(rec.Body), createdAt.UTC(), expiresAt, now.UTC())
	if err != nil {
		return false, fmt.Errorf("reserve idempotency record: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Delete(ctx context.Context, fp idempotency.Fingerprint) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, `
		DELETE FROM idempotency_keys
		WHERE idempotency_key = $1 AND subject_iss = $2 AND subject_sub = $3
		  AND method = $4 AND route = $5 AND body_hash = $6
	`, string(fp.Key), s.issuer, string(fp.Subject), fp.Method, fp.Route, fp.BodyHash)
	if err != nil {
		return fmt.Errorf("delete idempotency record: %w", err)
	}
	return nil
}

// DeleteExpired removes stale records and reports how many were dropped.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at IS NOT NULL AND expires_at <= $1`, s.clk.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// bodyArg keeps pending reservations, which carry no body, clear of the NOT NULL constraint.
func bodyArg(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
