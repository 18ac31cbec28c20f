package orderrepo

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
	"github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
)

// Repo is a Postgres implementation of orderrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectOrder = `
	SELECT
		o.order_id,
		p.external_id,
		u.external_id,
		o.tier,
		o.amount_minor,
		o.currency,
		o.receipt,
		o.status,
		o.payment_id,
		o.created_at,
		o.updated_at
	FROM payment_orders o
	JOIN profiles p ON p.id = o.profile_id
	JOIN users u ON u.id = o.user_id
`

func (r *Repo) Create(ctx context.Context, o orderrepo.Order) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	profileID, userID, err := parseOwners(o)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO payment_orders (
			order_id,
			profile_id,
			user_id,
			tier,
			amount_minor,
			currency,
			receipt,
			status,
			payment_id,
			created_at,
			updated_at
		) VALUES (
			$1,
			(SELECT id FROM profiles WHERE external_id = $2),
			(SELECT id FROM users WHERE external_id = $3),
			$4, $5, $6, $7, $8, $9, $10, $11
		)
	`, orderArgs(o, profileID, userID)...)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return orderrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id domain.OrderID) (orderrepo.Order, error) {
	if r.pool == nil {
		return orderrepo.Order{}, errors.New("nil postgres pool")
	}
	return scanOrder(r.pool.QueryRow(ctx, selectOrder+` WHERE o.order_id = $1`, string(id)))
}

func (r *Repo) Upsert(ctx context.Context, o orderrepo.Order) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	profileID, userID, err := parseOwners(o)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO payment_orders (
			order_id,
			profile_id,
			user_id,
			tier,
			amount_minor,
			currency,
			receipt,
			status,
			payment_id,
			created_at,
			updated_at
		) VALUES (
			$1,
			(SELECT id FROM profiles WHERE external_id = $2),
			(SELECT id FROM users WHERE external_id = $3),
			$4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (order_id) DO UPDATE
		SET tier = EXCLUDED.tier,
		    amount_minor = EXCLUDED.amount_minor,
		    currency = EXCLUDED.currency,
		    receipt = EXCLUDED.receipt,
		    status = EXCLUDED.status,
		    payment_id = EXCLUDED.payment_id,
		    updated_at = EXCLUDED.updated_at
	`, orderArgs(o, profileID, userID)...)
	return err
}

func (r *Repo) ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]orderrepo.Order, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	pid, err := uuid.Parse(string(profileID))
	if err != nil {
		return []orderrepo.Order{}, nil
	}
	rows, err := r.pool.Query(ctx, selectOrder+` WHERE p.external_id = $1 ORDER BY o.created_at ASC, o.order_id ASC`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orderrepo.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseOwners(o orderrepo.Order) (uuid.UUID, uuid.UUID, error) {
	profileID, err := uuid.Parse(string(o.ProfileID))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid profile id: %w", err)
	}
	userID, err := uuid.Parse(string(o.UserID))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user id: %w", err)
	}
	return profileID, userID, nil
}

func orderArgs(o orderrepo.Order, profileID, userID uuid.UUID) []any {
	return []any{
		string(o.ID),
		profileID,
		userID,
		string(o.Tier),
		o.AmountMinor,
		o.Currency,
		o.Receipt,
		string(o.Status),
		o.PaymentID,
		o.CreatedAt.UTC(),
		o.UpdatedAt.UTC(),
	}
}

func scanOrder(row pgx.Row) (orderrepo.Order, error) {
	var (
		orderID     string
		profileID   uuid.UUID
		userID      uuid.UUID
		tier        string
		amountMinor int64
		currency    string
		receipt     string
		status      string
		paymentID   *string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(
		&orderID,
		&profileID,
		&userID,
		&tier,
		&amountMinor,
		&currency,
		&receipt,
		&status,
		&paymentID,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orderrepo.Order{}, orderrepo.ErrNotFound
		}
		return orderrepo.Order{}, err
	}
	return orderrepo.Order{
		ID:          domain.OrderID(orderID),
		ProfileID:   domain.ProfileID(profileID.String()),
		UserID:      domain.UserID(userID.String()),
		Tier:        domain.Tier(tier),
		AmountMinor: amountMinor,
		Currency:    currency,
		Receipt:     receipt,
		Status:      orderrepo.Status(status),
		PaymentID:   paymentID,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}
