package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.FeeCents,
		&s.DurationMinutes,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer

	err := row.Scan(
		&o.ID,
		&o.ServiceID,
		&o.Title,
		&o.DiscountPercent,
		&o.ValidFrom,
		&o.ValidUntil,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}

	return &o, nil
}

func (r *PgRepository) CreateService(ctx context.Context, s *Service) (*Service, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, description, fee_cents, duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), now())
		RETURNING id, name, description, fee_cents, duration_minutes, active, created_at, updated_at
	`, id, s.Name, s.Description, s.FeeCents, s.DurationMinutes)

	return scanService(row)
}

func (r *PgRepository) UpdateService(ctx context.Context, s *Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $2,
		    description = $3,
		    fee_cents = $4,
		    duration_minutes = $5,
		    active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, fee_cents, duration_minutes, active, created_at, updated_at
	`, s.ID, s.Name, s.Description, s.FeeCents, s.DurationMinutes, s.Active)

	return scanService(row)
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, fee_cents, duration_minutes, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	query := `
		SELECT id, name, description, fee_cents, duration_minutes, active, created_at, updated_at
		FROM services
		ORDER BY name`
	if activeOnly {
		query = `
		SELECT id, name, description, fee_cents, duration_minutes, active, created_at, updated_at
		FROM services
		WHERE active
		ORDER BY name`
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateOffer(ctx context.Context, o *Offer) (*Offer, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO offers (id, service_id, title, discount_percent, valid_from, valid_until, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, service_id, title, discount_percent, valid_from, valid_until, created_at
	`, id, o.ServiceID, o.Title, o.DiscountPercent, o.ValidFrom, o.ValidUntil)

	return scanOffer(row)
}

func (r *PgRepository) ListOffersActiveAt(ctx context.Context, at time.Time) ([]Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_id, title, discount_percent, valid_from, valid_until, created_at
		FROM offers
		WHERE valid_from <= $1 AND valid_until > $1
		ORDER BY valid_until
	`, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
