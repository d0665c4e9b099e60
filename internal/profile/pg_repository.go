package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile

	err := row.Scan(
		&p.ID,
		&p.ExternalID,
		&p.Name,
		&p.Email,
		&p.Role,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Profile) (*Profile, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, external_id, name, email, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, external_id, name, email, role, status, created_at, updated_at
	`, id, p.ExternalID, p.Name, p.Email, p.Role, p.Status)

	created, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, external_id, name, email, role, status, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, id)
	return scanProfile(row)
}

func (r *PgRepository) GetByExternalID(ctx context.Context, externalID string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, external_id, name, email, role, status, created_at, updated_at
		FROM profiles
		WHERE external_id = $1
	`, externalID)
	return scanProfile(row)
}

func (r *PgRepository) ListByRole(ctx context.Context, role Role, limit, offset int) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, external_id, name, email, role, status, created_at, updated_at
		FROM profiles
		WHERE role = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, role, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to AccountStatus) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE profiles
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, external_id, name, email, role, status, created_at, updated_at
	`, id, to, from)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrStaleStatus
		}
		return nil, err
	}

	return p, nil
}
