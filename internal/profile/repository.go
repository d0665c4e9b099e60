package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrStaleStatus     = errors.New("profile status changed concurrently")
)

type Repository interface {
	Create(ctx context.Context, p *Profile) (*Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByExternalID(ctx context.Context, externalID string) (*Profile, error)
	ListByRole(ctx context.Context, role Role, limit, offset int) ([]Profile, error)

	// UpdateStatus is a compare-and-set write on the expected prior status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to AccountStatus) (*Profile, error)
}
