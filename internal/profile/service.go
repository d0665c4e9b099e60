package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrNotPending   = errors.New("profile is not pending approval")
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

type RegisterParams struct {
	ExternalID string
	Name       string
	Email      string
	Role       Role
}

// Register creates a profile for an identity-provider user. Doctors land in
// pending_approval and stay invisible to patients until an admin approves
// them; everyone else is active immediately.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*Profile, error) {
	if p.ExternalID == "" {
		return nil, fmt.Errorf("%w: external_id", ErrMissingField)
	}
	if p.Email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	}
	if !p.Role.Valid() {
		return nil, fmt.Errorf("%w: role", ErrMissingField)
	}

	status := StatusActive
	if p.Role == RoleDoctor {
		status = StatusPendingApproval
	}

	created, err := s.repo.Create(ctx, &Profile{
		ExternalID: p.ExternalID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       p.Role,
		Status:     status,
	})
	if err != nil {
		return nil, fmt.Errorf("register profile: %w", err)
	}

	s.log.Info().
		Str("profile_id", created.ID.String()).
		Str("role", string(created.Role)).
		Str("status", string(created.Status)).
		Msg("profile registered")

	return created, nil
}

// Approve moves a pending doctor profile to active.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := s.repo.UpdateStatus(ctx, id, StatusPendingApproval, StatusActive)
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("approve profile: %w", err)
	}
	return p, nil
}

// Deactivate disables an active profile.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := s.repo.UpdateStatus(ctx, id, StatusActive, StatusInactive)
	if err != nil {
		return nil, fmt.Errorf("deactivate profile: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*Profile, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}

func (s *Service) ListByRole(ctx context.Context, role Role, limit, offset int) ([]Profile, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role", ErrMissingField)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByRole(ctx, role, limit, offset)
}
