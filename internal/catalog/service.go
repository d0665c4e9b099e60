package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidFee      = errors.New("fee must not be negative")
	ErrInvalidDiscount = errors.New("discount must be between 1 and 100")
	ErrInvalidWindow   = errors.New("offer validity window is inverted")
)

type CatalogService struct {
	repo Repository
	log  zerolog.Logger
}

func NewCatalogService(repo Repository, log zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, log: log}
}

func (s *CatalogService) CreateService(ctx context.Context, svc *Service) (*Service, error) {
	if svc.Name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if svc.FeeCents < 0 {
		return nil, ErrInvalidFee
	}

	created, err := s.repo.CreateService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	s.log.Info().Str("service_id", created.ID.String()).Str("name", created.Name).Msg("catalog service created")
	return created, nil
}

func (s *CatalogService) UpdateService(ctx context.Context, svc *Service) (*Service, error) {
	if svc.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	}
	if svc.Name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if svc.FeeCents < 0 {
		return nil, ErrInvalidFee
	}

	updated, err := s.repo.UpdateService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}
	return updated, nil
}

func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	return s.repo.GetServiceByID(ctx, id)
}

// ListServices returns the patient-facing catalog: active services only
// unless includeInactive is set (admin views).
func (s *CatalogService) ListServices(ctx context.Context, includeInactive bool) ([]Service, error) {
	return s.repo.ListServices(ctx, !includeInactive)
}

func (s *CatalogService) CreateOffer(ctx context.Context, o *Offer) (*Offer, error) {
	if o.ServiceID == uuid.Nil {
		return nil, fmt.Errorf("%w: service_id", ErrMissingField)
	}
	if o.Title == "" {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	if o.DiscountPercent < 1 || o.DiscountPercent > 100 {
		return nil, ErrInvalidDiscount
	}
	if !o.ValidFrom.Before(o.ValidUntil) {
		return nil, ErrInvalidWindow
	}

	if _, err := s.repo.GetServiceByID(ctx, o.ServiceID); err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}

	created, err := s.repo.CreateOffer(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	return created, nil
}

func (s *CatalogService) ListCurrentOffers(ctx context.Context) ([]Offer, error) {
	return s.repo.ListOffersActiveAt(ctx, time.Now())
}
