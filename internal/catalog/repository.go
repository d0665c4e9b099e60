package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrOfferNotFound   = errors.New("offer not found")
)

type Repository interface {
	CreateService(ctx context.Context, s *Service) (*Service, error)
	UpdateService(ctx context.Context, s *Service) (*Service, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]Service, error)

	CreateOffer(ctx context.Context, o *Offer) (*Offer, error)
	ListOffersActiveAt(ctx context.Context, at time.Time) ([]Offer, error)
}
