package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable dental procedure with its listed fee.
type Service struct {
	ID              uuid.UUID
	Name            string
	Description     string
	FeeCents        int64
	DurationMinutes int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Offer is a promotional discount on a service, valid inside a window.
type Offer struct {
	ID              uuid.UUID
	ServiceID       uuid.UUID
	Title           string
	DiscountPercent int
	ValidFrom       time.Time
	ValidUntil      time.Time
	CreatedAt       time.Time
}

// ActiveAt reports whether the offer applies at t.
func (o Offer) ActiveAt(t time.Time) bool {
	return !t.Before(o.ValidFrom) && t.Before(o.ValidUntil)
}
