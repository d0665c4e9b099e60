package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound      = errors.New("appointment not found")
	ErrTeleconsultationNotFound = errors.New("teleconsultation not found")
	ErrAlreadyClaimed           = errors.New("appointment already claimed by another doctor")
	ErrStaleStatus              = errors.New("appointment status changed concurrently")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	ListUnassigned(ctx context.Context, limit, offset int) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses []Status, limit, offset int) ([]Appointment, error)

	// Claim conditionally binds a doctor: the write only matches a row still
	// in pending_assignment with no doctor. When tele is non-nil the
	// sub-entity insert happens in the same transaction; either both land or
	// neither does.
	Claim(ctx context.Context, id, doctorID uuid.UUID, tele *Teleconsultation) (*Appointment, error)

	// UpdateStatus applies a compare-and-set transition: the write only
	// matches a row still in the expected prior status. teleStatus, when not
	// empty, updates the sub-entity mirror in the same transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, teleStatus TeleStatus) (*Appointment, error)

	GetTeleconsultation(ctx context.Context, id uuid.UUID) (*Teleconsultation, error)

	// Reminder worker
	FindConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
