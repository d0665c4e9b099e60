package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
)

// Repository persists clinical notes. All three record kinds are
// append-only: there is no update or delete path.
type Repository interface {
	CreatePrescription(ctx context.Context, p *Prescription) (*Prescription, error)
	GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Prescription, error)

	CreateHealthRecord(ctx context.Context, hr *HealthRecord) (*HealthRecord, error)
	ListHealthRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]HealthRecord, error)

	CreateConsultation(ctx context.Context, c *Consultation) (*Consultation, error)
	ListConsultationsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Consultation, error)
}
