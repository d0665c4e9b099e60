package clinical

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrMissingField            = errors.New("missing required field")
	ErrAppointmentNotCompleted = errors.New("appointment is not completed yet")
)

// AppointmentChecker answers whether an appointment has reached completed.
// Implemented by the appointment service; notes only attach after the visit.
type AppointmentChecker interface {
	IsCompleted(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo         Repository
	appointments AppointmentChecker
	log          zerolog.Logger
}

func NewService(repo Repository, appointments AppointmentChecker, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		log:          log,
	}
}

// checkAppointment enforces the post-completion rule when a note references
// an appointment. Notes without an appointment link are allowed.
func (s *Service) checkAppointment(ctx context.Context, appointmentID *uuid.UUID) error {
	if appointmentID == nil {
		return nil
	}
	completed, err := s.appointments.IsCompleted(ctx, *appointmentID)
	if err != nil {
		return fmt.Errorf("check appointment: %w", err)
	}
	if !completed {
		return ErrAppointmentNotCompleted
	}
	return nil
}

func (s *Service) AttachPrescription(ctx context.Context, p *Prescription) (*Prescription, error) {
	if p.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id", ErrMissingField)
	}
	if p.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id", ErrMissingField)
	}
	if len(p.Medications) == 0 {
		return nil, fmt.Errorf("%w: medications", ErrMissingField)
	}
	for i, m := range p.Medications {
		if m.Name == "" {
			return nil, fmt.Errorf("%w: medications[%d].name", ErrMissingField, i)
		}
		if m.Dosage == "" {
			return nil, fmt.Errorf("%w: medications[%d].dosage", ErrMissingField, i)
		}
	}

	if err := s.checkAppointment(ctx, p.AppointmentID); err != nil {
		return nil, err
	}

	created, err := s.repo.CreatePrescription(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}

	s.log.Info().
		Str("prescription_id", created.ID.String()).
		Str("patient_id", created.PatientID.String()).
		Int("medications", len(created.Medications)).
		Msg("prescription attached")

	return created, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetPrescriptionByID(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Prescription, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListPrescriptionsByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AttachHealthRecord(ctx context.Context, hr *HealthRecord) (*HealthRecord, error) {
	if hr.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id", ErrMissingField)
	}
	if hr.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id", ErrMissingField)
	}
	if !hr.Type.Valid() {
		return nil, fmt.Errorf("%w: record_type", ErrMissingField)
	}
	if hr.Description == "" {
		return nil, fmt.Errorf("%w: description", ErrMissingField)
	}

	if err := s.checkAppointment(ctx, hr.AppointmentID); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateHealthRecord(ctx, hr)
	if err != nil {
		return nil, fmt.Errorf("create health record: %w", err)
	}

	return created, nil
}

func (s *Service) ListHealthRecords(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]HealthRecord, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListHealthRecordsByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AttachConsultation(ctx context.Context, c *Consultation) (*Consultation, error) {
	if c.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id", ErrMissingField)
	}
	if c.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id", ErrMissingField)
	}
	if c.Diagnosis == "" {
		return nil, fmt.Errorf("%w: diagnosis", ErrMissingField)
	}

	if err := s.checkAppointment(ctx, c.AppointmentID); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateConsultation(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create consultation: %w", err)
	}

	return created, nil
}

func (s *Service) ListConsultations(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Consultation, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListConsultationsByPatient(ctx, patientID, limit, offset)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
