package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smilecare/dental-scheduling/internal/config"
	redisclient "github.com/smilecare/dental-scheduling/internal/redis"
)

const (
	EventAppointmentRequested      = "APPOINTMENT_REQUESTED"
	EventAppointmentClaimed        = "APPOINTMENT_CLAIMED"
	EventStatusChanged             = "APPOINTMENT_STATUS_CHANGED"
	EventTeleconsultationScheduled = "TELECONSULTATION_SCHEDULED"
	EventAppointmentReminderSent   = "APPOINTMENT_REMINDER_SENT"
)

var (
	ErrClaimInProgress       = errors.New("appointment is currently being claimed, please retry")
	ErrNotAssignedDoctor     = errors.New("appointment is assigned to a different doctor")
	ErrNotAppointmentPatient = errors.New("appointment belongs to a different patient")
	ErrOutsideCallWindow     = errors.New("teleconsultation call window is not open")
	ErrAddressRequired       = errors.New("in-person appointments require an address")
	ErrMissingField          = errors.New("missing required field")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
	}
}

type CreateParams struct {
	PatientID   uuid.UUID
	ServiceID   uuid.UUID
	Type        Type
	AddressID   *uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

// Create registers a patient's visit request. The appointment starts in
// pending_assignment with no doctor bound.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	if p.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id", ErrMissingField)
	}
	if p.ServiceID == uuid.Nil {
		return nil, fmt.Errorf("%w: service_id", ErrMissingField)
	}
	if p.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_at", ErrMissingField)
	}
	switch p.Type {
	case TypeInPerson:
		if p.AddressID == nil {
			return nil, ErrAddressRequired
		}
	case TypeTeleconsultation:
		// address is meaningless for remote visits
		p.AddressID = nil
	default:
		return nil, fmt.Errorf("%w: appointment_type", ErrMissingField)
	}

	appt, err := s.repo.Create(ctx, &Appointment{
		PatientID:   p.PatientID,
		ServiceID:   p.ServiceID,
		Type:        p.Type,
		AddressID:   p.AddressID,
		ScheduledAt: p.ScheduledAt,
		Notes:       p.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentRequested, map[string]any{
		"patient_id":       appt.PatientID.String(),
		"service_id":       appt.ServiceID.String(),
		"appointment_type": string(appt.Type),
		"scheduled_at":     appt.ScheduledAt,
	})

	return appt, nil
}

// Claim binds an unassigned appointment to a doctor. The per-appointment
// Redis lock serializes concurrent claims and the conditional write inside
// the repository guarantees at most one doctor wins even if the lock
// expires mid-flight. For teleconsultations the meeting room is provisioned
// in the same transaction as the claim.
func (s *Service) Claim(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id", ErrMissingField)
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if _, err := NextStatus(appt.Type, appt.Status, ActionClaim); err != nil {
		if appt.DoctorID != nil {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	var claimed *Appointment

	err = s.locker.WithAppointmentLock(ctx, id, func(lockCtx context.Context) error {
		var tele *Teleconsultation
		if appt.Type == TypeTeleconsultation {
			tele = &Teleconsultation{
				ID:            uuid.New(),
				AppointmentID: id,
				MeetingURL:    s.meetingURL(id, time.Now()),
				Status:        TeleScheduled,
			}
		}

		got, err := s.repo.Claim(lockCtx, id, doctorID, tele)
		if err != nil {
			return err
		}
		claimed = got

		s.logEvent(lockCtx, id, EventAppointmentClaimed, map[string]any{
			"doctor_id": doctorID.String(),
		})
		if tele != nil {
			s.logEvent(lockCtx, id, EventTeleconsultationScheduled, map[string]any{
				"teleconsultation_id": tele.ID.String(),
				"meeting_url":         tele.MeetingURL,
			})
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrClaimInProgress
		}
		return nil, err
	}

	return claimed, nil
}

// meetingURL derives a room from the appointment id and the claim time.
func (s *Service) meetingURL(id uuid.UUID, now time.Time) string {
	room := fmt.Sprintf("%.8s-%d", id.String(), now.Unix())
	return strings.TrimRight(s.cfg.MeetingBaseURL, "/") + "/" + room
}

// Doctor-driven transitions.

func (s *Service) Confirm(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return s.doctorTransition(ctx, id, doctorID, ActionConfirm)
}

func (s *Service) Depart(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return s.doctorTransition(ctx, id, doctorID, ActionDepart)
}

func (s *Service) Arrive(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return s.doctorTransition(ctx, id, doctorID, ActionArrive)
}

// Start opens the service. For teleconsultations the scheduled call window
// is enforced here, server-side, not just by the client hiding the button.
func (s *Service) Start(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Type == TypeTeleconsultation {
		now := time.Now()
		opens := appt.ScheduledAt.Add(-s.cfg.CallWindowLead)
		closes := appt.ScheduledAt.Add(s.cfg.CallWindowLag)
		if now.Before(opens) || now.After(closes) {
			return nil, ErrOutsideCallWindow
		}
	}

	return s.transition(ctx, appt, doctorID, ActionStart, s.checkDoctor)
}

func (s *Service) Complete(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return s.doctorTransition(ctx, id, doctorID, ActionComplete)
}

func (s *Service) Decline(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return s.doctorTransition(ctx, id, doctorID, ActionDecline)
}

// Patient-driven transitions.

func (s *Service) Cancel(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	return s.patientTransition(ctx, id, patientID, ActionCancel)
}

func (s *Service) Reschedule(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	return s.patientTransition(ctx, id, patientID, ActionReschedule)
}

func (s *Service) doctorTransition(ctx context.Context, id, doctorID uuid.UUID, action Action) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return s.transition(ctx, appt, doctorID, action, s.checkDoctor)
}

func (s *Service) patientTransition(ctx context.Context, id, patientID uuid.UUID, action Action) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return s.transition(ctx, appt, patientID, action, s.checkPatient)
}

func (s *Service) checkDoctor(appt *Appointment, actorID uuid.UUID) error {
	if appt.DoctorID == nil || *appt.DoctorID != actorID {
		return ErrNotAssignedDoctor
	}
	return nil
}

func (s *Service) checkPatient(appt *Appointment, actorID uuid.UUID) error {
	if appt.PatientID != actorID {
		return ErrNotAppointmentPatient
	}
	return nil
}

func (s *Service) transition(ctx context.Context, appt *Appointment, actorID uuid.UUID, action Action, authorize func(*Appointment, uuid.UUID) error) (*Appointment, error) {
	if err := authorize(appt, actorID); err != nil {
		return nil, err
	}

	next, err := NextStatus(appt.Type, appt.Status, action)
	if err != nil {
		return nil, err
	}

	mirror := TeleStatus("")
	if appt.Type == TypeTeleconsultation {
		mirror = teleMirror(next)
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, next, mirror)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", action, err)
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"action":   string(action),
		"from":     string(appt.Status),
		"to":       string(next),
		"actor_id": actorID.String(),
	})

	return updated, nil
}

// Queries.

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	detail := &Detail{Appointment: *appt}
	if appt.TeleconsultationID != nil {
		tele, err := s.repo.GetTeleconsultation(ctx, *appt.TeleconsultationID)
		if err != nil {
			return nil, fmt.Errorf("get teleconsultation: %w", err)
		}
		detail.Teleconsultation = tele
	}

	return detail, nil
}

func (s *Service) ListUnassigned(ctx context.Context, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appts, err := s.repo.ListUnassigned(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list unassigned: %w", err)
	}
	return appts, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appts, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appts, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses []Status, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appts, err := s.repo.ListByDoctor(ctx, doctorID, statuses, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appts, nil
}

// IsCompleted reports whether clinical notes may be attached to the
// appointment yet.
func (s *Service) IsCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return appt.Status == StatusCompleted, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
