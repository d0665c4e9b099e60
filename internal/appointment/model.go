package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPendingAssignment  Status = "pending_assignment"
	StatusAssigned           Status = "assigned"
	StatusConfirmed          Status = "confirmed"
	StatusOnTheWay           Status = "on_the_way"
	StatusArrived            Status = "arrived"
	StatusServiceStarted     Status = "service_started"
	StatusCompleted          Status = "completed"
	StatusCancelledByPatient Status = "cancelled_by_patient"
	StatusDeclinedByDoctor   Status = "declined_by_doctor"
	StatusRescheduled        Status = "rescheduled"
)

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelledByPatient, StatusDeclinedByDoctor, StatusRescheduled:
		return true
	}
	return false
}

type Type string

const (
	TypeInPerson         Type = "in_person"
	TypeTeleconsultation Type = "teleconsultation"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type TeleStatus string

const (
	TeleScheduled  TeleStatus = "scheduled"
	TeleInProgress TeleStatus = "in_progress"
	TeleCompleted  TeleStatus = "completed"
	TeleCancelled  TeleStatus = "cancelled"
)

// Appointment is a dental visit requested by a patient. DoctorID stays nil
// until a doctor claims it and never changes afterwards; records are never
// deleted, only terminally stamped.
type Appointment struct {
	ID                 uuid.UUID
	PatientID          uuid.UUID
	DoctorID           *uuid.UUID
	ServiceID          uuid.UUID
	Type               Type
	AddressID          *uuid.UUID // in_person visits only
	TeleconsultationID *uuid.UUID // set when a teleconsultation is claimed
	Status             Status
	PaymentStatus      PaymentStatus
	ScheduledAt        time.Time
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	AssignedAt         *time.Time
	ConfirmedAt        *time.Time
	DepartedAt         *time.Time
	ArrivedAt          *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	ClosedAt           *time.Time // cancel, decline or reschedule
}

// Teleconsultation is the video-call session owned by its parent
// appointment. It has no lifecycle of its own: its status mirrors the parent.
type Teleconsultation struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	MeetingURL    string
	Status        TeleStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type Detail struct {
	Appointment
	Teleconsultation *Teleconsultation
}
