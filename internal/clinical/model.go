package clinical

import (
	"time"

	"github.com/google/uuid"
)

// MedicationEntry is a single line of a prescription. Entry order is
// meaningful and preserved on read.
type MedicationEntry struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions,omitempty"`
}

type Prescription struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	AppointmentID *uuid.UUID
	Medications   []MedicationEntry
	CreatedAt     time.Time
}

type HealthRecordType string

const (
	RecordDiagnosis      HealthRecordType = "diagnosis"
	RecordTestResult     HealthRecordType = "test_result"
	RecordAllergy        HealthRecordType = "allergy"
	RecordMedicalHistory HealthRecordType = "medical_history"
	RecordVaccination    HealthRecordType = "vaccination"
	RecordOther          HealthRecordType = "other"
)

func (t HealthRecordType) Valid() bool {
	switch t {
	case RecordDiagnosis, RecordTestResult, RecordAllergy,
		RecordMedicalHistory, RecordVaccination, RecordOther:
		return true
	}
	return false
}

type HealthRecord struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	AppointmentID *uuid.UUID
	Type          HealthRecordType
	Description   string
	AttachmentRef *string
	CreatedAt     time.Time
}

type Consultation struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	DoctorID        uuid.UUID
	AppointmentID   *uuid.UUID
	Diagnosis       string
	Recommendations string
	Notes           string
	CreatedAt       time.Time
}
