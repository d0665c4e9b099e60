package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/dental-scheduling/internal/appointment"
	"github.com/smilecare/dental-scheduling/internal/catalog"
	"github.com/smilecare/dental-scheduling/internal/clinical"
	"github.com/smilecare/dental-scheduling/internal/profile"
)

// ErrorResponse is the envelope for all error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type CreateAppointmentRequest struct {
	ServiceID   string    `json:"service_id" validate:"required,uuid4"`
	Type        string    `json:"appointment_type" validate:"required,oneof=in_person teleconsultation"`
	AddressID   string    `json:"address_id" validate:"omitempty,uuid4"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       string    `json:"notes" validate:"max=2000"`
}

type TeleconsultationResponse struct {
	ID         uuid.UUID `json:"id"`
	MeetingURL string    `json:"meeting_url"`
	Status     string    `json:"status"`
}

type AppointmentResponse struct {
	ID               uuid.UUID                 `json:"id"`
	PatientID        uuid.UUID                 `json:"patient_id"`
	DoctorID         *uuid.UUID                `json:"doctor_id,omitempty"`
	ServiceID        uuid.UUID                 `json:"service_id"`
	Type             string                    `json:"appointment_type"`
	AddressID        *uuid.UUID                `json:"address_id,omitempty"`
	Status           string                    `json:"status"`
	PaymentStatus    string                    `json:"payment_status"`
	ScheduledAt      time.Time                 `json:"scheduled_at"`
	Notes            string                    `json:"notes,omitempty"`
	Teleconsultation *TeleconsultationResponse `json:"teleconsultation,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

func toAppointmentResponse(appt *appointment.Appointment, tele *appointment.Teleconsultation) AppointmentResponse {
	resp := AppointmentResponse{
		ID:            appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		ServiceID:     appt.ServiceID,
		Type:          string(appt.Type),
		AddressID:     appt.AddressID,
		Status:        string(appt.Status),
		PaymentStatus: string(appt.PaymentStatus),
		ScheduledAt:   appt.ScheduledAt,
		Notes:         appt.Notes,
		CreatedAt:     appt.CreatedAt,
		UpdatedAt:     appt.UpdatedAt,
	}
	if tele != nil {
		resp.Teleconsultation = &TeleconsultationResponse{
			ID:         tele.ID,
			MeetingURL: tele.MeetingURL,
			Status:     string(tele.Status),
		}
	}
	return resp
}

func toAppointmentList(appts []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i], nil))
	}
	return out
}

type MedicationEntryRequest struct {
	Name         string `json:"name" validate:"required"`
	Dosage       string `json:"dosage" validate:"required"`
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions"`
}

type CreatePrescriptionRequest struct {
	PatientID     string                   `json:"patient_id" validate:"required,uuid4"`
	AppointmentID string                   `json:"appointment_id" validate:"omitempty,uuid4"`
	Medications   []MedicationEntryRequest `json:"medications" validate:"required,min=1,dive"`
}

type PrescriptionResponse struct {
	ID            uuid.UUID                  `json:"id"`
	PatientID     uuid.UUID                  `json:"patient_id"`
	DoctorID      uuid.UUID                  `json:"doctor_id"`
	AppointmentID *uuid.UUID                 `json:"appointment_id,omitempty"`
	Medications   []clinical.MedicationEntry `json:"medications"`
	CreatedAt     time.Time                  `json:"created_at"`
}

func toPrescriptionResponse(p *clinical.Prescription) PrescriptionResponse {
	return PrescriptionResponse{
		ID:            p.ID,
		PatientID:     p.PatientID,
		DoctorID:      p.DoctorID,
		AppointmentID: p.AppointmentID,
		Medications:   p.Medications,
		CreatedAt:     p.CreatedAt,
	}
}

type CreateHealthRecordRequest struct {
	PatientID     string `json:"patient_id" validate:"required,uuid4"`
	AppointmentID string `json:"appointment_id" validate:"omitempty,uuid4"`
	RecordType    string `json:"record_type" validate:"required"`
	Description   string `json:"description" validate:"required,max=4000"`
	AttachmentRef string `json:"attachment_ref" validate:"max=512"`
}

type HealthRecordResponse struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	RecordType    string     `json:"record_type"`
	Description   string     `json:"description"`
	AttachmentRef *string    `json:"attachment_ref,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toHealthRecordResponse(hr *clinical.HealthRecord) HealthRecordResponse {
	return HealthRecordResponse{
		ID:            hr.ID,
		PatientID:     hr.PatientID,
		DoctorID:      hr.DoctorID,
		AppointmentID: hr.AppointmentID,
		RecordType:    string(hr.Type),
		Description:   hr.Description,
		AttachmentRef: hr.AttachmentRef,
		CreatedAt:     hr.CreatedAt,
	}
}

type CreateConsultationRequest struct {
	PatientID       string `json:"patient_id" validate:"required,uuid4"`
	AppointmentID   string `json:"appointment_id" validate:"omitempty,uuid4"`
	Diagnosis       string `json:"diagnosis" validate:"required,max=4000"`
	Recommendations string `json:"recommendations" validate:"max=4000"`
	Notes           string `json:"notes" validate:"max=4000"`
}

type ConsultationResponse struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	DoctorID        uuid.UUID  `json:"doctor_id"`
	AppointmentID   *uuid.UUID `json:"appointment_id,omitempty"`
	Diagnosis       string     `json:"diagnosis"`
	Recommendations string     `json:"recommendations,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toConsultationResponse(c *clinical.Consultation) ConsultationResponse {
	return ConsultationResponse{
		ID:              c.ID,
		PatientID:       c.PatientID,
		DoctorID:        c.DoctorID,
		AppointmentID:   c.AppointmentID,
		Diagnosis:       c.Diagnosis,
		Recommendations: c.Recommendations,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
	}
}

type RegisterProfileRequest struct {
	ExternalID string `json:"external_id" validate:"required,max=128"`
	Name       string `json:"name" validate:"required,max=256"`
	Email      string `json:"email" validate:"required,email"`
	Role       string `json:"role" validate:"required,oneof=patient doctor admin superadmin"`
}

type ProfileResponse struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toProfileResponse(p *profile.Profile) ProfileResponse {
	return ProfileResponse{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       string(p.Role),
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
	}
}

type CreateServiceRequest struct {
	Name            string `json:"name" validate:"required,max=256"`
	Description     string `json:"description" validate:"max=2000"`
	FeeCents        int64  `json:"fee_cents" validate:"gte=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0"`
}

type UpdateServiceRequest struct {
	Name            string `json:"name" validate:"required,max=256"`
	Description     string `json:"description" validate:"max=2000"`
	FeeCents        int64  `json:"fee_cents" validate:"gte=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0"`
	Active          bool   `json:"active"`
}

type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	FeeCents        int64     `json:"fee_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		FeeCents:        s.FeeCents,
		DurationMinutes: s.DurationMinutes,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

type CreateOfferRequest struct {
	ServiceID       string    `json:"service_id" validate:"required,uuid4"`
	Title           string    `json:"title" validate:"required,max=256"`
	DiscountPercent int       `json:"discount_percent" validate:"gte=1,lte=100"`
	ValidFrom       time.Time `json:"valid_from" validate:"required"`
	ValidUntil      time.Time `json:"valid_until" validate:"required"`
}

type OfferResponse struct {
	ID              uuid.UUID `json:"id"`
	ServiceID       uuid.UUID `json:"service_id"`
	Title           string    `json:"title"`
	DiscountPercent int       `json:"discount_percent"`
	ValidFrom       time.Time `json:"valid_from"`
	ValidUntil      time.Time `json:"valid_until"`
}

func toOfferResponse(o *catalog.Offer) OfferResponse {
	return OfferResponse{
		ID:              o.ID,
		ServiceID:       o.ServiceID,
		Title:           o.Title,
		DiscountPercent: o.DiscountPercent,
		ValidFrom:       o.ValidFrom,
		ValidUntil:      o.ValidUntil,
	}
}
