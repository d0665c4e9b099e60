package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smilecare/dental-scheduling/internal/appointment"
	"github.com/smilecare/dental-scheduling/internal/auth"
	"github.com/smilecare/dental-scheduling/internal/clinical"
	"github.com/smilecare/dental-scheduling/internal/profile"
)

type ClinicalHandler struct {
	svc ClinicalService
	log zerolog.Logger
}

func NewClinicalHandler(svc ClinicalService, log zerolog.Logger) *ClinicalHandler {
	return &ClinicalHandler{svc: svc, log: log}
}

func (h *ClinicalHandler) AttachPrescription(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	var req CreatePrescriptionRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "patient_id must be a UUID")
		return
	}

	p := &clinical.Prescription{
		PatientID: patientID,
		DoctorID:  identity.ProfileID,
	}
	if req.AppointmentID != "" {
		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "appointment_id must be a UUID")
			return
		}
		p.AppointmentID = &appointmentID
	}
	for _, m := range req.Medications {
		p.Medications = append(p.Medications, clinical.MedicationEntry{
			Name:         m.Name,
			Dosage:       m.Dosage,
			Frequency:    m.Frequency,
			Instructions: m.Instructions,
		})
	}

	created, err := h.svc.AttachPrescription(r.Context(), p)
	if err != nil {
		h.writeClinicalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPrescriptionResponse(created))
}

func (h *ClinicalHandler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "prescription id must be a UUID")
		return
	}

	p, err := h.svc.GetPrescription(r.Context(), id)
	if err != nil {
		h.writeClinicalError(w, err)
		return
	}

	if !h.canViewPatient(r, p.PatientID) {
		writeError(w, http.StatusForbidden, "forbidden", "not your record")
		return
	}
	writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
}

func (h *ClinicalHandler) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientFromPath(w, r)
	if !ok {
		return
	}

	limit, offset := parsePage(r)
	items, err := h.svc.ListPrescriptions(r.Context(), patientID, limit, offset)
	if err != nil {
		h.writeClinicalError(w, err)
		return
	}

	out := make([]PrescriptionResponse, 0, len(items))
	for i := range items {
		out = append(out, toPrescriptionResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ClinicalHandler) AttachHealthRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	var req CreateHealthRecordRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "patient_id must be a UUID")
		return
	}

	hr := &clinical.HealthRecord{
		PatientID:   patientID,
		DoctorID:    identity.ProfileID,
		Type:        clinical.HealthRecordType(req.RecordType),
		Description: req.Description,
	}
	if req.AppointmentID != "" {
		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "appointment_id must be a UUID")
			return
		}
		hr.AppointmentID = &appointmentID
	}
	if req.AttachmentRef != "" {
		hr.AttachmentRef = &req.AttachmentRef
	}

	created, err := h.svc.AttachHealthRecord(r.Context(), hr)
	if err != nil {
		h.writeClinicalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHealthRecordResponse(created))
}

func (h *ClinicalHandler) ListHealthRecords(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientFromPath(w, r)
	if !ok {
		return
	}

	limit, offset := parsePage(r)
	items, err := h.svc.ListHealthRecords(r.Context(), patientID, limit, offset)
	if err != nil {
		h.writeClinicalError(w, err)
		return
	}

	out := make([]HealthRecordResponse, 0, len(items))
	for i := range items {
		out = append(out, toHealthRecordResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ClinicalHandler) AttachConsultation(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	var req CreateConsultationRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "patient_id must be a UUID")
		return
	}

	c := &clinical.Consultation{
		PatientID:       patientID,
		DoctorID:        identity.ProfileID,
		Diagnosis:       req.Diagnosis,
		Recommendations: req.Recommendations,
		Notes:           req.Notes,
	}
	if req.AppointmentID != "" {
		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "appointment_id must be a UUID")
			return
		}
		c.AppointmentID = &appointmentID
	}

	created, err := h.svc.AttachConsultation(r.Context(), c)
	if err != nil {
		h.writeClinicalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConsultationResponse(created))
}

func (h *ClinicalHandler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patientFromPath(w, r)
	if !ok {
		return
	}

	limit, offset := parsePage(r)
	items, err := h.svc.ListConsultations(r.Context(), patientID, limit, offset)
	if err != nil {
		h.writeClinicalError(w, err)
		return
	}

	out := make([]ConsultationResponse, 0, len(items))
	for i := range items {
		out = append(out, toConsultationResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// patientFromPath parses the patientID path param and enforces that a
// patient can only read their own records.
func (h *ClinicalHandler) patientFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "patient id must be a UUID")
		return uuid.Nil, false
	}
	if !h.canViewPatient(r, patientID) {
		writeError(w, http.StatusForbidden, "forbidden", "not your record")
		return uuid.Nil, false
	}
	return patientID, true
}

func (h *ClinicalHandler) canViewPatient(r *http.Request, patientID uuid.UUID) bool {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		return false
	}
	if identity.Role == profile.RolePatient {
		return identity.ProfileID == patientID
	}
	return true
}

func (h *ClinicalHandler) writeClinicalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinical.ErrPrescriptionNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, clinical.ErrAppointmentNotCompleted):
		writeError(w, http.StatusConflict, "appointment_not_completed", err.Error())
	case errors.Is(err, clinical.ErrMissingField):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.Error().Err(err).Msg("clinical handler failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
