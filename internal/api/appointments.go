package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smilecare/dental-scheduling/internal/appointment"
	"github.com/smilecare/dental-scheduling/internal/auth"
	"github.com/smilecare/dental-scheduling/internal/metrics"
)

type AppointmentHandler struct {
	svc AppointmentService
	log zerolog.Logger
}

func NewAppointmentHandler(svc AppointmentService, log zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, log: log}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	var req CreateAppointmentRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "service_id must be a UUID")
		return
	}

	params := appointment.CreateParams{
		PatientID:   identity.ProfileID,
		ServiceID:   serviceID,
		Type:        appointment.Type(req.Type),
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	}
	if req.AddressID != "" {
		addressID, err := uuid.Parse(req.AddressID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "address_id must be a UUID")
			return
		}
		params.AddressID = &addressID
	}

	appt, err := h.svc.Create(r.Context(), params)
	if err != nil {
		h.writeAppointmentError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt, nil))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment id must be a UUID")
		return
	}

	detail, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeAppointmentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(&detail.Appointment, detail.Teleconsultation))
}

func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	limit, offset := parsePage(r)
	appts, err := h.svc.ListByPatient(r.Context(), identity.ProfileID, limit, offset)
	if err != nil {
		h.writeAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentList(appts))
}

func (h *AppointmentHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	appts, err := h.svc.ListUnassigned(r.Context(), limit, offset)
	if err != nil {
		h.writeAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentList(appts))
}

// ListAssigned returns the calling doctor's appointments, optionally
// filtered by one or more ?status= values.
func (h *AppointmentHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	var statuses []appointment.Status
	for _, raw := range r.URL.Query()["status"] {
		statuses = append(statuses, appointment.Status(raw))
	}

	limit, offset := parsePage(r)
	appts, err := h.svc.ListByDoctor(r.Context(), identity.ProfileID, statuses, limit, offset)
	if err != nil {
		h.writeAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentList(appts))
}

func (h *AppointmentHandler) Claim(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment id must be a UUID")
		return
	}

	appt, err := h.svc.Claim(r.Context(), id, identity.ProfileID)
	if err != nil {
		metrics.ClaimsTotal.WithLabelValues(claimResult(err)).Inc()
		h.writeAppointmentError(w, err)
		return
	}
	metrics.ClaimsTotal.WithLabelValues(metrics.ResultOK).Inc()

	detail, err := h.svc.Get(r.Context(), appt.ID)
	if err != nil {
		h.writeAppointmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(&detail.Appointment, detail.Teleconsultation))
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm", h.svc.Confirm)
}

func (h *AppointmentHandler) Depart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "depart", h.svc.Depart)
}

func (h *AppointmentHandler) Arrive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "arrive", h.svc.Arrive)
}

func (h *AppointmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start", h.svc.Start)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete", h.svc.Complete)
}

func (h *AppointmentHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "decline", h.svc.Decline)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", h.svc.Cancel)
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reschedule", h.svc.Reschedule)
}

type transitionFunc func(ctx context.Context, id, actorID uuid.UUID) (*appointment.Appointment, error)

// transition runs a lifecycle action on behalf of the authenticated caller.
// The service layer checks ownership, so the same path serves doctor and
// patient actions.
func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn transitionFunc) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment id must be a UUID")
		return
	}

	appt, err := fn(r.Context(), id, identity.ProfileID)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(action, transitionResult(err)).Inc()
		h.writeAppointmentError(w, err)
		return
	}
	metrics.TransitionsTotal.WithLabelValues(action, metrics.ResultOK).Inc()

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt, nil))
}

func (h *AppointmentHandler) writeAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, appointment.ErrTeleconsultationNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, appointment.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, appointment.ErrClaimInProgress):
		writeError(w, http.StatusConflict, "claim_in_progress", err.Error())
	case errors.Is(err, appointment.ErrTerminalStatus),
		errors.Is(err, appointment.ErrInvalidTransition),
		errors.Is(err, appointment.ErrStaleStatus):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, appointment.ErrOutsideCallWindow):
		writeError(w, http.StatusConflict, "outside_call_window", err.Error())
	case errors.Is(err, appointment.ErrNotAssignedDoctor),
		errors.Is(err, appointment.ErrNotAppointmentPatient):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrMissingField),
		errors.Is(err, appointment.ErrAddressRequired):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.Error().Err(err).Msg("appointment handler failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

func claimResult(err error) string {
	switch {
	case errors.Is(err, appointment.ErrAlreadyClaimed),
		errors.Is(err, appointment.ErrClaimInProgress),
		errors.Is(err, appointment.ErrTerminalStatus),
		errors.Is(err, appointment.ErrInvalidTransition):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

func transitionResult(err error) string {
	switch {
	case errors.Is(err, appointment.ErrTerminalStatus),
		errors.Is(err, appointment.ErrInvalidTransition),
		errors.Is(err, appointment.ErrStaleStatus),
		errors.Is(err, appointment.ErrOutsideCallWindow),
		errors.Is(err, appointment.ErrNotAssignedDoctor),
		errors.Is(err, appointment.ErrNotAppointmentPatient):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

func parsePage(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			offset = n
		}
	}
	return limit, offset
}
