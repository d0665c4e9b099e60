package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smilecare/dental-scheduling/internal/auth"
	"github.com/smilecare/dental-scheduling/internal/profile"
)

type ProfileHandler struct {
	svc ProfileService
	log zerolog.Logger
}

func NewProfileHandler(svc ProfileService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterProfileRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	p, err := h.svc.Register(r.Context(), profile.RegisterParams{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		Email:      req.Email,
		Role:       profile.Role(req.Role),
	})
	if err != nil {
		h.writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no identity in request")
		return
	}

	p, err := h.svc.Get(r.Context(), identity.ProfileID)
	if err != nil {
		h.writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "profile id must be a UUID")
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *ProfileHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	role := profile.Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "role query parameter is required")
		return
	}

	limit, offset := parsePage(r)
	profiles, err := h.svc.ListByRole(r.Context(), role, limit, offset)
	if err != nil {
		h.writeProfileError(w, err)
		return
	}

	out := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, toProfileResponse(&profiles[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProfileHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.svc.Approve)
}

func (h *ProfileHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.svc.Deactivate)
}

func (h *ProfileHandler) statusChange(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*profile.Profile, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "profile id must be a UUID")
		return
	}

	p, err := fn(r.Context(), id)
	if err != nil {
		h.writeProfileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *ProfileHandler) writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, profile.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, profile.ErrNotPending),
		errors.Is(err, profile.ErrStaleStatus):
		writeError(w, http.StatusConflict, "invalid_status_change", err.Error())
	case errors.Is(err, profile.ErrMissingField):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.Error().Err(err).Msg("profile handler failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
