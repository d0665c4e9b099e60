package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smilecare/dental-scheduling/internal/catalog"
)

type CatalogHandler struct {
	svc CatalogService
	log zerolog.Logger
}

func NewCatalogHandler(svc CatalogService, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: log}
}

func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	created, err := h.svc.CreateService(r.Context(), &catalog.Service{
		Name:            req.Name,
		Description:     req.Description,
		FeeCents:        req.FeeCents,
		DurationMinutes: req.DurationMinutes,
		Active:          true,
	})
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toServiceResponse(created))
}

func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "service id must be a UUID")
		return
	}

	var req UpdateServiceRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	updated, err := h.svc.UpdateService(r.Context(), &catalog.Service{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		FeeCents:        req.FeeCents,
		DurationMinutes: req.DurationMinutes,
		Active:          req.Active,
	})
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceResponse(updated))
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "service id must be a UUID")
		return
	}

	svc, err := h.svc.GetService(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	services, err := h.svc.ListServices(r.Context(), includeInactive)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	out := make([]ServiceResponse, 0, len(services))
	for i := range services {
		out = append(out, toServiceResponse(&services[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "service_id must be a UUID")
		return
	}

	created, err := h.svc.CreateOffer(r.Context(), &catalog.Offer{
		ServiceID:       serviceID,
		Title:           req.Title,
		DiscountPercent: req.DiscountPercent,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
	})
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfferResponse(created))
}

func (h *CatalogHandler) ListCurrentOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.ListCurrentOffers(r.Context())
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	out := make([]OfferResponse, 0, len(offers))
	for i := range offers {
		out = append(out, toOfferResponse(&offers[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrMissingField),
		errors.Is(err, catalog.ErrInvalidFee),
		errors.Is(err, catalog.ErrInvalidDiscount),
		errors.Is(err, catalog.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.Error().Err(err).Msg("catalog handler failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
