package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/service"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

type PartnerHandler struct {
	partnerService *service.PartnerService
}

func NewPartnerHandler(partnerService *service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	partners, err := h.partnerService.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list partners")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": partners,
		"total": len(partners),
	})
}

func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	partner, err := h.partnerService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, partner)
}

func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string  `json:"name"`
		ContactEmail string  `json:"contactEmail"`
		Phone        *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	partner, err := h.partnerService.Create(r.Context(), req.Name, req.ContactEmail, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, partner)
}

func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	var req struct {
		Name         *string `json:"name"`
		ContactEmail *string `json:"contactEmail"`
		Phone        *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.ContactEmail != nil && !util.IsValidEmail(*req.ContactEmail) {
		writeError(w, apperrors.InvalidInput("contactEmail", "must be a valid email address"))
		return
	}

	partner, err := h.partnerService.Update(r.Context(), id, model.UpdatePartnerParams{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, partner)
}

func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	if err := h.partnerService.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
