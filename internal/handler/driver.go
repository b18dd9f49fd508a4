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

type DriverHandler struct {
	driverService *service.DriverService
}

func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

func (h *DriverHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)

	return r
}

func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	drivers, err := h.driverService.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list drivers")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": drivers,
		"total": len(drivers),
	})
}

func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	driver, err := h.driverService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}

func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	var req struct {
		Name      *string `json:"name"`
		Phone     *string `json:"phone"`
		Email     *string `json:"email"`
		PartnerID *string `json:"partnerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Email != nil && !util.IsValidEmail(*req.Email) {
		writeError(w, apperrors.InvalidInput("email", "must be a valid email address"))
		return
	}
	if req.PartnerID != nil && !util.IsValidUUID(*req.PartnerID) {
		writeError(w, apperrors.InvalidInput("partnerId", "must be a UUID"))
		return
	}

	driver, err := h.driverService.Update(r.Context(), id, model.UpdateDriverParams{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		PartnerID: req.PartnerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}
