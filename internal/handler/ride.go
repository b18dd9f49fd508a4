package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/service"
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

type RideHandler struct {
	rideService *service.RideService
}

func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

func (h *RideHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Post("/{id}/assign", h.Assign)

	return r
}

func (h *RideHandler) List(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	rides, err := h.rideService.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list rides")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": rides,
		"total": len(rides),
	})
}

func (h *RideHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	ride, err := h.rideService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ride)
}

func (h *RideHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PassengerName  string   `json:"passengerName"`
		PartnerID      *string  `json:"partnerId"`
		PickupAddress  string   `json:"pickupAddress"`
		PickupLat      *float64 `json:"pickupLat"`
		PickupLon      *float64 `json:"pickupLon"`
		DropoffAddress string   `json:"dropoffAddress"`
		DropoffLat     *float64 `json:"dropoffLat"`
		DropoffLon     *float64 `json:"dropoffLon"`
		ScheduledAt    string   `json:"scheduledAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.PartnerID != nil && !util.IsValidUUID(*req.PartnerID) {
		writeError(w, apperrors.InvalidInput("partnerId", "must be a UUID"))
		return
	}

	var scheduledAt time.Time
	if req.ScheduledAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			writeError(w, apperrors.InvalidInput("scheduledAt", "must be an RFC 3339 timestamp"))
			return
		}
		scheduledAt = parsed
	}

	ride, err := h.rideService.Create(r.Context(), service.CreateRideInput{
		PassengerName:  req.PassengerName,
		PartnerID:      req.PartnerID,
		PickupAddress:  req.PickupAddress,
		PickupLat:      req.PickupLat,
		PickupLon:      req.PickupLon,
		DropoffAddress: req.DropoffAddress,
		DropoffLat:     req.DropoffLat,
		DropoffLon:     req.DropoffLon,
		ScheduledAt:    scheduledAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ride)
}

func (h *RideHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	var req struct {
		PassengerName  *string `json:"passengerName"`
		PickupAddress  *string `json:"pickupAddress"`
		DropoffAddress *string `json:"dropoffAddress"`
		ScheduledAt    *string `json:"scheduledAt"`
		Status         *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	params := model.UpdateRideParams{
		PassengerName:  req.PassengerName,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
	}
	if req.ScheduledAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			writeError(w, apperrors.InvalidInput("scheduledAt", "must be an RFC 3339 timestamp"))
			return
		}
		params.ScheduledAt = &parsed
	}
	if req.Status != nil {
		status := model.RideStatus(*req.Status)
		params.Status = &status
	}

	ride, err := h.rideService.Update(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ride)
}

func (h *RideHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	var req struct {
		DriverID string `json:"driverId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if !util.IsValidUUID(req.DriverID) {
		writeError(w, apperrors.InvalidInput("driverId", "must be a UUID"))
		return
	}

	ride, err := h.rideService.Assign(r.Context(), id, req.DriverID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ride)
}
