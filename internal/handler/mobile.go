package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ridefleet/fleet-admin-go/internal/audit"
	apperrors "github.com/ridefleet/fleet-admin-go/internal/errors"
	"github.com/ridefleet/fleet-admin-go/internal/middleware"
	"github.com/ridefleet/fleet-admin-go/internal/model"
	"github.com/ridefleet/fleet-admin-go/internal/service"
)

// MobileHandler serves the unauthenticated mobile surface: token redemption
// plus the credential-gated endpoints behind it.
type MobileHandler struct {
	pairingService *service.PairingService
	rideService    *service.RideService
	deviceService  *service.DeviceService
	deviceAuth     *middleware.DeviceAuthMiddleware
}

func NewMobileHandler(
	pairingService *service.PairingService,
	rideService *service.RideService,
	deviceService *service.DeviceService,
	deviceAuth *middleware.DeviceAuthMiddleware,
) *MobileHandler {
	return &MobileHandler{
		pairingService: pairingService,
		rideService:    rideService,
		deviceService:  deviceService,
		deviceAuth:     deviceAuth,
	}
}

func (h *MobileHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/pair", h.Pair)

	r.Group(func(r chi.Router) {
		r.Use(h.deviceAuth.Handler)
		r.Get("/rides", h.ListRides)
		r.Post("/device", h.UpdateDevice)
	})

	return r
}

// POST /mobile/pair
func (h *MobileHandler) Pair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string                      `json:"token"`
		Driver *service.DriverRegistration `json:"driver,omitempty"`
		Device *service.DeviceInfo         `json:"device,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.pairingService.RedeemToken(r.Context(), req.Token, req.Driver, req.Device)
	if err != nil {
		code := apperrors.GetCode(err)
		audit.LogFromRequest(r, audit.Event{
			Type: audit.EventTokenRedeemFailed,
			Details: map[string]interface{}{
				"code": string(code),
			},
		})
		if code == apperrors.ErrCodeInternal || code == apperrors.ErrCodeDatabase {
			log.Error().Err(err).Msg("token redemption failed")
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:         audit.EventTokenRedeem,
		IdentityKind: string(result.Identity.Kind),
		IdentityID:   result.Identity.ID,
	})

	writeJSON(w, http.StatusOK, result)
}

// GET /mobile/rides
func (h *MobileHandler) ListRides(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetDeviceIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	rides, err := h.rideService.WorkItems(r.Context(), *identity)
	if err != nil {
		log.Error().Err(err).Msg("failed to list work items")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": rides,
		"total": len(rides),
	})
}

// POST /mobile/device
func (h *MobileHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetDeviceIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	var req struct {
		DeviceName  string `json:"deviceName"`
		DeviceModel string `json:"deviceModel"`
		Platform    string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.DeviceName == "" {
		writeError(w, apperrors.MissingRequired("deviceName"))
		return
	}

	device, err := h.deviceService.Register(r.Context(), model.UpsertMobileDeviceParams{
		OwnerKind:   identity.Kind,
		OwnerID:     identity.ID,
		DeviceName:  req.DeviceName,
		DeviceModel: req.DeviceModel,
		Platform:    req.Platform,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to update device")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, device)
}
