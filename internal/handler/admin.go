package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ridefleet/fleet-admin-go/internal/audit"
	"github.com/ridefleet/fleet-admin-go/internal/middleware"
	"github.com/ridefleet/fleet-admin-go/internal/service"
)

type AdminHandler struct {
	adminService      *service.AdminService
	sessionMiddleware func(http.Handler) http.Handler
	loginRateLimiter  *middleware.LoginRateLimiter
	isProduction      bool

	pairingHandler *PairingHandler
	driverHandler  *DriverHandler
	staffHandler   *StaffHandler
	partnerHandler *PartnerHandler
	rideHandler    *RideHandler
}

func NewAdminHandler(
	adminService *service.AdminService,
	sessionMiddleware func(http.Handler) http.Handler,
	isProduction bool,
	pairingHandler *PairingHandler,
	driverHandler *DriverHandler,
	staffHandler *StaffHandler,
	partnerHandler *PartnerHandler,
	rideHandler *RideHandler,
) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		sessionMiddleware: sessionMiddleware,
		loginRateLimiter:  middleware.NewLoginRateLimiter(),
		isProduction:      isProduction,
		pairingHandler:    pairingHandler,
		driverHandler:     driverHandler,
		staffHandler:      staffHandler,
		partnerHandler:    partnerHandler,
		rideHandler:       rideHandler,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Get("/api/stats", h.Stats)

		r.Mount("/api/tokens", h.pairingHandler.Routes())
		r.Mount("/api/drivers", h.driverHandler.Routes())
		r.Mount("/api/staff", h.staffHandler.Routes())
		r.Mount("/api/partners", h.partnerHandler.Routes())
		r.Mount("/api/rides", h.rideHandler.Routes())
	})

	return r
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password is required"})
		return
	}

	token, err := h.adminService.Login(r.Context(), req.Password)
	if err != nil {
		log.Error().Err(err).Msg("admin login error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Login failed"})
		return
	}

	if token == "" {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess})
	middleware.SetSessionCookie(w, middleware.AdminSessionCookie, token, "/admin", h.isProduction)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AdminSessionCookie)
	if err == nil && cookie.Value != "" {
		h.adminService.Logout(r.Context(), cookie.Value)
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	middleware.ClearSessionCookie(w, middleware.AdminSessionCookie, "/admin")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.GetStats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get stats")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
