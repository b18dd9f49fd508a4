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
	"github.com/ridefleet/fleet-admin-go/internal/util"
)

// PairingHandler exposes the admin side of the pairing flow: issuing
// connection tokens and listing the active ones for an identity.
type PairingHandler struct {
	pairingService *service.PairingService
}

func NewPairingHandler(pairingService *service.PairingService) *PairingHandler {
	return &PairingHandler{pairingService: pairingService}
}

func (h *PairingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.IssueToken)
	r.Get("/", h.ListActiveTokens)

	return r
}

// POST /admin/api/tokens
func (h *PairingHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetAdminSession(r.Context())
	if session == nil {
		writeError(w, apperrors.Unauthenticated("Admin authentication required"))
		return
	}

	var req struct {
		StaffID *string `json:"staffId"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.ValidationError("Invalid request body"))
			return
		}
	}

	if req.StaffID != nil && !util.IsValidUUID(*req.StaffID) {
		writeError(w, apperrors.InvalidInput("staffId", "must be a UUID"))
		return
	}

	result, err := h.pairingService.IssueToken(r.Context(), session.ID, req.StaffID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue connection token")
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventTokenIssue,
		Details: map[string]interface{}{
			"bound": req.StaffID != nil,
		},
	})

	writeJSON(w, http.StatusCreated, result)
}

// GET /admin/api/tokens?kind=staff&id=<uuid>
func (h *PairingHandler) ListActiveTokens(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseIdentityKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("kind", "must be staff or driver"))
		return
	}

	id := r.URL.Query().Get("id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	tokens, err := h.pairingService.ListActiveTokens(r.Context(), model.PairedIdentity{Kind: kind, ID: id})
	if err != nil {
		log.Error().Err(err).Msg("failed to list active tokens")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": tokens,
		"total": len(tokens),
	})
}
