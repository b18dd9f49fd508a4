package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ridefleet/fleet-admin-go/internal/service"
)

type GeocodeHandler struct {
	geocodeService *service.GeocodeService
}

func NewGeocodeHandler(geocodeService *service.GeocodeService) *GeocodeHandler {
	return &GeocodeHandler{geocodeService: geocodeService}
}

func (h *GeocodeHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Autocomplete)

	return r
}

// GET /api/geocode?q=<partial address>
func (h *GeocodeHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.geocodeService.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": suggestions,
		"total": len(suggestions),
	})
}
