package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"arbitrage/internal/models"
	"arbitrage/internal/service"
)

type settingsService interface {
	Get(ctx context.Context) (*models.RuntimeSettings, error)
	Update(ctx context.Context, req service.UpdateRequest) error
}

// SettingsHandler exposes the operator-tunable trading knobs.
//
// Endpoints:
//   - GET   /api/v1/settings
//   - PATCH /api/v1/settings
type SettingsHandler struct {
	svc settingsService
}

func NewSettingsHandler(svc settingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Update(r.Context(), req); err != nil {
		if errors.Is(err, service.ErrInvalidProfitThreshold) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "settings updated"})
}
