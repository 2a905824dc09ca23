package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"arbitrage/internal/models"
	"arbitrage/internal/service"
)

// blacklistService is the narrow surface BlacklistHandler needs, satisfied
// by *service.BlacklistService. Defined locally rather than imported from
// internal/service so this package never has to agree with service on an
// interface name it doesn't otherwise use.
type blacklistService interface {
	Add(ctx context.Context, symbol, reason string) (*models.BlacklistEntry, error)
	List(ctx context.Context) ([]*models.BlacklistEntry, error)
	Remove(ctx context.Context, symbol string) error
}

// BlacklistHandler serves the operator-maintained symbol exclusion list.
//
// Endpoints:
//   - GET    /api/v1/blacklist
//   - POST   /api/v1/blacklist
//   - DELETE /api/v1/blacklist/{symbol}
type BlacklistHandler struct {
	svc blacklistService
}

func NewBlacklistHandler(svc blacklistService) *BlacklistHandler {
	return &BlacklistHandler{svc: svc}
}

type blacklistListResponse struct {
	Entries []*models.BlacklistEntry `json:"entries"`
	Total   int                      `json:"total"`
}

func (h *BlacklistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load blacklist")
		return
	}
	respondJSON(w, http.StatusOK, blacklistListResponse{Entries: entries, Total: len(entries)})
}

type addBlacklistRequest struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

func (h *BlacklistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addBlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.svc.Add(r.Context(), req.Symbol, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBlacklistSymbolEmpty):
			respondError(w, http.StatusBadRequest, "symbol is required")
		case errors.Is(err, service.ErrBlacklistSymbolExists):
			respondError(w, http.StatusConflict, "symbol already in blacklist")
		default:
			respondError(w, http.StatusInternalServerError, "failed to add to blacklist")
		}
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (h *BlacklistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if err := h.svc.Remove(r.Context(), symbol); err != nil {
		switch {
		case errors.Is(err, service.ErrBlacklistSymbolEmpty):
			respondError(w, http.StatusBadRequest, "symbol is required")
		case errors.Is(err, service.ErrBlacklistNotFound):
			respondError(w, http.StatusNotFound, "symbol not found in blacklist")
		default:
			respondError(w, http.StatusInternalServerError, "failed to remove from blacklist")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
