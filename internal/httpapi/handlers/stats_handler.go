package handlers

import (
	"context"
	"net/http"
	"strconv"

	"arbitrage/internal/models"
)

type statsService interface {
	Get(ctx context.Context) (*models.ScannerStats, error)
	GetForPeriod(ctx context.Context, period string) (*models.PeriodStats, error)
	TopByProfit(ctx context.Context, n int) ([]models.RelationshipStat, error)
}

// StatsHandler serves the aggregate scanner dashboard figures.
//
// Endpoints:
//   - GET /api/v1/stats
//   - GET /api/v1/stats/period?period=day|week|month|year|all
//   - GET /api/v1/stats/top?by=profit&n=5
type StatsHandler struct {
	svc statsService
}

func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Period serves the deal/profit figures rebucketed to the window named by
// the period query param, defaulting to "day".
func (h *StatsHandler) Period(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}

	stats, err := h.svc.GetForPeriod(r.Context(), period)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid period")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) Top(w http.ResponseWriter, r *http.Request) {
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	top, err := h.svc.TopByProfit(r.Context(), n)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load top relationships")
		return
	}
	respondJSON(w, http.StatusOK, top)
}
