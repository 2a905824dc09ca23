package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"arbitrage/internal/models"
)

type notificationService interface {
	Recent(ctx context.Context, limit int) ([]*models.Notification, error)
	ByTypes(ctx context.Context, types []string, limit int) ([]*models.Notification, error)
}

// NotificationHandler serves recent notification history for the
// dashboard's initial page load; live updates arrive over /ws/stream.
//
// Endpoints:
//   - GET /api/v1/notifications?limit=50&types=DEAL,GAP
type NotificationHandler struct {
	svc notificationService
}

func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type notificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int                    `json:"total"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		notifications []*models.Notification
		err           error
	)
	if raw := r.URL.Query().Get("types"); raw != "" {
		types := strings.Split(raw, ",")
		for i := range types {
			types[i] = strings.TrimSpace(strings.ToUpper(types[i]))
		}
		notifications, err = h.svc.ByTypes(r.Context(), types, limit)
	} else {
		notifications, err = h.svc.Recent(r.Context(), limit)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	respondJSON(w, http.StatusOK, notificationListResponse{Notifications: notifications, Total: len(notifications)})
}
