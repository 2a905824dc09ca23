package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbitrage/internal/models"
)

type fakeNotificationService struct {
	notifications []*models.Notification
	err           error
	gotTypes      []string
	recentCalled  bool
}

func (f *fakeNotificationService) Recent(ctx context.Context, limit int) ([]*models.Notification, error) {
	f.recentCalled = true
	if f.err != nil {
		return nil, f.err
	}
	return f.notifications, nil
}

func (f *fakeNotificationService) ByTypes(ctx context.Context, types []string, limit int) ([]*models.Notification, error) {
	f.gotTypes = types
	if f.err != nil {
		return nil, f.err
	}
	return f.notifications, nil
}

func TestNotificationHandlerListDefaultsToRecent(t *testing.T) {
	fake := &fakeNotificationService{notifications: []*models.Notification{{ID: 1, Type: "DEAL"}}}
	h := NewNotificationHandler(fake)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp notificationListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
	if !fake.recentCalled || fake.gotTypes != nil {
		t.Errorf("recentCalled = %v, gotTypes = %v; want Recent without a types filter", fake.recentCalled, fake.gotTypes)
	}
}

func TestNotificationHandlerListFiltersByTypes(t *testing.T) {
	fake := &fakeNotificationService{}
	h := NewNotificationHandler(fake)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?types=deal,gap", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if len(fake.gotTypes) != 2 || fake.gotTypes[0] != "DEAL" || fake.gotTypes[1] != "GAP" {
		t.Errorf("gotTypes = %v", fake.gotTypes)
	}
}

func TestNotificationHandlerListError(t *testing.T) {
	fake := &fakeNotificationService{err: errBoom}
	h := NewNotificationHandler(fake)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
