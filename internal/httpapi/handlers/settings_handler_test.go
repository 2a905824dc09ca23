package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbitrage/internal/models"
	"arbitrage/internal/service"
)

type fakeSettingsService struct {
	settings  *models.RuntimeSettings
	getErr    error
	updateErr error
	updated   service.UpdateRequest
}

func (f *fakeSettingsService) Get(ctx context.Context) (*models.RuntimeSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.settings, nil
}

func (f *fakeSettingsService) Update(ctx context.Context, req service.UpdateRequest) error {
	f.updated = req
	return f.updateErr
}

func TestSettingsHandlerGet(t *testing.T) {
	enabled := true
	h := NewSettingsHandler(&fakeSettingsService{settings: &models.RuntimeSettings{TradingEnabled: &enabled}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestSettingsHandlerUpdateRejectsInvalidThreshold(t *testing.T) {
	h := NewSettingsHandler(&fakeSettingsService{updateErr: service.ErrInvalidProfitThreshold})
	body, _ := json.Marshal(service.UpdateRequest{})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSettingsHandlerUpdateSuccess(t *testing.T) {
	fake := &fakeSettingsService{}
	h := NewSettingsHandler(fake)
	threshold := 0.5
	body, _ := json.Marshal(service.UpdateRequest{TradingProfitThreshold: &threshold})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if fake.updated.TradingProfitThreshold == nil || *fake.updated.TradingProfitThreshold != 0.5 {
		t.Errorf("update not forwarded correctly: %+v", fake.updated)
	}
}

func TestSettingsHandlerUpdateInvalidBody(t *testing.T) {
	h := NewSettingsHandler(&fakeSettingsService{})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
