package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"arbitrage/internal/models"
	"arbitrage/internal/service"
)

type fakeBlacklistService struct {
	entries []*models.BlacklistEntry
	addErr  error
	listErr error
	rmErr   error
}

func (f *fakeBlacklistService) Add(ctx context.Context, symbol, reason string) (*models.BlacklistEntry, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	entry := &models.BlacklistEntry{ID: len(f.entries) + 1, Symbol: symbol, Reason: reason}
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeBlacklistService) List(ctx context.Context) ([]*models.BlacklistEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

func (f *fakeBlacklistService) Remove(ctx context.Context, symbol string) error {
	return f.rmErr
}

func TestBlacklistHandlerListEmpty(t *testing.T) {
	h := NewBlacklistHandler(&fakeBlacklistService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/blacklist", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp blacklistListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 0 || len(resp.Entries) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestBlacklistHandlerAddRejectsEmptySymbol(t *testing.T) {
	h := NewBlacklistHandler(&fakeBlacklistService{addErr: service.ErrBlacklistSymbolEmpty})
	body, _ := json.Marshal(addBlacklistRequest{Symbol: ""})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/blacklist", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBlacklistHandlerAddDuplicate(t *testing.T) {
	h := NewBlacklistHandler(&fakeBlacklistService{addErr: service.ErrBlacklistSymbolExists})
	body, _ := json.Marshal(addBlacklistRequest{Symbol: "BTCUSDT"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/blacklist", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestBlacklistHandlerAddSuccess(t *testing.T) {
	h := NewBlacklistHandler(&fakeBlacklistService{})
	body, _ := json.Marshal(addBlacklistRequest{Symbol: "btcusdt", Reason: "too volatile"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/blacklist", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
}

func TestBlacklistHandlerRemoveNotFound(t *testing.T) {
	h := NewBlacklistHandler(&fakeBlacklistService{rmErr: service.ErrBlacklistNotFound})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/blacklist/BTCUSDT", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "BTCUSDT"})
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestBlacklistHandlerRemoveRequiresSymbol(t *testing.T) {
	h := NewBlacklistHandler(&fakeBlacklistService{})
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/blacklist/", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": ""})
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

var errBoom = errors.New("boom")

func TestBlacklistHandlerListInternalError(t *testing.T) {
	h := NewBlacklistHandler(&fakeBlacklistService{listErr: errBoom})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/blacklist", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
