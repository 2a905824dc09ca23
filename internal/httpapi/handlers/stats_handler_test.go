package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbitrage/internal/models"
)

type fakeStatsService struct {
	stats      *models.ScannerStats
	periodStats *models.PeriodStats
	top        []models.RelationshipStat
	getErr     error
	periodErr  error
	topErr     error
	gotPeriod  string
	gotN       int
}

func (f *fakeStatsService) Get(ctx context.Context) (*models.ScannerStats, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.stats, nil
}

func (f *fakeStatsService) GetForPeriod(ctx context.Context, period string) (*models.PeriodStats, error) {
	f.gotPeriod = period
	if f.periodErr != nil {
		return nil, f.periodErr
	}
	return f.periodStats, nil
}

func (f *fakeStatsService) TopByProfit(ctx context.Context, n int) ([]models.RelationshipStat, error) {
	f.gotN = n
	if f.topErr != nil {
		return nil, f.topErr
	}
	return f.top, nil
}

func TestStatsHandlerGet(t *testing.T) {
	h := NewStatsHandler(&fakeStatsService{stats: &models.ScannerStats{DealsExecuted: 3}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestStatsHandlerGetError(t *testing.T) {
	h := NewStatsHandler(&fakeStatsService{getErr: errBoom})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestStatsHandlerPeriodDefaultsToDay(t *testing.T) {
	fake := &fakeStatsService{periodStats: &models.PeriodStats{Period: "day"}}
	h := NewStatsHandler(fake)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/period", nil)
	w := httptest.NewRecorder()

	h.Period(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if fake.gotPeriod != "day" {
		t.Errorf("period = %q, want %q", fake.gotPeriod, "day")
	}
}

func TestStatsHandlerPeriodInvalid(t *testing.T) {
	h := NewStatsHandler(&fakeStatsService{periodErr: errBoom})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/period?period=fortnight", nil)
	w := httptest.NewRecorder()

	h.Period(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStatsHandlerTopDefaultsN(t *testing.T) {
	fake := &fakeStatsService{top: []models.RelationshipStat{{Key: "USDT-BTC-ETH", Value: 1.2}}}
	h := NewStatsHandler(fake)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/top", nil)
	w := httptest.NewRecorder()

	h.Top(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if fake.gotN != 5 {
		t.Errorf("n = %d, want 5", fake.gotN)
	}
}
