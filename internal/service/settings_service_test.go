package service

import (
	"context"
	"testing"

	"arbitrage/internal/models"
)

func TestSettingsServiceUpdateRejectsNegativeThreshold(t *testing.T) {
	repo := &mockSettingsRepo{settings: &models.RuntimeSettings{}}
	svc := NewSettingsService(repo)

	neg := -0.001
	err := svc.Update(context.Background(), UpdateRequest{TradingProfitThreshold: &neg})
	if err != ErrInvalidProfitThreshold {
		t.Errorf("err = %v, want ErrInvalidProfitThreshold", err)
	}
}

func TestSettingsServiceUpdateAppliesOnlySetFields(t *testing.T) {
	repo := &mockSettingsRepo{settings: &models.RuntimeSettings{}}
	svc := NewSettingsService(repo)

	enabled := true
	if err := svc.Update(context.Background(), UpdateRequest{TradingEnabled: &enabled}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.Get(context.Background())
	if got.TradingEnabled == nil || !*got.TradingEnabled {
		t.Error("expected TradingEnabled to be true")
	}
	if got.TradingProfitThreshold != nil {
		t.Error("expected TradingProfitThreshold to remain unset")
	}
}
