package service

import (
	"context"
	"errors"

	"arbitrage/internal/models"
)

var ErrInvalidProfitThreshold = errors.New("trading_profit_threshold must be >= 0")

// SettingsService lets an operator override the scanner's trading knobs at
// runtime without a restart, through the observability API.
type SettingsService struct {
	repo SettingsRepositoryInterface
}

func NewSettingsService(repo SettingsRepositoryInterface) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (*models.RuntimeSettings, error) {
	return s.repo.Get(ctx)
}

// UpdateRequest carries only the fields an operator wants to change; nil
// fields are left untouched by the repository's COALESCE-based upsert.
type UpdateRequest struct {
	TradingEnabled         *bool    `json:"trading_enabled,omitempty"`
	TradingProfitThreshold *float64 `json:"trading_profit_threshold,omitempty"`
	TradingAgeThresholdMS  *int64   `json:"trading_age_threshold_ms,omitempty"`
	TradingExecutionCap    *int     `json:"trading_execution_cap,omitempty"`
}

func (s *SettingsService) Update(ctx context.Context, req UpdateRequest) error {
	if req.TradingProfitThreshold != nil && *req.TradingProfitThreshold < 0 {
		return ErrInvalidProfitThreshold
	}
	return s.repo.Update(ctx, &models.RuntimeSettings{
		TradingEnabled:         req.TradingEnabled,
		TradingProfitThreshold: req.TradingProfitThreshold,
		TradingAgeThresholdMS:  req.TradingAgeThresholdMS,
		TradingExecutionCap:    req.TradingExecutionCap,
	})
}
