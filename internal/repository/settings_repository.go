package repository

import (
	"context"
	"database/sql"
	"errors"

	"arbitrage/internal/models"
)

var ErrSettingsNotFound = errors.New("settings row not found")

// SettingsRepository manages the single settings row (id=1) an operator
// uses to override tunable knobs at runtime without a restart.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*models.RuntimeSettings, error) {
	query := `
		SELECT id, trading_enabled, trading_profit_threshold, trading_age_threshold_ms, trading_execution_cap, updated_at
		FROM settings
		WHERE id = 1`

	s := &models.RuntimeSettings{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.ID, &s.TradingEnabled, &s.TradingProfitThreshold, &s.TradingAgeThresholdMS, &s.TradingExecutionCap, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return s, nil
}

// Update upserts the id=1 row, leaving nil fields untouched via COALESCE so
// a partial override from the observability API doesn't clobber the rest.
func (r *SettingsRepository) Update(ctx context.Context, s *models.RuntimeSettings) error {
	query := `
		INSERT INTO settings (id, trading_enabled, trading_profit_threshold, trading_age_threshold_ms, trading_execution_cap, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			trading_enabled = COALESCE($1, settings.trading_enabled),
			trading_profit_threshold = COALESCE($2, settings.trading_profit_threshold),
			trading_age_threshold_ms = COALESCE($3, settings.trading_age_threshold_ms),
			trading_execution_cap = COALESCE($4, settings.trading_execution_cap),
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, s.TradingEnabled, s.TradingProfitThreshold, s.TradingAgeThresholdMS, s.TradingExecutionCap)
	return err
}
