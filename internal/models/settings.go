package models

import "time"

// RuntimeSettings holds the scanner's tunable knobs that an operator may
// override at runtime via the observability API, without a restart. A nil
// pointer field means "use the value loaded from the configuration file".
type RuntimeSettings struct {
	ID                      int        `json:"id" db:"id"`
	TradingEnabled          *bool      `json:"trading_enabled,omitempty" db:"trading_enabled"`
	TradingProfitThreshold  *float64   `json:"trading_profit_threshold,omitempty" db:"trading_profit_threshold"`
	TradingAgeThresholdMS   *int64     `json:"trading_age_threshold_ms,omitempty" db:"trading_age_threshold_ms"`
	TradingExecutionCap     *int       `json:"trading_execution_cap,omitempty" db:"trading_execution_cap"`
	UpdatedAt               time.Time  `json:"updated_at" db:"updated_at"`
}
