package models

import "time"

// ScannerStats is the aggregated, in-memory counters surfaced by the
// observability API. It is a point-in-time read of process state, not a
// persisted row.
type ScannerStats struct {
	RelationshipsTracked int               `json:"relationships_tracked"`
	SymbolsSubscribed    int               `json:"symbols_subscribed"`
	DealsEvaluated       int64             `json:"deals_evaluated"`
	DealsAboveThreshold  int64             `json:"deals_above_threshold"`
	DealsExecuted        int64             `json:"deals_executed"`
	LegsFailed           int64             `json:"legs_failed"`
	StreamGaps           int64             `json:"stream_gaps"`
	Resyncs              int64             `json:"resyncs"`
	TotalProfit          float64           `json:"total_profit"`
	TopRelationships     []RelationshipStat `json:"top_relationships"`
}

// PeriodStats is ScannerStats' deal/profit figures rebucketed to a single
// day/week/month/year window instead of all-time, for the dashboard's
// period selector.
type PeriodStats struct {
	Period              string    `json:"period"`
	Since               time.Time `json:"since"`
	DealsEvaluated      int64     `json:"deals_evaluated"`
	DealsAboveThreshold int64     `json:"deals_above_threshold"`
	DealsExecuted       int64     `json:"deals_executed"`
	TotalProfit         float64   `json:"total_profit"`
}

// RelationshipStat is one relationship's contribution to ScannerStats,
// ranked by whichever field the caller sorted by (deal count or profit).
type RelationshipStat struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}
