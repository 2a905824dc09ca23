package models

import "time"

// ExchangeStatus is the single exchange client's connectivity health, as
// surfaced by the observability API. Unlike the teacher's multi-exchange
// ExchangeAccount there are no per-exchange credentials to track here — one
// process, one exchange, credentials live only in config.Config.
type ExchangeStatus struct {
	Name             string    `json:"name"`
	Connected        bool      `json:"connected"`
	LastSnapshotAt   time.Time `json:"last_snapshot_at,omitempty"`
	LastEventAt      time.Time `json:"last_event_at,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
	ActiveIngestConn int       `json:"active_ingest_connections"`
	UpdatedAt        time.Time `json:"updated_at"`
}
