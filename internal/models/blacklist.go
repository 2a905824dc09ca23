package models

import "time"

// BlacklistEntry excludes a symbol from the relationship builder's
// subscription set — typically after repeated stream desync or a
// persistently empty book, recorded by an operator via the observability
// API rather than computed automatically.
type BlacklistEntry struct {
	ID        int       `json:"id" db:"id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
