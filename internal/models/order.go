package models

import "time"

// OrderRecord is one row of the audit trail's order log: a single submitted
// leg of a deal. Written once by the Executor per leg attempt, whether it
// ultimately fills, fails, or is never sent.
type OrderRecord struct {
	ID             int        `json:"id" db:"id"`
	DealID         int        `json:"deal_id" db:"deal_id"`
	RelationshipID string     `json:"relationship_id" db:"relationship_id"`
	Symbol         string     `json:"symbol" db:"symbol"`
	Side           string     `json:"side" db:"side"` // BUY, SELL
	LegIndex       int        `json:"leg_index" db:"leg_index"`
	Quantity       float64    `json:"quantity" db:"quantity"`
	AvgFillPrice   float64    `json:"price_avg" db:"price_avg"`
	Status         string     `json:"status" db:"status"`
	ErrorMessage   string     `json:"error_message,omitempty" db:"error_message"`
	ExchangeID     string     `json:"exchange_order_id,omitempty" db:"exchange_order_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	FilledAt       *time.Time `json:"filled_at,omitempty" db:"filled_at"`
}

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusFilled    = "filled"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)

// DealRecord is one row of the audit trail's deal log: one entry per deal
// that crossed the profit/age gate, whether or not trading was enabled.
type DealRecord struct {
	ID             int       `json:"id" db:"id"`
	RelationshipID string    `json:"relationship_id" db:"relationship_id"`
	Description    string    `json:"description" db:"description"`
	Profit         float64   `json:"profit" db:"profit"`
	Investment     float64   `json:"investment" db:"investment"`
	EventAgeMS     int64     `json:"event_age_ms" db:"event_age_ms"`
	Executed       bool      `json:"executed" db:"executed"`
	OrderIDs       []int     `json:"order_ids,omitempty" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
