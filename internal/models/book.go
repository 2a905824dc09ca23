package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PriceLevel is a single (price, quantity) rung of an order book ladder.
// A quantity of exactly zero is only ever a transient deletion sentinel in
// the update stream; it is never stored in a replica's ladders.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Snapshot is the REST response used to seed a replica: a full ladder plus
// the sequence id it was taken at.
type Snapshot struct {
	LastUpdateID int64
	Bids         []PriceLevel
	Asks         []PriceLevel
}

// OrderBookReplica is the depth cache's per-symbol mirror of one market's
// order book. It is created by Seed and mutated only by the reconcile
// worker that owns it; GetDepth callers receive a Clone.
type OrderBookReplica struct {
	Symbol            string
	FirstEventPending bool
	LastUpdateID      int64
	EventTime         int64 // exchange wall clock, milliseconds
	Bids              []PriceLevel
	Asks              []PriceLevel
}

// Seed replaces the replica's ladders wholesale from a REST snapshot and
// arms the reconcile gate's first-event check.
func (r *OrderBookReplica) Seed(symbol string, snap Snapshot) {
	r.Symbol = symbol
	r.Bids = append([]PriceLevel(nil), snap.Bids...)
	r.Asks = append([]PriceLevel(nil), snap.Asks...)
	r.LastUpdateID = snap.LastUpdateID
	r.FirstEventPending = true
	r.EventTime = 0
}

// Apply merges one DepthEvent's bid/ask updates into the replica's ladders.
// Callers must have already passed the reconcile gate (§4.4) — Apply itself
// performs no sequence-id validation, only the level-merge mechanics.
func (r *OrderBookReplica) Apply(event DepthEvent) {
	r.Bids = applySide(r.Bids, event.BidUpdates, true)
	r.Asks = applySide(r.Asks, event.AskUpdates, false)
	r.LastUpdateID = event.FinalUpdateID
	r.EventTime = event.EventTime
	r.FirstEventPending = false
}

// applySide merges updates into one side of the ladder: exact-price match
// replaces a nonzero quantity, removes a zero quantity, and a miss either
// inserts (nonzero) or no-ops (zero). descending selects bid ordering.
func applySide(side []PriceLevel, updates []PriceLevel, descending bool) []PriceLevel {
	for _, u := range updates {
		idx := -1
		for i, lvl := range side {
			if lvl.Price.Equal(u.Price) {
				idx = i
				break
			}
		}
		switch {
		case idx >= 0 && u.Quantity.IsZero():
			side = append(side[:idx], side[idx+1:]...)
		case idx >= 0:
			side[idx].Quantity = u.Quantity
		case u.Quantity.IsZero():
			// no-op: deletion of a level that was never present
		default:
			side = append(side, u)
		}
	}
	sort.Slice(side, func(i, j int) bool {
		if descending {
			return side[i].Price.GreaterThan(side[j].Price)
		}
		return side[i].Price.LessThan(side[j].Price)
	})
	return side
}

// Clone returns a deep copy of the replica, safe for a reader to hold onto
// after the owning goroutine continues mutating the original.
func (r *OrderBookReplica) Clone() OrderBookReplica {
	return OrderBookReplica{
		Symbol:            r.Symbol,
		FirstEventPending: r.FirstEventPending,
		LastUpdateID:      r.LastUpdateID,
		EventTime:         r.EventTime,
		Bids:              append([]PriceLevel(nil), r.Bids...),
		Asks:              append([]PriceLevel(nil), r.Asks...),
	}
}
