package models

import "github.com/shopspring/decimal"

// Action is one executed or proposed leg of a deal: a side (BUY/SELL) and a
// step-aligned quantity against a single trading pair.
type Action struct {
	Pair     TradingPair
	Side     string
	Quantity decimal.Decimal
}

// Deal is the Arbitrage Evaluator's output for one relationship at one
// tick: the best-profit starting notional found by the sweep, its
// event_time (the minimum of the three books' event times), and the three
// concrete per-leg actions needed to realize it.
type Deal struct {
	Relationship *TriangularRelationship
	Profit       decimal.Decimal // signed net fractional return
	EventTime    int64           // milliseconds, min over the three books used
	Investment   decimal.Decimal // the winning starting notional, base-denominated
	Actions      [3]Action
}
