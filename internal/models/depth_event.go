package models

// DepthEvent is one differential update from the exchange's depth diff
// stream. BidUpdates/AskUpdates carry a PriceLevel per changed price; a
// Quantity of zero means "remove this price level".
type DepthEvent struct {
	Symbol        string
	FirstUpdateID int64
	FinalUpdateID int64
	EventTime     int64 // milliseconds, exchange wall clock
	BidUpdates    []PriceLevel
	AskUpdates    []PriceLevel
}
