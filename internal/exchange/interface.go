// Package exchange provides the scanner's transport to a single centralized
// spot exchange: REST metadata/snapshot/order calls plus a differential
// depth WebSocket stream, behind one narrow interface (SPEC_FULL §6).
package exchange

import (
	"context"
	"errors"

	"arbitrage/internal/models"
)

// Symbol is one market entry from the exchange's metadata endpoint.
type Symbol struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Status     string
	StepSize   float64
}

// TradingStatus is the Status value that marks a symbol as tradeable.
const TradingStatus = "TRADING"

// OrderAck is the immediate response to a market order submission.
type OrderAck struct {
	OrderID string
}

// OrderState is the current lifecycle state of a submitted order.
type OrderState struct {
	Status string
}

// Order status values returned by OrderStatus.
const (
	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCanceled        = "CANCELED"
	OrderStatusRejected        = "REJECTED"
)

// DepthHandler receives one DepthEvent parsed off the underlying WebSocket;
// the depth cache's ingest worker is the only caller.
type DepthHandler func(models.DepthEvent)

// ExchangeError wraps a non-zero exchange response code so callers can
// distinguish transport failures from the exchange's own rejection codes.
type ExchangeError struct {
	Exchange string
	Code     string
	Message  string
}

func (e *ExchangeError) Error() string {
	return e.Exchange + ": " + e.Code + " " + e.Message
}

// ErrOrderNotFound is returned by OrderStatus for an order ID the exchange
// does not (yet, or ever) recognize; the executor treats it as transient and
// retries.
var ErrOrderNotFound = errors.New("exchange: order not found")

// Exchange is the scanner's sole dependency on exchange transport. A single
// implementation (Binance in this build) satisfies it; the depth cache,
// relationship builder, and executor depend only on this interface.
type Exchange interface {
	// ExchangeInfo returns every symbol the exchange knows about. Callers
	// filter to Status == TradingStatus themselves.
	ExchangeInfo(ctx context.Context) ([]Symbol, error)

	// GetOrderBookSnapshot fetches a REST depth snapshot capped at limit
	// levels per side.
	GetOrderBookSnapshot(ctx context.Context, symbol string, limit int) (models.Snapshot, error)

	// MarketBuy and MarketSell submit a market order for qty units of the
	// symbol's base asset.
	MarketBuy(ctx context.Context, symbol string, qty float64) (OrderAck, error)
	MarketSell(ctx context.Context, symbol string, qty float64) (OrderAck, error)

	// OrderStatus polls the current state of a previously submitted order.
	OrderStatus(ctx context.Context, symbol, orderID string) (OrderState, error)

	// SubscribeDepthDiff opens (or reuses) one multiplexed WebSocket stream
	// covering symbols and invokes handler for every DepthEvent received,
	// until ctx is cancelled. It reconnects on disconnect and never returns
	// except via ctx cancellation or a non-recoverable dial error.
	SubscribeDepthDiff(ctx context.Context, symbols []string, handler DepthHandler) error

	// Close releases transport resources (idle HTTP connections, open
	// WebSocket sessions).
	Close() error
}
