// Package executor submits a Deal's three legs sequentially against the
// exchange and records the outcome of every attempt to the audit trail
// (SPEC_FULL §4.7).
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arbitrage/internal/exchange"
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

// Recorder persists the audit trail. The executor never reads these rows
// back; it only appends (SPEC_FULL §10).
type Recorder interface {
	RecordDeal(ctx context.Context, deal models.DealRecord) (int, error)
	RecordOrder(ctx context.Context, order models.OrderRecord) (int, error)
	AttachDealOrders(ctx context.Context, dealID int, orderIDs []int) error
}

// Notifier delivers a human-readable status line for an executed (or
// skipped) deal. Errors are logged and otherwise ignored — a notification
// failure must never abort execution.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Config carries the gate thresholds and fixed poll interval used while
// waiting for a leg to fill.
type Config struct {
	ProfitThreshold decimal.Decimal // fractional, e.g. 0.001 for 0.1%
	AgeThresholdMS  int64
	PollInterval    time.Duration
}

// Executor evaluates the profit/age gate and, when it passes and trading is
// enabled, submits every leg of a Deal in order. The gate config and
// trading-enabled flag are guarded by mu so an operator's runtime settings
// update (SPEC_FULL §9) can take effect between calls to Consider without a
// restart.
type Executor struct {
	ex       exchange.Exchange
	recorder Recorder
	notifier Notifier
	logger   *utils.Logger

	mu             sync.RWMutex
	cfg            Config
	tradingEnabled bool
}

func New(ex exchange.Exchange, recorder Recorder, notifier Notifier, logger *utils.Logger, cfg Config, tradingEnabled bool) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	return &Executor{ex: ex, recorder: recorder, notifier: notifier, logger: logger, cfg: cfg, tradingEnabled: tradingEnabled}
}

// UpdateConfig replaces the gate thresholds and trading-enabled flag in
// place, so a settings change made through the observability API is picked
// up by the next call to Consider.
func (e *Executor) UpdateConfig(cfg Config, tradingEnabled bool) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.tradingEnabled = tradingEnabled
}

func (e *Executor) snapshot() (Config, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg, e.tradingEnabled
}

// nowMS is overridable in tests; production uses wall-clock time.
var nowMS = func() int64 { return time.Now().UnixMilli() }

// Consider checks the deal against the profit/age gate and, when it passes,
// records it to the audit trail and — if trading is enabled — executes it.
// It returns whether the deal was executed.
func (e *Executor) Consider(ctx context.Context, deal models.Deal) (bool, error) {
	cfg, tradingEnabled := e.snapshot()

	age := nowMS() - deal.EventTime
	if deal.Profit.LessThan(cfg.ProfitThreshold) || age > cfg.AgeThresholdMS {
		return false, nil
	}

	description := deal.Relationship.DescribeActions()
	profitF, _ := deal.Profit.Float64()
	investmentF, _ := deal.Investment.Float64()

	record := models.DealRecord{
		RelationshipID: deal.Relationship.Key(),
		Description:    description,
		Profit:         profitF,
		Investment:     investmentF,
		EventAgeMS:     age,
		Executed:       tradingEnabled,
	}

	dealID, err := e.recorder.RecordDeal(ctx, record)
	if err != nil && e.logger != nil {
		e.logger.Error("failed to record deal", utils.Err(err), utils.String("relationship", record.RelationshipID))
	}

	e.notify(ctx, fmt.Sprintf("[%+.3f%%] Deal: %s", deal.Profit.Mul(decimal.NewFromInt(100)).InexactFloat64(), description))

	if !tradingEnabled {
		e.notify(ctx, "Trading is not enabled, skipping...")
		return false, nil
	}

	orderIDs, execErr := e.execute(ctx, dealID, deal)
	if len(orderIDs) > 0 {
		if err := e.recorder.AttachDealOrders(ctx, dealID, orderIDs); err != nil && e.logger != nil {
			e.logger.Warn("failed to attach order ids to deal record", utils.Err(err), utils.Int("deal_id", dealID))
		}
	}
	if execErr != nil {
		return false, execErr
	}

	e.notify(ctx, "Deal executed.")
	return true, nil
}

// execute submits every leg in order. A leg failure stops execution with no
// rollback of prior legs, matching SPEC_FULL §4.7's intentional
// simplification. It returns the audit trail IDs of every leg recorded so
// far, success or failure, for attachment to the parent deal record.
func (e *Executor) execute(ctx context.Context, dealID int, deal models.Deal) ([]int, error) {
	var orderIDs []int

	for i, action := range deal.Actions {
		qty := utils.RoundToStepDigits(action.Quantity, action.Pair.Step)
		qtyF, _ := qty.Float64()

		record := models.OrderRecord{
			DealID:         dealID,
			RelationshipID: deal.Relationship.Key(),
			Symbol:         action.Pair.Symbol,
			Side:           action.Side,
			LegIndex:       i,
			Quantity:       qtyF,
			Status:         models.OrderStatusPending,
			CreatedAt:      time.Now(),
		}

		ack, err := e.submit(ctx, action.Pair.Symbol, action.Side, qtyF)
		if err != nil {
			record.Status = models.OrderStatusFailed
			record.ErrorMessage = err.Error()
			if id := e.recordOrder(ctx, record); id != 0 {
				orderIDs = append(orderIDs, id)
			}
			return orderIDs, fmt.Errorf("executor: leg %d (%s %s %s): %w", i+1, action.Side, qty, action.Pair.Symbol, err)
		}
		record.ExchangeID = ack.OrderID

		if err := e.awaitFill(ctx, action.Pair.Symbol, ack.OrderID); err != nil {
			record.Status = models.OrderStatusFailed
			record.ErrorMessage = err.Error()
			if id := e.recordOrder(ctx, record); id != 0 {
				orderIDs = append(orderIDs, id)
			}
			return orderIDs, fmt.Errorf("executor: leg %d (%s %s %s) did not fill: %w", i+1, action.Side, qty, action.Pair.Symbol, err)
		}

		record.Status = models.OrderStatusFilled
		filledAt := time.Now()
		record.FilledAt = &filledAt
		if id := e.recordOrder(ctx, record); id != 0 {
			orderIDs = append(orderIDs, id)
		}
	}
	return orderIDs, nil
}

func (e *Executor) submit(ctx context.Context, symbol, side string, qty float64) (exchange.OrderAck, error) {
	switch side {
	case models.ActionBuy:
		return e.ex.MarketBuy(ctx, symbol, qty)
	case models.ActionSell:
		return e.ex.MarketSell(ctx, symbol, qty)
	default:
		return exchange.OrderAck{}, fmt.Errorf("executor: unknown action side %q", side)
	}
}

// awaitFill polls order status until FILLED. A not-found error is retried
// silently (the order may not have propagated yet); any other error is
// fatal to the current deal.
func (e *Executor) awaitFill(ctx context.Context, symbol, orderID string) error {
	cfg, _ := e.snapshot()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		state, err := e.ex.OrderStatus(ctx, symbol, orderID)
		switch {
		case err == nil && state.Status == exchange.OrderStatusFilled:
			return nil
		case err != nil && errors.Is(err, exchange.ErrOrderNotFound):
			// not yet visible to the exchange's order-status endpoint, retry
		case err != nil:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// recordOrder best-effort persists a leg attempt and returns its audit
// trail ID, or 0 if the write failed.
func (e *Executor) recordOrder(ctx context.Context, record models.OrderRecord) int {
	id, err := e.recorder.RecordOrder(ctx, record)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("failed to record order leg", utils.Err(err), utils.Symbol(record.Symbol))
		}
		return 0
	}
	return id
}

func (e *Executor) notify(ctx context.Context, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, message); err != nil && e.logger != nil {
		e.logger.Warn("notification delivery failed", utils.Err(err))
	}
}
