package depthcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arbitrage/internal/exchange"
	"arbitrage/internal/models"
)

// fakeExchange is a minimal in-memory exchange.Exchange for depth cache
// tests: snapshots are pre-seeded per symbol, and depth events are fed
// manually through push rather than a real WebSocket.
type fakeExchange struct {
	mu        sync.Mutex
	snapshots map[string]models.Snapshot
	snapErr   error
	handlers  map[string]exchange.DepthHandler
	subscribed chan struct{}
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		snapshots:  make(map[string]models.Snapshot),
		handlers:   make(map[string]exchange.DepthHandler),
		subscribed: make(chan struct{}, 16),
	}
}

func (f *fakeExchange) ExchangeInfo(ctx context.Context) ([]exchange.Symbol, error) { return nil, nil }

func (f *fakeExchange) GetOrderBookSnapshot(ctx context.Context, symbol string, limit int) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapErr != nil {
		return models.Snapshot{}, f.snapErr
	}
	return f.snapshots[symbol], nil
}

func (f *fakeExchange) MarketBuy(ctx context.Context, symbol string, qty float64) (exchange.OrderAck, error) {
	return exchange.OrderAck{}, nil
}

func (f *fakeExchange) MarketSell(ctx context.Context, symbol string, qty float64) (exchange.OrderAck, error) {
	return exchange.OrderAck{}, nil
}

func (f *fakeExchange) OrderStatus(ctx context.Context, symbol, orderID string) (exchange.OrderState, error) {
	return exchange.OrderState{}, nil
}

func (f *fakeExchange) SubscribeDepthDiff(ctx context.Context, symbols []string, handler exchange.DepthHandler) error {
	f.mu.Lock()
	for _, s := range symbols {
		f.handlers[s] = handler
	}
	f.mu.Unlock()
	f.subscribed <- struct{}{}
	<-ctx.Done()
	return nil
}

func (f *fakeExchange) Close() error { return nil }

// push delivers event directly to whichever ingest worker subscribed to its
// symbol, as if it arrived over the wire.
func (f *fakeExchange) push(event models.DepthEvent) {
	f.mu.Lock()
	handler := f.handlers[event.Symbol]
	f.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

func lvl(price, qty string) models.PriceLevel {
	return models.PriceLevel{Price: decimal.RequireFromString(price), Quantity: decimal.RequireFromString(qty)}
}

func waitForSubscriptions(t *testing.T, f *fakeExchange, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.subscribed:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for ingest subscription %d/%d", i+1, n)
		}
	}
}

func TestNewSeedsEverySymbol(t *testing.T) {
	fx := newFakeExchange()
	fx.snapshots["BTCUSDT"] = models.Snapshot{LastUpdateID: 10, Bids: []models.PriceLevel{lvl("100", "1")}, Asks: []models.PriceLevel{lvl("101", "1")}}
	fx.snapshots["ETHUSDT"] = models.Snapshot{LastUpdateID: 20, Bids: []models.PriceLevel{lvl("10", "5")}, Asks: []models.PriceLevel{lvl("11", "5")}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := New(ctx, fx, []string{"BTCUSDT", "ETHUSDT"}, 2, 1, 100, nil, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	waitForSubscriptions(t, fx, 2)

	replica, err := cache.GetDepth(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("GetDepth failed: %v", err)
	}
	if replica.LastUpdateID != 10 || !replica.FirstEventPending {
		t.Errorf("unexpected seeded replica: %+v", replica)
	}
}

func TestNewFailsOnSnapshotError(t *testing.T) {
	fx := newFakeExchange()
	fx.snapErr = fmt.Errorf("boom")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := New(ctx, fx, []string{"BTCUSDT"}, 1, 1, 100, nil, Hooks{}); err == nil {
		t.Fatal("expected bootstrap error when snapshot fetch fails")
	}
}

func TestApplyEventFirstEventGate(t *testing.T) {
	fx := newFakeExchange()
	fx.snapshots["BTCUSDT"] = models.Snapshot{LastUpdateID: 10, Bids: []models.PriceLevel{lvl("100", "1")}, Asks: []models.PriceLevel{lvl("101", "1")}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := New(ctx, fx, []string{"BTCUSDT"}, 1, 1, 100, nil, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	waitForSubscriptions(t, fx, 1)

	// Stale event (final_update_id <= last_update_id): must be discarded,
	// not applied.
	fx.push(models.DepthEvent{Symbol: "BTCUSDT", FirstUpdateID: 1, FinalUpdateID: 9, EventTime: 1})
	time.Sleep(50 * time.Millisecond)
	replica, _ := cache.GetDepth(ctx, "BTCUSDT")
	if !replica.FirstEventPending {
		t.Fatalf("stale first event should not have been applied")
	}

	// Valid first event per the gate: first_update_id <= last+1 and
	// final_update_id > last.
	fx.push(models.DepthEvent{
		Symbol: "BTCUSDT", FirstUpdateID: 8, FinalUpdateID: 12, EventTime: 1000,
		BidUpdates: []models.PriceLevel{lvl("100", "2")},
	})
	time.Sleep(50 * time.Millisecond)
	replica, err = cache.GetDepth(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("GetDepth failed: %v", err)
	}
	if replica.FirstEventPending {
		t.Fatalf("expected first_event_pending to clear after a valid event")
	}
	if replica.LastUpdateID != 12 {
		t.Errorf("LastUpdateID = %d, want 12", replica.LastUpdateID)
	}
}

func TestApplyEventGapTriggersResync(t *testing.T) {
	fx := newFakeExchange()
	fx.snapshots["BTCUSDT"] = models.Snapshot{LastUpdateID: 10, Bids: []models.PriceLevel{lvl("100", "1")}, Asks: []models.PriceLevel{lvl("101", "1")}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gapSeen, resyncSeen int64
	var mu sync.Mutex
	hooks := Hooks{
		OnGap:    func(symbol string) { mu.Lock(); gapSeen++; mu.Unlock() },
		OnResync: func(symbol string) { mu.Lock(); resyncSeen++; mu.Unlock() },
	}

	cache, err := New(ctx, fx, []string{"BTCUSDT"}, 1, 1, 100, nil, hooks)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	waitForSubscriptions(t, fx, 1)

	// Clear first_event_pending with a valid first event.
	fx.push(models.DepthEvent{Symbol: "BTCUSDT", FirstUpdateID: 8, FinalUpdateID: 12, EventTime: 1})
	time.Sleep(50 * time.Millisecond)

	// Reseed snapshot so resync has somewhere new to land.
	fx.mu.Lock()
	fx.snapshots["BTCUSDT"] = models.Snapshot{LastUpdateID: 50, Bids: []models.PriceLevel{lvl("200", "9")}}
	fx.mu.Unlock()

	// Gap: expected first_update_id is 13, send 20 instead.
	fx.push(models.DepthEvent{Symbol: "BTCUSDT", FirstUpdateID: 20, FinalUpdateID: 25, EventTime: 2})
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if gapSeen == 0 {
		t.Error("expected OnGap to fire on sequence gap")
	}
	if resyncSeen == 0 {
		t.Error("expected OnResync to fire after resync completes")
	}
	if cache.GapCount() == 0 {
		t.Error("expected GapCount to be nonzero")
	}
}

func TestChunkSymbols(t *testing.T) {
	symbols := []string{"A", "B", "C", "D", "E"}
	chunks := chunkSymbols(symbols, 2)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(symbols) {
		t.Errorf("chunked %d symbols, want %d", total, len(symbols))
	}
}

func TestGetDepthUnknownSymbol(t *testing.T) {
	fx := newFakeExchange()
	fx.snapshots["BTCUSDT"] = models.Snapshot{LastUpdateID: 1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := New(ctx, fx, []string{"BTCUSDT"}, 1, 1, 100, nil, Hooks{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	waitForSubscriptions(t, fx, 1)

	if _, err := cache.GetDepth(ctx, "NOPE"); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}
