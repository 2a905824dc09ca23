// Package depthcache keeps a concurrent, eventually-consistent mirror of
// per-symbol order books, synchronized from a REST snapshot plus a
// continuous differential WebSocket stream, with strict sequence-number
// reconciliation (SPEC_FULL §4.3/§4.4).
package depthcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"arbitrage/internal/exchange"
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

// Hooks lets callers (the metrics package, mainly) observe gap/resync events
// without depthcache importing anything beyond exchange/models/utils.
type Hooks struct {
	OnGap    func(symbol string)
	OnResync func(symbol string)
}

// Cache owns every symbol's OrderBookReplica and the goroutines that keep
// them current.
type Cache struct {
	ex         exchange.Exchange
	depthLimit int
	logger     *utils.Logger
	hooks      Hooks

	mu       sync.RWMutex
	replicas map[string]*models.OrderBookReplica

	events   chan models.DepthEvent
	queryCh  chan depthQuery
	resyncCh chan string

	bootstrapDone chan struct{}
	doneOnce      sync.Once

	gapCount    int64
	resyncCount int64
}

type depthQuery struct {
	symbol string
	resp   chan queryResult
}

type queryResult struct {
	replica models.OrderBookReplica
	ok      bool
}

// eventQueueSize bounds the shared FIFO between ingest and reconcile
// workers. The size is fixed, independent of the number of symbols; when it
// is full a burst of diffs applies backpressure to the ingest goroutine
// rather than growing unbounded.
const eventQueueSize = 4096

// resyncQueueSize bounds the number of symbols that can be pending resync
// at once; a full queue just means the next gap on that symbol tries again.
const resyncQueueSize = 256

// New bootstraps the depth cache: it seeds every symbol from a REST
// snapshot, starts nIngest WebSocket ingest workers and nReconcile reconcile
// workers, and returns once every symbol's initial snapshot has landed.
// Snapshot fetch failures are fatal, matching the source's startup
// discipline (SPEC_FULL §4.3 step 3).
func New(ctx context.Context, ex exchange.Exchange, symbols []string, nIngest, nReconcile, depthLimit int, logger *utils.Logger, hooks Hooks) (*Cache, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("depthcache: no symbols to track")
	}
	if nIngest <= 0 || nReconcile <= 0 {
		return nil, fmt.Errorf("depthcache: nIngest and nReconcile must be positive")
	}

	c := &Cache{
		ex:            ex,
		depthLimit:    depthLimit,
		logger:        logger,
		hooks:         hooks,
		replicas:      make(map[string]*models.OrderBookReplica, len(symbols)),
		events:        make(chan models.DepthEvent, eventQueueSize),
		queryCh:       make(chan depthQuery),
		resyncCh:      make(chan string, resyncQueueSize),
		bootstrapDone: make(chan struct{}),
	}

	for _, symbol := range symbols {
		c.replicas[symbol] = &models.OrderBookReplica{Symbol: symbol, FirstEventPending: true}
	}

	for _, chunk := range chunkSymbols(symbols, nIngest) {
		go c.ingestWorker(ctx, chunk)
	}

	if err := c.seedAll(ctx, symbols); err != nil {
		return nil, fmt.Errorf("depthcache: bootstrap snapshot fetch failed: %w", err)
	}

	for i := 0; i < nReconcile; i++ {
		go c.reconcileWorker(ctx)
	}
	go c.queryServer(ctx)
	go c.resyncWorker(ctx)
	go c.watchBootstrapDone(ctx)

	return c, nil
}

// seedAll fetches a REST snapshot for every symbol concurrently and seeds
// its replica. The first error cancels the remaining fetches and is
// returned.
func (c *Cache) seedAll(ctx context.Context, symbols []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			snap, err := c.ex.GetOrderBookSnapshot(ctx, symbol, c.depthLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("symbol %s: %w", symbol, err)
					cancel()
				}
				return
			}
			if firstErr != nil {
				return
			}

			c.mu.Lock()
			c.replicas[symbol].Seed(symbol, snap)
			c.mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return firstErr
}

// chunkSymbols partitions symbols into n roughly-equal contiguous slices.
func chunkSymbols(symbols []string, n int) [][]string {
	if n > len(symbols) {
		n = len(symbols)
	}
	chunks := make([][]string, 0, n)
	base := len(symbols) / n
	rem := len(symbols) % n
	idx := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		chunks = append(chunks, symbols[idx:idx+size])
		idx += size
	}
	return chunks
}

// ingestWorker opens a multi-stream depth subscription for its chunk and
// pushes every event onto the shared FIFO. On disconnect it backs off and
// resubscribes; it never returns except via ctx cancellation.
func (c *Cache) ingestWorker(ctx context.Context, chunk []string) {
	if len(chunk) == 0 {
		return
	}
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		err := c.ex.SubscribeDepthDiff(ctx, chunk, func(event models.DepthEvent) {
			select {
			case c.events <- event:
			case <-ctx.Done():
			}
		})

		if ctx.Err() != nil {
			return
		}
		if err != nil && c.logger != nil {
			c.logger.Sugar().Warnw("depth ingest subscription ended, reconnecting", "error", err, "symbols", len(chunk))
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// reconcileWorker drains the shared FIFO and applies each event to its
// replica under the reconcile gate (SPEC_FULL §4.4).
func (c *Cache) reconcileWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.events:
			c.applyEvent(event)
		}
	}
}

// applyEvent enforces the first-event and steady-state sequence gates and
// mutates the matching replica in place. A steady-state gap drops the event,
// leaves the replica unchanged and enqueues an asynchronous resync.
func (c *Cache) applyEvent(event models.DepthEvent) {
	c.mu.Lock()
	replica, ok := c.replicas[event.Symbol]
	if !ok {
		c.mu.Unlock()
		return
	}

	var accept, gap bool
	expectedID := replica.LastUpdateID + 1
	if replica.FirstEventPending {
		accept = event.FirstUpdateID <= replica.LastUpdateID+1 && event.FinalUpdateID > replica.LastUpdateID
	} else {
		accept = event.FirstUpdateID == replica.LastUpdateID+1
		gap = !accept
	}

	if accept {
		replica.Apply(event)
	}
	c.mu.Unlock()

	if !gap {
		return
	}

	atomic.AddInt64(&c.gapCount, 1)
	if c.logger != nil {
		c.logger.Sugar().Warnw("depth stream gap detected, scheduling resync",
			"symbol", event.Symbol, "expected", expectedID, "got", event.FirstUpdateID)
	}
	if c.hooks.OnGap != nil {
		c.hooks.OnGap(event.Symbol)
	}

	select {
	case c.resyncCh <- event.Symbol:
	default:
		if c.logger != nil {
			c.logger.Sugar().Warnw("resync queue full, dropping resync request", "symbol", event.Symbol)
		}
	}
}

// resyncWorker drains desynchronized symbols and reseeds them from a fresh
// REST snapshot.
func (c *Cache) resyncWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case symbol := <-c.resyncCh:
			c.resync(ctx, symbol)
		}
	}
}

func (c *Cache) resync(ctx context.Context, symbol string) {
	snap, err := c.ex.GetOrderBookSnapshot(ctx, symbol, c.depthLimit)
	if err != nil {
		if c.logger != nil {
			c.logger.Sugar().Errorw("resync snapshot fetch failed, will retry on next gap", "symbol", symbol, "error", err)
		}
		return
	}

	c.mu.Lock()
	replica, ok := c.replicas[symbol]
	if ok {
		replica.Seed(symbol, snap)
	}
	c.mu.Unlock()

	atomic.AddInt64(&c.resyncCount, 1)
	if c.hooks.OnResync != nil {
		c.hooks.OnResync(symbol)
	}
}

// queryServer is the single goroutine that owns GetDepth's request/response
// channel, mirroring the one-reader-thread discipline of the reference
// implementation.
func (c *Cache) queryServer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-c.queryCh:
			c.mu.RLock()
			replica, ok := c.replicas[q.symbol]
			var clone models.OrderBookReplica
			if ok {
				clone = replica.Clone()
			}
			c.mu.RUnlock()
			q.resp <- queryResult{replica: clone, ok: ok}
		}
	}
}

// watchBootstrapDone closes bootstrapDone the first time the event queue is
// observed empty — purely informational, per SPEC_FULL §4.3 step 5.
func (c *Cache) watchBootstrapDone(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if len(c.events) == 0 {
				c.doneOnce.Do(func() { close(c.bootstrapDone) })
				return
			}
		}
	}
}

// BootstrapDone returns a channel closed the first time the ingest queue is
// observed empty. Purely informational: the cache is usable before then.
func (c *Cache) BootstrapDone() <-chan struct{} {
	return c.bootstrapDone
}

// GetDepth returns a consistent clone of symbol's replica as of the most
// recently applied event. It never observes a partially applied event.
func (c *Cache) GetDepth(ctx context.Context, symbol string) (models.OrderBookReplica, error) {
	resp := make(chan queryResult, 1)
	select {
	case c.queryCh <- depthQuery{symbol: symbol, resp: resp}:
	case <-ctx.Done():
		return models.OrderBookReplica{}, ctx.Err()
	}

	select {
	case result := <-resp:
		if !result.ok {
			return models.OrderBookReplica{}, fmt.Errorf("depthcache: unknown symbol %s", symbol)
		}
		return result.replica, nil
	case <-ctx.Done():
		return models.OrderBookReplica{}, ctx.Err()
	}
}

// Symbols returns every symbol this cache is responsible for, independent
// of the query channel — useful for the observability API.
func (c *Cache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	symbols := make([]string, 0, len(c.replicas))
	for symbol := range c.replicas {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// GapCount and ResyncCount expose the running totals for the metrics
// package to sample.
func (c *Cache) GapCount() int64    { return atomic.LoadInt64(&c.gapCount) }
func (c *Cache) ResyncCount() int64 { return atomic.LoadInt64(&c.resyncCount) }
