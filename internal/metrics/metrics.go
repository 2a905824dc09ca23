// Package metrics exposes Prometheus instrumentation for the scanner's
// depth cache, evaluator, and executor, adapted from the teacher's trading
// core metrics for this single-exchange triangular-arbitrage domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Depth cache metrics ============

// StreamGaps counts sequence-number gaps detected on the differential
// WebSocket stream, per symbol.
var StreamGaps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "depthcache",
		Name:      "stream_gaps_total",
		Help:      "Number of sequence-number gaps detected on the depth diff stream",
	},
	[]string{"symbol"},
)

// Resyncs counts completed snapshot resyncs triggered by a stream gap.
var Resyncs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "depthcache",
		Name:      "resyncs_total",
		Help:      "Number of completed order book resyncs",
	},
	[]string{"symbol"},
)

// IngestQueueDepth reports how many diff events are sitting in the shared
// FIFO between ingest and reconcile workers.
var IngestQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "depthcache",
		Name:      "ingest_queue_depth",
		Help:      "Current number of queued diff events awaiting reconciliation",
	},
)

// ReconcileLatency measures the time spent applying one diff event to its
// replica, including the sequence gate check.
var ReconcileLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "depthcache",
		Name:      "reconcile_latency_ms",
		Help:      "Time to apply one depth diff event in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
)

// ============ Evaluator metrics ============

// SweepLatency measures the time spent evaluating one relationship across
// its full investment sweep.
var SweepLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "evaluator",
		Name:      "sweep_latency_ms",
		Help:      "Time to evaluate one relationship's investment sweep in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50},
	},
)

// DealProfit observes the signed profit fraction of every evaluated deal,
// whether or not it crossed the execution gate.
var DealProfit = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "evaluator",
		Name:      "deal_profit_fraction",
		Help:      "Signed net fractional return of every evaluated deal",
		Buckets:   []float64{-0.01, -0.005, -0.001, 0, 0.001, 0.005, 0.01, 0.02},
	},
)

// RelationshipsEvaluated counts evaluator passes over the full relationship
// set.
var RelationshipsEvaluated = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "evaluator",
		Name:      "relationships_evaluated_total",
		Help:      "Total number of relationship evaluations performed",
	},
)

// DealsConsidered counts deals that crossed the profit/age gate and were
// sent to the executor, labeled by whether every leg executed. Deals that
// cross the gate while trading is disabled are not counted.
var DealsConsidered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "evaluator",
		Name:      "deals_considered_total",
		Help:      "Deals that crossed the profit/age gate",
	},
	[]string{"executed"}, // "true" or "false"
)

// ============ Executor metrics ============

// OrderExecutionLatency measures the time from order submission to a
// FILLED status, per symbol and side.
var OrderExecutionLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "order_execution_latency_ms",
		Help:      "Time from order submission to fill confirmation in milliseconds",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	},
	[]string{"symbol", "side"},
)

// LegOutcomes counts submitted order legs by terminal status.
var LegOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "leg_outcomes_total",
		Help:      "Submitted order legs by terminal status",
	},
	[]string{"symbol", "status"},
)

// ============ Helper functions ============

// RecordGap increments the stream gap counter and is wired directly into
// the depth cache's Hooks.OnGap.
func RecordGap(symbol string) {
	StreamGaps.WithLabelValues(symbol).Inc()
}

// RecordResync increments the resync counter and is wired directly into
// the depth cache's Hooks.OnResync.
func RecordResync(symbol string) {
	Resyncs.WithLabelValues(symbol).Inc()
}

// RecordDealConsidered records one evaluator decision about whether to act
// on a deal that crossed the profit/age gate.
func RecordDealConsidered(executed bool) {
	if executed {
		DealsConsidered.WithLabelValues("true").Inc()
	} else {
		DealsConsidered.WithLabelValues("false").Inc()
	}
}

// RecordLegOutcome records one order leg's terminal status.
func RecordLegOutcome(symbol, status string) {
	LegOutcomes.WithLabelValues(symbol, status).Inc()
}
