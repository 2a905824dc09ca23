package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

// StatsBroadcaster pushes a fresh stats snapshot to connected dashboard
// clients; StatsService.Get calls it on every successful call.
type StatsBroadcaster interface {
	BroadcastStats(stats *models.ScannerStats)
}

// StatsService aggregates ScannerStats from two sources: the persisted
// deals/order_legs tables (via StatsRepositoryInterface) for historical
// counts and profit, and a handful of in-process atomic counters for
// figures that have no durable row — relationships tracked, symbols
// subscribed, stream gaps and resyncs observed since process start.
type StatsService struct {
	repo      StatsRepositoryInterface
	broadcast StatsBroadcaster

	relationshipsTracked int64
	symbolsSubscribed    int64
	streamGaps           int64
	resyncs              int64
}

func NewStatsService(repo StatsRepositoryInterface) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) SetBroadcaster(b StatsBroadcaster) { s.broadcast = b }

// SetTopology records the relationship/symbol counts computed once at
// startup by relationship.Build.
func (s *StatsService) SetTopology(relationships, symbols int) {
	atomic.StoreInt64(&s.relationshipsTracked, int64(relationships))
	atomic.StoreInt64(&s.symbolsSubscribed, int64(symbols))
}

// RecordGap and RecordResync are wired into depthcache.Hooks alongside the
// Prometheus counters in internal/metrics — this keeps the same counts
// available to the observability API without querying Prometheus.
func (s *StatsService) RecordGap(symbol string)    { atomic.AddInt64(&s.streamGaps, 1) }
func (s *StatsService) RecordResync(symbol string) { atomic.AddInt64(&s.resyncs, 1) }

func (s *StatsService) Get(ctx context.Context) (*models.ScannerStats, error) {
	evaluated, aboveThreshold, executed, err := s.repo.DealCounts(ctx)
	if err != nil {
		return nil, err
	}
	legsFailed, err := s.repo.LegsFailed(ctx)
	if err != nil {
		return nil, err
	}
	totalProfit, err := s.repo.TotalProfit(ctx)
	if err != nil {
		return nil, err
	}
	topByCount, err := s.repo.TopRelationshipsByDealCount(ctx, 5)
	if err != nil {
		return nil, err
	}

	stats := &models.ScannerStats{
		RelationshipsTracked: int(atomic.LoadInt64(&s.relationshipsTracked)),
		SymbolsSubscribed:    int(atomic.LoadInt64(&s.symbolsSubscribed)),
		DealsEvaluated:       evaluated,
		DealsAboveThreshold:  aboveThreshold,
		DealsExecuted:        executed,
		LegsFailed:           legsFailed,
		StreamGaps:           atomic.LoadInt64(&s.streamGaps),
		Resyncs:              atomic.LoadInt64(&s.resyncs),
		TotalProfit:          totalProfit,
		TopRelationships:     topByCount,
	}
	if s.broadcast != nil {
		s.broadcast.BroadcastStats(stats)
	}
	return stats, nil
}

// GetForPeriod rebuckets the deal/profit figures to the window starting at
// period's boundary (day/week/month/year/all), for the dashboard's period
// selector.
func (s *StatsService) GetForPeriod(ctx context.Context, period string) (*models.PeriodStats, error) {
	pt := utils.PeriodType(period)
	switch pt {
	case utils.PeriodDay, utils.PeriodWeek, utils.PeriodMonth, utils.PeriodYear, utils.PeriodAll:
	default:
		return nil, fmt.Errorf("stats: unknown period %q", period)
	}

	since := utils.GetPeriodStart(pt)
	evaluated, aboveThreshold, executed, err := s.repo.DealCountsSince(ctx, since)
	if err != nil {
		return nil, err
	}
	totalProfit, err := s.repo.TotalProfitSince(ctx, since)
	if err != nil {
		return nil, err
	}

	return &models.PeriodStats{
		Period:              period,
		Since:               since,
		DealsEvaluated:      evaluated,
		DealsAboveThreshold: aboveThreshold,
		DealsExecuted:       executed,
		TotalProfit:         totalProfit,
	}, nil
}

func (s *StatsService) TopByProfit(ctx context.Context, n int) ([]models.RelationshipStat, error) {
	if n <= 0 {
		n = 5
	}
	return s.repo.TopRelationshipsByProfit(ctx, n)
}
