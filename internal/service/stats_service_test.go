package service

import (
	"context"
	"testing"

	"arbitrage/internal/models"
)

func TestStatsServiceGetCombinesTopologyAndRepoAggregates(t *testing.T) {
	repo := &mockStatsRepo{
		evaluated:      10,
		aboveThreshold: 4,
		executed:       2,
		legsFailed:     1,
		totalProfit:    12.5,
		topByCount:     []models.RelationshipStat{{Key: "USDT-BTC-ETH", Value: 5}},
	}
	svc := NewStatsService(repo)
	svc.SetTopology(3, 9)
	svc.RecordGap("BTCUSDT")
	svc.RecordResync("BTCUSDT")

	stats, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RelationshipsTracked != 3 || stats.SymbolsSubscribed != 9 {
		t.Errorf("unexpected topology: %+v", stats)
	}
	if stats.DealsEvaluated != 10 || stats.DealsExecuted != 2 {
		t.Errorf("unexpected deal counts: %+v", stats)
	}
	if stats.StreamGaps != 1 || stats.Resyncs != 1 {
		t.Errorf("unexpected gap/resync counts: %+v", stats)
	}
	if len(stats.TopRelationships) != 1 {
		t.Errorf("expected 1 top relationship, got %d", len(stats.TopRelationships))
	}
}

func TestStatsServiceGetBroadcasts(t *testing.T) {
	repo := &mockStatsRepo{}
	svc := NewStatsService(repo)
	broadcaster := &mockStatsBroadcaster{}
	svc.SetBroadcaster(broadcaster)

	if _, err := svc.Get(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if broadcaster.calls != 1 {
		t.Errorf("calls = %d, want 1", broadcaster.calls)
	}
}

func TestStatsServiceGetForPeriodRejectsUnknownPeriod(t *testing.T) {
	svc := NewStatsService(&mockStatsRepo{})

	if _, err := svc.GetForPeriod(context.Background(), "fortnight"); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestStatsServiceGetForPeriodDelegatesToSinceQueries(t *testing.T) {
	repo := &mockStatsRepo{
		evaluated:      7,
		aboveThreshold: 3,
		executed:       1,
		totalProfit:    4.25,
	}
	svc := NewStatsService(repo)

	stats, err := svc.GetForPeriod(context.Background(), "day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Period != "day" {
		t.Errorf("Period = %q, want %q", stats.Period, "day")
	}
	if stats.DealsEvaluated != 7 || stats.DealsAboveThreshold != 3 || stats.DealsExecuted != 1 {
		t.Errorf("unexpected deal counts: %+v", stats)
	}
	if stats.TotalProfit != 4.25 {
		t.Errorf("TotalProfit = %v, want 4.25", stats.TotalProfit)
	}
	if stats.Since.IsZero() {
		t.Error("expected Since to be set to the period boundary")
	}
}
