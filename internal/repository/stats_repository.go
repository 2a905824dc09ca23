package repository

import (
	"context"
	"database/sql"
	"time"

	"arbitrage/internal/models"
)

// StatsRepository aggregates ScannerStats' persisted fields (deal counts,
// total profit, top relationships) from the deals and order_legs tables.
// The remaining fields (relationships tracked, symbols subscribed, stream
// gaps/resyncs) are process-local counters the caller fills in separately —
// they have no durable row to aggregate from.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) DealCounts(ctx context.Context) (evaluated, aboveThreshold, executed int64, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals`).Scan(&evaluated)
	if err != nil {
		return
	}
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE profit > 0`).Scan(&aboveThreshold)
	if err != nil {
		return
	}
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE executed`).Scan(&executed)
	return
}

// DealCountsSince is DealCounts bounded to deals recorded at or after
// since, for the dashboard's period selector.
func (r *StatsRepository) DealCountsSince(ctx context.Context, since time.Time) (evaluated, aboveThreshold, executed int64, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE created_at >= $1`, since).Scan(&evaluated)
	if err != nil {
		return
	}
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE created_at >= $1 AND profit > 0`, since).Scan(&aboveThreshold)
	if err != nil {
		return
	}
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE created_at >= $1 AND executed`, since).Scan(&executed)
	return
}

// TotalProfitSince is TotalProfit bounded to deals recorded at or after
// since.
func (r *StatsRepository) TotalProfitSince(ctx context.Context, since time.Time) (float64, error) {
	var total sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(profit * investment) FROM deals WHERE executed AND created_at >= $1`, since).Scan(&total)
	return total.Float64, err
}

func (r *StatsRepository) LegsFailed(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_legs WHERE status = $1`, models.OrderStatusFailed).Scan(&count)
	return count, err
}

func (r *StatsRepository) TotalProfit(ctx context.Context) (float64, error) {
	var total sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT SUM(profit * investment) FROM deals WHERE executed`).Scan(&total)
	return total.Float64, err
}

// TopRelationshipsByDealCount returns the N relationships with the most
// evaluated deals, descending.
func (r *StatsRepository) TopRelationshipsByDealCount(ctx context.Context, n int) ([]models.RelationshipStat, error) {
	query := `
		SELECT relationship_id, COUNT(*) AS c
		FROM deals
		GROUP BY relationship_id
		ORDER BY c DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.RelationshipStat
	for rows.Next() {
		var s models.RelationshipStat
		var count int64
		if err := rows.Scan(&s.Key, &count); err != nil {
			return nil, err
		}
		s.Value = float64(count)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// TopRelationshipsByProfit returns the N relationships with the highest
// cumulative realized profit among executed deals, descending.
func (r *StatsRepository) TopRelationshipsByProfit(ctx context.Context, n int) ([]models.RelationshipStat, error) {
	query := `
		SELECT relationship_id, SUM(profit * investment) AS p
		FROM deals
		WHERE executed
		GROUP BY relationship_id
		ORDER BY p DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.RelationshipStat
	for rows.Next() {
		var s models.RelationshipStat
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
