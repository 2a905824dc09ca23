package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"arbitrage/internal/models"
)

var ErrDealNotFound = errors.New("deal not found")

// DealRepository is the Data Access Layer for the deals table: one row per
// deal that crossed the profit/age gate, whether or not trading was
// enabled at the time.
type DealRepository struct {
	db *sql.DB
}

func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Create(ctx context.Context, deal *models.DealRecord) (int, error) {
	query := `
		INSERT INTO deals (relationship_id, description, profit, investment, event_age_ms, executed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		deal.RelationshipID, deal.Description, deal.Profit, deal.Investment, deal.EventAgeMS, deal.Executed,
	).Scan(&deal.ID, &deal.CreatedAt)
	if err != nil {
		return 0, err
	}
	return deal.ID, nil
}

func (r *DealRepository) GetByID(ctx context.Context, id int) (*models.DealRecord, error) {
	query := `
		SELECT id, relationship_id, description, profit, investment, event_age_ms, executed, created_at
		FROM deals
		WHERE id = $1`

	deal := &models.DealRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&deal.ID, &deal.RelationshipID, &deal.Description, &deal.Profit, &deal.Investment, &deal.EventAgeMS, &deal.Executed, &deal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}
	deal.OrderIDs = r.orderIDsFor(ctx, deal.ID)
	return deal, nil
}

func (r *DealRepository) GetRecent(ctx context.Context, limit int) ([]*models.DealRecord, error) {
	query := `
		SELECT id, relationship_id, description, profit, investment, event_age_ms, executed, created_at
		FROM deals
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []*models.DealRecord
	for rows.Next() {
		deal := &models.DealRecord{}
		if err := rows.Scan(
			&deal.ID, &deal.RelationshipID, &deal.Description, &deal.Profit, &deal.Investment, &deal.EventAgeMS, &deal.Executed, &deal.CreatedAt,
		); err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

func (r *DealRepository) GetByRelationshipID(ctx context.Context, relationshipID string) ([]*models.DealRecord, error) {
	query := `
		SELECT id, relationship_id, description, profit, investment, event_age_ms, executed, created_at
		FROM deals
		WHERE relationship_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, relationshipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []*models.DealRecord
	for rows.Next() {
		deal := &models.DealRecord{}
		if err := rows.Scan(
			&deal.ID, &deal.RelationshipID, &deal.Description, &deal.Profit, &deal.Investment, &deal.EventAgeMS, &deal.Executed, &deal.CreatedAt,
		); err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

// AttachOrders links the resulting order IDs to a deal row, stored as a
// postgres integer array for quick lookup without a join on read paths that
// don't need per-leg detail.
func (r *DealRepository) AttachOrders(ctx context.Context, dealID int, orderIDs []int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE deals SET order_ids = $1 WHERE id = $2`, pq.Array(orderIDs), dealID)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrDealNotFound)
}

func (r *DealRepository) orderIDsFor(ctx context.Context, dealID int) []int {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM order_legs WHERE deal_id = $1 ORDER BY leg_index`, dealID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if rows.Scan(&id) == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *DealRepository) CountExecutedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE executed AND created_at >= $1`, since).Scan(&count)
	return count, err
}

func (r *DealRepository) DeleteOlderThan(ctx context.Context, cutoffUnixSeconds int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE created_at < to_timestamp($1)`, cutoffUnixSeconds)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
