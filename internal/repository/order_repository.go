// Package repository is the audit trail's Data Access Layer: every deal the
// evaluator considers and every order leg the executor submits is persisted
// here, on plain database/sql against Postgres, in the teacher's
// query-builder-free style.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"arbitrage/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository is the Data Access Layer for the order_legs table: one row
// per submitted leg of a deal, written once by the Executor per attempt.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order leg and returns its generated ID.
func (r *OrderRepository) Create(ctx context.Context, order *models.OrderRecord) (int, error) {
	query := `
		INSERT INTO order_legs
			(deal_id, relationship_id, symbol, side, leg_index, quantity, price_avg, status, error_message, exchange_order_id, created_at, filled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), $11)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		order.DealID,
		order.RelationshipID,
		order.Symbol,
		order.Side,
		order.LegIndex,
		order.Quantity,
		order.AvgFillPrice,
		order.Status,
		nullString(order.ErrorMessage),
		nullString(order.ExchangeID),
		order.FilledAt,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.OrderRecord, error) {
	query := `
		SELECT id, deal_id, relationship_id, symbol, side, leg_index, quantity, price_avg, status, error_message, exchange_order_id, created_at, filled_at
		FROM order_legs
		WHERE id = $1`

	order := &models.OrderRecord{}
	var errMsg, exchangeID sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.DealID, &order.RelationshipID, &order.Symbol, &order.Side, &order.LegIndex,
		&order.Quantity, &order.AvgFillPrice, &order.Status, &errMsg, &exchangeID, &order.CreatedAt, &order.FilledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	order.ErrorMessage = errMsg.String
	order.ExchangeID = exchangeID.String
	return order, nil
}

func (r *OrderRepository) GetByDealID(ctx context.Context, dealID int) ([]*models.OrderRecord, error) {
	query := `
		SELECT id, deal_id, relationship_id, symbol, side, leg_index, quantity, price_avg, status, error_message, exchange_order_id, created_at, filled_at
		FROM order_legs
		WHERE deal_id = $1
		ORDER BY leg_index`

	rows, err := r.db.QueryContext(ctx, query, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.OrderRecord
	for rows.Next() {
		order := &models.OrderRecord{}
		var errMsg, exchangeID sql.NullString
		if err := rows.Scan(
			&order.ID, &order.DealID, &order.RelationshipID, &order.Symbol, &order.Side, &order.LegIndex,
			&order.Quantity, &order.AvgFillPrice, &order.Status, &errMsg, &exchangeID, &order.CreatedAt, &order.FilledAt,
		); err != nil {
			return nil, err
		}
		order.ErrorMessage = errMsg.String
		order.ExchangeID = exchangeID.String
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) GetByStatus(ctx context.Context, status string) ([]*models.OrderRecord, error) {
	query := `
		SELECT id, deal_id, relationship_id, symbol, side, leg_index, quantity, price_avg, status, error_message, exchange_order_id, created_at, filled_at
		FROM order_legs
		WHERE status = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.OrderRecord
	for rows.Next() {
		order := &models.OrderRecord{}
		var errMsg, exchangeID sql.NullString
		if err := rows.Scan(
			&order.ID, &order.DealID, &order.RelationshipID, &order.Symbol, &order.Side, &order.LegIndex,
			&order.Quantity, &order.AvgFillPrice, &order.Status, &errMsg, &exchangeID, &order.CreatedAt, &order.FilledAt,
		); err != nil {
			return nil, err
		}
		order.ErrorMessage = errMsg.String
		order.ExchangeID = exchangeID.String
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE order_legs SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrOrderNotFound)
}

func (r *OrderRepository) SetFilled(ctx context.Context, id int, avgFillPrice float64, filledAt sql.NullTime) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE order_legs SET status = $1, price_avg = $2, filled_at = $3 WHERE id = $4`,
		models.OrderStatusFilled, avgFillPrice, filledAt, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrOrderNotFound)
}

func (r *OrderRepository) SetError(ctx context.Context, id int, message string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE order_legs SET status = $1, error_message = $2 WHERE id = $3`,
		models.OrderStatusFailed, message, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrOrderNotFound)
}

func (r *OrderRepository) DeleteOlderThan(ctx context.Context, cutoffUnixSeconds int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM order_legs WHERE created_at < to_timestamp($1)`, cutoffUnixSeconds)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_legs WHERE status = $1`, status).Scan(&count)
	return count, err
}

func checkRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
