package repository

import (
	"context"

	"arbitrage/internal/models"
)

// AuditRepository combines the deal and order repositories behind the
// narrow shape the Executor depends on (executor.Recorder), so
// cmd/scanner/main.go can wire a single *sql.DB-backed value into it without
// the executor package importing database/sql at all.
type AuditRepository struct {
	Deals  *DealRepository
	Orders *OrderRepository
}

func NewAuditRepository(deals *DealRepository, orders *OrderRepository) *AuditRepository {
	return &AuditRepository{Deals: deals, Orders: orders}
}

func (a *AuditRepository) RecordDeal(ctx context.Context, deal models.DealRecord) (int, error) {
	return a.Deals.Create(ctx, &deal)
}

func (a *AuditRepository) RecordOrder(ctx context.Context, order models.OrderRecord) (int, error) {
	return a.Orders.Create(ctx, &order)
}

func (a *AuditRepository) AttachDealOrders(ctx context.Context, dealID int, orderIDs []int) error {
	return a.Deals.AttachOrders(ctx, dealID, orderIDs)
}
