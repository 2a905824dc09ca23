// Package service holds the business-logic layer between the observability
// HTTP/WebSocket surfaces and internal/repository: request validation,
// domain error translation, and the in-process counters that have no
// durable row (relationships tracked, symbols subscribed, stream gaps).
package service

import (
	"context"
	"time"

	"arbitrage/internal/models"
	"arbitrage/internal/repository"
)

// BlacklistRepositoryInterface is the subset of *repository.BlacklistRepository
// BlacklistService depends on.
type BlacklistRepositoryInterface interface {
	Create(ctx context.Context, entry *models.BlacklistEntry) error
	GetAll(ctx context.Context) ([]*models.BlacklistEntry, error)
	Exists(ctx context.Context, symbol string) (bool, error)
	Delete(ctx context.Context, symbol string) error
	Count(ctx context.Context) (int, error)
}

// SettingsRepositoryInterface is the subset of *repository.SettingsRepository
// SettingsService depends on.
type SettingsRepositoryInterface interface {
	Get(ctx context.Context) (*models.RuntimeSettings, error)
	Update(ctx context.Context, settings *models.RuntimeSettings) error
}

// NotificationRepositoryInterface is the subset of *repository.NotificationRepository
// NotificationService depends on.
type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *models.Notification) error
	GetRecent(ctx context.Context, limit int) ([]*models.Notification, error)
	GetByTypes(ctx context.Context, types []string, limit int) ([]*models.Notification, error)
}

// StatsRepositoryInterface is the subset of *repository.StatsRepository
// StatsService depends on.
type StatsRepositoryInterface interface {
	DealCounts(ctx context.Context) (evaluated, aboveThreshold, executed int64, err error)
	DealCountsSince(ctx context.Context, since time.Time) (evaluated, aboveThreshold, executed int64, err error)
	LegsFailed(ctx context.Context) (int64, error)
	TotalProfit(ctx context.Context) (float64, error)
	TotalProfitSince(ctx context.Context, since time.Time) (float64, error)
	TopRelationshipsByDealCount(ctx context.Context, n int) ([]models.RelationshipStat, error)
	TopRelationshipsByProfit(ctx context.Context, n int) ([]models.RelationshipStat, error)
}

var (
	_ BlacklistRepositoryInterface    = (*repository.BlacklistRepository)(nil)
	_ SettingsRepositoryInterface     = (*repository.SettingsRepository)(nil)
	_ NotificationRepositoryInterface = (*repository.NotificationRepository)(nil)
	_ StatsRepositoryInterface        = (*repository.StatsRepository)(nil)
)
