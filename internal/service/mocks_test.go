package service

import (
	"context"
	"time"

	"arbitrage/internal/models"
	"arbitrage/internal/repository"
)

type mockBlacklistRepo struct {
	entries   map[string]*models.BlacklistEntry
	createErr error
	nextID    int
}

func newMockBlacklistRepo() *mockBlacklistRepo {
	return &mockBlacklistRepo{entries: make(map[string]*models.BlacklistEntry), nextID: 1}
}

func (m *mockBlacklistRepo) Create(ctx context.Context, entry *models.BlacklistEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.entries[entry.Symbol]; ok {
		return repository.ErrBlacklistEntryExists
	}
	entry.ID = m.nextID
	m.nextID++
	m.entries[entry.Symbol] = entry
	return nil
}

func (m *mockBlacklistRepo) GetAll(ctx context.Context) ([]*models.BlacklistEntry, error) {
	var out []*models.BlacklistEntry
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockBlacklistRepo) Exists(ctx context.Context, symbol string) (bool, error) {
	_, ok := m.entries[symbol]
	return ok, nil
}

func (m *mockBlacklistRepo) Delete(ctx context.Context, symbol string) error {
	if _, ok := m.entries[symbol]; !ok {
		return repository.ErrBlacklistEntryNotFound
	}
	delete(m.entries, symbol)
	return nil
}

func (m *mockBlacklistRepo) Count(ctx context.Context) (int, error) {
	return len(m.entries), nil
}

type mockSettingsRepo struct {
	settings *models.RuntimeSettings
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*models.RuntimeSettings, error) {
	return m.settings, nil
}

func (m *mockSettingsRepo) Update(ctx context.Context, s *models.RuntimeSettings) error {
	if s.TradingEnabled != nil {
		m.settings.TradingEnabled = s.TradingEnabled
	}
	if s.TradingProfitThreshold != nil {
		m.settings.TradingProfitThreshold = s.TradingProfitThreshold
	}
	return nil
}

type mockNotificationRepo struct {
	notifications []*models.Notification
	nextID        int
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	m.nextID++
	n.ID = m.nextID
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) GetRecent(ctx context.Context, limit int) ([]*models.Notification, error) {
	if limit > len(m.notifications) {
		limit = len(m.notifications)
	}
	return m.notifications[:limit], nil
}

func (m *mockNotificationRepo) GetByTypes(ctx context.Context, types []string, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range m.notifications {
		for _, t := range types {
			if n.Type == t {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

type mockBroadcaster struct {
	broadcast []*models.Notification
}

func (m *mockBroadcaster) Broadcast(n *models.Notification) {
	m.broadcast = append(m.broadcast, n)
}

type mockStatsRepo struct {
	evaluated, aboveThreshold, executed, legsFailed int64
	totalProfit                                     float64
	topByCount, topByProfit                         []models.RelationshipStat
}

func (m *mockStatsRepo) DealCounts(ctx context.Context) (int64, int64, int64, error) {
	return m.evaluated, m.aboveThreshold, m.executed, nil
}
func (m *mockStatsRepo) DealCountsSince(ctx context.Context, since time.Time) (int64, int64, int64, error) {
	return m.evaluated, m.aboveThreshold, m.executed, nil
}
func (m *mockStatsRepo) LegsFailed(ctx context.Context) (int64, error)  { return m.legsFailed, nil }
func (m *mockStatsRepo) TotalProfit(ctx context.Context) (float64, error) { return m.totalProfit, nil }
func (m *mockStatsRepo) TotalProfitSince(ctx context.Context, since time.Time) (float64, error) {
	return m.totalProfit, nil
}
func (m *mockStatsRepo) TopRelationshipsByDealCount(ctx context.Context, n int) ([]models.RelationshipStat, error) {
	return m.topByCount, nil
}
func (m *mockStatsRepo) TopRelationshipsByProfit(ctx context.Context, n int) ([]models.RelationshipStat, error) {
	return m.topByProfit, nil
}

type mockStatsBroadcaster struct {
	calls int
}

func (m *mockStatsBroadcaster) BroadcastStats(stats *models.ScannerStats) { m.calls++ }
