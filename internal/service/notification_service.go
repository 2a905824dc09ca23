package service

import (
	"context"

	"arbitrage/internal/models"
)

// Broadcaster pushes a notification out to live dashboard subscribers. It
// is a narrow interface owned by this package so internal/wsapi's hub can
// satisfy it without service importing wsapi.
type Broadcaster interface {
	Broadcast(n *models.Notification)
}

// NotificationService persists every notification the scanner emits and
// fans it out to connected dashboard clients. A nil Broadcaster is a valid
// no-broadcast configuration.
type NotificationService struct {
	repo        NotificationRepositoryInterface
	broadcaster Broadcaster
}

func NewNotificationService(repo NotificationRepositoryInterface, broadcaster Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, broadcaster: broadcaster}
}

func (s *NotificationService) Record(ctx context.Context, notifType, severity, message string, relationshipID *string, meta map[string]interface{}) (*models.Notification, error) {
	n := &models.Notification{
		Type:           notifType,
		Severity:       severity,
		RelationshipID: relationshipID,
		Message:        message,
		Meta:           meta,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(n)
	}
	return n, nil
}

func (s *NotificationService) Recent(ctx context.Context, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.GetRecent(ctx, limit)
}

func (s *NotificationService) ByTypes(ctx context.Context, types []string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.GetByTypes(ctx, types, limit)
}
