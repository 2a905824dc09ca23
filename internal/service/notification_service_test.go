package service

import (
	"context"
	"testing"

	"arbitrage/internal/models"
)

func TestNotificationServiceRecordPersistsAndBroadcasts(t *testing.T) {
	repo := &mockNotificationRepo{}
	broadcaster := &mockBroadcaster{}
	svc := NewNotificationService(repo, broadcaster)

	n, err := svc.Record(context.Background(), models.NotificationTypeDeal, models.SeverityInfo, "deal found", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID == 0 {
		t.Error("expected a generated ID")
	}
	if len(repo.notifications) != 1 {
		t.Fatalf("got %d persisted notifications, want 1", len(repo.notifications))
	}
	if len(broadcaster.broadcast) != 1 {
		t.Fatalf("got %d broadcasts, want 1", len(broadcaster.broadcast))
	}
}

func TestNotificationServiceRecordWithNilBroadcasterIsSafe(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil)

	if _, err := svc.Record(context.Background(), models.NotificationTypeGap, models.SeverityWarn, "gap", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotificationServiceRecentDefaultsLimit(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil)
	for i := 0; i < 3; i++ {
		svc.Record(context.Background(), models.NotificationTypeDeal, models.SeverityInfo, "x", nil, nil)
	}

	got, err := svc.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d, want 3", len(got))
	}
}
