package wsapi

import (
	"time"

	"arbitrage/internal/models"
)

// MessageType identifies the payload carried by a wire message.
type MessageType string

const (
	// MessageTypeNotification carries a persisted Notification as soon as
	// it's recorded (deal found, stream gap, order error, ...).
	MessageTypeNotification MessageType = "notification"

	// MessageTypeStats carries a fresh ScannerStats snapshot, pushed after
	// every StatsService.Get call.
	MessageTypeStats MessageType = "stats"
)

// BaseMessage is embedded by every typed wire message.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationMessage mirrors a models.Notification onto the wire.
type NotificationMessage struct {
	BaseMessage
	Data *models.Notification `json:"data"`
}

func newNotificationMessage(n *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{Type: MessageTypeNotification, Timestamp: time.Now()},
		Data:        n,
	}
}

// StatsMessage mirrors a models.ScannerStats snapshot onto the wire.
type StatsMessage struct {
	BaseMessage
	Data *models.ScannerStats `json:"data"`
}

func newStatsMessage(s *models.ScannerStats) *StatsMessage {
	return &StatsMessage{
		BaseMessage: BaseMessage{Type: MessageTypeStats, Timestamp: time.Now()},
		Data:        s,
	}
}
