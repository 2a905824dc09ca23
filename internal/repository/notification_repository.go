package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"arbitrage/internal/models"
)

// NotificationRepository persists the same text events handed to the chat
// bot, so the observability API can list recent notifications without a
// live Telegram session.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	meta, err := json.Marshal(n.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (type, severity, relationship_id, message, meta, timestamp)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, timestamp`

	return r.db.QueryRowContext(ctx, query, n.Type, n.Severity, n.RelationshipID, n.Message, meta).Scan(&n.ID, &n.Timestamp)
}

func (r *NotificationRepository) GetRecent(ctx context.Context, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, timestamp, type, severity, relationship_id, message, meta
		FROM notifications
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *NotificationRepository) GetByTypes(ctx context.Context, types []string, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, timestamp, type, severity, relationship_id, message, meta
		FROM notifications
		WHERE type = ANY($1)
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(types), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoffUnixSeconds int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE timestamp < to_timestamp($1)`, cutoffUnixSeconds)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *NotificationRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications`)
	return err
}

func scanNotifications(rows *sql.Rows) ([]*models.Notification, error) {
	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var relID sql.NullString
		var meta []byte
		if err := rows.Scan(&n.ID, &n.Timestamp, &n.Type, &n.Severity, &relID, &n.Message, &meta); err != nil {
			return nil, err
		}
		if relID.Valid {
			n.RelationshipID = &relID.String
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &n.Meta)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
