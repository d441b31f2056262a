package database

import (
	"context"
	"fmt"

	"biryani-club/internal/models"
)

// SaveNotification stores n and sets its id. Only user notifications are
// persisted.
func (db *DB) SaveNotification(ctx context.Context, n *models.Notification) error {
	if n.UserID == nil {
		return fmt.Errorf("%w: notification has no user", models.ErrInvalidInput)
	}
	err := db.Pool.QueryRow(ctx, InsertNotificationSQL,
		*n.UserID, n.Title, n.Message, string(n.Kind), n.IsRead, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (db *DB) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	rows, err := db.Pool.Query(ctx, ListNotificationsSQL, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n    models.Notification
			kind string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &kind, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = models.NotificationKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (db *DB) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	tag, err := db.Pool.Exec(ctx, MarkNotificationReadSQL, userID, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", models.ErrNotificationNotFound, id)
	}
	return nil
}
