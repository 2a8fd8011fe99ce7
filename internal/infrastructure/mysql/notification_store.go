package mysql

import (
	"context"
	"database/sql"

	"property-bidding/internal/domain"
)

type MySQLNotificationStore struct {
	db *sql.DB
}

func NewMySQLNotificationStore(db *sql.DB) *MySQLNotificationStore {
	return &MySQLNotificationStore{db: db}
}

// SaveNotification is idempotent on the notification id: the relay reuses
// the outbox entry id, so a redelivered entry does not duplicate the row.
func (r *MySQLNotificationStore) SaveNotification(ctx context.Context, notification *domain.Notification) error {
	query := `
        INSERT INTO notifications (id, user_id, listing_id, bid_id, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE id = id
    `
	_, err := r.db.ExecContext(ctx, query,
		notification.ID, notification.UserID, notification.ListingID,
		notification.BidID, notification.Message, notification.CreatedAt)
	return err
}

func (r *MySQLNotificationStore) NotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	query := `
        SELECT id, user_id, listing_id, bid_id, message, created_at
        FROM notifications WHERE user_id = ?
        ORDER BY created_at DESC, id DESC
    `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var notification domain.Notification
		err := rows.Scan(&notification.ID, &notification.UserID, &notification.ListingID,
			&notification.BidID, &notification.Message, &notification.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, &notification)
	}

	return notifications, rows.Err()
}
