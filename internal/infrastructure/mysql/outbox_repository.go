package mysql

import (
	"context"
	"database/sql"

	"property-bidding/internal/domain"
)

type MySQLOutboxRepository struct {
	db *sql.DB
}

func NewMySQLOutboxRepository(db *sql.DB) *MySQLOutboxRepository {
	return &MySQLOutboxRepository{db: db}
}

func (r *MySQLOutboxRepository) PendingEntries(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	query := `
        SELECT id, user_id, listing_id, bid_id, message, status, created_at
        FROM notification_outbox
        WHERE status = 'pending'
        ORDER BY created_at ASC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.OutboxEntry
	for rows.Next() {
		var entry domain.OutboxEntry
		var status string

		err := rows.Scan(&entry.ID, &entry.UserID, &entry.ListingID,
			&entry.BidID, &entry.Message, &status, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		entry.Status = domain.OutboxStatus(status)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func (r *MySQLOutboxRepository) MarkDispatched(ctx context.Context, entryID string) error {
	query := `UPDATE notification_outbox SET status = 'dispatched' WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, entryID)
	return err
}
