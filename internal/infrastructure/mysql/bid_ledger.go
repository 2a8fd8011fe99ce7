package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"property-bidding/internal/domain"
)

type MySQLBidLedger struct {
	db *sql.DB
}

func NewMySQLBidLedger(db *sql.DB) *MySQLBidLedger {
	return &MySQLBidLedger{db: db}
}

// ApplyPlacement commits the new bid, the optional demotion and the outbox
// rows in one transaction. Both write paths re-check the leader the
// placement was decided against: a demotion requires the demoted bid to
// still be leading, and a leading insert requires that no leader exists
// once the demotion (if any) is applied. If either check fails, another
// writer got in despite the listing lock and the whole placement rolls back.
func (r *MySQLBidLedger) ApplyPlacement(ctx context.Context, placement *domain.BidPlacement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if placement.DemoteBidID != "" {
		result, err := tx.ExecContext(ctx,
			`UPDATE bids SET status = ? WHERE id = ? AND status = ?`,
			int(domain.BidAccepted), placement.DemoteBidID, int(domain.BidLeading))
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected != 1 {
			return fmt.Errorf("%w: leader changed before demotion of %s", domain.ErrBidContention, placement.DemoteBidID)
		}
	}

	bid := placement.Bid
	if bid.Status == domain.BidLeading {
		result, err := tx.ExecContext(ctx, `
            INSERT INTO bids (id, listing_id, user_id, amount, status, placed_at)
            SELECT ?, ?, ?, ?, ?, ?
            FROM DUAL
            WHERE NOT EXISTS (
                SELECT 1 FROM bids WHERE listing_id = ? AND status = ?
            )
        `, bid.ID, bid.ListingID, bid.UserID, bid.Amount, int(bid.Status), bid.PlacedAt,
			bid.ListingID, int(domain.BidLeading))
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected != 1 {
			return fmt.Errorf("%w: listing %s already has a leading bid", domain.ErrBidContention, bid.ListingID)
		}
	} else {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO bids (id, listing_id, user_id, amount, status, placed_at)
            VALUES (?, ?, ?, ?, ?, ?)
        `, bid.ID, bid.ListingID, bid.UserID, bid.Amount, int(bid.Status), bid.PlacedAt)
		if err != nil {
			return err
		}
	}

	for _, entry := range placement.Outbox {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO notification_outbox (id, user_id, listing_id, bid_id, message, status, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)
        `, entry.ID, entry.UserID, entry.ListingID, entry.BidID, entry.Message, string(entry.Status), entry.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *MySQLBidLedger) CurrentLeader(ctx context.Context, listingID string) (*domain.Bid, error) {
	query := `
        SELECT id, listing_id, user_id, amount, status, placed_at
        FROM bids WHERE listing_id = ? AND status = ?
        LIMIT 1
    `

	bid, err := scanBid(r.db.QueryRowContext(ctx, query, listingID, int(domain.BidLeading)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func (r *MySQLBidLedger) History(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, listing_id, user_id, amount, status, placed_at
        FROM bids WHERE listing_id = ?
        ORDER BY placed_at ASC, id ASC
    `

	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}

	return bids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var bid domain.Bid
	var status int

	err := row.Scan(&bid.ID, &bid.ListingID, &bid.UserID, &bid.Amount, &status, &bid.PlacedAt)
	if err != nil {
		return nil, err
	}

	bid.Status = domain.BidStatus(status)
	return &bid, nil
}
