package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"property-bidding/internal/domain"
)

type MySQLPropertyCatalog struct {
	db *sql.DB
}

func NewMySQLPropertyCatalog(db *sql.DB) *MySQLPropertyCatalog {
	return &MySQLPropertyCatalog{db: db}
}

func (r *MySQLPropertyCatalog) CreateListing(ctx context.Context, listing *domain.Listing) error {
	query := `
        INSERT INTO listings (id, title, base_price, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.Title, listing.BasePrice,
		listing.CreatedAt, listing.UpdatedAt)
	return err
}

func (r *MySQLPropertyCatalog) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	query := `
        SELECT id, title, base_price, created_at, updated_at
        FROM listings WHERE id = ?
    `

	var listing domain.Listing
	err := r.db.QueryRowContext(ctx, query, listingID).Scan(
		&listing.ID, &listing.Title, &listing.BasePrice,
		&listing.CreatedAt, &listing.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrListingNotFound, listingID)
		}
		return nil, err
	}

	return &listing, nil
}
