package domain

import "errors"

var (
	// ErrInvalidAmount covers non-positive, NaN and infinite bid amounts.
	ErrInvalidAmount = errors.New("bid amount must be a finite positive number")

	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrBidContention is returned when the per-listing lock could not be
	// acquired within the configured attempts. Nothing has been committed,
	// so the caller may retry the whole PlaceBid call.
	ErrBidContention = errors.New("listing is contended, retry the bid")
)
