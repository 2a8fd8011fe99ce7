package domain

import (
	"context"
)

// Repository interfaces
type BidLedger interface {
	// ApplyPlacement commits the placement atomically: the new bid, the
	// optional demotion of the prior leader and the outbox rows either all
	// land or none do.
	ApplyPlacement(ctx context.Context, placement *BidPlacement) error
	CurrentLeader(ctx context.Context, listingID string) (*Bid, error)
	History(ctx context.Context, listingID string) ([]*Bid, error)
}

type PropertyCatalog interface {
	CreateListing(ctx context.Context, listing *Listing) error
	GetListing(ctx context.Context, listingID string) (*Listing, error)
}

type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type NotificationStore interface {
	SaveNotification(ctx context.Context, notification *Notification) error
	NotificationsForUser(ctx context.Context, userID string) ([]*Notification, error)
}

type OutboxRepository interface {
	PendingEntries(ctx context.Context, limit int) ([]*OutboxEntry, error)
	MarkDispatched(ctx context.Context, entryID string) error
}

// Lock interface
type ListingLocker interface {
	// Acquire serializes writers per listing. The returned token must be
	// passed back to Release; a lock is never released by another holder.
	Acquire(ctx context.Context, listingID string) (string, error)
	Release(ctx context.Context, listingID, token string) error
}

// Cache interface
type LeaderCache interface {
	GetLeader(ctx context.Context, listingID string) (*LeaderSnapshot, error)
	SetLeader(ctx context.Context, snapshot *LeaderSnapshot) error
	InvalidateLeader(ctx context.Context, listingID string) error
}

// Event interface
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}
