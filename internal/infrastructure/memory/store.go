package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"property-bidding/internal/domain"
)

// Store is a single-process implementation of the ledger, catalog,
// directory, notification store and outbox. One mutex covers all state, so
// ApplyPlacement is atomic the same way the MySQL transaction is.
type Store struct {
	mu            sync.RWMutex
	listings      map[string]*domain.Listing
	users         map[string]*domain.User
	bids          map[string][]*domain.Bid
	notifications map[string][]*domain.Notification
	outbox        []*domain.OutboxEntry
}

func NewStore() *Store {
	return &Store{
		listings:      make(map[string]*domain.Listing),
		users:         make(map[string]*domain.User),
		bids:          make(map[string][]*domain.Bid),
		notifications: make(map[string][]*domain.Notification),
	}
}

func (s *Store) ApplyPlacement(ctx context.Context, placement *domain.BidPlacement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if placement.DemoteBidID != "" {
		demoted := false
		for _, bid := range s.bids[placement.Bid.ListingID] {
			if bid.ID == placement.DemoteBidID && bid.Status == domain.BidLeading {
				bid.Status = domain.BidAccepted
				demoted = true
				break
			}
		}
		if !demoted {
			return fmt.Errorf("%w: leader changed before demotion of %s", domain.ErrBidContention, placement.DemoteBidID)
		}
	}

	if placement.Bid.Status == domain.BidLeading {
		for _, bid := range s.bids[placement.Bid.ListingID] {
			if bid.Status == domain.BidLeading {
				return fmt.Errorf("%w: listing %s already has a leading bid", domain.ErrBidContention, placement.Bid.ListingID)
			}
		}
	}

	stored := *placement.Bid
	s.bids[placement.Bid.ListingID] = append(s.bids[placement.Bid.ListingID], &stored)

	for _, entry := range placement.Outbox {
		copied := *entry
		s.outbox = append(s.outbox, &copied)
	}

	return nil
}

func (s *Store) CurrentLeader(ctx context.Context, listingID string) (*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, bid := range s.bids[listingID] {
		if bid.Status == domain.BidLeading {
			copied := *bid
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *Store) History(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]*domain.Bid, 0, len(s.bids[listingID]))
	for _, bid := range s.bids[listingID] {
		copied := *bid
		history = append(history, &copied)
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].PlacedAt.Before(history[j].PlacedAt)
	})
	return history, nil
}

func (s *Store) CreateListing(ctx context.Context, listing *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now().UTC()
		listing.UpdatedAt = listing.CreatedAt
	}
	copied := *listing
	s.listings[listing.ID] = &copied
	return nil
}

func (s *Store) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrListingNotFound, listingID)
	}
	copied := *listing
	return &copied, nil
}

func (s *Store) AddUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *user
	s.users[user.ID] = &copied
}

func (s *Store) Exists(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[userID]
	return ok, nil
}

func (s *Store) SaveNotification(ctx context.Context, notification *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Redeliveries reuse the outbox entry id, drop them instead of duplicating.
	for _, existing := range s.notifications[notification.UserID] {
		if existing.ID == notification.ID {
			return nil
		}
	}
	copied := *notification
	s.notifications[notification.UserID] = append(s.notifications[notification.UserID], &copied)
	return nil
}

func (s *Store) NotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.notifications[userID]
	result := make([]*domain.Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		copied := *stored[i]
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) PendingEntries(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]*domain.OutboxEntry, 0)
	for _, entry := range s.outbox {
		if entry.Status != domain.OutboxPending {
			continue
		}
		copied := *entry
		pending = append(pending, &copied)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkDispatched(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.outbox {
		if entry.ID == entryID {
			entry.Status = domain.OutboxDispatched
			return nil
		}
	}
	return fmt.Errorf("outbox entry not found: %s", entryID)
}
