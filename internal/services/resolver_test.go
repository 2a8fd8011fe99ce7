package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"property-bidding/internal/domain"
)

// unreliableCache is a map-backed leader cache whose writes can be made to
// fail, leaving whatever snapshot it held before.
type unreliableCache struct {
	mu        sync.Mutex
	snapshots map[string]*domain.LeaderSnapshot
	failSet   bool
}

func newUnreliableCache() *unreliableCache {
	return &unreliableCache{snapshots: make(map[string]*domain.LeaderSnapshot)}
}

func (c *unreliableCache) GetLeader(ctx context.Context, listingID string) (*domain.LeaderSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.snapshots[listingID]
	if !ok {
		return nil, nil
	}
	copied := *snapshot
	return &copied, nil
}

func (c *unreliableCache) SetLeader(ctx context.Context, snapshot *domain.LeaderSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache write refused")
	}
	copied := *snapshot
	c.snapshots[snapshot.ListingID] = &copied
	return nil
}

func (c *unreliableCache) InvalidateLeader(ctx context.Context, listingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, listingID)
	return nil
}

func (c *unreliableCache) setFailSet(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSet = fail
}

func TestResolverReturnsNilOnFreshListing(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	leader, err := engine.resolver.Current(ctx, testListing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leader != nil {
		t.Errorf("expected no leader on a fresh listing, got %+v", leader)
	}
}

func TestResolverReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, "user-1", "user-2")

	if _, _, err := engine.placement.PlaceBid(ctx, testListing, "user-1", 120000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := engine.placement.PlaceBid(ctx, testListing, "user-2", 110000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := engine.resolver.Current(ctx, testListing)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	second, err := engine.resolver.Current(ctx, testListing)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}

	if first == nil || second == nil {
		t.Fatal("expected a leader from both reads")
	}
	if first.ID != second.ID || first.Amount != second.Amount || first.Status != second.Status {
		t.Errorf("reads with no intervening write differ: %+v vs %+v", first, second)
	}
}

func TestResolverSurvivesFailedCacheRefresh(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, "user-1", "user-2")

	cache := newUnreliableCache()
	engine.placement.SetLeaderCache(cache)
	engine.resolver.SetLeaderCache(cache)

	if _, _, err := engine.placement.PlaceBid(ctx, testListing, "user-1", 120000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The next leader's snapshot never makes it into the cache. The old
	// snapshot must be dropped so reads fall back to the ledger instead of
	// serving the demoted bid.
	cache.setFailSet(true)
	second, _, err := engine.placement.PlaceBid(ctx, testListing, "user-2", 150000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leader, err := engine.resolver.Current(ctx, testListing)
	if err != nil {
		t.Fatalf("failed to resolve leader: %v", err)
	}
	if leader == nil || leader.ID != second.ID {
		t.Fatalf("expected leader %s after failed cache refresh, got %+v", second.ID, leader)
	}
	if leader.Amount != 150000 {
		t.Errorf("expected leader amount 150000, got %v", leader.Amount)
	}
}
