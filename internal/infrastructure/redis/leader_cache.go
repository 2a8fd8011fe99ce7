package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"property-bidding/internal/domain"

	"github.com/go-redis/redis/v8"
)

// LeaderCache keeps an expiring snapshot of each listing's current leader
// for the read path. The ledger stays authoritative; a miss or a stale
// eviction just costs one ledger read.
type LeaderCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderCache(client *redis.Client, ttl time.Duration) *LeaderCache {
	return &LeaderCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *LeaderCache) GetLeader(ctx context.Context, listingID string) (*domain.LeaderSnapshot, error) {
	data, err := c.client.Get(ctx, leaderKey(listingID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot domain.LeaderSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *LeaderCache) SetLeader(ctx context.Context, snapshot *domain.LeaderSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, leaderKey(snapshot.ListingID), string(data), c.ttl).Err()
}

func (c *LeaderCache) InvalidateLeader(ctx context.Context, listingID string) error {
	return c.client.Del(ctx, leaderKey(listingID)).Err()
}

func leaderKey(listingID string) string {
	return fmt.Sprintf("listing:%s:leader", listingID)
}
