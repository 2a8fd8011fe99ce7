package redis

import (
	"context"
	"fmt"
	"time"

	"property-bidding/internal/domain"
	"property-bidding/pkg/utils"

	"github.com/go-redis/redis/v8"
)

// ListingLock is the per-listing mutual exclusion that serializes the
// read-decide-write cycle of bid placement across instances. The TTL bounds
// how long a crashed holder can wedge a listing.
type ListingLock struct {
	client   *redis.Client
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

func NewListingLock(client *redis.Client, ttl time.Duration, attempts int, backoff time.Duration) *ListingLock {
	return &ListingLock{
		client:   client,
		ttl:      ttl,
		attempts: attempts,
		backoff:  backoff,
	}
}

func (l *ListingLock) Acquire(ctx context.Context, listingID string) (string, error) {
	key := lockKey(listingID)
	token := utils.GenerateID("lock")

	for attempt := 0; attempt < l.attempts; attempt++ {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return "", err
		}
		if acquired {
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.backoff):
		}
	}

	return "", fmt.Errorf("%w: listing %s", domain.ErrBidContention, listingID)
}

func (l *ListingLock) Release(ctx context.Context, listingID, token string) error {
	// Lua keeps the release atomic so an expired holder never deletes a
	// lock someone else re-acquired.
	luaScript := `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `

	_, err := l.client.Eval(ctx, luaScript, []string{lockKey(listingID)}, token).Result()
	return err
}

func lockKey(listingID string) string {
	return fmt.Sprintf("listing_lock:%s", listingID)
}
