package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"property-bidding/internal/domain"
	"property-bidding/pkg/utils"
)

// Locker serializes writers per listing inside one process. Acquisition
// waits at most maxWait before giving up with ErrBidContention, so a caller
// never blocks indefinitely. Release only frees the slot when the token
// matches the one handed out by Acquire, like the Redis lock does.
type Locker struct {
	mu      sync.Mutex
	locks   map[string]chan struct{}
	tokens  map[string]string
	maxWait time.Duration
}

func NewLocker(maxWait time.Duration) *Locker {
	return &Locker{
		locks:   make(map[string]chan struct{}),
		tokens:  make(map[string]string),
		maxWait: maxWait,
	}
}

func (l *Locker) Acquire(ctx context.Context, listingID string) (string, error) {
	sem := l.semaphore(listingID)

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		token := utils.GenerateID("lock")
		l.mu.Lock()
		l.tokens[listingID] = token
		l.mu.Unlock()
		return token, nil
	case <-timer.C:
		return "", fmt.Errorf("%w: listing %s", domain.ErrBidContention, listingID)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *Locker) Release(ctx context.Context, listingID, token string) error {
	l.mu.Lock()
	held, ok := l.tokens[listingID]
	if !ok || held != token {
		l.mu.Unlock()
		return nil
	}
	delete(l.tokens, listingID)
	sem := l.locks[listingID]
	l.mu.Unlock()

	select {
	case <-sem:
	default:
	}
	return nil
}

func (l *Locker) semaphore(listingID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[listingID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[listingID] = sem
	}
	return sem
}
