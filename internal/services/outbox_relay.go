package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"property-bidding/internal/domain"
	"property-bidding/pkg/logger"

	"github.com/robfig/cron/v3"
)

// OutboxRelay drains pending notification intents into the notification
// store. Entries are written transactionally with the bid they belong to,
// so delivery is at-least-once and a relay failure only delays it: the
// entry stays pending and the next sweep picks it up again.
type OutboxRelay struct {
	outbox    domain.OutboxRepository
	store     domain.NotificationStore
	cron      *cron.Cron
	batchSize int
	mu        sync.Mutex
	log       logger.Logger
}

func NewOutboxRelay(outbox domain.OutboxRepository, store domain.NotificationStore, batchSize int, log logger.Logger) *OutboxRelay {
	return &OutboxRelay{
		outbox:    outbox,
		store:     store,
		cron:      cron.New(),
		batchSize: batchSize,
		log:       log,
	}
}

// Start schedules the periodic sweep that redelivers anything a kicked
// drain missed, e.g. after a crash between commit and delivery.
func (r *OutboxRelay) Start(interval time.Duration) error {
	r.log.Info("Starting notification outbox relay", "interval", interval)

	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		r.Drain(context.Background())
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

func (r *OutboxRelay) Stop() {
	r.log.Info("Stopping notification outbox relay")
	r.cron.Stop()
}

// Drain delivers one batch of pending entries and returns how many were
// dispatched. The notification keeps the outbox entry's id, so a redelivery
// after a missed MarkDispatched overwrites nothing meaningful.
func (r *OutboxRelay) Drain(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.outbox.PendingEntries(ctx, r.batchSize)
	if err != nil {
		r.log.Error("Failed to read pending outbox entries", "error", err)
		return 0
	}

	dispatched := 0
	for _, entry := range entries {
		notification := &domain.Notification{
			ID:        entry.ID,
			UserID:    entry.UserID,
			ListingID: entry.ListingID,
			BidID:     entry.BidID,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		}

		if err := r.store.SaveNotification(ctx, notification); err != nil {
			// Leave the entry pending, the next sweep retries it.
			r.log.Error("Failed to deliver notification", "entry_id", entry.ID, "user_id", entry.UserID, "error", err)
			continue
		}

		if err := r.outbox.MarkDispatched(ctx, entry.ID); err != nil {
			r.log.Error("Failed to mark outbox entry dispatched", "entry_id", entry.ID, "error", err)
			continue
		}
		dispatched++
	}

	return dispatched
}
