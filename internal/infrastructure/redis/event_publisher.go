package redis

import (
	"context"
	"encoding/json"

	"property-bidding/internal/domain"

	"github.com/go-redis/redis/v8"
)

const bidEventsChannel = "bid_events"

// EventPublisher emits bid events on a pub/sub channel for downstream
// consumers (dashboards, analytics). Best-effort, never on the commit path.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, bidEventsChannel, string(data)).Err()
}
