package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"auctionhouse/internal/domain"

	"github.com/go-redis/redis/v8"
)

// EventPublisher fans bid lifecycle events out on a Redis channel for
// external collaborators (notification services, analytics). The core treats
// delivery as best-effort.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client, channel: "auction_events"}
}

func (p *EventPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal bid event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish bid event for auction %s: %w", event.AuctionID, err)
	}
	return nil
}
