package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel events travel on.
const DefaultChannel = "govern:events"

// RedisBroadcaster publishes events to a Redis channel. Every instance,
// including the publisher, runs Run to deliver received events to its
// local hub.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	local   Broadcaster
	logger  *slog.Logger
}

// NewRedisBroadcaster creates a broadcaster that relays through client
// into local.
func NewRedisBroadcaster(client *redis.Client, local Broadcaster, logger *slog.Logger) *RedisBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroadcaster{
		client:  client,
		channel: DefaultChannel,
		local:   local,
		logger:  logger.With("component", "redis_broadcaster"),
	}
}

// Publish sends the event to the shared channel.
func (b *RedisBroadcaster) Publish(ctx context.Context, orgID uint64, ev Event) error {
	ev.OrganizationID = orgID
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Run relays events from the channel to the local broadcaster until ctx
// is cancelled. ready, when non-nil, is closed once the subscription is
// confirmed.
func (b *RedisBroadcaster) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("discarding malformed event", "error", err)
				continue
			}
			if err := b.local.Publish(ctx, ev.OrganizationID, ev); err != nil {
				b.logger.Warn("local delivery failed", "event_id", ev.ID, "error", err)
			}
		}
	}
}
