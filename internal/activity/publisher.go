// Package activity fans recipe activity out to live subscribers over Redis
// pub/sub. Delivery is fire-and-forget: feeds are a convenience surface and
// must never block or fail the write path.
package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel activity events are published to.
const DefaultChannel = "cookbook:activity"

// Event is one entry in the activity stream.
type Event struct {
	Type       string    `json:"type"`
	RecipeID   string    `json:"recipe_id"`
	Title      string    `json:"title,omitempty"`
	AuthorID   string    `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher publishes activity events to a Redis channel.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewPublisher creates a publisher. A nil client disables publishing,
// which is how the service runs when Redis is down at startup.
func NewPublisher(client *redis.Client, channel string, logger *slog.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel, logger: logger}
}

// Publish sends an event to the activity channel. Errors are logged and
// swallowed.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p.client == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to marshal activity event", slog.String("error", err.Error()))
		return
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn("failed to publish activity event",
			slog.String("channel", p.channel),
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
	}
}
