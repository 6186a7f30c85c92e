// Package stats publishes connection diagnostics to redis pub/sub.
// External monitors subscribe to the channel; nothing in this process
// reads it back, and no document state ever leaves the process.
package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"collabtext/internal/session"
)

const DefaultChannel = "collabtext:stats"

type Publisher struct {
	rdb     *redis.Client
	channel string
}

// NewPublisher connects a publisher to the redis at addr.
func NewPublisher(addr, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		rdb:     redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

// Publish sends one snapshot as JSON.
func (p *Publisher) Publish(ctx context.Context, snap session.StatsSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish stats: %w", err)
	}
	return nil
}

// Ping verifies the redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close releases the redis client.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
