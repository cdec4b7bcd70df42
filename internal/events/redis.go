// Package events publishes board events on Redis pub/sub, one channel per
// event type, for the Gateway to forward over SSE.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jobtracker/tracker-service/internal/kanban"
)

// RedisPublisher implements kanban.Publisher.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a publisher writing to rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish sends ev as JSON on the channel named after its type.
func (p *RedisPublisher) Publish(ctx context.Context, ev kanban.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	if err := p.rdb.Publish(ctx, ev.Type, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
