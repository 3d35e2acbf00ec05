// Package streambus fans out appended events to SSE and long-poll
// subscribers across process instances via Redis pub/sub, so a client
// connected to one replica still observes writes committed on another.
package streambus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Bus publishes and subscribes to per-graph event channels.
type Bus struct {
	client *redis.Client
}

func New(addr, password string, db int) *Bus {
	return &Bus{client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

func (b *Bus) Close() error {
	return b.client.Close()
}

func (b *Bus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func channel(graphID string) string {
	return fmt.Sprintf("ginko:events:%s", graphID)
}

// Publish broadcasts a JSON-encodable payload to every subscriber of graphID.
func (b *Bus) Publish(ctx context.Context, graphID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel(graphID), body).Err()
}

// Subscription is a live channel of raw payload bytes for one graph.
type Subscription struct {
	pubsub *redis.PubSub
	ch     <-chan *redis.Message
}

// Subscribe opens a subscription scoped to graphID. Callers must call Close.
func (b *Bus) Subscribe(ctx context.Context, graphID string) *Subscription {
	pubsub := b.client.Subscribe(ctx, channel(graphID))
	return &Subscription{pubsub: pubsub, ch: pubsub.Channel()}
}

func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// Next blocks until a message arrives, ctx is cancelled, or the channel closes.
func (s *Subscription) Next(ctx context.Context) ([]byte, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case msg, ok := <-s.ch:
		if !ok {
			return nil, false
		}
		return []byte(msg.Payload), true
	}
}
