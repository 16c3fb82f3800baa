// Package notifications publishes view revalidation signals over Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevalidateChannel carries one RevalidationEvent per successful mutation.
const RevalidateChannel = "revalidate"

// RevalidationEvent tells view layers that path, and the cached views in
// Keys, are stale.
type RevalidationEvent struct {
	Path string    `json:"path"`
	Keys []string  `json:"keys,omitempty"`
	At   time.Time `json:"at"`
}

// Notifier evicts cached views and broadcasts revalidation events. A Notifier
// without a Redis client does nothing.
type Notifier struct {
	rdb *redis.Client
	now func() time.Time
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, now: time.Now}
}

// Revalidate deletes keys and publishes an event for path. It is fire and
// forget: failures are logged, never returned.
func (n *Notifier) Revalidate(ctx context.Context, path string, keys ...string) {
	if n == nil || n.rdb == nil {
		return
	}
	if len(keys) > 0 {
		if err := n.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("revalidate: evict %d keys: %v", len(keys), err)
		}
	}
	if path == "" {
		return
	}
	if err := n.publish(ctx, RevalidationEvent{Path: path, Keys: keys, At: n.now().UTC()}); err != nil {
		log.Printf("revalidate: publish %q: %v", path, err)
	}
}

func (n *Notifier) publish(ctx context.Context, event RevalidationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, RevalidateChannel, payload).Err()
}

// StartRevalidationSubscriber calls onEvent for every event published on
// RevalidateChannel until ctx is cancelled.
func (n *Notifier) StartRevalidationSubscriber(ctx context.Context, onEvent func(RevalidationEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, RevalidateChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", RevalidateChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event RevalidationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("revalidate: bad payload: %v", err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in RevalidationSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}
