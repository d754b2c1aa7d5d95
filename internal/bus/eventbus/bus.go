// Package eventbus provides the host's in-memory pub/sub primitives.
package eventbus

import (
	"context"

	"github.com/buswatch/buswatch/internal/schema"
)

// SubscriptionID uniquely identifies a bus subscription.
type SubscriptionID string

// Handler is a per-channel capture callback. Handlers must be thread-safe:
// the bus may invoke callbacks for different channels concurrently.
type Handler func(*schema.Event)

// Bus delivers events to registered channel callbacks and maintains the
// channel directory consumers scan for newly appeared channels.
type Bus interface {
	Publish(ctx context.Context, evt *schema.Event) error
	Subscribe(channel schema.Channel, fn Handler) (SubscriptionID, error)
	Unsubscribe(id SubscriptionID)
	RegisterChannel(channel schema.Channel)
	Channels() []schema.Channel
	Listeners() int
	Close()
}
