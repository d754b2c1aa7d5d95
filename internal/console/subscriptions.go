package console

import (
	"sync"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/schema"
)

// subscriptionSet tracks which channels already carry the capture callback.
// Membership only grows until shutdown.
type subscriptionSet struct {
	mu     sync.Mutex
	active map[schema.Channel]eventbus.SubscriptionID
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{active: make(map[schema.Channel]eventbus.SubscriptionID)}
}

// scanAndSubscribe walks the bus channel directory and attaches the capture
// callback to every channel seen for the first time. Idempotent; runs on
// every heartbeat. A channel whose attach fails is retried on the next scan.
func (c *Console) scanAndSubscribe() {
	for _, channel := range c.bus.Channels() {
		c.subs.mu.Lock()
		if _, ok := c.subs.active[channel]; ok {
			c.subs.mu.Unlock()
			continue
		}
		id, err := c.bus.Subscribe(channel, c.record)
		if err == nil {
			c.subs.active[channel] = id
		}
		c.subs.mu.Unlock()
	}
}

// detachAll unsubscribes every capture callback and empties the set.
func (c *Console) detachAll() {
	c.subs.mu.Lock()
	for _, id := range c.subs.active {
		c.bus.Unsubscribe(id)
	}
	c.subs.active = make(map[schema.Channel]eventbus.SubscriptionID)
	c.subs.mu.Unlock()
}

func (c *Console) subscribedChannels() int {
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()
	return len(c.subs.active)
}
