package eventbus

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/buswatch/buswatch/errs"
	"github.com/buswatch/buswatch/internal/schema"
)

// MemoryBus is the in-memory bus implementation backing the host runtime.
// Delivery within a channel is serialized so callback order equals publish
// order; distinct channels deliver independently.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[schema.Channel]map[SubscriptionID]Handler
	index    map[SubscriptionID]schema.Channel
	channels map[schema.Channel]struct{}
	delivery map[schema.Channel]*sync.Mutex
	closed   bool
	once     sync.Once
}

// NewMemoryBus constructs a memory-backed bus.
func NewMemoryBus() *MemoryBus {
	bus := new(MemoryBus)
	bus.handlers = make(map[schema.Channel]map[SubscriptionID]Handler)
	bus.index = make(map[SubscriptionID]schema.Channel)
	bus.channels = make(map[schema.Channel]struct{})
	bus.delivery = make(map[schema.Channel]*sync.Mutex)
	return bus
}

// Publish delivers the event to every callback registered on its channel.
// The channel is added to the directory on first use.
func (b *MemoryBus) Publish(ctx context.Context, evt *schema.Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if evt == nil {
		return nil
	}
	if evt.Channel == "" {
		return errs.New("eventbus/publish", errs.CodeInvalid, errs.WithMessage("event channel required"))
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errs.New("eventbus/publish", errs.CodeUnavailable, errs.WithMessage("bus closed"))
	}
	b.channels[evt.Channel] = struct{}{}
	order := b.channelLockLocked(evt.Channel)
	// Snapshot handlers so delivery never holds the registration lock.
	snapshot := make([]Handler, 0, len(b.handlers[evt.Channel]))
	for _, fn := range b.handlers[evt.Channel] {
		snapshot = append(snapshot, fn)
	}
	b.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	order.Lock()
	defer order.Unlock()
	for _, fn := range snapshot {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fn(evt)
	}
	return nil
}

// Subscribe registers a callback for the given channel and returns its
// subscription handle. The channel joins the directory immediately.
func (b *MemoryBus) Subscribe(channel schema.Channel, fn Handler) (SubscriptionID, error) {
	if channel == "" {
		return "", errs.New("eventbus/subscribe", errs.CodeInvalid, errs.WithMessage("channel required"))
	}
	if fn == nil {
		return "", errs.New("eventbus/subscribe", errs.CodeInvalid, errs.WithMessage("handler required"))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", errs.New("eventbus/subscribe", errs.CodeUnavailable, errs.WithMessage("bus closed"))
	}
	id := SubscriptionID("sub-" + uuid.NewString())
	if _, ok := b.handlers[channel]; !ok {
		b.handlers[channel] = make(map[SubscriptionID]Handler)
	}
	b.handlers[channel][id] = fn
	b.index[id] = channel
	b.channels[channel] = struct{}{}
	b.channelLockLocked(channel)
	return id, nil
}

// Unsubscribe detaches the callback behind the subscription handle.
func (b *MemoryBus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	channel, ok := b.index[id]
	if !ok {
		return
	}
	delete(b.index, id)
	if set, ok := b.handlers[channel]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(b.handlers, channel)
		}
	}
}

// RegisterChannel adds a channel to the directory without subscribing.
// Hosts use this to announce channels before any traffic flows.
func (b *MemoryBus) RegisterChannel(channel schema.Channel) {
	if channel == "" {
		return
	}
	b.mu.Lock()
	b.channels[channel] = struct{}{}
	b.channelLockLocked(channel)
	b.mu.Unlock()
}

// Channels returns a sorted snapshot of the channel directory.
func (b *MemoryBus) Channels() []schema.Channel {
	b.mu.RLock()
	out := make([]schema.Channel, 0, len(b.channels))
	for ch := range b.channels {
		out = append(out, ch)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Listeners returns the number of registered callbacks across all channels.
func (b *MemoryBus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.index)
}

// Close detaches every callback and rejects further publishes.
func (b *MemoryBus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.handlers = make(map[schema.Channel]map[SubscriptionID]Handler)
		b.index = make(map[SubscriptionID]schema.Channel)
		b.mu.Unlock()
	})
}

func (b *MemoryBus) channelLockLocked(channel schema.Channel) *sync.Mutex {
	lock, ok := b.delivery[channel]
	if !ok {
		lock = new(sync.Mutex)
		b.delivery[channel] = lock
	}
	return lock
}
