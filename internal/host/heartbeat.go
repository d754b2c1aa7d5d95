package host

import (
	"context"
	"sync"
	"time"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/schema"
)

// Heartbeat periodically publishes heartbeat events. Consumers use the tick
// to run recurring work such as channel directory scans.
type Heartbeat struct {
	interval time.Duration
	bus      eventbus.Bus

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewHeartbeat creates a heartbeat emitter. The interval defaults to one
// second when zero or negative.
func NewHeartbeat(bus eventbus.Bus, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = time.Second
	}
	h := new(Heartbeat)
	h.bus = bus
	h.interval = interval
	return h
}

// Name implements Service.
func (h *Heartbeat) Name() string { return "HeartbeatService" }

// Start launches the tick loop.
func (h *Heartbeat) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.run(ctx)
	return nil
}

// Stop terminates the tick loop and waits for it to exit.
func (h *Heartbeat) Stop(ctx context.Context) error {
	h.once.Do(func() {
		if h.cancel != nil {
			h.cancel()
		}
	})
	if h.done == nil {
		return nil
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Heartbeat) run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = h.bus.Publish(ctx, schema.NewBroadcast(schema.ChannelHeartbeat, nil))
		}
	}
}
