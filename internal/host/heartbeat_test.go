package host

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/schema"
)

func TestHeartbeatPublishesTicks(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	defer bus.Close()

	var ticks atomic.Int32
	_, err := bus.Subscribe(schema.ChannelHeartbeat, func(evt *schema.Event) {
		require.True(t, evt.Broadcast)
		ticks.Add(1)
	})
	require.NoError(t, err)

	hb := NewHeartbeat(bus, 5*time.Millisecond)
	require.Equal(t, "HeartbeatService", hb.Name())
	require.NoError(t, hb.Start(context.Background()))

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, hb.Stop(context.Background()))

	settled := ticks.Load()
	time.Sleep(25 * time.Millisecond)
	require.Equal(t, settled, ticks.Load())
}

func TestHeartbeatStopBeforeStart(t *testing.T) {
	hb := NewHeartbeat(eventbus.NewMemoryBus(), time.Second)
	require.NoError(t, hb.Stop(context.Background()))
}
