package console

import (
	"time"

	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

// record is the capture callback attached to every bus channel. It runs on
// whatever goroutine the bus delivers from, concurrently across channels.
func (c *Console) record(evt *schema.Event) {
	c.totalEvents.Add(1)
	c.metrics.observed()

	// Heartbeats drive the channel scan elsewhere; they are never retained.
	if evt.Channel == schema.ChannelHeartbeat {
		return
	}

	// The console's own HTTP traffic is answered, not recorded.
	if evt.Channel == schema.ChannelHTTPRequest {
		if req, ok := evt.Payload.(*schema.HTTPObject); ok {
			if m := c.matchRoute(req); m.kind != routeNone {
				c.dispatch(evt, req, m)
				return
			}
		}
	}

	if evt.Channel == schema.ChannelLogging {
		c.insertLog(observability.FormatPayload(evt.Payload))
		return
	}

	evt.StampRecorded(time.Now())
	c.insertEvent(evt)
}

func (c *Console) insertEvent(evt *schema.Event) {
	max := c.maxEventsNow()
	if c.events.Len() >= max {
		c.trimMu.Lock()
		if n := c.events.Len() - max + 1; n > 0 {
			c.metrics.evicted(c.events.TrimOldest(n))
		}
		c.trimMu.Unlock()
	}
	c.events.Push(evt)
}

func (c *Console) insertLog(line string) {
	max := c.maxLogsNow()
	if c.logs.Len() >= max {
		c.trimMu.Lock()
		if n := c.logs.Len() - max + 1; n > 0 {
			c.metrics.evicted(c.logs.TrimOldest(n))
		}
		c.trimMu.Unlock()
	}
	c.logs.Push(line)
	c.metrics.logLine()
}
