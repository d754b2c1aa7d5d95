package console

import (
	"context"
	"time"

	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

// Request body keys accepted by the config endpoint. They mirror the
// response document; the broadcast change-set uses the registered
// schema.ConfigKey* names instead.
const (
	patchKeyMaxEvents = "maxEvents"
	patchKeyMaxLogs   = "maxLogs"
	patchKeyBaseURL   = "baseUrl"
)

// configDocument is the wire shape of the console configuration endpoint.
// baseUrl is the dashboard sub-path under the console root.
type configDocument struct {
	BaseURL   string `json:"baseUrl"`
	MaxEvents int    `json:"maxEvents"`
	MaxLogs   int    `json:"maxLogs"`
}

func (c *Console) configDocument() configDocument {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return configDocument{
		BaseURL:   c.uiPath,
		MaxEvents: c.maxEvents,
		MaxLogs:   c.maxLogs,
	}
}

// applyUpdate stages the recognized PATCH body keys as a change-set under
// the registered config-key names, acknowledges with the staged set, and
// broadcasts it on the config-change channel. The
// console's own settings only change when the broadcast comes back through
// applyResolved, so every consumer observes the same sequence of change-sets.
func (c *Console) applyUpdate(evt *schema.Event, req *schema.HTTPObject) {
	var body map[string]any
	if err := req.BodyAsJSON(&body); err != nil {
		c.diag.Do(func() {
			c.logger.Debug("config patch rejected", observability.F("error", err.Error()))
		})
		return
	}

	staged := schema.ConfigChange{}
	if n, ok := positiveInt(body[patchKeyMaxEvents]); ok {
		staged[schema.ConfigKeyMaxEvents] = n
	}
	if n, ok := positiveInt(body[patchKeyMaxLogs]); ok {
		staged[schema.ConfigKeyMaxLogs] = n
	}
	if s, ok := body[patchKeyBaseURL].(string); ok && s != "" {
		staged[schema.ConfigKeyConsoleURL] = ensureLeadingSlash(s)
	}

	responseJSON(evt, staged)

	if len(staged) == 0 {
		return
	}
	c.tasks.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		change := schema.NewBroadcast(schema.ChannelConfigChange, staged)
		if err := c.bus.Publish(ctx, change); err != nil {
			c.logger.Error("config change publish failed",
				observability.F("error", err.Error()))
		}
	})
}

// applyResolved consumes config-change broadcasts, from this console or any
// other publisher, and applies the keys it recognizes. Shrinking a bound
// trims the matching history immediately.
func (c *Console) applyResolved(evt *schema.Event) {
	change, ok := evt.Payload.(schema.ConfigChange)
	if !ok {
		if raw, isMap := evt.Payload.(map[string]any); isMap {
			change = schema.ConfigChange(raw)
		} else {
			return
		}
	}

	c.cfgMu.Lock()
	if n, ok := positiveInt(change[schema.ConfigKeyMaxEvents]); ok {
		c.maxEvents = n
	}
	if n, ok := positiveInt(change[schema.ConfigKeyMaxLogs]); ok {
		c.maxLogs = n
	}
	if s, ok := change[schema.ConfigKeyConsoleURL].(string); ok && s != "" {
		c.uiPath = ensureLeadingSlash(s)
	}
	maxEvents, maxLogs := c.maxEvents, c.maxLogs
	c.cfgMu.Unlock()

	c.trimMu.Lock()
	if n := c.events.Len() - maxEvents; n > 0 {
		c.metrics.evicted(c.events.TrimOldest(n))
	}
	if n := c.logs.Len() - maxLogs; n > 0 {
		c.metrics.evicted(c.logs.TrimOldest(n))
	}
	c.trimMu.Unlock()
}

// positiveInt accepts the numeric encodings a JSON body or an in-process
// publisher may carry and rejects anything non-positive.
func positiveInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		if n > 0 {
			return n, true
		}
	case int64:
		if n > 0 {
			return int(n), true
		}
	case float64:
		if n > 0 && n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
