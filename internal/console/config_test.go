package console

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/buswatch/buswatch/internal/schema"
)

func TestGetConfigDefaults(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.response(t, f.request(t, "GET", BaseURL+"/config", nil))
	doc := decodeBody[configDocument](t, resp)
	require.Equal(t, "/ui", doc.BaseURL)
	require.Equal(t, DefaultMaxEvents, doc.MaxEvents)
	require.Equal(t, DefaultMaxLogs, doc.MaxLogs)
}

func TestPatchConfigStagesRequestKeys(t *testing.T) {
	f := newFixture(t, Config{})

	body, err := json.Marshal(map[string]any{
		patchKeyMaxEvents: 50,
		patchKeyBaseURL:   "panel",
		"unknown_key":     true,
	})
	require.NoError(t, err)

	// Request keys come in as maxEvents/maxLogs/baseUrl; the staged set is
	// keyed by the registered config names.
	resp := f.response(t, f.request(t, "PATCH", BaseURL+"/config", body))
	staged := decodeBody[map[string]any](t, resp)
	require.EqualValues(t, 50, staged[schema.ConfigKeyMaxEvents])
	require.Equal(t, "/panel", staged[schema.ConfigKeyConsoleURL])
	require.NotContains(t, staged, "unknown_key")
	require.NotContains(t, staged, schema.ConfigKeyMaxLogs)

	// Settings change only once the broadcast comes back around.
	require.Eventually(t, func() bool {
		return f.console.maxEventsNow() == 50 && f.console.uiPathNow() == "/panel"
	}, 2*time.Second, 10*time.Millisecond)

	// The dashboard follows the new path, the old one stops matching.
	dash := f.response(t, f.request(t, "GET", BaseURL+"/panel", nil))
	require.Contains(t, dash.BodyAsString(), "<!DOCTYPE html>")
	old := f.request(t, "GET", BaseURL+"/ui", nil)
	require.False(t, old.Acknowledged())
}

func TestPatchConfigRejectsInvalidValues(t *testing.T) {
	f := newFixture(t, Config{})

	body, err := json.Marshal(map[string]any{
		patchKeyMaxEvents: -5,
		patchKeyMaxLogs:   "ten",
		patchKeyBaseURL:   "",
	})
	require.NoError(t, err)

	resp := f.response(t, f.request(t, "PATCH", BaseURL+"/config", body))
	staged := decodeBody[map[string]any](t, resp)
	require.Empty(t, staged)
	require.Equal(t, DefaultMaxEvents, f.console.maxEventsNow())
	require.Equal(t, DefaultMaxLogs, f.console.maxLogsNow())
}

func TestPatchConfigAppliesLogBoundAndPath(t *testing.T) {
	f := newFixture(t, Config{})

	body, err := json.Marshal(map[string]any{
		patchKeyBaseURL: "/tests",
		patchKeyMaxLogs: 1,
	})
	require.NoError(t, err)

	resp := f.response(t, f.request(t, "PATCH", BaseURL+"/config", body))
	staged := decodeBody[map[string]any](t, resp)
	require.EqualValues(t, 1, staged[schema.ConfigKeyMaxLogs])
	require.Equal(t, "/tests", staged[schema.ConfigKeyConsoleURL])

	require.Eventually(t, func() bool {
		return f.console.maxLogsNow() == 1 && f.console.uiPathNow() == "/tests"
	}, 2*time.Second, 10*time.Millisecond)

	doc := decodeBody[configDocument](t, f.response(t, f.request(t, "GET", BaseURL+"/config", nil)))
	require.Equal(t, "/tests", doc.BaseURL)
	require.Equal(t, 1, doc.MaxLogs)
}

func TestPatchConfigEmptyBodyUnacknowledged(t *testing.T) {
	f := newFixture(t, Config{})
	evt := f.request(t, "PATCH", BaseURL+"/config", nil)
	require.False(t, evt.Acknowledged())
}

func TestShrinkTrimsHistories(t *testing.T) {
	f := newFixture(t, Config{MaxEvents: 10, MaxLogs: 10})
	ctx := context.Background()
	for i := range 8 {
		require.NoError(t, f.bus.Publish(ctx, schema.NewEvent(testChannel, i)))
		require.NoError(t, f.bus.Publish(ctx, schema.NewEvent(schema.ChannelLogging, "line")))
	}

	change := schema.NewBroadcast(schema.ChannelConfigChange, schema.ConfigChange{
		schema.ConfigKeyMaxEvents: 3,
		schema.ConfigKeyMaxLogs:   2,
	})
	require.NoError(t, f.bus.Publish(ctx, change))

	require.Equal(t, 3, f.console.maxEventsNow())
	require.Equal(t, 3, f.console.events.Len())
	require.Equal(t, 2, f.console.logs.Len())

	// The change-set event itself is recorded too, so it heads the snapshot.
	newest := f.console.events.SnapshotNewestFirst()
	require.Equal(t, schema.ChannelConfigChange, newest[0].Channel)
	require.EqualValues(t, 7, newest[1].Payload)
}

func TestExternalConfigChangeAsPlainMap(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	change := schema.NewBroadcast(schema.ChannelConfigChange, map[string]any{
		schema.ConfigKeyMaxLogs: float64(25),
	})
	require.NoError(t, f.bus.Publish(ctx, change))
	require.Equal(t, 25, f.console.maxLogsNow())
	require.Equal(t, DefaultMaxEvents, f.console.maxEventsNow())
}
