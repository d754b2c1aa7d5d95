package console

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/host"
	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

func TestGetSystemInfo(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.bus.Publish(ctx, schema.NewEvent(testChannel, "payload")))

	resp := f.response(t, f.request(t, "GET", BaseURL+"/system-info", nil))
	require.Equal(t, 200, resp.Status)
	require.Equal(t, contentTypeJSON, resp.ContentType)
	require.Equal(t, "*", resp.Header("Access-Control-Allow-Origin"))

	info := decodeBody[map[string]any](t, resp)
	require.Positive(t, info["pid"])
	require.True(t, strings.HasSuffix(info["usedMemory"].(string), " MB"))
	require.Positive(t, info["cores"])
	require.Positive(t, info["threadsActive"])
	require.NotEmpty(t, info["go"])
	require.Positive(t, info["listeners"])
	require.Positive(t, info["totalEvents"])
	require.EqualValues(t, 1, info["lastEventsRetained"])

	names := info["serviceNames"].([]any)
	require.Contains(t, names, "WorkerService")
	require.Contains(t, names, "DevConsoleService")
	require.NotContains(t, names, "LogService")
	require.EqualValues(t, len(names), info["services"])

	_, err := time.Parse("2006-01-02 15:04:05", info["lastUpdated"].(string))
	require.NoError(t, err)
}

func TestGetEventsNewestFirst(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.bus.Publish(ctx, schema.NewEvent(testChannel, "older")))
	require.NoError(t, f.bus.Publish(ctx, schema.NewBroadcast(testChannel, "newer")))

	resp := f.response(t, f.request(t, "GET", BaseURL+"/events", nil))
	docs := decodeBody[[]eventDocument](t, resp)
	require.Len(t, docs, 2)
	require.Equal(t, "newer", docs[0].Payload)
	require.True(t, docs[0].IsBroadcast)
	require.Equal(t, string(testChannel), docs[0].Channel)
	require.Positive(t, docs[0].EventTimestamp)
	require.Equal(t, "older", docs[1].Payload)
	require.False(t, docs[1].IsBroadcast)
}

func TestGetEventsTruncatesDisplay(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	long := strings.Repeat("x", displayLimit+50)
	require.NoError(t, f.bus.Publish(ctx, schema.NewEvent(testChannel, long)))

	resp := f.response(t, f.request(t, "GET", BaseURL+"/events", nil))
	docs := decodeBody[[]eventDocument](t, resp)
	require.Len(t, docs, 1)
	require.Len(t, []rune(docs[0].Payload), displayLimit+1)
	require.True(t, strings.HasSuffix(docs[0].Payload, "…"))
}

func TestGetLogs(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.bus.Publish(ctx, schema.NewEvent(schema.ChannelLogging, "alpha")))
	require.NoError(t, f.bus.Publish(ctx, schema.NewEvent(schema.ChannelLogging, "beta")))

	resp := f.response(t, f.request(t, "GET", BaseURL+"/logs", nil))
	require.Equal(t, []string{"beta", "alpha"}, decodeBody[[]string](t, resp))
}

func TestGetDashboardAndAssets(t *testing.T) {
	f := newFixture(t, Config{})

	for _, path := range []string{BaseURL, BaseURL + "/ui"} {
		resp := f.response(t, f.request(t, "GET", path, nil))
		require.Equal(t, contentTypeHTML, resp.ContentType)
		require.Contains(t, resp.BodyAsString(), "<!DOCTYPE html>")
	}

	script := f.response(t, f.request(t, "GET", BaseURL+"/script.js", nil))
	require.Equal(t, contentTypeJS, script.ContentType)

	css := f.response(t, f.request(t, "GET", BaseURL+"/style.css", nil))
	require.Equal(t, contentTypeCSS, css.ContentType)

	icon := f.response(t, f.request(t, "GET", BaseURL+"/favicon.svg", nil))
	require.Equal(t, contentTypeText, icon.ContentType)
}

func TestDeleteServiceDeregisters(t *testing.T) {
	f := newFixture(t, Config{})

	resp := f.response(t, f.request(t, "DELETE", BaseURL+"/service/WorkerService", nil))
	require.Equal(t, 200, resp.Status)

	require.Eventually(t, func() bool {
		_, found := f.registry.Lookup("WorkerService")
		return !found
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnsupportedVerbStaysUnacknowledged(t *testing.T) {
	f := newFixture(t, Config{})

	evt := f.request(t, "POST", BaseURL+"/events", nil)
	require.False(t, evt.Acknowledged())

	del := f.request(t, "DELETE", BaseURL+"/config", nil)
	require.False(t, del.Acknowledged())
}

type capturingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *capturingLogger) record(msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *capturingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

func (l *capturingLogger) Debug(msg string, _ ...observability.Field) { l.record(msg) }
func (l *capturingLogger) Info(msg string, _ ...observability.Field)  { l.record(msg) }
func (l *capturingLogger) Error(msg string, _ ...observability.Field) { l.record(msg) }

func TestWrongVerbOnServiceRouteLogsDiagnostic(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	t.Cleanup(bus.Close)
	bus.RegisterChannel(schema.ChannelHTTPRequest)
	bus.RegisterChannel(schema.ChannelHeartbeat)

	registry, err := host.NewRegistry(bus, observability.Log())
	require.NoError(t, err)
	registry.Register(&stubService{name: "WorkerService"})
	t.Cleanup(func() { require.NoError(t, registry.Stop(context.Background())) })

	logger := new(capturingLogger)
	c, err := New(Options{Bus: bus, Registry: registry, Logger: logger})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { require.NoError(t, c.Stop(ctx)) })

	req := schema.NewHTTPRequest("GET", BaseURL+"/service/WorkerService")
	evt := schema.NewEvent(schema.ChannelHTTPRequest, req)
	require.NoError(t, bus.Publish(ctx, evt))

	require.False(t, evt.Acknowledged())
	require.Contains(t, logger.messages(), "unsupported console request")
}
