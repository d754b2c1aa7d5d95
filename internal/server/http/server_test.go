package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

func newBridge(t *testing.T) (*Server, *eventbus.MemoryBus) {
	t.Helper()
	bus := eventbus.NewMemoryBus()
	t.Cleanup(bus.Close)
	return New(":0", bus, observability.Log(), 50*time.Millisecond), bus
}

func TestServeHTTPRelaysResponderBody(t *testing.T) {
	server, bus := newBridge(t)

	_, err := bus.Subscribe(schema.ChannelHTTPRequest, func(evt *schema.Event) {
		req := evt.Payload.(*schema.HTTPObject)
		require.Equal(t, http.MethodGet, req.Method)
		require.Equal(t, "/hello", req.Path)
		evt.Respond(&schema.HTTPObject{
			Status:      http.StatusOK,
			ContentType: "text/plain",
			Body:        []byte("world"),
		})
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	require.Equal(t, "world", rec.Body.String())
}

func TestServeHTTPUnclaimedRequestIs404(t *testing.T) {
	server, _ := newBridge(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nobody-home", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeHTTPForwardsBodyAndHeaders(t *testing.T) {
	server, bus := newBridge(t)

	var seen *schema.HTTPObject
	_, err := bus.Subscribe(schema.ChannelHTTPRequest, func(evt *schema.Event) {
		seen = evt.Payload.(*schema.HTTPObject)
		evt.Respond(&schema.HTTPObject{Status: http.StatusOK})
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/cfg", strings.NewReader(`{"maxLogs":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	require.Equal(t, "application/json", seen.ContentType)
	require.JSONEq(t, `{"maxLogs":1}`, seen.BodyAsString())
	require.Equal(t, "application/json", seen.Header("Content-Type"))
}

func TestServeHTTPBusClosed(t *testing.T) {
	server, bus := newBridge(t)
	bus.Close()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStartStopLifecycle(t *testing.T) {
	server, bus := newBridge(t)
	_, err := bus.Subscribe(schema.ChannelHTTPRequest, func(evt *schema.Event) {
		evt.Respond(&schema.HTTPObject{Status: http.StatusOK, Body: []byte("up")})
	})
	require.NoError(t, err)

	ctx := t.Context()
	require.NoError(t, server.Start(ctx))
	require.NotEmpty(t, server.Addr())

	resp, err := http.Get("http://" + server.Addr() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Stop(ctx))
}
