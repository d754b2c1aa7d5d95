package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	cfg := Default()
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, time.Second, cfg.HeartbeatInterval)
	require.Equal(t, 1000, cfg.Console.MaxEvents)
	require.Equal(t, 1000, cfg.Console.MaxLogs)
	require.Equal(t, "/ui", cfg.Console.UIPath)
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, loaded, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.False(t, loaded)
	require.Equal(t, Default(), cfg)
}

func TestLoadOrDefaultReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	body := []byte("http_addr: \":9090\"\nheartbeat_interval: 5s\nconsole:\n  max_events: 50\n  ui_path: dash\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, loaded, err := LoadOrDefault(path)
	require.NoError(t, err)
	require.True(t, loaded)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, 50, cfg.Console.MaxEvents)
	require.Equal(t, 1000, cfg.Console.MaxLogs)
	require.Equal(t, "/dash", cfg.Console.UIPath)
}

func TestLoadOrDefaultRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("console: ["), 0o600))

	_, _, err := LoadOrDefault(path)
	require.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BUSWATCH_HTTP_ADDR", ":7070")
	t.Setenv("BUSWATCH_MAX_EVENTS", "10")
	t.Setenv("BUSWATCH_MAX_LOGS", "-3")
	t.Setenv("BUSWATCH_UI_PATH", "console")
	t.Setenv("BUSWATCH_HEARTBEAT_INTERVAL", "2s")

	cfg := FromEnv(Default())
	require.Equal(t, ":7070", cfg.HTTPAddr)
	require.Equal(t, 10, cfg.Console.MaxEvents)
	require.Equal(t, 1000, cfg.Console.MaxLogs)
	require.Equal(t, "/console", cfg.Console.UIPath)
	require.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
}
