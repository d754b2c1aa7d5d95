// Package config centralises runtime configuration for the buswatch host.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConsoleSettings holds the dev console retention and UI settings.
type ConsoleSettings struct {
	MaxEvents int    `yaml:"max_events"`
	MaxLogs   int    `yaml:"max_logs"`
	UIPath    string `yaml:"ui_path"`
}

// TelemetrySettings selects the metrics exporter endpoint.
type TelemetrySettings struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Settings contains the buswatch configuration tree loaded from defaults,
// an optional YAML file and environment overrides.
type Settings struct {
	HTTPAddr          string            `yaml:"http_addr"`
	HeartbeatInterval time.Duration     `yaml:"heartbeat_interval"`
	RespondTimeout    time.Duration     `yaml:"respond_timeout"`
	Console           ConsoleSettings   `yaml:"console"`
	Telemetry         TelemetrySettings `yaml:"telemetry"`
}

// Default returns the default buswatch configuration.
func Default() Settings {
	return Settings{
		HTTPAddr:          ":8080",
		HeartbeatInterval: time.Second,
		RespondTimeout:    250 * time.Millisecond,
		Console: ConsoleSettings{
			MaxEvents: 1000,
			MaxLogs:   1000,
			UIPath:    "/ui",
		},
		Telemetry: TelemetrySettings{
			OTLPEndpoint: "",
			ServiceName:  "buswatch",
		},
	}
}

// LoadOrDefault reads the YAML file at path over the defaults. A missing
// file is not an error; the second return reports whether a file was read.
func LoadOrDefault(path string) (Settings, bool, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FromEnv(cfg), false, nil
		}
		return cfg, false, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg = cfg.normalize()
	return FromEnv(cfg), true, nil
}

// FromEnv applies BUSWATCH_* environment overrides.
func FromEnv(cfg Settings) Settings {
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_HEARTBEAT_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HeartbeatInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_MAX_EVENTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Console.MaxEvents = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_MAX_LOGS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Console.MaxLogs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_UI_PATH")); v != "" {
		cfg.Console.UIPath = v
	}
	if v := strings.TrimSpace(os.Getenv("BUSWATCH_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	return cfg.normalize()
}

func (s Settings) normalize() Settings {
	if s.HTTPAddr == "" {
		s.HTTPAddr = ":8080"
	}
	if s.HeartbeatInterval <= 0 {
		s.HeartbeatInterval = time.Second
	}
	if s.RespondTimeout <= 0 {
		s.RespondTimeout = 250 * time.Millisecond
	}
	if s.Console.MaxEvents <= 0 {
		s.Console.MaxEvents = 1000
	}
	if s.Console.MaxLogs <= 0 {
		s.Console.MaxLogs = 1000
	}
	if s.Console.UIPath == "" {
		s.Console.UIPath = "/ui"
	}
	if !strings.HasPrefix(s.Console.UIPath, "/") {
		s.Console.UIPath = "/" + s.Console.UIPath
	}
	if s.Telemetry.ServiceName == "" {
		s.Telemetry.ServiceName = "buswatch"
	}
	return s
}
