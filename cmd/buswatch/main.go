// Command buswatch launches a demo host with the embedded dev console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/config"
	"github.com/buswatch/buswatch/internal/console"
	"github.com/buswatch/buswatch/internal/host"
	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
	httpserver "github.com/buswatch/buswatch/internal/server/http"
	"github.com/buswatch/buswatch/lib/telemetry"
)

const (
	defaultConfigPath        = "config/buswatch.yaml"
	bootLoggerPrefix         = "buswatch "
	shutdownTimeout          = 30 * time.Second
	servicesShutdownTimeout  = 10 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
)

func main() {
	cfgPath := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	boot := log.New(os.Stdout, bootLoggerPrefix, log.LstdFlags|log.Lmicroseconds)

	cfg, loadedFromFile, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		boot.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		boot.Print("configuration file not found, using defaults")
	}
	boot.Printf("configuration initialised: addr=%s, heartbeat=%s", cfg.HTTPAddr, cfg.HeartbeatInterval)

	provider, telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
	})
	if err != nil {
		boot.Fatalf("initialise telemetry: %v", err)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		boot.Printf("telemetry initialised: endpoint=%s", cfg.Telemetry.OTLPEndpoint)
	}

	bus := eventbus.NewMemoryBus()
	for _, ch := range []schema.Channel{
		schema.ChannelHeartbeat,
		schema.ChannelLogging,
		schema.ChannelHTTPRequest,
		schema.ChannelConfigChange,
		schema.ChannelServiceUnregister,
	} {
		bus.RegisterChannel(ch)
	}

	// From here on application logs flow over the bus; the log service
	// renders them and the console retains them.
	logger := observability.NewBusLogger(bus, "buswatch")
	observability.SetLogger(logger)

	registry, err := host.NewRegistry(bus, logger.Named("registry"))
	if err != nil {
		boot.Fatalf("initialise registry: %v", err)
	}

	devConsole, err := console.New(console.Options{
		Config: console.Config{
			MaxEvents: cfg.Console.MaxEvents,
			MaxLogs:   cfg.Console.MaxLogs,
			UIPath:    cfg.Console.UIPath,
		},
		Bus:           bus,
		Registry:      registry,
		Logger:        logger.Named("console"),
		MeterProvider: provider,
	})
	if err != nil {
		boot.Fatalf("initialise dev console: %v", err)
	}

	registry.Register(host.NewLogService(bus))
	registry.Register(host.NewHeartbeat(bus, cfg.HeartbeatInterval))
	registry.Register(httpserver.New(cfg.HTTPAddr, bus, logger.Named("http"), cfg.RespondTimeout))
	registry.Register(devConsole)

	if err := registry.Start(ctx); err != nil {
		boot.Fatalf("start registry: %v", err)
	}
	if err := registry.StartAll(ctx); err != nil {
		boot.Fatalf("start services: %v", err)
	}
	boot.Printf("dev console available under %s", console.BaseURL)

	<-ctx.Done()
	boot.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, boot, registry, bus, telemetryShutdown)
	boot.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

func parseFlags() string {
	cfgPath := flag.String("config", "", fmt.Sprintf("Path to configuration file (default: %s)", defaultConfigPath))
	flag.Parse()
	if *cfgPath != "" {
		return *cfgPath
	}
	return filepath.Clean(defaultConfigPath)
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func performGracefulShutdown(ctx context.Context, boot *log.Logger, registry *host.Registry, bus *eventbus.MemoryBus, telemetryShutdown func(context.Context) error) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		boot.Printf("shutdown: %s...", name)
		if err := fn(stepCtx); err != nil {
			boot.Printf("shutdown: %s failed: %v", name, err)
		} else {
			boot.Printf("shutdown: %s completed", name)
		}
	}

	shutdownStep("stopping services", servicesShutdownTimeout, func(stepCtx context.Context) error {
		registry.StopAll(stepCtx)
		return registry.Stop(stepCtx)
	})

	shutdownStep("closing event bus", time.Second, func(context.Context) error {
		bus.Close()
		return nil
	})

	shutdownStep("shutting down telemetry", telemetryShutdownTimeout, telemetryShutdown)
}
