// Package console implements the embedded dev console: it taps every bus
// channel, retains bounded recent-first event and log histories in memory,
// and answers the dashboard's HTTP requests routed over the same bus.
package console

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	apimetric "go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/buswatch/buswatch/errs"
	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/host"
	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

// BaseURL roots every dev console endpoint.
const BaseURL = "/dev-console"

// Retention and UI defaults applied when no configuration was supplied.
const (
	DefaultMaxEvents = 1000
	DefaultMaxLogs   = 1000
	DefaultUIPath    = "/ui"
)

// Config holds the console's tunable settings.
type Config struct {
	MaxEvents int
	MaxLogs   int
	UIPath    string
}

func (c Config) normalize() Config {
	if c.MaxEvents <= 0 {
		c.MaxEvents = DefaultMaxEvents
	}
	if c.MaxLogs <= 0 {
		c.MaxLogs = DefaultMaxLogs
	}
	if c.UIPath == "" {
		c.UIPath = DefaultUIPath
	}
	c.UIPath = ensureLeadingSlash(c.UIPath)
	return c
}

// Options wires the console to its host collaborators.
type Options struct {
	Config           Config
	Bus              eventbus.Bus
	Registry         *host.Registry
	Stats            host.StatsCollector
	Logger           observability.Logger
	MeterProvider    apimetric.MeterProvider
	ExcludedServices []string
}

// Console is the dev console service instance. All state is scoped to the
// instance and discarded with it.
type Console struct {
	bus      eventbus.Bus
	registry *host.Registry
	stats    host.StatsCollector
	logger   observability.Logger
	metrics  *metrics
	excluded map[string]struct{}

	cfgMu     sync.RWMutex
	maxEvents int
	maxLogs   int
	uiPath    string

	subs   *subscriptionSet
	hbSub  eventbus.SubscriptionID
	cfgSub eventbus.SubscriptionID

	events *history[*schema.Event]
	logs   *history[string]
	// trimMu serializes every bulk tail eviction across both histories,
	// including the reconfiguration trims. It is never held across a call
	// into another component.
	trimMu      sync.Mutex
	totalEvents atomic.Int64

	assets map[string]string
	tasks  conc.WaitGroup
	diag   rate.Sometimes
}

// New constructs a console bound to the host bus and registry.
func New(opts Options) (*Console, error) {
	if opts.Bus == nil {
		return nil, errs.New("console/new", errs.CodeInvalid, errs.WithMessage("bus required"))
	}
	if opts.Registry == nil {
		return nil, errs.New("console/new", errs.CodeInvalid, errs.WithMessage("registry required"))
	}
	cfg := opts.Config.normalize()

	c := new(Console)
	c.bus = opts.Bus
	c.registry = opts.Registry
	c.stats = opts.Stats
	if c.stats == nil {
		c.stats = host.NewRuntimeCollector()
	}
	c.logger = opts.Logger
	if c.logger == nil {
		c.logger = observability.Log()
	}
	c.metrics = newMetrics(opts.MeterProvider)
	c.maxEvents = cfg.MaxEvents
	c.maxLogs = cfg.MaxLogs
	c.uiPath = cfg.UIPath
	c.subs = newSubscriptionSet()
	c.events = newHistory[*schema.Event]()
	c.logs = newHistory[string]()
	c.diag = rate.Sometimes{Interval: time.Second}

	excluded := opts.ExcludedServices
	if excluded == nil {
		// Internal services that must survive remote deregistration.
		excluded = []string{"LogService"}
	}
	c.excluded = make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		c.excluded[name] = struct{}{}
	}
	return c, nil
}

// Name implements the host service contract.
func (c *Console) Name() string { return "DevConsoleService" }

// Start loads the dashboard assets, performs the initial channel scan and
// attaches the heartbeat and config subscriptions. Asset load failure is
// fatal and aborts the start.
func (c *Console) Start(ctx context.Context) error {
	_ = ctx
	assets, err := loadStaticFiles()
	if err != nil {
		return err
	}
	c.assets = assets

	c.scanAndSubscribe()

	hbSub, err := c.bus.Subscribe(schema.ChannelHeartbeat, func(*schema.Event) {
		c.scanAndSubscribe()
	})
	if err != nil {
		return err
	}
	c.hbSub = hbSub

	cfgSub, err := c.bus.Subscribe(schema.ChannelConfigChange, c.applyResolved)
	if err != nil {
		return err
	}
	c.cfgSub = cfgSub

	c.logger.Info("dev console started", observability.F("base", BaseURL+c.uiPathNow()))
	return nil
}

// Stop detaches every subscription, drains outstanding publishes and clears
// both histories. Counters keep their last value.
func (c *Console) Stop(ctx context.Context) error {
	_ = ctx
	if c.hbSub != "" {
		c.bus.Unsubscribe(c.hbSub)
		c.hbSub = ""
	}
	if c.cfgSub != "" {
		c.bus.Unsubscribe(c.cfgSub)
		c.cfgSub = ""
	}
	c.detachAll()
	c.tasks.Wait()
	c.events.Clear()
	c.logs.Clear()
	c.logger.Info("dev console stopped")
	return nil
}

// TotalEvents returns the number of deliveries observed, heartbeats included.
func (c *Console) TotalEvents() int64 {
	return c.totalEvents.Load()
}

func (c *Console) maxEventsNow() int {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.maxEvents
}

func (c *Console) maxLogsNow() int {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.maxLogs
}

func (c *Console) uiPathNow() string {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.uiPath
}

// visibleServices lists live services minus the excluded internals.
func (c *Console) visibleServices() []host.Service {
	all := c.registry.Services()
	out := make([]host.Service, 0, len(all))
	for _, svc := range all {
		if _, hidden := c.excluded[svc.Name()]; hidden {
			continue
		}
		out = append(out, svc)
	}
	return out
}

func (c *Console) lookupVisible(name string) (host.Service, bool) {
	if _, hidden := c.excluded[name]; hidden {
		return nil, false
	}
	return c.registry.Lookup(name)
}

func ensureLeadingSlash(path string) string {
	if path == "" || path[0] == '/' {
		return path
	}
	return "/" + path
}
