package host

import (
	"context"
	"sync"
	"time"

	"github.com/buswatch/buswatch/errs"
	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
	"github.com/buswatch/buswatch/lib/async"
)

const deregisterTimeout = 5 * time.Second

// Registry maintains the host's live named services and consumes
// asynchronous deregistration requests from the bus.
type Registry struct {
	mu       sync.RWMutex
	services []Service

	bus    eventbus.Bus
	logger observability.Logger
	pool   *async.Pool
	sub    eventbus.SubscriptionID
}

// NewRegistry creates a registry bound to the given bus.
func NewRegistry(bus eventbus.Bus, logger observability.Logger) (*Registry, error) {
	pool, err := async.NewPool(1, 16)
	if err != nil {
		return nil, err
	}
	r := new(Registry)
	r.bus = bus
	r.logger = logger
	r.pool = pool
	return r, nil
}

// Register adds a service. Registration order is preserved for listings.
func (r *Registry) Register(svc Service) {
	if svc == nil {
		return
	}
	r.mu.Lock()
	r.services = append(r.services, svc)
	r.mu.Unlock()
}

// Services returns a snapshot of the live services in registration order.
func (r *Registry) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

// Lookup finds a live service by name.
func (r *Registry) Lookup(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, svc := range r.services {
		if svc.Name() == name {
			return svc, true
		}
	}
	return nil, false
}

// Deregister stops the named service and removes it from the registry.
func (r *Registry) Deregister(ctx context.Context, name string) error {
	r.mu.Lock()
	var target Service
	for i, svc := range r.services {
		if svc.Name() == name {
			target = svc
			r.services = append(r.services[:i], r.services[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	if target == nil {
		return errs.New("registry/deregister", errs.CodeNotFound, errs.WithMessage("service not registered: "+name))
	}
	if err := target.Stop(ctx); err != nil {
		r.logger.Error("service stop failed during deregistration",
			observability.F("service", name), observability.F("err", err))
	}
	r.logger.Info("service deregistered", observability.F("service", name))
	return nil
}

// Start subscribes the registry to the service-unregister channel.
// Deregistrations run on a worker so bus delivery is never blocked.
func (r *Registry) Start(ctx context.Context) error {
	_ = ctx
	sub, err := r.bus.Subscribe(schema.ChannelServiceUnregister, r.onUnregister)
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

// Stop detaches the unregister subscription and drains pending work.
func (r *Registry) Stop(ctx context.Context) error {
	if r.sub != "" {
		r.bus.Unsubscribe(r.sub)
		r.sub = ""
	}
	return r.pool.Shutdown(ctx)
}

// StartAll starts every registered service in registration order.
func (r *Registry) StartAll(ctx context.Context) error {
	for _, svc := range r.Services() {
		if err := svc.Start(ctx); err != nil {
			return errs.New("registry/start", errs.CodeInternal,
				errs.WithMessage("start service "+svc.Name()), errs.WithCause(err))
		}
		r.logger.Info("service started", observability.F("service", svc.Name()))
	}
	return nil
}

// StopAll stops every registered service in reverse registration order.
func (r *Registry) StopAll(ctx context.Context) {
	services := r.Services()
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil {
			r.logger.Error("service stop failed",
				observability.F("service", services[i].Name()), observability.F("err", err))
		}
	}
}

func (r *Registry) onUnregister(evt *schema.Event) {
	name, ok := evt.Payload.(string)
	if !ok || name == "" {
		return
	}
	err := r.pool.Submit(context.Background(), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, deregisterTimeout)
		defer cancel()
		return r.Deregister(ctx, name)
	})
	if err != nil {
		r.logger.Error("deregistration request dropped",
			observability.F("service", name), observability.F("err", err))
	}
}
