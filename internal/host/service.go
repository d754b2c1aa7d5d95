// Package host provides the application-side collaborators the dev console
// observes: the service registry, the heartbeat emitter, the log sink and
// the runtime stats collector.
package host

import "context"

// Service is a named host component with an explicit lifecycle.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
