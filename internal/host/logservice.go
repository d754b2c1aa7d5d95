package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/buswatch/buswatch/internal/bus/eventbus"
	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

// LogService renders logging-channel records to an output stream. It is the
// host's terminal log sink; the dev console taps the same channel for its
// bounded history.
type LogService struct {
	bus eventbus.Bus

	mu  sync.Mutex
	out io.Writer
	sub eventbus.SubscriptionID
}

// NewLogService creates a log sink writing to stderr.
func NewLogService(bus eventbus.Bus) *LogService {
	s := new(LogService)
	s.bus = bus
	s.out = os.Stderr
	return s
}

// WithOutput redirects rendered lines, primarily for testing.
func (s *LogService) WithOutput(out io.Writer) *LogService {
	s.mu.Lock()
	s.out = out
	s.mu.Unlock()
	return s
}

// Name implements Service.
func (s *LogService) Name() string { return "LogService" }

// Start subscribes to the logging channel.
func (s *LogService) Start(ctx context.Context) error {
	_ = ctx
	sub, err := s.bus.Subscribe(schema.ChannelLogging, s.write)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

// Stop detaches from the logging channel.
func (s *LogService) Stop(ctx context.Context) error {
	_ = ctx
	if s.sub != "" {
		s.bus.Unsubscribe(s.sub)
		s.sub = ""
	}
	return nil
}

func (s *LogService) write(evt *schema.Event) {
	line := observability.FormatPayload(evt.Payload)
	if line == "" {
		return
	}
	s.mu.Lock()
	fmt.Fprintln(s.out, line)
	s.mu.Unlock()
}
