package observability

import (
	"context"
	"time"

	"github.com/buswatch/buswatch/internal/schema"
)

// Publisher is the subset of the bus a logger needs.
type Publisher interface {
	Publish(ctx context.Context, evt *schema.Event) error
}

// BusLogger publishes structured log records on the logging channel. Sinks
// (the host log service, the dev console) subscribe there and render lines.
type BusLogger struct {
	component string
	bus       Publisher
	clock     func() time.Time
}

// NewBusLogger creates a logger for the named component.
func NewBusLogger(bus Publisher, component string) *BusLogger {
	logger := new(BusLogger)
	logger.bus = bus
	logger.component = component
	logger.clock = time.Now
	return logger
}

// WithClock overrides the record clock, primarily for testing.
func (l *BusLogger) WithClock(clock func() time.Time) *BusLogger {
	if clock != nil {
		l.clock = clock
	}
	return l
}

// Named returns a logger publishing under a different component name.
func (l *BusLogger) Named(component string) *BusLogger {
	child := NewBusLogger(l.bus, component)
	child.clock = l.clock
	return child
}

func (l *BusLogger) Debug(msg string, fields ...Field) { l.emit(schema.LevelDebug, msg, fields) }
func (l *BusLogger) Info(msg string, fields ...Field)  { l.emit(schema.LevelInfo, msg, fields) }
func (l *BusLogger) Error(msg string, fields ...Field) { l.emit(schema.LevelError, msg, fields) }

func (l *BusLogger) emit(level schema.LogLevel, msg string, fields []Field) {
	if l == nil || l.bus == nil {
		return
	}
	rec := schema.LogRecord{
		Time:      l.clock(),
		Level:     level,
		Component: l.component,
		Message:   msg,
	}
	if len(fields) > 0 {
		rec.Fields = make(map[string]any, len(fields))
		for _, f := range fields {
			rec.Fields[f.Key] = f.Value
		}
	}
	// Logging must never block or fail the caller.
	_ = l.bus.Publish(context.Background(), schema.NewEvent(schema.ChannelLogging, rec))
}
