package console

import (
	"context"

	"go.opentelemetry.io/otel"
	apimetric "go.opentelemetry.io/otel/metric"
)

// metrics wraps the console's OTel counters. All methods are safe on a
// zero-value-free instance returned by newMetrics; instrument creation
// failures degrade to no-ops.
type metrics struct {
	observedCount apimetric.Int64Counter
	logCount      apimetric.Int64Counter
	evictedCount  apimetric.Int64Counter
}

func newMetrics(provider apimetric.MeterProvider) *metrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter("buswatch/console")
	m := new(metrics)
	m.observedCount, _ = meter.Int64Counter("console.events.observed")
	m.logCount, _ = meter.Int64Counter("console.logs.recorded")
	m.evictedCount, _ = meter.Int64Counter("console.history.evicted")
	return m
}

func (m *metrics) observed() {
	if m.observedCount != nil {
		m.observedCount.Add(context.Background(), 1)
	}
}

func (m *metrics) logLine() {
	if m.logCount != nil {
		m.logCount.Add(context.Background(), 1)
	}
}

func (m *metrics) evicted(n int) {
	if n > 0 && m.evictedCount != nil {
		m.evictedCount.Add(context.Background(), int64(n))
	}
}
