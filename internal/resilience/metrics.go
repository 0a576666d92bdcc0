package resilience

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aquadose/aquadose/internal/telemetry"
)

const meterName = "github.com/aquadose/aquadose/internal/resilience"

// Metrics holds instruments for calls made through executors.
type Metrics struct {
	callDuration metric.Float64Histogram
	callTotal    metric.Int64Counter
	rejected     metric.Int64Counter
}

// NewMetrics creates metrics for monitoring dependency calls.
func NewMetrics() (*Metrics, error) {
	meter := telemetry.Meter(meterName)

	callDuration, err := meter.Float64Histogram(
		"dependency.call.duration",
		metric.WithDescription("Duration of dependency calls including retries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	callTotal, err := meter.Int64Counter(
		"dependency.call.total",
		metric.WithDescription("Total number of dependency calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter(
		"dependency.call.rejected",
		metric.WithDescription("Calls rejected by an open circuit breaker"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		callDuration: callDuration,
		callTotal:    callTotal,
		rejected:     rejected,
	}, nil
}

// RecordCall records one executor call. Safe on a nil receiver.
func (m *Metrics) RecordCall(name string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("dependency.name", name),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Background context so cancelled requests are still counted.
	ctx := context.Background()
	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.callTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if errors.Is(err, ErrCircuitOpen) {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attrs[0]))
	}
}
