package dosing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aquadose/aquadose/internal/telemetry"
)

const instrumentationName = "github.com/aquadose/aquadose/internal/dosing"

// Metrics holds the OpenTelemetry instruments for dosing calculations.
type Metrics struct {
	calculations metric.Int64Counter
	doseGrams    metric.Float64Histogram
}

// NewMetrics creates the dosing instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := telemetry.Meter(instrumentationName)

	calculations, err := meter.Int64Counter(
		"dosing.calculations.total",
		metric.WithDescription("Total number of dosing calculations"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return nil, err
	}

	doseGrams, err := meter.Float64Histogram(
		"dosing.dose.grams",
		metric.WithDescription("Computed product doses in grams"),
		metric.WithUnit("g"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		calculations: calculations,
		doseGrams:    doseGrams,
	}, nil
}

// Record records the outcome of one calculation.
func (m *Metrics) Record(ctx context.Context, r *Result) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !r.Valid() {
		outcome = "invalid"
	}
	m.calculations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("calibration.version", r.CalibrationVersion),
	))
	if !r.Valid() {
		return
	}
	for _, p := range Products() {
		if !r.Required(p) {
			continue
		}
		m.doseGrams.Record(ctx, r.Dose(p), metric.WithAttributes(attribute.String("product", string(p))))
	}
}
