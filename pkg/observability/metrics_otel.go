package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName names the meter and tracer used by eyeglass
const InstrumentationName = "github.com/Jakobo/eyeglass"

// OTelMetrics holds OpenTelemetry metric instruments
type OTelMetrics struct {
	resolutions        metric.Int64Counter
	resolutionDuration metric.Float64Histogram
}

// NewOTelMetrics creates the instruments on provider, or on the global
// meter provider when provider is nil
func NewOTelMetrics(provider metric.MeterProvider) (*OTelMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(InstrumentationName)

	m := &OTelMetrics{}
	var err error

	m.resolutions, err = meter.Int64Counter(
		"eyeglass.import.resolutions",
		metric.WithDescription("Import resolution attempts by importer stage and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolutions counter: %w", err)
	}

	m.resolutionDuration, err = meter.Float64Histogram(
		"eyeglass.import.duration",
		metric.WithDescription("Import resolution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolution duration histogram: %w", err)
	}

	return m, nil
}

func (m *OTelMetrics) recordResolution(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
	m.resolutionDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}
