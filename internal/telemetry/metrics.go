package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/secondary-inference/console"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Write metrics
	SourcesCreatedTotal metric.Int64Counter
	JobsEnqueuedTotal   metric.Int64Counter
	DemoSeededTotal     metric.Int64Counter

	// Request error metrics, split by error kind
	RequestErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// RecordError increments the request error counter for kind.
func (m *Metrics) RecordError(ctx context.Context, kind string) {
	m.RequestErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SourcesCreatedTotal, _ = meter.Int64Counter(
		"console.sources.created.total",
		metric.WithDescription("Total number of sources registered"),
		metric.WithUnit("{source}"),
	)

	m.JobsEnqueuedTotal, _ = meter.Int64Counter(
		"console.jobs.enqueued.total",
		metric.WithDescription("Total number of jobs enqueued"),
		metric.WithUnit("{job}"),
	)

	m.DemoSeededTotal, _ = meter.Int64Counter(
		"console.demo.seeded.total",
		metric.WithDescription("Total number of demo data setup calls that succeeded"),
		metric.WithUnit("{call}"),
	)

	m.RequestErrorsTotal, _ = meter.Int64Counter(
		"console.requests.errors.total",
		metric.WithDescription("Total number of failed requests by error kind"),
		metric.WithUnit("{error}"),
	)

	return m
}
