package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 1, want: "root:AlwaysOnSampler"},
		{ratio: 2, want: "root:AlwaysOnSampler"},
		{ratio: 0, want: "root:AlwaysOffSampler"},
		{ratio: 0.25, want: "root:TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Contains(t, sampler(tt.ratio).Description(), tt.want)
		})
	}
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	ctx := context.Background()
	m := GetMetrics()
	require.Same(t, m, GetMetrics())

	m.SourcesCreatedTotal.Add(ctx, 2)
	m.RecordError(ctx, "validation")
	m.RecordError(ctx, "validation")
	m.RecordError(ctx, "persistence")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]metricdata.Sum[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				sums[md.Name] = sum
			}
		}
	}

	require.Equal(t, int64(2), sums["console.sources.created.total"].DataPoints[0].Value)

	byKind := map[string]int64{}
	for _, dp := range sums["console.requests.errors.total"].DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		byKind[kind.AsString()] = dp.Value
	}
	require.Equal(t, map[string]int64{"validation": 2, "persistence": 1}, byKind)
}
