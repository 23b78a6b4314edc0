package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewMetrics(provider.Meter(MeterName))
	require.NoError(t, err)
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_RecordValidation(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordValidation(ctx, "query", "")
	metrics.RecordValidation(ctx, "query", "")
	metrics.RecordValidation(ctx, "query", "query_too_deep")

	got := collect(t, reader)
	counter := got["gqlsql.validation.total"]
	assert.Equal(t, int64(2), sumByAttr(t, counter, "outcome", "accepted"))
	assert.Equal(t, int64(1), sumByAttr(t, counter, "outcome", "rejected"))
	assert.Equal(t, int64(1), sumByAttr(t, counter, "code", "query_too_deep"))
}

func TestMetrics_RecordQueryShape(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	metrics.RecordQueryShape(context.Background(), 64, 4, 31, "mutation")

	got := collect(t, reader)
	hist, ok := got["gqlsql.query.complexity"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, int64(31), hist.DataPoints[0].Sum)

	depth, ok := got["gqlsql.query.depth"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Equal(t, int64(4), depth.DataPoints[0].Sum)
}

func TestMetrics_RecordCompile(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordCompile(ctx, KindFilter, "postgresql", 2*time.Millisecond, nil)
	metrics.RecordCompile(ctx, KindWindow, "sqlite", time.Millisecond, errors.New("unsupported"))

	got := collect(t, reader)
	counter := got["gqlsql.compile.total"]
	assert.Equal(t, int64(1), sumByAttr(t, counter, "kind", KindFilter))
	assert.Equal(t, int64(1), sumByAttr(t, counter, "outcome", "error"))
	assert.Equal(t, int64(1), sumByAttr(t, counter, "dialect", "sqlite"))

	_, ok := got["gqlsql.compile.duration"].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.RecordValidation(context.Background(), "query", "")
		metrics.RecordQueryShape(context.Background(), 1, 1, 1, "query")
		metrics.RecordCompile(context.Background(), KindWhere, "mysql", 0, nil)
	})
}
