package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumByAttr(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64

	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attributeKey(key)); found && v.AsString() == value {
			total += dp.Value
		}
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)
	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "autodoc_generate", observability.StatusOK, 100*time.Millisecond)

	rm := collectMetrics(t, reader)
	require.NotNil(t, findMetric(rm, "autodoc.requests.total"))
	require.NotNil(t, findMetric(rm, "autodoc.request.duration.seconds"))
}

func TestREDMetrics_ObserveRecordsErrors(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)
	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	errBoom := errors.New("boom")

	err = red.Observe(context.Background(), "hover", func() error { return errBoom })
	require.ErrorIs(t, err, errBoom)

	rm := collectMetrics(t, reader)

	errTotal := findMetric(rm, "autodoc.errors.total")
	require.NotNil(t, errTotal)
	assert.Equal(t, int64(1), sumByAttr(t, errTotal, "op", "hover"))

	inflight := findMetric(rm, "autodoc.inflight.requests")
	require.NotNil(t, inflight)
	assert.Equal(t, int64(0), sumByAttr(t, inflight, "op", "hover"))
}

func TestREDMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var red *observability.REDMetrics

	red.RecordRequest(context.Background(), "op", observability.StatusOK, time.Second)
	red.TrackInflight(context.Background(), "op")()
	assert.NoError(t, red.Observe(context.Background(), "op", func() error { return nil }))
}

func TestGenerationMetrics_RecordFile(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)
	gm, err := observability.NewGenerationMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	gm.RecordFile(ctx, observability.FileStats{Added: 3, Unmatched: 1, Duration: 5 * time.Millisecond})
	gm.RecordFile(ctx, observability.FileStats{Skipped: true})

	rm := collectMetrics(t, reader)

	files := findMetric(rm, "autodoc.generator.files.total")
	require.NotNil(t, files)
	assert.Equal(t, int64(1), sumByAttr(t, files, "status", "ok"))
	assert.Equal(t, int64(1), sumByAttr(t, files, "status", "skipped"))

	decls := findMetric(rm, "autodoc.generator.declarations.total")
	require.NotNil(t, decls)
	assert.Equal(t, int64(3), sumByAttr(t, decls, "outcome", observability.OutcomeAdded))
	assert.Equal(t, int64(1), sumByAttr(t, decls, "outcome", observability.OutcomeUnmatched))
	assert.Equal(t, int64(0), sumByAttr(t, decls, "outcome", observability.OutcomeReplaced))

	require.NotNil(t, findMetric(rm, "autodoc.generator.file.duration.seconds"))
}

func TestGenerationMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var gm *observability.GenerationMetrics

	gm.RecordFile(context.Background(), observability.FileStats{Added: 1})
}
