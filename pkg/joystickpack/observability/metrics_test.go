package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	assert.NotPanics(t, func() {
		recorder.RecordEmit(context.Background(), "s", "k", 1, time.Millisecond, nil)
	})
}

func TestOtelMetrics_RecordEmit(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEmit(ctx, "joy", "joystick:move", 2, 3*time.Millisecond, nil)
	m.RecordEmit(ctx, "joy", "joystick:move", 2, time.Millisecond, errors.New("boom"))

	rm := collectMetrics(t, reader)

	count := findMetric(rm, "joystickpack.emit.count")
	require.NotNil(t, count)
	sum, ok := count.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	key, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("event_key"))
	require.True(t, ok)
	assert.Equal(t, "joystick:move", key.AsString())

	errs := findMetric(rm, "joystickpack.emit.errors")
	require.NotNil(t, errs)
	errSum := errs.Data.(metricdata.Sum[int64])
	require.Len(t, errSum.DataPoints, 1)
	assert.Equal(t, int64(1), errSum.DataPoints[0].Value)

	latency := findMetric(rm, "joystickpack.emit.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestOtelMetrics_HandlerErrorsAndObservers(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHandlerError(ctx, "joy", "joystick:end", false)
	m.RecordHandlerError(ctx, "joy", "joystick:end", true)
	m.RecordObservers(ctx, "joy", "joystick:end", 3)
	m.RecordObservers(ctx, "joy", "joystick:end", -1)
	m.RecordObservers(ctx, "joy", "joystick:end", 0)

	rm := collectMetrics(t, reader)

	handler := findMetric(rm, "joystickpack.handler.errors")
	require.NotNil(t, handler)
	hsum := handler.Data.(metricdata.Sum[int64])
	assert.Len(t, hsum.DataPoints, 2, "sync and async failures are separate series")

	observers := findMetric(rm, "joystickpack.observers")
	require.NotNil(t, observers)
	osum, ok := observers.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.False(t, osum.IsMonotonic)
	require.Len(t, osum.DataPoints, 1)
	assert.Equal(t, int64(2), osum.DataPoints[0].Value)
}
