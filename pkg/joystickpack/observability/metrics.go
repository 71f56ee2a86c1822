package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records subject metrics.
// Use NewMetricsRecorder() for OTel metrics, NewPrometheusRecorder for a
// Prometheus registry, or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records one dispatch with the number of observers invoked.
	RecordEmit(ctx context.Context, subjectID, key string, observers int, duration time.Duration, err error)

	// RecordHandlerError records a handler failure. Async marks failures
	// reported by pending work rather than by the handler call itself.
	RecordHandlerError(ctx context.Context, subjectID, key string, async bool)

	// RecordObservers records a change in the number of registrations for a key.
	RecordObservers(ctx context.Context, subjectID, key string, delta int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	emits         metric.Int64Counter
	emitLatency   metric.Float64Histogram
	emitErrors    metric.Int64Counter
	handlerErrors metric.Int64Counter
	observers     metric.Int64UpDownCounter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("joystickpack")

	emits, err := meter.Int64Counter("joystickpack.emit.count",
		metric.WithDescription("Number of emit calls that reached at least one observer"),
	)
	if err != nil {
		return nil, err
	}

	emitLatency, err := meter.Float64Histogram("joystickpack.emit.latency_ms",
		metric.WithDescription("Emit latency including pending handler work"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	emitErrors, err := meter.Int64Counter("joystickpack.emit.errors",
		metric.WithDescription("Number of emit calls that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("joystickpack.handler.errors",
		metric.WithDescription("Number of handler failures"),
	)
	if err != nil {
		return nil, err
	}

	observers, err := meter.Int64UpDownCounter("joystickpack.observers",
		metric.WithDescription("Live observer registrations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		emits:         emits,
		emitLatency:   emitLatency,
		emitErrors:    emitErrors,
		handlerErrors: handlerErrors,
		observers:     observers,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEmit records one dispatch.
func (m *otelMetrics) RecordEmit(ctx context.Context, subjectID, key string, observers int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("subject_id", subjectID),
		attribute.String("event_key", key),
	)

	m.emits.Add(ctx, 1, attrs)
	m.emitLatency.Record(ctx, Millis(duration), attrs)

	if err != nil {
		m.emitErrors.Add(ctx, 1, attrs)
	}
}

// RecordHandlerError records a handler failure.
func (m *otelMetrics) RecordHandlerError(ctx context.Context, subjectID, key string, async bool) {
	m.handlerErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("subject_id", subjectID),
		attribute.String("event_key", key),
		attribute.Bool("async", async),
	))
}

// RecordObservers records a registration count change.
func (m *otelMetrics) RecordObservers(ctx context.Context, subjectID, key string, delta int64) {
	if delta == 0 {
		return
	}
	m.observers.Add(ctx, delta, metric.WithAttributes(
		attribute.String("subject_id", subjectID),
		attribute.String("event_key", key),
	))
}
