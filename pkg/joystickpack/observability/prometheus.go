package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements MetricsRecorder on a Prometheus registry.
type PrometheusRecorder struct {
	emits         *prometheus.CounterVec
	emitErrors    *prometheus.CounterVec
	emitLatency   *prometheus.HistogramVec
	handlerErrors *prometheus.CounterVec
	observers     *prometheus.GaugeVec
}

// Compile-time interface check.
var _ MetricsRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder registers the joystickpack collectors on reg.
// A nil reg uses prometheus.DefaultRegisterer. Registering twice on the same
// registry panics, as with any promauto collector.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		emits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "joystickpack_emits_total",
			Help: "Total number of emit calls that reached at least one observer.",
		}, []string{"subject_id", "event_key"}),

		emitErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "joystickpack_emit_errors_total",
			Help: "Total number of emit calls that returned an error.",
		}, []string{"subject_id", "event_key"}),

		emitLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "joystickpack_emit_duration_seconds",
			Help:    "Emit latency in seconds, including pending handler work.",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"subject_id", "event_key"}),

		handlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "joystickpack_handler_errors_total",
			Help: "Total number of handler failures, labelled by async status.",
		}, []string{"subject_id", "event_key", "async"}),

		observers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "joystickpack_observers",
			Help: "Live observer registrations per event key.",
		}, []string{"subject_id", "event_key"}),
	}
}

// RecordEmit records one dispatch.
func (p *PrometheusRecorder) RecordEmit(_ context.Context, subjectID, key string, _ int, duration time.Duration, err error) {
	p.emits.WithLabelValues(subjectID, key).Inc()
	p.emitLatency.WithLabelValues(subjectID, key).Observe(duration.Seconds())
	if err != nil {
		p.emitErrors.WithLabelValues(subjectID, key).Inc()
	}
}

// RecordHandlerError records a handler failure.
func (p *PrometheusRecorder) RecordHandlerError(_ context.Context, subjectID, key string, async bool) {
	p.handlerErrors.WithLabelValues(subjectID, key, strconv.FormatBool(async)).Inc()
}

// RecordObservers records a registration count change.
func (p *PrometheusRecorder) RecordObservers(_ context.Context, subjectID, key string, delta int64) {
	p.observers.WithLabelValues(subjectID, key).Add(float64(delta))
}
