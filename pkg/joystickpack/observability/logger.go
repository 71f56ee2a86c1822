// Package observability provides logging, metrics and tracing hooks for
// joystickpack subjects.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds subject context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "dynamic-joystick")
//	enriched.Info("ready") // includes subject_id
func EnrichLogger(logger *slog.Logger, subjectID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("subject_id", subjectID))
}

// LogEmit logs a completed dispatch.
func LogEmit(logger *slog.Logger, key string, observers int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event emitted",
		slog.String("event_key", key),
		slog.Int("observers", observers),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerError logs a synchronous handler failure that did not abort dispatch.
func LogHandlerError(logger *slog.Logger, key, observerID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("observer error",
		slog.String("event_key", key),
		slog.String("observer_id", observerID),
		slog.String("error", err.Error()),
	)
}

// LogAsyncError logs a failure reported by pending handler work.
func LogAsyncError(logger *slog.Logger, key string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("async observer failed",
		slog.String("event_key", key),
		slog.String("error", err.Error()),
	)
}

// LogCapacity logs a rejected subscription.
func LogCapacity(logger *slog.Logger, key string, max int) {
	if logger == nil {
		return
	}
	logger.Warn("observer capacity reached",
		slog.String("event_key", key),
		slog.Int("max_observers", max),
	)
}

// LogPipe logs creation of forwarding subscriptions.
func LogPipe(logger *slog.Logger, targetID string, keys []string) {
	if logger == nil {
		return
	}
	logger.Debug("pipe attached",
		slog.String("target_id", targetID),
		slog.Any("event_keys", keys),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// Millis converts a duration to fractional milliseconds for log fields.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
