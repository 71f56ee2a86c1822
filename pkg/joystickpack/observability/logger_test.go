package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newJSONLogger returns a debug-level JSON logger writing to buf.
func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// lastRecord decodes the final log line in buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds subject id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := EnrichLogger(newJSONLogger(&buf), "dynamic-joystick")
		logger.Info("ready")

		rec := lastRecord(t, &buf)
		assert.Equal(t, "dynamic-joystick", rec["subject_id"])
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "x"))
	})
}

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf)

	LogEmit(logger, "joystick:move", 3, 1.5)
	rec := lastRecord(t, &buf)
	assert.Equal(t, "event emitted", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "joystick:move", rec["event_key"])
	assert.EqualValues(t, 3, rec["observers"])
	assert.EqualValues(t, 1.5, rec["duration_ms"])

	LogHandlerError(logger, "joystick:end", "obs_1", errors.New("boom"))
	rec = lastRecord(t, &buf)
	assert.Equal(t, "observer error", rec["msg"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "obs_1", rec["observer_id"])
	assert.Equal(t, "boom", rec["error"])

	LogAsyncError(logger, "joystick:end", errors.New("late"))
	rec = lastRecord(t, &buf)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "late", rec["error"])

	LogCapacity(logger, "joystick:start", 4)
	rec = lastRecord(t, &buf)
	assert.Equal(t, "observer capacity reached", rec["msg"])
	assert.EqualValues(t, 4, rec["max_observers"])

	LogPipe(logger, "target", []string{"a", "b"})
	rec = lastRecord(t, &buf)
	assert.Equal(t, "target", rec["target_id"])
	assert.Equal(t, []any{"a", "b"}, rec["event_keys"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogEmit(nil, "k", 1, 0)
		LogHandlerError(nil, "k", "id", errors.New("x"))
		LogAsyncError(nil, "k", errors.New("x"))
		LogCapacity(nil, "k", 1)
		LogPipe(nil, "t", nil)
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	elapsed := done()

	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	assert.GreaterOrEqual(t, Millis(elapsed), 5.0)
}

func TestMillis(t *testing.T) {
	assert.InDelta(t, 1.5, Millis(1500*time.Microsecond), 1e-9)
	assert.Zero(t, Millis(0))
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	LogEmit(logger, "k", 1, 0)
	assert.Empty(t, buf.String(), "debug dispatch logs should be filtered at info")

	LogCapacity(logger, "k", 1)
	assert.NotEmpty(t, buf.String())
}
