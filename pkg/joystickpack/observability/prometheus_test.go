package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusRecorder(reg)

	ctx := context.Background()
	p.RecordEmit(ctx, "joy", "joystick:move", 1, 2*time.Millisecond, nil)
	p.RecordEmit(ctx, "joy", "joystick:move", 1, time.Millisecond, errors.New("boom"))
	p.RecordHandlerError(ctx, "joy", "joystick:move", true)
	p.RecordObservers(ctx, "joy", "joystick:move", 2)
	p.RecordObservers(ctx, "joy", "joystick:move", -1)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.emits.WithLabelValues("joy", "joystick:move")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.emitErrors.WithLabelValues("joy", "joystick:move")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.handlerErrors.WithLabelValues("joy", "joystick:move", "true")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.handlerErrors.WithLabelValues("joy", "joystick:move", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.observers.WithLabelValues("joy", "joystick:move")))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "joystickpack_emit_duration_seconds")
	assert.Contains(t, names, "joystickpack_observers")

	problems, err := testutil.GatherAndLint(reg)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestPrometheusRecorder_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusRecorder(reg)

	assert.Panics(t, func() {
		NewPrometheusRecorder(reg)
	})
}
