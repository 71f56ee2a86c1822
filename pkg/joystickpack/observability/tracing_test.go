package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("joystickpack")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func TestStartEmitSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("creates span with attributes", func(t *testing.T) {
		exporter.Reset()

		_, span := sm.StartEmitSpan(context.Background(), "joy", "joystick:move")
		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		s := spans[0]
		assert.Equal(t, "joystickpack.emit", s.Name)
		assert.Equal(t, codes.Ok, s.Status.Code)

		var subjectID, key string
		for _, attr := range s.Attributes {
			switch attr.Key {
			case "subject.id":
				subjectID = attr.Value.AsString()
			case "event.key":
				key = attr.Value.AsString()
			}
		}
		assert.Equal(t, "joy", subjectID)
		assert.Equal(t, "joystick:move", key)
	})

	t.Run("records error", func(t *testing.T) {
		exporter.Reset()

		_, span := sm.StartEmitSpan(context.Background(), "joy", "joystick:end")
		sm.EndSpanWithError(span, errors.New("boom"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "boom", spans[0].Status.Description)
		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "exception", spans[0].Events[0].Name)
	})

	t.Run("adds span event", func(t *testing.T) {
		exporter.Reset()

		ctx, span := sm.StartEmitSpan(context.Background(), "joy", "joystick:start")
		sm.AddSpanEvent(ctx, "observer.released", attribute.String("observer.id", "obs_1"))
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		require.Len(t, spans[0].Events, 1)
		assert.Equal(t, "observer.released", spans[0].Events[0].Name)
	})

	t.Run("nil span is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() { sm.EndSpanWithError(nil, nil) })
	})

	t.Run("event without span is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() { sm.AddSpanEvent(context.Background(), "none") })
	})
}
