package event

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/randalmurphal/joystickpack/pkg/joystickpack/observability"
)

// ErrorStrategy selects how synchronous handler failures are handled.
type ErrorStrategy string

const (
	// ErrorThrow returns the failure from Emit and stops the dispatch.
	ErrorThrow ErrorStrategy = "throw"
	// ErrorLog logs the failure and keeps dispatching.
	ErrorLog ErrorStrategy = "log"
	// ErrorIgnore keeps dispatching without recording the failure.
	ErrorIgnore ErrorStrategy = "ignore"
)

// ParseErrorStrategy parses a strategy name. The empty string means ErrorThrow.
func ParseErrorStrategy(s string) (ErrorStrategy, error) {
	switch ErrorStrategy(s) {
	case "", ErrorThrow:
		return ErrorThrow, nil
	case ErrorLog, ErrorIgnore:
		return ErrorStrategy(s), nil
	}
	return "", fmt.Errorf("unknown error strategy %q", s)
}

// AsyncErrorPolicy selects how failures reported through a Pending are handled.
type AsyncErrorPolicy string

const (
	// AsyncDiscard drops async failures.
	AsyncDiscard AsyncErrorPolicy = "discard"
	// AsyncReport routes async failures through the ErrorStrategy once all
	// pending work has settled.
	AsyncReport AsyncErrorPolicy = "report"
)

// ParseAsyncErrorPolicy parses a policy name. The empty string means AsyncDiscard.
func ParseAsyncErrorPolicy(s string) (AsyncErrorPolicy, error) {
	switch AsyncErrorPolicy(s) {
	case "", AsyncDiscard:
		return AsyncDiscard, nil
	case AsyncReport:
		return AsyncReport, nil
	}
	return "", fmt.Errorf("unknown async error policy %q", s)
}

// SubjectConfig configures subject behavior.
type SubjectConfig struct {
	// MaxObservers limits registrations per event key.
	// Default: 0 (unlimited)
	MaxObservers int

	// EnableMetrics records dispatch metrics. When Metrics is nil the
	// OpenTelemetry recorder is used.
	EnableMetrics bool

	// EnableTracing wraps each dispatch in a span. When Spans is nil the
	// OpenTelemetry span manager is used.
	EnableTracing bool

	// BatchUpdates is reserved and currently has no effect.
	BatchUpdates bool

	// ErrorStrategy handles synchronous handler failures.
	// Default: ErrorThrow
	ErrorStrategy ErrorStrategy

	// AsyncErrors handles failures reported by pending handler work.
	// Default: AsyncDiscard
	AsyncErrors AsyncErrorPolicy

	// Logger receives ErrorLog output and debug dispatch logs.
	// Default: slog.Default()
	Logger *slog.Logger

	// Metrics overrides the recorder selected by EnableMetrics.
	Metrics observability.MetricsRecorder

	// Spans overrides the span manager selected by EnableTracing.
	Spans observability.SpanManager

	// Schema restricts keys and payload types when set.
	Schema *EventMap
}

// DefaultSubjectConfig provides the default behavior.
var DefaultSubjectConfig = SubjectConfig{
	ErrorStrategy: ErrorThrow,
	AsyncErrors:   AsyncDiscard,
}

func (c SubjectConfig) normalized() SubjectConfig {
	if c.MaxObservers < 0 {
		c.MaxObservers = 0
	}
	if _, err := ParseErrorStrategy(string(c.ErrorStrategy)); err != nil || c.ErrorStrategy == "" {
		c.ErrorStrategy = ErrorThrow
	}
	if _, err := ParseAsyncErrorPolicy(string(c.AsyncErrors)); err != nil || c.AsyncErrors == "" {
		c.AsyncErrors = AsyncDiscard
	}
	return c
}

// Metadata describes one registration.
type Metadata struct {
	ID       ObserverID
	Priority int
	Once     bool
	Tags     []string
}

// ObserverOption configures a registration.
type ObserverOption func(*observerConfig)

type observerConfig struct {
	id       ObserverID
	priority int
	once     bool
	tags     []string
	signal   context.Context
}

func newObserverConfig(opts []ObserverOption) observerConfig {
	var cfg observerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c observerConfig) metadata(id ObserverID) Metadata {
	return Metadata{
		ID:       id,
		Priority: c.priority,
		Once:     c.once,
		Tags:     slices.Clone(c.tags),
	}
}

// WithPriority sets the dispatch priority. Higher runs first. Default: 0.
func WithPriority(p int) ObserverOption {
	return func(cfg *observerConfig) {
		cfg.priority = p
	}
}

// Once removes the registration after its first dispatch.
func Once() ObserverOption {
	return func(cfg *observerConfig) {
		cfg.once = true
	}
}

// WithTags attaches descriptive tags to the registration.
func WithTags(tags ...string) ObserverOption {
	return func(cfg *observerConfig) {
		cfg.tags = append(cfg.tags, tags...)
	}
}

// WithSignal ties the registration to ctx. Once ctx is done the handler is
// no longer invoked and the registration is removed on the next Emit for
// its key.
func WithSignal(ctx context.Context) ObserverOption {
	return func(cfg *observerConfig) {
		cfg.signal = ctx
	}
}

// WithObserverID registers under id instead of a generated one.
// Registering an id that already exists for a key replaces that handler.
func WithObserverID(id ObserverID) ObserverOption {
	return func(cfg *observerConfig) {
		cfg.id = id
	}
}
