package event

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/joystickpack/pkg/joystickpack/observability"
)

// Emitter is anything events can be forwarded into.
type Emitter interface {
	ID() SubjectID
	Emit(ctx context.Context, key string, data any, metadata map[string]any) error
}

// Subject owns the observer registry for one emitter.
type Subject struct {
	id      SubjectID
	config  SubjectConfig
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	mu       sync.RWMutex
	registry map[string]map[ObserverID]*registration
	seq      uint64
}

// registration is one handler registered under one key.
type registration struct {
	key     string
	handler Handler
	meta    Metadata
	signal  context.Context
	seq     uint64
	fired   atomic.Bool
}

func (r *registration) cancelled() bool {
	return r.signal != nil && r.signal.Err() != nil
}

// NewSubject creates a subject with the given id and configuration.
func NewSubject(id string, config SubjectConfig) *Subject {
	config = config.normalized()

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := config.Metrics
	if metrics == nil {
		if config.EnableMetrics {
			metrics = observability.NewMetricsRecorder()
		} else {
			metrics = observability.NoopMetrics{}
		}
	}

	spans := config.Spans
	if spans == nil {
		if config.EnableTracing {
			spans = observability.NewSpanManager()
		} else {
			spans = observability.NoopSpanManager{}
		}
	}

	return &Subject{
		id:       SubjectID(id),
		config:   config,
		logger:   observability.EnrichLogger(logger, id),
		metrics:  metrics,
		spans:    spans,
		registry: make(map[string]map[ObserverID]*registration),
	}
}

// ID returns the subject id.
func (s *Subject) ID() SubjectID {
	return s.id
}

// Config returns the normalized configuration.
func (s *Subject) Config() SubjectConfig {
	return s.config
}

// Subscribe registers handler for key and returns its observer id.
func (s *Subject) Subscribe(key string, handler Handler, opts ...ObserverOption) (ObserverID, error) {
	if handler == nil {
		return "", ErrNilHandler
	}
	if err := s.checkKey(key); err != nil {
		return "", err
	}

	cfg := newObserverConfig(opts)
	id := cfg.id
	if id == "" {
		id = NewObserverID()
	}

	s.mu.Lock()
	if err := s.checkCapacityLocked(key, id); err != nil {
		s.mu.Unlock()
		observability.LogCapacity(s.logger, key, s.config.MaxObservers)
		return "", err
	}
	added := s.addLocked(key, id, handler, cfg)
	s.mu.Unlock()

	if added {
		s.metrics.RecordObservers(context.Background(), string(s.id), key, 1)
	}
	return id, nil
}

// SubscribeMap registers every non-nil handler in handlers under one shared
// observer id. Either all handlers are registered or, on error, none are.
func (s *Subject) SubscribeMap(handlers HandlerMap, opts ...ObserverOption) (ObserverID, error) {
	keys := make([]string, 0, len(handlers))
	for key, h := range handlers {
		if h == nil {
			continue
		}
		if err := s.checkKey(key); err != nil {
			return "", err
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)

	cfg := newObserverConfig(opts)
	id := cfg.id
	if id == "" {
		id = NewObserverID()
	}

	s.mu.Lock()
	for _, key := range keys {
		if err := s.checkCapacityLocked(key, id); err != nil {
			s.mu.Unlock()
			observability.LogCapacity(s.logger, key, s.config.MaxObservers)
			return "", err
		}
	}
	added := make([]string, 0, len(keys))
	for _, key := range keys {
		if s.addLocked(key, id, handlers[key], cfg) {
			added = append(added, key)
		}
	}
	s.mu.Unlock()

	for _, key := range added {
		s.metrics.RecordObservers(context.Background(), string(s.id), key, 1)
	}
	return id, nil
}

func (s *Subject) checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if s.config.Schema != nil {
		return s.config.Schema.Check(key)
	}
	return nil
}

// checkCapacityLocked rejects a new registration on a full key.
// Replacing an existing registration never counts against the limit.
func (s *Subject) checkCapacityLocked(key string, id ObserverID) error {
	if s.config.MaxObservers <= 0 {
		return nil
	}
	observers := s.registry[key]
	if _, exists := observers[id]; exists {
		return nil
	}
	if len(observers) >= s.config.MaxObservers {
		return &CapacityError{Key: key, Max: s.config.MaxObservers}
	}
	return nil
}

// addLocked stores the registration and reports whether it is new.
// A replaced registration keeps its dispatch position.
func (s *Subject) addLocked(key string, id ObserverID, handler Handler, cfg observerConfig) bool {
	observers, ok := s.registry[key]
	if !ok {
		observers = make(map[ObserverID]*registration)
		s.registry[key] = observers
	}

	reg := &registration{
		key:     key,
		handler: handler,
		meta:    cfg.metadata(id),
		signal:  cfg.signal,
	}

	if prev, exists := observers[id]; exists {
		reg.seq = prev.seq
		observers[id] = reg
		return false
	}

	s.seq++
	reg.seq = s.seq
	observers[id] = reg
	return true
}

// Unsubscribe removes the registrations selected by target.
func (s *Subject) Unsubscribe(target Target) Result {
	switch target.kind {
	case TargetID:
		return Result{Kind: TargetID, Found: s.Remove(ObserverID(target.value))}
	case TargetKey:
		return Result{Kind: TargetKey, Count: s.RemoveKey(target.value)}
	default:
		return Result{Kind: TargetAll, Count: s.Clear()}
	}
}

// Remove deletes id from every key it is registered under.
func (s *Subject) Remove(id ObserverID) bool {
	s.mu.Lock()
	var removed []string
	for key, observers := range s.registry {
		if _, ok := observers[id]; ok {
			delete(observers, id)
			removed = append(removed, key)
			if len(observers) == 0 {
				delete(s.registry, key)
			}
		}
	}
	s.mu.Unlock()

	for _, key := range removed {
		s.metrics.RecordObservers(context.Background(), string(s.id), key, -1)
	}
	return len(removed) > 0
}

// RemoveFrom deletes id from key only.
func (s *Subject) RemoveFrom(key string, id ObserverID) bool {
	s.mu.Lock()
	observers := s.registry[key]
	_, ok := observers[id]
	if ok {
		delete(observers, id)
		if len(observers) == 0 {
			delete(s.registry, key)
		}
	}
	s.mu.Unlock()

	if ok {
		s.metrics.RecordObservers(context.Background(), string(s.id), key, -1)
	}
	return ok
}

// RemoveKey deletes every registration for key and returns how many there were.
func (s *Subject) RemoveKey(key string) int {
	s.mu.Lock()
	count := len(s.registry[key])
	delete(s.registry, key)
	s.mu.Unlock()

	if count > 0 {
		s.metrics.RecordObservers(context.Background(), string(s.id), key, -int64(count))
	}
	return count
}

// Clear deletes every registration and returns how many there were.
func (s *Subject) Clear() int {
	s.mu.Lock()
	old := s.registry
	s.registry = make(map[string]map[ObserverID]*registration)
	s.mu.Unlock()

	total := 0
	for key, observers := range old {
		total += len(observers)
		s.metrics.RecordObservers(context.Background(), string(s.id), key, -int64(len(observers)))
	}
	return total
}

// HasObservers reports whether key has at least one registration.
func (s *Subject) HasObservers(key string) bool {
	return s.ObserverCount(key) > 0
}

// ObserverCount returns the number of registrations for key.
func (s *Subject) ObserverCount(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry[key])
}

// Keys returns the keys that currently have registrations, sorted.
func (s *Subject) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.registry))
	for key := range s.registry {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// snapshot returns the registrations for key in dispatch order.
func (s *Subject) snapshot(key string) []*registration {
	s.mu.RLock()
	observers := s.registry[key]
	regs := make([]*registration, 0, len(observers))
	for _, reg := range observers {
		regs = append(regs, reg)
	}
	s.mu.RUnlock()

	slices.SortFunc(regs, func(a, b *registration) int {
		if c := cmp.Compare(b.meta.Priority, a.meta.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return regs
}

// prune removes the given registrations if they are still the live ones.
func (s *Subject) prune(regs []*registration) {
	if len(regs) == 0 {
		return
	}

	s.mu.Lock()
	var removed []string
	for _, reg := range regs {
		observers := s.registry[reg.key]
		if observers[reg.meta.ID] != reg {
			continue
		}
		delete(observers, reg.meta.ID)
		removed = append(removed, reg.key)
		if len(observers) == 0 {
			delete(s.registry, reg.key)
		}
	}
	s.mu.Unlock()

	for _, key := range removed {
		s.metrics.RecordObservers(context.Background(), string(s.id), key, -1)
	}
}

// tracked pairs pending work with the observer that started it.
type tracked struct {
	id      ObserverID
	pending Pending
}

// Emit dispatches data to the observers of key.
//
// Handlers run in priority order on the calling goroutine. Once every
// handler has been called, Emit waits for the Pending values they returned
// or for ctx to be done. With ErrorThrow the first synchronous failure stops
// the dispatch and is returned after pending work settles.
func (s *Subject) Emit(ctx context.Context, key string, data any, metadata map[string]any) (err error) {
	if s.config.Schema != nil {
		if err := s.config.Schema.Validate(key, data); err != nil {
			return err
		}
	}

	regs := s.snapshot(key)
	if len(regs) == 0 {
		return nil
	}

	evt := newPayload(key, data, metadata)

	ctx, span := s.spans.StartEmitSpan(ctx, string(s.id), key)
	done := observability.TimedOperation()
	defer func() {
		elapsed := done()
		s.metrics.RecordEmit(ctx, string(s.id), key, len(regs), elapsed, err)
		s.spans.EndSpanWithError(span, err)
		observability.LogEmit(s.logger, key, len(regs), observability.Millis(elapsed))
	}()

	var (
		pending     []tracked
		remove      []*registration
		dispatchErr error
	)

	for _, reg := range regs {
		if reg.cancelled() {
			remove = append(remove, reg)
			s.spans.AddSpanEvent(ctx, "observer.skipped",
				attribute.String("observer.id", string(reg.meta.ID)),
				attribute.String("reason", "cancelled"))
			continue
		}
		if reg.meta.Once {
			if !reg.fired.CompareAndSwap(false, true) {
				continue
			}
			remove = append(remove, reg)
			s.spans.AddSpanEvent(ctx, "observer.released",
				attribute.String("observer.id", string(reg.meta.ID)),
				attribute.String("reason", "once"))
		}

		p, herr := invoke(ctx, reg.handler, evt)
		if p != nil {
			pending = append(pending, tracked{id: reg.meta.ID, pending: p})
		}
		if herr != nil {
			s.metrics.RecordHandlerError(ctx, string(s.id), key, false)
			if routed := s.handleError(key, reg.meta.ID, herr); routed != nil {
				dispatchErr = routed
				break
			}
		}
	}

	s.prune(remove)

	asyncErr := s.await(ctx, key, pending)
	if dispatchErr != nil {
		return dispatchErr
	}
	return asyncErr
}

// handleError applies the error strategy and returns the error to surface, if any.
func (s *Subject) handleError(key string, id ObserverID, err error) error {
	switch s.config.ErrorStrategy {
	case ErrorLog:
		observability.LogHandlerError(s.logger, key, string(id), err)
		return nil
	case ErrorIgnore:
		return nil
	default:
		return &HandlerError{SubjectID: s.id, Key: key, ObserverID: id, Err: err}
	}
}

// await blocks until every pending value settles or ctx is done.
func (s *Subject) await(ctx context.Context, key string, pending []tracked) error {
	var failures []error
	for _, t := range pending {
		settled, err := receive(ctx, t.pending)
		if !settled {
			return ctx.Err()
		}
		if err != nil {
			s.metrics.RecordHandlerError(ctx, string(s.id), key, true)
			failures = append(failures, &HandlerError{
				SubjectID:  s.id,
				Key:        key,
				ObserverID: t.id,
				Async:      true,
				Err:        err,
			})
		}
	}

	if len(failures) == 0 || s.config.AsyncErrors != AsyncReport {
		return nil
	}

	switch s.config.ErrorStrategy {
	case ErrorLog:
		for _, f := range failures {
			observability.LogAsyncError(s.logger, key, f)
		}
		return nil
	case ErrorIgnore:
		return nil
	default:
		return errors.Join(failures...)
	}
}

// receive takes the result of p. Work that has already settled wins over a
// done ctx; settled is false only when ctx finished first.
func receive(ctx context.Context, p Pending) (settled bool, err error) {
	select {
	case err = <-p:
		return true, err
	default:
	}

	select {
	case err = <-p:
		return true, err
	case <-ctx.Done():
		return false, nil
	}
}

// Pipe forwards every key that currently has observers into target,
// renamed through mapping where it has an entry. Keys subscribed after
// Pipe returns are not forwarded. The returned function removes the
// forwarding registrations.
func (s *Subject) Pipe(target Emitter, mapping map[string]string) (func(), error) {
	return s.pipe(target, s.Keys(), mapping)
}

func (s *Subject) pipe(target Emitter, keys []string, mapping map[string]string) (func(), error) {
	ids := make([]ObserverID, 0, len(keys))
	var once sync.Once
	dispose := func() {
		once.Do(func() {
			for _, id := range ids {
				s.Remove(id)
			}
		})
	}

	for _, key := range keys {
		targetKey := key
		if mapped, ok := mapping[key]; ok && mapped != "" {
			targetKey = mapped
		}

		id, err := s.Subscribe(key, forward(target, targetKey), WithTags("pipe", string(target.ID())))
		if err != nil {
			dispose()
			return nil, fmt.Errorf("pipe %s to %s: %w", key, target.ID(), err)
		}
		ids = append(ids, id)
	}

	observability.LogPipe(s.logger, string(target.ID()), keys)
	return dispose, nil
}

// forward re-emits events on target. Target failures settle the returned
// Pending so they follow the async error policy of the source.
func forward(target Emitter, key string) Handler {
	return func(ctx context.Context, evt Payload) (Pending, error) {
		return Settled(target.Emit(ctx, key, evt.Data, evt.Metadata)), nil
	}
}
