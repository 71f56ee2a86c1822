package event

import (
	"iter"
	"slices"
	"sync"
)

// Observable is the subscription surface of a subject.
type Observable interface {
	Emitter
	Subscribe(key string, handler Handler, opts ...ObserverOption) (ObserverID, error)
	SubscribeMap(handlers HandlerMap, opts ...ObserverOption) (ObserverID, error)
	Remove(id ObserverID) bool
	RemoveFrom(key string, id ObserverID) bool
}

// Compile-time interface checks.
var (
	_ Observable = (*Subject)(nil)
	_ Piper      = (*Subject)(nil)
	_ Watcher    = (*Observer)(nil)
)

// Watcher is the tracking surface of an Observer.
type Watcher interface {
	ID() ObserverID
	Metadata() Metadata
	Observe(subject Observable, key string, handler Handler) error
}

// Observer groups subscriptions across subjects so they can be released together.
// Subscriptions it creates carry its priority and tags. They are never
// once-only, so the observer's record of them stays accurate until released.
type Observer struct {
	id       ObserverID
	metadata Metadata

	mu            sync.Mutex
	subscriptions map[Observable]map[string]ObserverID
	order         []Observable
}

// NewObserver creates an observer. Only the priority, once and tags options
// are recorded in its metadata; the observer id is id.
func NewObserver(id string, opts ...ObserverOption) *Observer {
	cfg := newObserverConfig(opts)
	return &Observer{
		id:            ObserverID(id),
		metadata:      cfg.metadata(ObserverID(id)),
		subscriptions: make(map[Observable]map[string]ObserverID),
	}
}

// ID returns the observer id.
func (o *Observer) ID() ObserverID {
	return o.id
}

// Metadata returns the observer metadata.
func (o *Observer) Metadata() Metadata {
	md := o.metadata
	md.Tags = slices.Clone(md.Tags)
	return md
}

func (o *Observer) options() []ObserverOption {
	return []ObserverOption{WithPriority(o.metadata.Priority), WithTags(o.metadata.Tags...)}
}

// Observe subscribes handler to key on subject and records the subscription.
// A previous subscription this observer holds for the same key is released.
func (o *Observer) Observe(subject Observable, key string, handler Handler) error {
	id, err := subject.Subscribe(key, handler, o.options()...)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.recordLocked(subject, key, id)
	return nil
}

// ObserveMap subscribes every handler in handlers under one shared id and
// records it for each key.
func (o *Observer) ObserveMap(subject Observable, handlers HandlerMap) error {
	id, err := subject.SubscribeMap(handlers, o.options()...)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for key, h := range handlers {
		if h != nil {
			o.recordLocked(subject, key, id)
		}
	}
	return nil
}

func (o *Observer) recordLocked(subject Observable, key string, id ObserverID) {
	keys, ok := o.subscriptions[subject]
	if !ok {
		keys = make(map[string]ObserverID)
		o.subscriptions[subject] = keys
		o.order = append(o.order, subject)
	}
	if prev, exists := keys[key]; exists && prev != id {
		subject.RemoveFrom(key, prev)
	}
	keys[key] = id
}

// Unobserve releases every subscription recorded for subject.
func (o *Observer) Unobserve(subject Observable) {
	o.mu.Lock()
	keys := o.subscriptions[subject]
	delete(o.subscriptions, subject)
	o.order = slices.DeleteFunc(o.order, func(s Observable) bool { return s == subject })
	o.mu.Unlock()

	for key, id := range keys {
		subject.RemoveFrom(key, id)
	}
}

// UnobserveKey releases the subscription recorded for key on subject.
func (o *Observer) UnobserveKey(subject Observable, key string) {
	o.mu.Lock()
	keys := o.subscriptions[subject]
	id, ok := keys[key]
	if ok {
		delete(keys, key)
	}
	o.mu.Unlock()

	if ok {
		subject.RemoveFrom(key, id)
	}
}

// IsObserving reports whether any subscription is recorded for subject.
func (o *Observer) IsObserving(subject Observable) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subscriptions[subject]) > 0
}

// ObservedSubjects yields the subjects with at least one recorded
// subscription, in the order they were first observed. Each iteration
// reads the current state.
func (o *Observer) ObservedSubjects() iter.Seq[Observable] {
	return func(yield func(Observable) bool) {
		for _, subject := range o.live() {
			if !yield(subject) {
				return
			}
		}
	}
}

func (o *Observer) live() []Observable {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Observable, 0, len(o.order))
	for _, subject := range o.order {
		if len(o.subscriptions[subject]) > 0 {
			out = append(out, subject)
		}
	}
	return out
}

// Dispose releases every recorded subscription. It is safe to call repeatedly.
func (o *Observer) Dispose() {
	o.mu.Lock()
	subjects := slices.Clone(o.order)
	o.mu.Unlock()

	for _, subject := range subjects {
		o.Unobserve(subject)
	}
}
