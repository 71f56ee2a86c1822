package event

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// EventMap records which keys a subject accepts and the payload type of each.
type EventMap struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventMap creates an empty event map.
func NewEventMap() *EventMap {
	return &EventMap{types: make(map[string]reflect.Type)}
}

// Define adds key to m with payload type T.
// Defining an existing key replaces its type.
func Define[T any](m *EventMap, key Key[T]) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[string(key)] = reflect.TypeFor[T]()
	return nil
}

// Has reports whether key is defined.
func (m *EventMap) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.types[key]
	return ok
}

// Keys returns the defined keys in sorted order.
func (m *EventMap) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.types))
	for k := range m.types {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Check returns ErrUnknownKey if key is not defined.
func (m *EventMap) Check(key string) error {
	if !m.Has(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// Validate checks that key is defined and data is assignable to its type.
func (m *EventMap) Validate(key string, data any) error {
	m.mu.RLock()
	want, ok := m.types[key]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if data == nil {
		switch want.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return nil
		}
		return fmt.Errorf("%w: %s expects %s, got nil", ErrPayloadType, key, want)
	}

	if got := reflect.TypeOf(data); !got.AssignableTo(want) {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrPayloadType, key, want, got)
	}
	return nil
}

// derive returns a map holding the keys of m that rename accepts, under the
// names it returns.
func (m *EventMap) derive(rename func(key string) (string, bool)) *EventMap {
	out := NewEventMap()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, typ := range m.types {
		if name, ok := rename(key); ok {
			out.types[name] = typ
		}
	}
	return out
}

// union returns a map holding every key of maps. It returns nil if any map
// is nil, since an unrestricted source can emit any key.
func union(maps ...*EventMap) *EventMap {
	out := NewEventMap()
	for _, m := range maps {
		if m == nil {
			return nil
		}
		m.mu.RLock()
		for key, typ := range m.types {
			out.types[key] = typ
		}
		m.mu.RUnlock()
	}
	return out
}
