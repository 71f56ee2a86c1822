package event

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubjectID identifies a Subject. It is chosen by the caller and need not be unique.
type SubjectID string

// ObserverID identifies one registration, or a group of registrations made
// by a single batch subscription.
type ObserverID string

// observerIDPrefix marks generated observer ids.
const observerIDPrefix = "obs_"

// NewObserverID generates a process-unique observer id.
func NewObserverID() ObserverID {
	return ObserverID(observerIDPrefix + uuid.NewString())
}

// IsObserverID reports whether s has the shape of a generated observer id.
func IsObserverID(s string) bool {
	return strings.HasPrefix(s, observerIDPrefix)
}

// Payload is the value delivered to handlers.
// Payloads are immutable once created; Metadata is copied at emit time.
type Payload struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// UnixMilli returns the emit time in milliseconds since the Unix epoch.
func (p Payload) UnixMilli() int64 {
	return p.Timestamp.UnixMilli()
}

func newPayload(key string, data any, metadata map[string]any) Payload {
	return Payload{
		Type:      key,
		Timestamp: time.Now(),
		Data:      data,
		Metadata:  maps.Clone(metadata),
	}
}

// Key names an event whose payload data has type T.
type Key[T any] string

// String returns the raw event key.
func (k Key[T]) String() string {
	return string(k)
}

// TypedPayload is a Payload whose data has been asserted to T.
type TypedPayload[T any] struct {
	Type      string
	Timestamp time.Time
	Data      T
	Metadata  map[string]any
}

// DataAs returns the payload data as T.
// Nil data yields the zero value of T.
func DataAs[T any](p Payload) (T, bool) {
	if p.Data == nil {
		var zero T
		return zero, true
	}
	v, ok := p.Data.(T)
	return v, ok
}

// Typed converts p into a TypedPayload[T].
func Typed[T any](p Payload) (TypedPayload[T], bool) {
	data, ok := DataAs[T](p)
	if !ok {
		return TypedPayload[T]{}, false
	}
	return TypedPayload[T]{
		Type:      p.Type,
		Timestamp: p.Timestamp,
		Data:      data,
		Metadata:  p.Metadata,
	}, true
}
