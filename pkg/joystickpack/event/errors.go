package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for subscription and dispatch.
var (
	// ErrCapacity indicates a key already holds MaxObservers registrations.
	ErrCapacity = errors.New("maximum observers reached")

	// ErrEmptyKey indicates an empty event key.
	ErrEmptyKey = errors.New("event key must not be empty")

	// ErrNilHandler indicates Subscribe was called without a handler.
	ErrNilHandler = errors.New("handler must not be nil")

	// ErrUnknownKey indicates a key missing from the subject's EventMap.
	ErrUnknownKey = errors.New("unknown event key")

	// ErrPayloadType indicates emitted data does not match the EventMap.
	ErrPayloadType = errors.New("payload type mismatch")
)

// CapacityError reports a rejected subscription.
type CapacityError struct {
	Key string
	Max int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("maximum observers (%d) reached for event: %s", e.Max, e.Key)
}

// Is matches ErrCapacity.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// HandlerError wraps a failure raised by a handler during Emit.
type HandlerError struct {
	SubjectID  SubjectID
	Key        string
	ObserverID ObserverID
	// Async is set when the failure came from a Pending.
	Async bool
	Err   error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	kind := "observer"
	if e.Async {
		kind = "async observer"
	}
	return fmt.Sprintf("%s %s failed on %s/%s: %v", kind, e.ObserverID, e.SubjectID, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
