package event

import (
	"context"
	"fmt"
)

// IsObservable reports whether v can be subscribed to and emitted on.
func IsObservable(v any) bool {
	_, ok := v.(Observable)
	return ok
}

// IsObserver reports whether v tracks subscriptions like an Observer.
func IsObserver(v any) bool {
	_, ok := v.(Watcher)
	return ok
}

// On subscribes fn to key on subject. Events whose data is not a T fail
// the handler with ErrPayloadType.
func On[T any](
	subject Observable,
	key Key[T],
	fn func(ctx context.Context, evt TypedPayload[T]) error,
	opts ...ObserverOption,
) (ObserverID, error) {
	return subject.Subscribe(string(key), Func(typedFunc(fn)), opts...)
}

// OnAsync is On with fn running on its own goroutine.
func OnAsync[T any](
	subject Observable,
	key Key[T],
	fn func(ctx context.Context, evt TypedPayload[T]) error,
	opts ...ObserverOption,
) (ObserverID, error) {
	return subject.Subscribe(string(key), Async(typedFunc(fn)), opts...)
}

func typedFunc[T any](fn func(ctx context.Context, evt TypedPayload[T]) error) func(context.Context, Payload) error {
	return func(ctx context.Context, evt Payload) error {
		typed, ok := Typed[T](evt)
		if !ok {
			return fmt.Errorf("%w: %s carries %T", ErrPayloadType, evt.Type, evt.Data)
		}
		return fn(ctx, typed)
	}
}

// Publish emits data on key.
func Publish[T any](ctx context.Context, target Emitter, key Key[T], data T, metadata map[string]any) error {
	return target.Emit(ctx, string(key), data, metadata)
}
