// Package event provides a typed, in-process publish/subscribe engine.
//
// # Overview
//
//   - Subject owns the observer registry for one emitter across all its event keys
//   - Observer tracks subscriptions across many subjects for bulk release
//   - Pipe, Filter, Map and Merge compose subjects into derived streams
//   - Key[T] and EventMap bind event keys to payload types
//
// # Subjects
//
// A Subject dispatches each Emit to the observers registered for that key,
// highest priority first, ties in registration order:
//
//	joy := event.NewSubject("joystick", event.DefaultSubjectConfig)
//
//	id, err := joy.Subscribe("joystick:move", event.Func(func(ctx context.Context, evt event.Payload) error {
//	    fmt.Println(evt.Data)
//	    return nil
//	}), event.WithPriority(10))
//
//	err = joy.Emit(ctx, "joystick:move", dir, nil)
//
// Handlers may hand back a Pending for work that outlives the call. Emit
// waits for every Pending collected during a dispatch before it returns:
//
//	joy.Subscribe("joystick:end", event.Async(func(ctx context.Context, evt event.Payload) error {
//	    return saveReplay(ctx, evt)
//	}))
//
// # Typed Keys
//
// Key[T] carries the payload type of an event so that subscribers and
// producers agree at compile time:
//
//	var KeyMove = event.Key[Motion]("joystick:move")
//
//	event.On(joy, KeyMove, func(ctx context.Context, evt event.TypedPayload[Motion]) error {
//	    steer(evt.Data.Direction)
//	    return nil
//	})
//	event.Publish(ctx, joy, KeyMove, Motion{...}, nil)
//
// An EventMap makes the same contract visible at runtime. A subject
// configured with one rejects unknown keys and mismatched payloads.
//
// # Unsubscribing
//
// Unsubscribe takes a Target. ByID removes one observer from every key it
// is registered under, ByKey clears one key and All clears the registry.
// ParseTarget resolves a plain string the way callers historically did:
// strings carrying the generated "obs_" prefix are ids, anything else is an
// event key. Keys that begin with "obs_" must therefore use ByKey.
//
// # Errors
//
// Synchronous handler failures (returned errors and recovered panics) follow
// the subject's ErrorStrategy: ErrorThrow aborts the dispatch and returns a
// *HandlerError, ErrorLog logs and continues, ErrorIgnore continues silently.
// Failures reported through a Pending are discarded unless AsyncErrors is
// AsyncReport. Capacity violations are always returned from Subscribe.
//
// # Composition
//
// Pipe forwards the keys a subject has observers for at call time into
// another subject. Filter, Map and Merge build derived subjects from Pipe,
// so every derived stream goes through the same dispatch rules:
//
//	moves, _ := joy.Filter("joystick:")
//	defer moves.Dispose()
//
// # Thread Safety
//
// Subjects and Observers are safe for concurrent use. Dispatch runs on a
// snapshot of the registry, so handlers may subscribe, unsubscribe and emit
// re-entrantly.
package event
