package event

import (
	"context"
	"fmt"
)

// Pending is work a handler started but has not finished.
// The handler sends at most one error and closes the channel when done.
type Pending <-chan error

// Handler receives dispatched events.
//
// A non-nil error is a synchronous failure and is routed through the
// subject's ErrorStrategy. A non-nil Pending is awaited by Emit after all
// handlers have been called.
type Handler func(ctx context.Context, evt Payload) (Pending, error)

// HandlerMap maps event keys to handlers for batch subscription.
type HandlerMap map[string]Handler

// Func adapts a synchronous function to a Handler.
func Func(fn func(ctx context.Context, evt Payload) error) Handler {
	return func(ctx context.Context, evt Payload) (Pending, error) {
		return nil, fn(ctx, evt)
	}
}

// Async adapts fn to a Handler that runs fn on its own goroutine.
// The returned error, or a recovered panic, settles the Pending.
func Async(fn func(ctx context.Context, evt Payload) error) Handler {
	return func(ctx context.Context, evt Payload) (Pending, error) {
		ch := make(chan error, 1)
		go func() {
			defer close(ch)
			defer func() {
				if r := recover(); r != nil {
					ch <- fmt.Errorf("async handler panic: %v", r)
				}
			}()
			ch <- fn(ctx, evt)
		}()
		return ch, nil
	}
}

// Settled returns a Pending that has already completed with err.
func Settled(err error) Pending {
	ch := make(chan error, 1)
	if err != nil {
		ch <- err
	}
	close(ch)
	return ch
}

// invoke calls h, converting a panic into an error.
func invoke(ctx context.Context, h Handler, evt Payload) (p Pending, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}
