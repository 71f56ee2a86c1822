// Package joystick implements an on-screen virtual joystick on top of the
// event package.
//
// A Joystick consumes touch samples and publishes Motion payloads on
// KeyStart, KeyMove and KeyEnd. Because it embeds an event.Subject, any
// observer can subscribe to it directly:
//
//	j, err := joystick.New("dynamic-joystick", joystick.Vec2{}, joystick.DefaultConfig(), event.DefaultSubjectConfig)
//	if err != nil {
//	    return err
//	}
//	event.On(j, joystick.KeyMove, func(ctx context.Context, evt event.TypedPayload[joystick.Motion]) error {
//	    player.Steer(evt.Data.Direction)
//	    return nil
//	})
//	j.TouchStart(ctx, joystick.Touch{ID: 0, Pos: joystick.Vec2{X: 10, Y: 10}})
//
// Only one touch drives a joystick at a time. Samples from any other touch id
// are ignored until the owning touch ends or is cancelled.
//
// In ModeFollow the ring is dragged after a touch that moves more than
// Radius+FollowThreshold from the drag origin, closing LerpSpeed of the gap
// on every move.
package joystick
