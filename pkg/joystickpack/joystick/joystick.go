package joystick

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/randalmurphal/joystickpack/pkg/joystickpack/event"
)

// Event keys emitted by a Joystick.
const (
	KeyStart event.Key[Motion] = "joystick:start"
	KeyMove  event.Key[Motion] = "joystick:move"
	KeyEnd   event.Key[Motion] = "joystick:end"
)

// ErrInvalidTouch indicates a touch with a negative id.
var ErrInvalidTouch = errors.New("invalid touch id")

// Parts holds the on-screen positions of the ring and the stick.
type Parts struct {
	Ring  Vec2 `json:"ring"`
	Stick Vec2 `json:"stick"`
}

// Motion is the payload of every joystick event.
type Motion struct {
	Direction Vec2    `json:"direction"`
	Magnitude float64 `json:"magnitude"`
	Parts     Parts   `json:"parts"`
}

// Touch is one pointer sample in canvas space.
type Touch struct {
	ID  int
	Pos Vec2
}

// Schema returns an EventMap describing the joystick keys.
func Schema() *event.EventMap {
	m := event.NewEventMap()
	for _, key := range []event.Key[Motion]{KeyStart, KeyMove, KeyEnd} {
		// Keys are non-empty constants.
		_ = event.Define(m, key)
	}
	return m
}

// Joystick turns touch input into motion events. It is a Subject, so
// observers subscribe to it directly.
type Joystick struct {
	*event.Subject

	mu         sync.Mutex
	config     Config
	state      State
	home       Vec2
	touchStart Vec2
	ring       Vec2
	stick      Vec2
}

// New creates a joystick whose ring rests at home.
func New(id string, home Vec2, cfg Config, subjectCfg event.SubjectConfig) (*Joystick, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeDynamic
	}
	return &Joystick{
		Subject:    event.NewSubject(id, subjectCfg),
		config:     cfg,
		state:      idleState(),
		home:       home,
		touchStart: home,
		ring:       home,
		stick:      home,
	}, nil
}

// Config returns the current configuration.
func (j *Joystick) Config() Config {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.config
}

// Configure replaces the configuration. An active drag keeps going under the
// new values.
func (j *Joystick) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeDynamic
	}
	j.mu.Lock()
	j.config = cfg
	j.mu.Unlock()
	return nil
}

// State returns a snapshot of the current input.
func (j *Joystick) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Parts returns the current ring and stick positions.
func (j *Joystick) Parts() Parts {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Parts{Ring: j.ring, Stick: j.stick}
}

// TouchStart begins a drag. It is ignored while another touch is active or,
// for a fixed ring, when the touch lands outside Radius+Threshold.
func (j *Joystick) TouchStart(ctx context.Context, t Touch) error {
	if t.ID < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTouch, t.ID)
	}

	j.mu.Lock()
	if j.state.Active {
		j.mu.Unlock()
		return nil
	}

	if j.config.Dynamic {
		j.touchStart = t.Pos
		j.ring = t.Pos
		j.stick = t.Pos
	} else {
		if !IsWithinRadius(t.Pos, j.home, j.config.Radius+j.config.Threshold) {
			j.mu.Unlock()
			return nil
		}
		j.touchStart = j.home
		j.ring = j.home
	}

	m := j.trackLocked(t)
	j.mu.Unlock()

	return event.Publish(ctx, j, KeyStart, m, touchMetadata(t.ID))
}

// TouchMove updates an active drag. Samples from other touches are ignored.
func (j *Joystick) TouchMove(ctx context.Context, t Touch) error {
	j.mu.Lock()
	if !j.ownsLocked(t.ID) {
		j.mu.Unlock()
		return nil
	}

	m := j.trackLocked(t)
	if j.config.Mode == ModeFollow {
		if j.followLocked(t.Pos) {
			m.Parts = Parts{Ring: j.ring, Stick: j.stick}
		}
	}
	j.mu.Unlock()

	return event.Publish(ctx, j, KeyMove, m, touchMetadata(t.ID))
}

// TouchEnd finishes the drag owned by t and recenters the stick.
func (j *Joystick) TouchEnd(ctx context.Context, t Touch) error {
	j.mu.Lock()
	if !j.ownsLocked(t.ID) {
		j.mu.Unlock()
		return nil
	}

	j.state.reset()
	if !j.config.Dynamic {
		j.ring = j.home
		j.touchStart = j.home
	}
	j.stick = j.ring
	m := Motion{Parts: Parts{Ring: j.ring, Stick: j.stick}}
	j.mu.Unlock()

	return event.Publish(ctx, j, KeyEnd, m, touchMetadata(t.ID))
}

// TouchCancel is TouchEnd for an interrupted touch.
func (j *Joystick) TouchCancel(ctx context.Context, t Touch) error {
	return j.TouchEnd(ctx, t)
}

func (j *Joystick) ownsLocked(id int) bool {
	return j.state.Active && j.state.TouchID == id
}

// trackLocked moves the stick toward t and records the new state.
func (j *Joystick) trackLocked(t Touch) Motion {
	radius := j.config.Radius
	d := CalculateDirection(t.Pos, j.touchStart, radius, j.config.DeadZone)
	j.stick = StickPosition(t.Pos, j.touchStart, radius)
	j.state.update(d.Direction, d.Magnitude, true, t.ID)

	return Motion{
		Direction: d.Direction,
		Magnitude: j.state.Magnitude,
		Parts:     Parts{Ring: j.ring, Stick: j.stick},
	}
}

// followLocked drags the ring toward pos once pos is farther than
// Radius+FollowThreshold from the drag origin, keeping the stick offset.
func (j *Joystick) followLocked(pos Vec2) bool {
	if j.touchStart.Dist(pos) <= j.config.Radius+j.config.FollowThreshold {
		return false
	}

	offset := j.stick.Sub(j.ring)
	j.ring = j.ring.Lerp(pos, j.config.LerpSpeed)
	j.stick = j.ring.Add(offset)
	j.touchStart = j.ring
	return true
}

func touchMetadata(id int) map[string]any {
	return map[string]any{"touch_id": id}
}
