package joystick

import "fmt"

// NoTouch is the touch id of an idle joystick.
const NoTouch = -1

// State is a snapshot of joystick input.
type State struct {
	Direction Vec2
	Magnitude float64
	Active    bool
	TouchID   int
}

func idleState() State {
	return State{TouchID: NoTouch}
}

// update replaces the state, clamping magnitude to [0, 1].
func (s *State) update(direction Vec2, magnitude float64, active bool, touchID int) {
	s.Direction = direction
	s.Magnitude = max(0, min(1, magnitude))
	s.Active = active
	s.TouchID = touchID
}

func (s *State) reset() {
	*s = idleState()
}

// Equal reports whether s and o hold the same input.
func (s State) Equal(o State) bool {
	return s == o
}

func (s State) String() string {
	return fmt.Sprintf("State(active: %t, magnitude: %.3f, direction: %s)", s.Active, s.Magnitude, s.Direction)
}
