package joystick

import (
	"fmt"
	"math"
)

// Vec2 is a point or offset in canvas space.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v*s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Lerp interpolates from v toward o by t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// IsZero reports whether v is the zero vector.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

func (v Vec2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// Direction is the result of CalculateDirection.
type Direction struct {
	// Direction is the stick offset divided by the radius. Its length is at most 1.
	Direction Vec2
	// Magnitude is the offset length relative to the radius, capped at 1.
	Magnitude float64
	// Clamped is set when the touch lies outside the radius.
	Clamped bool
}

// CalculateDirection converts a touch relative to start into a direction.
// Touches within deadZone*radius of start yield the zero Direction.
func CalculateDirection(touch, start Vec2, radius, deadZone float64) Direction {
	delta := touch.Sub(start)
	distance := delta.Len()

	if distance <= deadZone*radius {
		return Direction{}
	}

	clamped := distance > radius
	if clamped {
		delta = delta.Normalize().Scale(radius)
	}

	return Direction{
		Direction: delta.Scale(1 / radius),
		Magnitude: math.Min(distance/radius, 1),
		Clamped:   clamped,
	}
}

// StickPosition returns where the stick sits for touch, clamped to radius around start.
func StickPosition(touch, start Vec2, radius float64) Vec2 {
	delta := touch.Sub(start)
	if delta.Len() > radius {
		delta = delta.Normalize().Scale(radius)
	}
	return start.Add(delta)
}

// IsWithinRadius reports whether point lies within radius of center.
func IsWithinRadius(point, center Vec2, radius float64) bool {
	return point.Dist(center) <= radius
}

// NormalizeAngle wraps angle into [-π, π].
func NormalizeAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// Angle returns the angle of direction in radians.
func Angle(direction Vec2) float64 {
	return math.Atan2(direction.Y, direction.X)
}

// FromAngle returns the unit vector at angle.
func FromAngle(angle float64) Vec2 {
	return Vec2{math.Cos(angle), math.Sin(angle)}
}

// ApplyDeadZone rescales magnitude so the dead zone maps to 0 and 1 stays 1.
func ApplyDeadZone(magnitude, deadZone float64) float64 {
	if magnitude <= deadZone {
		return 0
	}
	return (magnitude - deadZone) / (1 - deadZone)
}

// SmoothLerp moves current toward target at speed per unit of deltaTime,
// never overshooting.
func SmoothLerp(current, target, speed, deltaTime float64) float64 {
	return current + (target-current)*math.Min(1, speed*deltaTime)
}
