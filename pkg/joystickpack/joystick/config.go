package joystick

import (
	"errors"
	"fmt"
)

// Mode selects how the ring reacts to a drag.
type Mode string

const (
	// ModeDynamic keeps the ring where the touch started.
	ModeDynamic Mode = "dynamic"
	// ModeFollow drags the ring after a touch that strays past the radius.
	ModeFollow Mode = "follow"
)

// ParseMode parses a mode name. The empty string means ModeDynamic.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDynamic:
		return ModeDynamic, nil
	case ModeFollow:
		return ModeFollow, nil
	}
	return "", fmt.Errorf("%w: unsupported joystick mode %q", ErrInvalidConfig, s)
}

// Lerp speed bounds for ModeFollow.
const (
	MinLerpSpeed = 0.01
	MaxLerpSpeed = 0.25
)

// ErrInvalidConfig indicates a Config that failed validation.
var ErrInvalidConfig = errors.New("invalid joystick config")

// Config configures a Joystick.
type Config struct {
	// Radius is the distance from the ring center to full deflection.
	// Default: 50
	Radius float64 `json:"radius" yaml:"radius"`

	// Dynamic moves the ring to each new touch. When false the ring stays at
	// its home position and only touches within Radius+Threshold of it start a drag.
	// Default: true
	Dynamic bool `json:"dynamic" yaml:"dynamic"`

	// Threshold extends the accepted start area of a fixed ring.
	// Default: 25
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// DeadZone is the fraction of Radius treated as no input.
	// Default: 0.1
	DeadZone float64 `json:"dead_zone" yaml:"dead_zone"`

	// Mode selects dynamic or follow behavior.
	// Default: ModeDynamic
	Mode Mode `json:"mode" yaml:"mode"`

	// FollowThreshold is how far past Radius a touch must be before the ring follows.
	// Default: 25
	FollowThreshold float64 `json:"follow_threshold" yaml:"follow_threshold"`

	// LerpSpeed is the fraction of the gap the ring closes per move while following.
	// Default: 0.1
	LerpSpeed float64 `json:"lerp_speed" yaml:"lerp_speed"`
}

// DefaultConfig returns the default joystick configuration.
func DefaultConfig() Config {
	return Config{
		Radius:          50,
		Dynamic:         true,
		Threshold:       25,
		DeadZone:        0.1,
		Mode:            ModeDynamic,
		FollowThreshold: 25,
		LerpSpeed:       0.1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Radius <= 0 {
		errs = append(errs, errors.New("radius must be positive"))
	}
	if c.Threshold < 0 {
		errs = append(errs, errors.New("threshold cannot be negative"))
	}
	if c.DeadZone < 0 || c.DeadZone >= 1 {
		errs = append(errs, errors.New("dead zone must be between 0 and 1"))
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	if c.Mode == ModeFollow {
		if c.FollowThreshold < 0 {
			errs = append(errs, errors.New("follow threshold cannot be negative"))
		}
		if c.LerpSpeed < MinLerpSpeed || c.LerpSpeed > MaxLerpSpeed {
			errs = append(errs, fmt.Errorf("lerp speed must be between %g and %g", MinLerpSpeed, MaxLerpSpeed))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
