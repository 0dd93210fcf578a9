// Package zoom holds the user zoom factor and its step/clamp policy.
package zoom

import "math"

// Default zoom policy
const (
	DefaultMin              = 0.5
	DefaultMax              = 3.0
	DefaultStep             = 0.1
	DefaultWheelSensitivity = 0.01
)

// Config describes the zoom range and step sizes.
type Config struct {
	Min  float64
	Max  float64
	Step float64
	// WheelSensitivity scales wheel deltas into fractions of Step.
	WheelSensitivity float64
}

// DefaultConfig returns the standard zoom policy.
func DefaultConfig() Config {
	return Config{
		Min:              DefaultMin,
		Max:              DefaultMax,
		Step:             DefaultStep,
		WheelSensitivity: DefaultWheelSensitivity,
	}
}

// State is the current zoom factor. The zero value is not usable; create it
// with New.
type State struct {
	config Config
	value  float64
}

// New creates a zoom state at 1.0 with the given policy. Out-of-range
// policy values fall back to the defaults.
func New(config Config) *State {
	def := DefaultConfig()
	if config.Min <= 0 {
		config.Min = def.Min
	}
	if config.Max < config.Min {
		config.Max = math.Max(def.Max, config.Min)
	}
	if config.Step <= 0 {
		config.Step = def.Step
	}
	if config.WheelSensitivity <= 0 {
		config.WheelSensitivity = def.WheelSensitivity
	}
	s := &State{config: config}
	s.Reset()
	return s
}

// Config returns the zoom policy in use.
func (s *State) Config() Config { return s.config }

// Value returns the current zoom factor.
func (s *State) Value() float64 { return s.value }

// Percent returns the zoom as a whole percentage for readouts.
func (s *State) Percent() int { return int(math.Round(s.value * 100)) }

// ZoomIn increases the zoom by one step.
func (s *State) ZoomIn() float64 { return s.ZoomTo(s.value + s.config.Step) }

// ZoomOut decreases the zoom by one step.
func (s *State) ZoomOut() float64 { return s.ZoomTo(s.value - s.config.Step) }

// Reset returns the zoom to 1.0, clamped into range.
func (s *State) Reset() float64 { return s.ZoomTo(1) }

// Wheel applies a continuous wheel delta. Negative deltas zoom in, matching
// the usual scroll-up-to-zoom convention.
func (s *State) Wheel(deltaY float64) float64 {
	return s.ZoomTo(s.value - deltaY*s.config.Step*s.config.WheelSensitivity)
}

// ZoomTo sets an absolute zoom factor, clamped to the configured range.
func (s *State) ZoomTo(v float64) float64 {
	if math.IsNaN(v) {
		return s.value
	}
	v = math.Round(v*1e4) / 1e4
	if v < s.config.Min {
		v = s.config.Min
	}
	if v > s.config.Max {
		v = s.config.Max
	}
	s.value = v
	return v
}

// CanZoomIn reports whether ZoomIn would change the value.
func (s *State) CanZoomIn() bool { return s.value < s.config.Max }

// CanZoomOut reports whether ZoomOut would change the value.
func (s *State) CanZoomOut() bool { return s.value > s.config.Min }
