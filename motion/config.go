package motion

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the tunables of a controller. The depth thresholds and
// gains are feel constants; defaults match the reference tuning.
type Config struct {
	JumpVelocity  float64 `yaml:"jump_velocity"`
	FallVelocity  float64 `yaml:"fall_velocity"`
	ClimbVelocity float64 `yaml:"climb_velocity"`

	// WalkDepth is the deepest ground-probe hit still counted as standing on a body.
	WalkDepth   float64 `yaml:"walk_depth"`
	// LandDepth is the deepest hit that lets an airborne character land.
	LandDepth   float64 `yaml:"land_depth"`
	// ProbeLift raises the probe origin above the feet.
	ProbeLift   float64 `yaml:"probe_lift"`
	// LadderReach is the deepest forward-probe hit counted as touching a ladder.
	LadderReach float64 `yaml:"ladder_reach"`

	GroundControl float64 `yaml:"ground_control"`
	AirControl    float64 `yaml:"air_control"`
	GroundDamping float64 `yaml:"ground_damping"`
	ClimbGain     float64 `yaml:"climb_gain"`
	MinImpulse    float64 `yaml:"min_impulse"`

	Up      mgl64.Vec3 `yaml:"up,flow"`
	Forward mgl64.Vec3 `yaml:"forward,flow"`
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		JumpVelocity:  5,
		FallVelocity:  5,
		ClimbVelocity: 1,
		WalkDepth:     0.2,
		LandDepth:     0.1,
		ProbeLift:     0.1,
		LadderReach:   0.5,
		GroundControl: 0.2,
		AirControl:    0.01,
		GroundDamping: 0.7,
		ClimbGain:     0.8,
		MinImpulse:    1e-6,
		Up:            mgl64.Vec3{0, 1, 0},
		Forward:       mgl64.Vec3{1, 0, 0},
	}
}

var errZeroAxis = errors.New("motion: axis has zero length")

// Validate rejects negative or non-finite tunables and degenerate axes.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"jump_velocity", c.JumpVelocity},
		{"fall_velocity", c.FallVelocity},
		{"climb_velocity", c.ClimbVelocity},
		{"walk_depth", c.WalkDepth},
		{"land_depth", c.LandDepth},
		{"probe_lift", c.ProbeLift},
		{"ladder_reach", c.LadderReach},
		{"ground_control", c.GroundControl},
		{"air_control", c.AirControl},
		{"ground_damping", c.GroundDamping},
		{"climb_gain", c.ClimbGain},
		{"min_impulse", c.MinImpulse},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("motion: %s must be a finite non-negative number, got %v", f.name, f.value)
		}
	}
	if c.Up.Len() < 1e-9 {
		return fmt.Errorf("up: %w", errZeroAxis)
	}
	if c.Forward.Len() < 1e-9 {
		return fmt.Errorf("forward: %w", errZeroAxis)
	}
	return nil
}

// normalized returns c with unit axes.
func (c Config) normalized() Config {
	c.Up = c.Up.Normalize()
	c.Forward = c.Forward.Normalize()
	return c
}

// AdapterConfig tunes the entity-facing adapter.
type AdapterConfig struct {
	// JumpCooldown is the simulated time, in seconds, before another jump is forwarded.
	JumpCooldown float64 `yaml:"jump_cooldown"`
}

// DefaultAdapterConfig returns the reference adapter tuning.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{JumpCooldown: 1}
}
