// Package motion couples character locomotion to a rigid-body solver: a
// once-per-step state machine fed by ground and ladder probes, and a
// per-iteration impulse correction toward the requested movement.
package motion

import (
	"fmt"
	"strings"
)

// State is the discrete motion state of a character. Exactly one is active.
type State uint8

const (
	Grounded State = iota
	Jumping
	Falling
	Climbing
	ClimbOver
)

var stateNames = [...]string{
	Grounded:  "grounded",
	Jumping:   "jumping",
	Falling:   "falling",
	Climbing:  "climbing",
	ClimbOver: "climb_over",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Airborne reports whether the character has reduced control authority.
func (s State) Airborne() bool {
	return s != Grounded && s != Climbing
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range stateNames {
		if n == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("motion: unknown state %q", text)
}

// Transition is the result of a step that changed state.
type Transition struct {
	Previous State
	Current  State
	// Step is the controller's step counter at the time of the change.
	Step uint64
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s @%d", t.Previous, t.Current, t.Step)
}
