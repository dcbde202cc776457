package component

import "github.com/go-gl/mathgl/mgl64"

// Input stores per-tick intents for a motion-driven entity. Jump, ClimbUp and
// ClimbOver are edge triggered and cleared once forwarded.
type Input struct {
	Move      mgl64.Vec3
	Turn      float64
	Jump      bool
	ClimbUp   bool
	ClimbOver bool
}

var InputComponent = NewComponent[Input]()
