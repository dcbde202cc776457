package component

import "github.com/go-gl/mathgl/mgl64"

// Transform mirrors the simulated pose. PhysicsSystem writes it after each
// step and seeds new bodies from it.
type Transform struct {
	Position mgl64.Vec3
	Yaw      float64
}

var TransformComponent = NewComponent[Transform]()
