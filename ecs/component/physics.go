package component

import "github.com/milk9111/locomotion/physics/planar"

// PhysicsBody stores the solver body and the definition it is built from.
// Body stays nil until PhysicsSystem has added it to the space.
type PhysicsBody struct {
	Def  planar.BodyDef
	Body *planar.Body
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()
