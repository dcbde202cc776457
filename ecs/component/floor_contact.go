package component

import (
	"github.com/milk9111/locomotion/motion"
	"github.com/milk9111/locomotion/terrain"
)

// FloorContact is the last published locomotion snapshot of an entity.
type FloorContact struct {
	State    motion.State
	Material terrain.Material
	Grounded bool
}

var FloorContactComponent = NewComponent[FloorContact]()
