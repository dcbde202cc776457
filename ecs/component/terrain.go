package component

import "github.com/milk9111/locomotion/terrain"

// Terrain holds the material index for the loaded scene. One per world.
type Terrain struct {
	Index *terrain.Index
}

var TerrainComponent = NewComponent[Terrain]()
