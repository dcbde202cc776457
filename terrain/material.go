// Package terrain classifies level geometry into surface materials.
package terrain

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Material is the surface class of a piece of level geometry.
type Material uint8

const (
	None Material = iota
	Grass
	Wood
	Dirt
	Metal
	Snow
	Water
	Ladder
	Obstacle
)

var materialNames = [...]string{
	None:     "none",
	Grass:    "grass",
	Wood:     "wood",
	Dirt:     "dirt",
	Metal:    "metal",
	Snow:     "snow",
	Water:    "water",
	Ladder:   "ladder",
	Obstacle: "obstacle",
}

// Level geometry is authored with one texture per material; None has no texture.
var materialTextures = [...]string{
	None:     "",
	Grass:    "grass_level.png",
	Wood:     "wood_level.png",
	Dirt:     "dirt_level.png",
	Metal:    "metal_level.png",
	Snow:     "snow_level.png",
	Water:    "water_level.png",
	Ladder:   "ladder_level.png",
	Obstacle: "obstacle_level.png",
}

func (m Material) String() string {
	if int(m) < len(materialNames) {
		return materialNames[m]
	}
	return fmt.Sprintf("material(%d)", uint8(m))
}

// Climbable reports whether a character may start climbing on the material.
func (m Material) Climbable() bool {
	return m == Ladder
}

// ParseMaterial resolves a material by name, case-insensitively.
func ParseMaterial(name string) (Material, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return None, nil
	}
	for i, s := range materialNames {
		if s == n {
			return Material(i), nil
		}
	}
	return None, fmt.Errorf("terrain: unknown material %q", name)
}

// MaterialForTexture maps a level texture file name back to its material.
// Unknown textures classify as None.
func MaterialForTexture(texture string) Material {
	base := texture
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.ToLower(base)
	if base == "" {
		return None
	}
	for i, s := range materialTextures {
		if s == base {
			return Material(i)
		}
	}
	return None
}

func (m Material) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *Material) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseMaterial(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
