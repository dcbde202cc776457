package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/motion"
	"github.com/milk9111/locomotion/terrain"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// CharacterSpec describes a motion-driven character. Motion and Adapter
// fields left out of the file keep their defaults.
type CharacterSpec struct {
	Name     string               `yaml:"name"`
	Mass     float64              `yaml:"mass"`
	Speed    float64              `yaml:"speed"`
	TurnRate float64              `yaml:"turn_rate"`
	Collider ColliderSpec         `yaml:"collider"`
	Motion   motion.Config        `yaml:"motion"`
	Adapter  motion.AdapterConfig `yaml:"adapter"`
}

type ColliderSpec struct {
	HalfExtents mgl64.Vec3 `yaml:"half_extents,flow"`
	Radius      float64    `yaml:"radius"`
}

var errEmptyCollider = errors.New("collider needs a radius or positive half extents")

func (c CharacterSpec) Validate() error {
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	if c.Adapter.JumpCooldown < 0 {
		return fmt.Errorf("adapter: jump_cooldown must not be negative, got %v", c.Adapter.JumpCooldown)
	}
	if c.Mass <= 0 {
		return fmt.Errorf("mass must be positive, got %v", c.Mass)
	}
	h := c.Collider.HalfExtents
	if c.Collider.Radius <= 0 && (h.X() <= 0 || h.Y() <= 0) {
		return errEmptyCollider
	}
	return nil
}

func DefaultCharacterSpec() CharacterSpec {
	return CharacterSpec{
		Name:     "character",
		Mass:     1,
		Speed:    4,
		TurnRate: 2,
		Collider: ColliderSpec{HalfExtents: mgl64.Vec3{0.4, 0.9, 0.4}},
		Motion:   motion.DefaultConfig(),
		Adapter:  motion.DefaultAdapterConfig(),
	}
}

// LoadCharacter reads and validates a character file on top of
// DefaultCharacterSpec.
func LoadCharacter(filename string) (CharacterSpec, error) {
	data, err := Load(filename)
	if err != nil {
		return CharacterSpec{}, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	spec := DefaultCharacterSpec()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return CharacterSpec{}, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	if err := spec.Validate(); err != nil {
		return CharacterSpec{}, fmt.Errorf("prefabs: validate %s: %w", filename, err)
	}
	return spec, nil
}

// SceneSpec is a playground level: solid blocks, a player spawn and
// optional scripted agents.
type SceneSpec struct {
	Name      string      `yaml:"name"`
	Gravity   float64     `yaml:"gravity"`
	Character string      `yaml:"character"`
	Spawn     mgl64.Vec3  `yaml:"spawn,flow"`
	Blocks    []BlockSpec `yaml:"blocks"`
	Agents    []AgentSpec `yaml:"agents"`
}

type BlockSpec struct {
	Name     string           `yaml:"name"`
	Min      mgl64.Vec3       `yaml:"min,flow"`
	Max      mgl64.Vec3       `yaml:"max,flow"`
	Material terrain.Material `yaml:"material"`
	// Texture names the level texture the block is painted with. When set
	// it decides the material.
	Texture  string  `yaml:"texture"`
	Friction float64 `yaml:"friction"`
	Ghost    bool    `yaml:"ghost"`
	// Velocity and Patrol make the block a kinematic platform.
	Velocity mgl64.Vec3 `yaml:"velocity,flow"`
	Patrol   float64    `yaml:"patrol"`
	Color    *YAMLColor `yaml:"color"`
}

func (b BlockSpec) Moving() bool {
	return b.Velocity.LenSqr() > 0
}

type AgentSpec struct {
	Name      string     `yaml:"name"`
	Character string     `yaml:"character"`
	Script    string     `yaml:"script"`
	Position  mgl64.Vec3 `yaml:"position,flow"`
}

func LoadScene(filename string) (SceneSpec, error) {
	spec, err := LoadSpec[SceneSpec](filename)
	if err != nil {
		return SceneSpec{}, err
	}
	if err := spec.resolveBlocks(); err != nil {
		return SceneSpec{}, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

// resolveBlocks rejects empty blocks and derives materials from textures.
func (s *SceneSpec) resolveBlocks() error {
	for i := range s.Blocks {
		b := &s.Blocks[i]
		for axis := range 2 {
			if b.Max[axis] <= b.Min[axis] {
				return fmt.Errorf("block %d (%s) is empty on axis %d", i, b.Name, axis)
			}
		}
		if b.Texture == "" {
			continue
		}
		m := terrain.MaterialForTexture(b.Texture)
		if m == terrain.None {
			return fmt.Errorf("block %d (%s) has unknown texture %q", i, b.Name, b.Texture)
		}
		b.Material = m
	}
	return nil
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
