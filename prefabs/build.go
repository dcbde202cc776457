package prefabs

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/physics"
	"github.com/milk9111/locomotion/physics/planar"
	"github.com/milk9111/locomotion/terrain"
)

// Scene holds the handles created by SpawnScene.
type Scene struct {
	Terrain ecs.Entity
	Player  ecs.Entity
	Blocks  []ecs.Entity
	Agents  []ecs.Entity
}

// BodyDef returns the solver definition of a block.
func (b BlockSpec) BodyDef() planar.BodyDef {
	def := planar.BodyDef{
		Kind:        planar.Static,
		Position:    b.Min.Add(b.Max).Mul(0.5),
		HalfExtents: b.Max.Sub(b.Min).Mul(0.5),
		Friction:    b.Friction,
		Sensor:      b.Ghost,
	}
	if b.Ghost {
		def.Tags |= physics.TagGhost
	}
	if b.Material.Climbable() {
		def.Tags |= physics.TagLadder
	}
	if b.Moving() {
		def.Kind = planar.Kinematic
		def.Velocity = b.Velocity
		def.Patrol = b.Patrol
		def.Tags |= physics.TagPlatform
	}
	return def
}

// BodyDef returns the solver definition of the character's collider.
func (c CharacterSpec) BodyDef() planar.BodyDef {
	return planar.BodyDef{
		Kind:        planar.Dynamic,
		HalfExtents: c.Collider.HalfExtents,
		Radius:      c.Collider.Radius,
		Mass:        c.Mass,
		Tags:        physics.TagCharacter,
	}
}

// Index builds the material index of the scene's fixed blocks. Moving and
// ghost blocks are left out.
func (s SceneSpec) Index() *terrain.Index {
	idx := terrain.NewIndex()
	for _, b := range s.Blocks {
		if b.Moving() || b.Ghost || b.Material == terrain.None {
			continue
		}
		idx.Add(terrain.Region{Min: b.Min, Max: b.Max, Material: b.Material})
	}
	return idx
}

// SpawnCharacter creates a motion-driven entity at pos.
func SpawnCharacter(w *ecs.World, spec CharacterSpec, pos mgl64.Vec3) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := addCharacter(w, e, spec, pos); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, err
	}
	return e, nil
}

func addCharacter(w *ecs.World, e ecs.Entity, spec CharacterSpec, pos mgl64.Vec3) error {
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{Position: pos}); err != nil {
		return err
	}
	if err := ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Def: spec.BodyDef()}); err != nil {
		return err
	}
	if err := ecs.Add(w, e, component.MotionComponent.Kind(), &component.Motion{Config: spec.Motion, AdapterConfig: spec.Adapter}); err != nil {
		return err
	}
	return ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{})
}

// SpawnScene creates the terrain, every block, the player and the agents of
// scene. Character files named by the scene or its agents are loaded with
// LoadCharacter; player is used for the player when non-nil.
func SpawnScene(w *ecs.World, scene SceneSpec, player *CharacterSpec) (Scene, error) {
	var out Scene

	out.Terrain = ecs.CreateEntity(w)
	if err := ecs.Add(w, out.Terrain, component.TerrainComponent.Kind(), &component.Terrain{Index: scene.Index()}); err != nil {
		return out, err
	}

	for _, b := range scene.Blocks {
		e := ecs.CreateEntity(w)
		def := b.BodyDef()
		if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{Position: def.Position}); err != nil {
			return out, err
		}
		if err := ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Def: def}); err != nil {
			return out, err
		}
		out.Blocks = append(out.Blocks, e)
	}

	if player == nil {
		name := scene.Character
		if name == "" {
			name = "character.yaml"
		}
		spec, err := LoadCharacter(name)
		if err != nil {
			return out, err
		}
		player = &spec
	}
	e, err := SpawnCharacter(w, *player, scene.Spawn)
	if err != nil {
		return out, fmt.Errorf("prefabs: spawn player: %w", err)
	}
	if err := ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{}); err != nil {
		return out, err
	}
	out.Player = e

	for _, a := range scene.Agents {
		spec := *player
		if a.Character != "" {
			if spec, err = LoadCharacter(a.Character); err != nil {
				return out, err
			}
		}
		e, err := SpawnCharacter(w, spec, a.Position)
		if err != nil {
			return out, fmt.Errorf("prefabs: spawn agent %s: %w", a.Name, err)
		}
		if a.Script != "" {
			if err := ecs.Add(w, e, component.IntentScriptComponent.Kind(), &component.IntentScript{Path: a.Script}); err != nil {
				return out, err
			}
		}
		out.Agents = append(out.Agents, e)
	}

	return out, nil
}
