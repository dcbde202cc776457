package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/physics/planar"
	"github.com/milk9111/locomotion/prefabs"
	"github.com/milk9111/locomotion/terrain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rig struct {
	w         *ecs.World
	sched     *ecs.Scheduler
	physics   *PhysicsSystem
	motion    *MotionSystem
	floor     ecs.Entity
	character ecs.Entity
}

func newRig(t *testing.T) *rig {
	t.Helper()
	return newRigAt(t, mgl64.Vec3{0, 1.5, 0})
}

// newRigAt builds a grass floor with its top at y=0 and a default character
// spawned at spawn.
func newRigAt(t *testing.T, spawn mgl64.Vec3) *rig {
	t.Helper()
	log := zaptest.NewLogger(t)
	w := ecs.NewWorld()

	ps := NewPhysicsSystem(WithPhysicsLogger(log))
	ms := NewMotionSystem(ps.Space(), WithMotionLogger(log))

	terr := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, terr, component.TerrainComponent.Kind(), &component.Terrain{
		Index: terrain.NewIndex(terrain.Region{Min: mgl64.Vec3{-20, -1, -1}, Max: mgl64.Vec3{20, 0, 1}, Material: terrain.Grass}),
	}))

	floor := addStatic(t, w, mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{20, 0.5, 1})

	character, err := prefabs.SpawnCharacter(w, prefabs.DefaultCharacterSpec(), spawn)
	require.NoError(t, err)

	return &rig{
		w:         w,
		sched:     ecs.NewScheduler(NewIntentScriptSystem(WithIntentLogger(log)), ms, ps),
		physics:   ps,
		motion:    ms,
		floor:     floor,
		character: character,
	}
}

func addStatic(t *testing.T, w *ecs.World, center, half mgl64.Vec3) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{Position: center}))
	require.NoError(t, ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Def: planar.BodyDef{
		Kind:        planar.Static,
		HalfExtents: half,
		Friction:    1,
	}}))
	return e
}

func (r *rig) run(n int) {
	for range n {
		r.sched.Update(r.w)
	}
}
