package system

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/motion"
	"github.com/milk9111/locomotion/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transitions(w *ecs.World, e ecs.Entity) []motion.State {
	var out []motion.State
	for _, ev := range w.Events().Drain() {
		if ev.Type != EventMotionStateChanged || ev.Entity != e {
			continue
		}
		out = append(out, ev.Data.(motion.Transition).Current)
	}
	return out
}

func TestMotionAttachesAndLands(t *testing.T) {
	r := newRigAt(t, mgl64.Vec3{0, 6, 0})
	r.run(180)

	m, ok := ecs.Get(r.w, r.character, component.MotionComponent.Kind())
	require.True(t, ok)
	require.NotNil(t, m.Adapter)
	assert.True(t, m.Adapter.Attached())
	assert.Equal(t, 1, r.physics.Space().Constraints())

	assert.Equal(t, []motion.State{motion.Falling, motion.Grounded}, transitions(r.w, r.character))

	fc, ok := ecs.Get(r.w, r.character, component.FloorContactComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, motion.Grounded, fc.State)
	assert.Equal(t, terrain.Grass, fc.Material)
	assert.True(t, fc.Grounded)

	tr, _ := ecs.Get(r.w, r.character, component.TransformComponent.Kind())
	assert.InDelta(t, 0.9, tr.Position.Y(), 0.15)
}

func TestMotionForwardsInput(t *testing.T) {
	r := newRig(t)
	r.run(60)
	r.w.Events().Drain()

	in, ok := ecs.Get(r.w, r.character, component.InputComponent.Kind())
	require.True(t, ok)
	in.Move = mgl64.Vec3{2, 0, 0}
	r.run(120)

	body, _ := ecs.Get(r.w, r.character, component.PhysicsBodyComponent.Kind())
	assert.InDelta(t, 2, body.Body.Velocity().X(), 0.15)

	r.w.Events().Drain()
	in.Jump = true
	r.run(1)
	assert.False(t, in.Jump)
	assert.Equal(t, []motion.State{motion.Jumping}, transitions(r.w, r.character))

	m, _ := ecs.Get(r.w, r.character, component.MotionComponent.Kind())
	assert.Positive(t, m.Adapter.JumpCooldown())
}

func TestMotionShortDropStaysGrounded(t *testing.T) {
	r := newRig(t)
	r.run(90)

	assert.Empty(t, transitions(r.w, r.character))
	fc, ok := ecs.Get(r.w, r.character, component.FloorContactComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, motion.Grounded, fc.State)
	assert.True(t, fc.Grounded)
}

func TestMotionClimbsLadderFromInput(t *testing.T) {
	tests := []struct {
		name string
		yaw  float64
	}{
		{"facing_ladder", 0},
		{"turned_quarter", math.Pi / 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t)
			addStatic(t, r.w, mgl64.Vec3{0.72, 3, 0}, mgl64.Vec3{0.3, 3, 1})
			tr, _ := ecs.Get(r.w, r.character, component.TransformComponent.Kind())
			tr.Yaw = tc.yaw
			r.run(60)
			startY := tr.Position.Y()
			r.w.Events().Drain()

			in, _ := ecs.Get(r.w, r.character, component.InputComponent.Kind())
			in.Move = mgl64.Vec3{0, 4, 0}
			in.ClimbUp = true
			r.run(120)

			m, _ := ecs.Get(r.w, r.character, component.MotionComponent.Kind())
			assert.True(t, m.Adapter.Controller().OnLadder())
			assert.Equal(t, motion.Climbing, m.Adapter.State())
			assert.Equal(t, []motion.State{motion.Climbing}, transitions(r.w, r.character))
			assert.Greater(t, tr.Position.Y()-startY, 1.0)
		})
	}
}

func TestMotionForwardsTurn(t *testing.T) {
	r := newRig(t)
	r.run(30)

	in, _ := ecs.Get(r.w, r.character, component.InputComponent.Kind())
	in.Turn = 1
	r.run(30)

	tr, _ := ecs.Get(r.w, r.character, component.TransformComponent.Kind())
	assert.InDelta(t, 0.5, tr.Yaw, 0.02)
}

func TestMotionDetaches(t *testing.T) {
	cases := []struct {
		name   string
		detach func(r *rig)
		bodies int
	}{
		{"pending_destroy", func(r *rig) {
			_ = ecs.Add(r.w, r.character, component.PendingDestroyComponent.Kind(), &component.PendingDestroy{})
		}, 1},
		{"motion_removed", func(r *rig) { ecs.Remove(r.w, r.character, component.MotionComponent.Kind()) }, 2},
		{"destroyed", func(r *rig) { ecs.DestroyEntity(r.w, r.character) }, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t)
			r.run(5)
			m, _ := ecs.Get(r.w, r.character, component.MotionComponent.Kind())
			adapter := m.Adapter
			require.True(t, adapter.Attached())

			tc.detach(r)
			r.run(1)

			assert.False(t, adapter.Attached())
			assert.Zero(t, r.physics.Space().Constraints())
			assert.Len(t, r.physics.Space().Bodies(), tc.bodies)
			assert.Empty(t, r.motion.attached)
		})
	}
}

func TestMotionReload(t *testing.T) {
	r := newRig(t)
	r.run(5)
	m, _ := ecs.Get(r.w, r.character, component.MotionComponent.Kind())
	ctrl := m.Adapter.Controller()

	m.Config.JumpVelocity = 7
	m.AdapterConfig.JumpCooldown = 0.25
	m.Reload = true
	r.run(1)

	assert.False(t, m.Reload)
	assert.Equal(t, 7.0, ctrl.Config().JumpVelocity)
	assert.Equal(t, 0.25, m.Adapter.Config().JumpCooldown)

	m.Config.FallVelocity = -1
	m.Reload = true
	r.run(1)

	assert.Equal(t, 5.0, ctrl.Config().FallVelocity)
	assert.Equal(t, 5.0, m.Config.FallVelocity)
}

func TestMotionWithoutTerrain(t *testing.T) {
	r := newRig(t)
	terr, ok := r.w.First(component.TerrainComponent.Kind())
	require.True(t, ok)
	ecs.DestroyEntity(r.w, terr)

	r.run(90)

	fc, ok := ecs.Get(r.w, r.character, component.FloorContactComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, motion.Grounded, fc.State)
	assert.Equal(t, terrain.None, fc.Material)
}
