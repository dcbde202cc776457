package planar

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/motion"
	"github.com/milk9111/locomotion/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func assertVecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, msgAndArgs...)
}

const dt = 1.0 / 60

var down = mgl64.Vec3{0, -1, 0}

func newTestSpace(t *testing.T) (*Space, *Body) {
	t.Helper()
	s := NewSpace(WithLogger(zaptest.NewLogger(t)))
	floor, err := s.AddBody(BodyDef{
		Kind:        Static,
		Position:    mgl64.Vec3{0, 0, 0},
		HalfExtents: mgl64.Vec3{20, 0.5, 1},
		Friction:    1,
	})
	require.NoError(t, err)
	return s, floor
}

type countingConstraint struct {
	prepares, iterates int
}

func (c *countingConstraint) Prepare(float64) { c.prepares++ }
func (c *countingConstraint) Iterate()        { c.iterates++ }

func TestAddBodyRejectsEmptyShape(t *testing.T) {
	s := NewSpace()
	_, err := s.AddBody(BodyDef{HalfExtents: mgl64.Vec3{1, 0, 1}})
	assert.Error(t, err)
	assert.Empty(t, s.Bodies())
}

func TestRaycast(t *testing.T) {
	s, floor := newTestSpace(t)
	ghost, err := s.AddBody(BodyDef{Kind: Static, Position: mgl64.Vec3{0, 2, 0}, HalfExtents: mgl64.Vec3{1, 0.5, 1}, Tags: physics.TagGhost})
	require.NoError(t, err)
	_, err = s.AddBody(BodyDef{Kind: Static, Position: mgl64.Vec3{0, 3.5, 0}, HalfExtents: mgl64.Vec3{1, 0.5, 1}, Sensor: true})
	require.NoError(t, err)

	hit, ok := s.Raycast(mgl64.Vec3{0, 5, 0}, down, nil)
	require.True(t, ok)
	assert.Same(t, ghost, hit.Body, "sensors are never hit")
	assert.InDelta(t, 2.5, hit.Depth, 1e-6)
	assertVecNear(t, mgl64.Vec3{0, 1, 0}, hit.Normal, 1e-6)

	hit, ok = s.Raycast(mgl64.Vec3{0, 5, 0}, down, physics.Exclude(nil, physics.TagGhost))
	require.True(t, ok)
	assert.Same(t, floor, hit.Body)
	assert.InDelta(t, 4.5, hit.Depth, 1e-6)

	hit, ok = s.Raycast(mgl64.Vec3{0, 5, 0}, down.Mul(2), physics.Exclude(nil, physics.TagGhost))
	require.True(t, ok)
	assert.InDelta(t, 2.25, hit.Depth, 1e-6)

	hit, ok = s.Raycast(mgl64.Vec3{0, 0.45, 0}, down, physics.Exclude(nil, physics.TagGhost))
	require.True(t, ok)
	assert.Same(t, floor, hit.Body)
	assert.Zero(t, hit.Depth)

	hit, ok = s.Raycast(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 1, 0}, nil)
	assert.False(t, ok)
	assert.True(t, math.IsInf(hit.Depth, 1))

	_, ok = s.Raycast(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{}, nil)
	assert.False(t, ok)
}

func TestConstraintBridge(t *testing.T) {
	s, _ := newTestSpace(t)
	box, err := s.AddBody(BodyDef{Position: mgl64.Vec3{0, 3, 0}, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}, Mass: 1})
	require.NoError(t, err)

	c := &countingConstraint{}
	s.AddConstraint(box, c)
	s.AddConstraint(box, c)
	require.Equal(t, 1, s.Constraints())

	s.Step(dt)
	assert.Equal(t, 1, c.prepares)
	assert.Equal(t, s.Iterations(), c.iterates)
	assert.Equal(t, 20, c.iterates)

	s.RemoveConstraint(c)
	s.RemoveConstraint(c)
	s.Step(dt)
	assert.Equal(t, 1, c.prepares)
	assert.Equal(t, 0, s.Constraints())
}

func TestConstraintRequiresOwnBody(t *testing.T) {
	s, _ := newTestSpace(t)
	other := NewSpace()
	foreign, err := other.AddBody(BodyDef{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})
	require.NoError(t, err)

	s.AddConstraint(foreign, &countingConstraint{})
	assert.Zero(t, s.Constraints())
}

func TestRemoveBodyDropsOwnedConstraints(t *testing.T) {
	s, _ := newTestSpace(t)
	box, err := s.AddBody(BodyDef{Position: mgl64.Vec3{0, 3, 0}, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})
	require.NoError(t, err)
	c := &countingConstraint{}
	s.AddConstraint(box, c)

	s.RemoveBody(box)
	s.Step(dt)

	assert.Zero(t, s.Constraints())
	assert.Zero(t, c.prepares)
	assert.Len(t, s.Bodies(), 1)
}

func TestBodyGeometry(t *testing.T) {
	s := NewSpace()
	box, err := s.AddBody(BodyDef{Position: mgl64.Vec3{2, 3, 1}, HalfExtents: mgl64.Vec3{0.5, 1, 0.25}})
	require.NoError(t, err)
	ball, err := s.AddBody(BodyDef{Position: mgl64.Vec3{0, 0, 0}, Radius: 0.5, HalfExtents: mgl64.Vec3{0, 0, 0.5}})
	require.NoError(t, err)

	lo, hi := box.Bounds()
	assertVecNear(t, mgl64.Vec3{1.5, 2, 0.75}, lo, 1e-9)
	assertVecNear(t, mgl64.Vec3{2.5, 4, 1.25}, hi, 1e-9)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, box.SupportPoint(down))
	assert.Equal(t, mgl64.Vec3{0.5, -1, -0.25}, box.SupportPoint(mgl64.Vec3{1, -1, -1}))
	assertVecNear(t, mgl64.Vec3{0, -0.5, 0}, ball.SupportPoint(down.Mul(2)), 1e-9)
	assert.Equal(t, mgl64.Vec3{2, 3, 1}, box.Position())
}

func TestYawFollowsAngularVelocity(t *testing.T) {
	s := NewSpace(WithGravity(0))
	b, err := s.AddBody(BodyDef{HalfExtents: mgl64.Vec3{0.5, 1, 0.5}})
	require.NoError(t, err)
	b.LockRotation()

	b.SetAngularVelocity(mgl64.Vec3{0, math.Pi, 0})
	s.Step(0.5)
	assert.InDelta(t, math.Pi/2, b.Yaw(), 1e-9)
	assertVecNear(t, mgl64.Vec3{1, 0, 0}, b.Orientation().Rotate(mgl64.Vec3{1, 0, 0}), 1e-9)

	s.Step(0.25)
	assert.InDelta(t, 3*math.Pi/4, b.Yaw(), 1e-9)
	assertVecNear(t, mgl64.Vec3{-1, 0, 0}, b.Orientation().Rotate(mgl64.Vec3{1, 0, 0}), 1e-9)
}

func TestFacingRayStaysInPlane(t *testing.T) {
	tests := []struct {
		name string
		yaw  float64
		wall float64
	}{
		{"ahead", 0, 2},
		{"quarter_turn", math.Pi / 2, 2},
		{"past_quarter_turn", 2, -2},
		{"behind", math.Pi, -2},
		{"negative_quarter_turn", -math.Pi / 2, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSpace(WithGravity(0))
			wall, err := s.AddBody(BodyDef{Kind: Static, Position: mgl64.Vec3{tc.wall, 0, 0}, HalfExtents: mgl64.Vec3{0.5, 2, 1}})
			require.NoError(t, err)
			b, err := s.AddBody(BodyDef{HalfExtents: mgl64.Vec3{0.4, 0.9, 0.4}, Yaw: tc.yaw})
			require.NoError(t, err)

			forward := b.Orientation().Rotate(mgl64.Vec3{1, 0, 0})
			hit, ok := s.Raycast(b.Position(), forward, physics.Exclude(b, 0))
			require.True(t, ok, "forward %v", forward)
			assert.Same(t, wall, hit.Body)
			assert.InDelta(t, 1.5, hit.Depth, 1e-6)
		})
	}
}

func TestKinematicPatrol(t *testing.T) {
	s := NewSpace()
	p, err := s.AddBody(BodyDef{
		Kind:        Kinematic,
		HalfExtents: mgl64.Vec3{1, 0.25, 1},
		Velocity:    mgl64.Vec3{1, 0, 0},
		Patrol:      1,
		Tags:        physics.TagPlatform,
	})
	require.NoError(t, err)
	assert.True(t, math.IsInf(p.Mass(), 1))

	p.ApplyImpulse(mgl64.Vec3{100, 0, 0})
	for range 90 {
		s.Step(dt)
	}

	assert.Less(t, p.Velocity().X(), 0.0)
	assert.LessOrEqual(t, p.Position().X(), 1.1)
	assert.Zero(t, p.Position().Y())
}

func TestCharacterLandsOnFloor(t *testing.T) {
	s, floor := newTestSpace(t)
	character, err := s.AddBody(BodyDef{
		Position:    mgl64.Vec3{0, 4, 0},
		HalfExtents: mgl64.Vec3{0.5, 1, 0.5},
		Mass:        1,
		Friction:    0.8,
		Tags:        physics.TagCharacter,
	})
	require.NoError(t, err)

	a := motion.NewAdapter(nil, motion.WithAdapterLogger(zaptest.NewLogger(t)))
	var seen []motion.State
	a.OnStateChanged(func(tr motion.Transition) { seen = append(seen, tr.Current) })
	a.Attach(s, character)

	for range 240 {
		s.Step(dt)
	}

	assert.Equal(t, motion.Grounded, a.State())
	assert.Same(t, floor, a.Controller().BodyWalkingOn())
	assert.Equal(t, []motion.State{motion.Falling, motion.Grounded}, seen)
	assert.InDelta(t, 1.5, character.Position().Y(), 0.15)
	assert.InDelta(t, 0, character.Position().X(), 1e-6)

	a.Detach()
	assert.Zero(t, s.Constraints())
}

func TestCharacterWalksAndJumps(t *testing.T) {
	s, _ := newTestSpace(t)
	character, err := s.AddBody(BodyDef{
		Position:    mgl64.Vec3{0, 1.5, 0},
		HalfExtents: mgl64.Vec3{0.5, 1, 0.5},
		Mass:        2,
		Tags:        physics.TagCharacter,
	})
	require.NoError(t, err)
	a := motion.NewAdapter(nil)
	a.Attach(s, character)
	for range 30 {
		s.Step(dt)
	}
	require.Equal(t, motion.Grounded, a.State())

	a.SetTargetVelocity(mgl64.Vec3{2, 0, 0})
	for range 120 {
		s.Step(dt)
	}
	assert.InDelta(t, 2, character.Velocity().X(), 0.1)
	assert.Equal(t, motion.Grounded, a.State())

	require.True(t, a.Jump())
	s.Step(dt)
	assert.Equal(t, motion.Jumping, a.State())
	assert.Greater(t, character.Velocity().Y(), 4.0)

	peak := 0.0
	for range 120 {
		s.Step(dt)
		peak = math.Max(peak, character.Position().Y())
	}
	assert.Greater(t, peak, 2.2)
	assert.Equal(t, motion.Grounded, a.State())
}
