// Package physicstest provides scripted stand-ins for the physics
// collaborator so controller behavior can be asserted exactly.
package physicstest

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/physics"
)

// Body is an in-memory physics.Body. Impulses are applied to Vel immediately
// and also recorded in order.
type Body struct {
	Pos         mgl64.Vec3
	Rot         mgl64.Quat
	Vel         mgl64.Vec3
	AngVel      mgl64.Vec3
	MassValue   float64
	HalfExtents mgl64.Vec3
	TagBits     physics.Tag

	Impulses    []mgl64.Vec3
	Locked      bool
	Friction    float64
	Restitution float64
	Wakes       int
}

// NewBody returns a unit-mass box body with the given half extents at the origin.
func NewBody(halfExtents mgl64.Vec3) *Body {
	return &Body{
		Rot:         mgl64.QuatIdent(),
		MassValue:   1,
		HalfExtents: halfExtents,
		Friction:    0.8,
		Restitution: 0.2,
	}
}

func (b *Body) Position() mgl64.Vec3 { return b.Pos }
func (b *Body) Orientation() mgl64.Quat { return b.Rot }
func (b *Body) Velocity() mgl64.Vec3 { return b.Vel }
func (b *Body) SetVelocity(v mgl64.Vec3) { b.Vel = v }
func (b *Body) SetAngularVelocity(w mgl64.Vec3) { b.AngVel = w }
func (b *Body) Mass() float64 { return b.MassValue }
func (b *Body) Tags() physics.Tag { return b.TagBits }
func (b *Body) LockRotation() { b.Locked = true }
func (b *Body) Activate() { b.Wakes++ }

func (b *Body) SetSurface(friction, restitution float64) {
	b.Friction = friction
	b.Restitution = restitution
}

func (b *Body) ApplyImpulse(impulse mgl64.Vec3) {
	b.Impulses = append(b.Impulses, impulse)
	if b.MassValue > 0 {
		b.Vel = b.Vel.Add(impulse.Mul(1 / b.MassValue))
	}
}

func (b *Body) SupportPoint(dir mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	for i := range 3 {
		switch {
		case dir[i] > 0:
			p[i] = b.HalfExtents[i]
		case dir[i] < 0:
			p[i] = -b.HalfExtents[i]
		}
	}
	return p
}

func (b *Body) Bounds() (mgl64.Vec3, mgl64.Vec3) {
	return b.Pos.Sub(b.HalfExtents), b.Pos.Add(b.HalfExtents)
}

// ResetImpulses forgets recorded impulses.
func (b *Body) ResetImpulses() {
	b.Impulses = nil
}

// Cast records one Raycast call.
type Cast struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

type scripted struct {
	dir mgl64.Vec3
	hit physics.RayHit
}

// World is a scripted physics.World. Ray results are keyed by direction;
// the solver loop mirrors a fixed-step engine: prepare, gravity, iterations.
type World struct {
	IterationCount int
	Gravity        mgl64.Vec3
	Bodies         []*Body

	Casts       []Cast
	Constraints []physics.Constraint
	Owners      []physics.Body

	hits []scripted
}

// NewWorld returns a world running the given number of iterations per step.
func NewWorld(iterations int) *World {
	return &World{IterationCount: iterations}
}

// SetHit scripts the result for rays cast along dir. Several hits may share a
// direction; the filter chooses among them and the shallowest one wins.
func (w *World) SetHit(dir mgl64.Vec3, hit physics.RayHit) {
	w.hits = append(w.hits, scripted{dir: dir.Normalize(), hit: hit})
}

// ClearHits removes scripted results along dir.
func (w *World) ClearHits(dir mgl64.Vec3) {
	n := dir.Normalize()
	kept := w.hits[:0]
	for _, h := range w.hits {
		if !h.dir.ApproxEqual(n) {
			kept = append(kept, h)
		}
	}
	w.hits = kept
}

func (w *World) Raycast(origin, direction mgl64.Vec3, filter physics.Filter) (physics.RayHit, bool) {
	w.Casts = append(w.Casts, Cast{Origin: origin, Direction: direction})
	n := direction.Normalize()
	best := physics.Miss
	found := false
	for _, h := range w.hits {
		if !h.dir.ApproxEqual(n) {
			continue
		}
		if filter != nil && !filter(h.hit.Body, h.hit.Normal, h.hit.Depth) {
			continue
		}
		if !found || h.hit.Depth < best.Depth {
			best = h.hit
			found = true
		}
	}
	return best, found
}

func (w *World) AddConstraint(owner physics.Body, c physics.Constraint) {
	w.Constraints = append(w.Constraints, c)
	w.Owners = append(w.Owners, owner)
}

func (w *World) RemoveConstraint(c physics.Constraint) {
	for i, existing := range w.Constraints {
		if existing == c {
			w.Constraints = append(w.Constraints[:i], w.Constraints[i+1:]...)
			w.Owners = append(w.Owners[:i], w.Owners[i+1:]...)
			return
		}
	}
}

func (w *World) Iterations() int {
	return w.IterationCount
}

// Step runs one fixed step over every registered constraint.
func (w *World) Step(dt float64) {
	for _, c := range w.Constraints {
		c.Prepare(dt)
	}
	for _, b := range w.Bodies {
		b.Vel = b.Vel.Add(w.Gravity.Mul(dt))
	}
	for range w.IterationCount {
		for _, c := range w.Constraints {
			c.Iterate()
		}
	}
	for _, b := range w.Bodies {
		b.Pos = b.Pos.Add(b.Vel.Mul(dt))
	}
}
