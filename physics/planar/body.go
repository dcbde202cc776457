package planar

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/locomotion/physics"
)

// Kind selects how a body takes part in the simulation.
type Kind uint8

const (
	Dynamic Kind = iota
	Static
	Kinematic
)

// BodyDef describes a body to add to a Space. Shapes are boxes unless Radius
// is positive. The Z components only feed Bounds and SupportPoint; collision
// happens in the X/Y plane.
type BodyDef struct {
	Kind        Kind
	Position    mgl64.Vec3
	HalfExtents mgl64.Vec3
	Radius      float64
	Mass        float64
	Friction    float64
	Elasticity  float64
	Tags        physics.Tag
	// Sensor shapes report overlaps to the solver but are never hit by rays.
	Sensor bool

	// Velocity is the initial velocity. Kinematic bodies keep it.
	Velocity mgl64.Vec3
	// Patrol makes a kinematic body reverse once it has travelled this far from its start.
	Patrol float64
	Yaw    float64
}

// Body is a physics.Body backed by a chipmunk body with a single shape.
type Body struct {
	space *Space
	body  *cp.Body
	shape *cp.Shape
	def   BodyDef

	yaw     float64
	yawRate float64
}

var _ physics.Body = (*Body)(nil)

func toCP(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: v.X(), Y: v.Y()}
}

func fromCP(v cp.Vector, z float64) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, z}
}

func (b *Body) Kind() Kind { return b.def.Kind }

// CP exposes the underlying chipmunk body.
func (b *Body) CP() *cp.Body { return b.body }

// Shape exposes the underlying chipmunk shape.
func (b *Body) Shape() *cp.Shape { return b.shape }

func (b *Body) Position() mgl64.Vec3 {
	return fromCP(b.body.Position(), b.def.Position.Z())
}

// Orientation combines the planar roll with the facing. Rays only travel in
// the X/Y plane, so the yaw picks between facing +X and -X.
func (b *Body) Orientation() mgl64.Quat {
	roll := mgl64.QuatRotate(b.body.Angle(), mgl64.Vec3{0, 0, 1})
	return roll.Mul(mgl64.QuatRotate(b.facing(), mgl64.Vec3{0, 1, 0}))
}

func (b *Body) facing() float64 {
	if math.Cos(b.yaw) < 0 {
		return math.Pi
	}
	return 0
}

// Yaw is the integrated heading about +Y, unsnapped.
func (b *Body) Yaw() float64 { return b.yaw }

// SetYaw turns the body to face the given heading about +Y.
func (b *Body) SetYaw(yaw float64) {
	b.yaw = yaw
}

func (b *Body) Velocity() mgl64.Vec3 {
	return fromCP(b.body.Velocity(), 0)
}

func (b *Body) SetVelocity(v mgl64.Vec3) {
	b.body.SetVelocityVector(toCP(v))
}

// SetAngularVelocity drives the yaw from the Y component. Spin in the plane
// is left to the solver.
func (b *Body) SetAngularVelocity(w mgl64.Vec3) {
	b.yawRate = w.Y()
}

func (b *Body) Mass() float64 {
	if b.def.Kind != Dynamic {
		return math.Inf(1)
	}
	return b.body.Mass()
}

func (b *Body) ApplyImpulse(impulse mgl64.Vec3) {
	if b.def.Kind != Dynamic {
		return
	}
	b.body.ApplyImpulseAtWorldPoint(toCP(impulse), b.body.Position())
}

func (b *Body) SupportPoint(dir mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	if b.def.Radius > 0 {
		planar := mgl64.Vec3{dir.X(), dir.Y(), 0}
		if l := planar.Len(); l > 0 {
			p = planar.Mul(b.def.Radius / l)
		}
	} else {
		for i := range 2 {
			switch {
			case dir[i] > 0:
				p[i] = b.def.HalfExtents[i]
			case dir[i] < 0:
				p[i] = -b.def.HalfExtents[i]
			}
		}
	}
	switch {
	case dir.Z() > 0:
		p[2] = b.def.HalfExtents.Z()
	case dir.Z() < 0:
		p[2] = -b.def.HalfExtents.Z()
	}
	return p
}

func (b *Body) Bounds() (mgl64.Vec3, mgl64.Vec3) {
	bb := b.shape.BB()
	z := b.def.Position.Z()
	hz := b.def.HalfExtents.Z()
	return mgl64.Vec3{bb.L, bb.B, z - hz}, mgl64.Vec3{bb.R, bb.T, z + hz}
}

func (b *Body) Tags() physics.Tag { return b.def.Tags }

func (b *Body) LockRotation() {
	if b.def.Kind != Dynamic {
		return
	}
	b.body.SetMoment(math.Inf(1))
	b.body.SetAngularVelocity(0)
	b.yawRate = 0
}

func (b *Body) SetSurface(friction, restitution float64) {
	b.shape.SetFriction(friction)
	b.shape.SetElasticity(restitution)
}

func (b *Body) Activate() {
	if b.def.Kind == Dynamic {
		b.body.Activate()
	}
}

// advance integrates yaw and reverses patrolling platforms.
func (b *Body) advance(dt float64) {
	if b.yawRate != 0 {
		b.yaw = math.Mod(b.yaw+b.yawRate*dt, 2*math.Pi)
	}
	if b.def.Kind != Kinematic || b.def.Patrol <= 0 {
		return
	}
	v := b.body.Velocity()
	travelled := b.body.Position().Sub(toCP(b.def.Position))
	if travelled.Length() >= b.def.Patrol && travelled.Dot(v) > 0 {
		b.body.SetVelocityVector(v.Neg())
	}
}
