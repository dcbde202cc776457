// Package physics declares the rigid-body collaborator contract the
// locomotion code runs against. Implementations live in subpackages.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Tag is a bitmask of body classifications used by query filters.
type Tag uint32

const (
	// TagGhost marks bodies that never count as solid for probes.
	TagGhost Tag = 1 << iota
	// TagCharacter marks bodies driven by a motion controller.
	TagCharacter
	// TagLadder marks climbable geometry.
	TagLadder
	// TagPlatform marks kinematic moving platforms.
	TagPlatform
)

// Has reports whether all bits of o are set on t.
func (t Tag) Has(o Tag) bool {
	return t&o == o
}

// Body is the subset of a simulated rigid body the controller touches.
// Implementations own the body; holders keep non-owning references.
type Body interface {
	Position() mgl64.Vec3
	Orientation() mgl64.Quat
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	SetAngularVelocity(w mgl64.Vec3)
	Mass() float64
	ApplyImpulse(impulse mgl64.Vec3)
	// SupportPoint returns the farthest point of the body's shape along a
	// body-local direction, in body-local coordinates.
	SupportPoint(dir mgl64.Vec3) mgl64.Vec3
	Bounds() (min, max mgl64.Vec3)
	Tags() Tag
	// LockRotation zeroes the rotational inertia response on every axis.
	LockRotation()
	SetSurface(friction, restitution float64)
	Activate()
}

// RayHit is the nearest accepted body along a ray. Depth is measured in
// multiples of the ray direction's length from the origin.
type RayHit struct {
	Body   Body
	Normal mgl64.Vec3
	Depth  float64
}

// Miss is the RayHit reported for an empty query.
var Miss = RayHit{Depth: math.Inf(1)}

// Filter decides whether a candidate hit may be reported.
type Filter func(b Body, normal mgl64.Vec3, depth float64) bool

// Raycaster answers synchronous ray queries against the current collision state.
type Raycaster interface {
	Raycast(origin, direction mgl64.Vec3, filter Filter) (RayHit, bool)
}

// Constraint is a per-step solver participant: Prepare runs once per step,
// Iterate runs once per solver iteration inside the same step.
type Constraint interface {
	Prepare(dt float64)
	Iterate()
}

// Solver owns the constraint set.
type Solver interface {
	AddConstraint(owner Body, c Constraint)
	RemoveConstraint(c Constraint)
	Iterations() int
}

// World is what a controller needs from the physics engine.
type World interface {
	Raycaster
	Solver
}

// Exclude builds a filter rejecting the given body and any body carrying one of the tags.
func Exclude(self Body, tags Tag) Filter {
	return func(b Body, _ mgl64.Vec3, _ float64) bool {
		if b == nil || b == self {
			return false
		}
		return b.Tags()&tags == 0
	}
}
