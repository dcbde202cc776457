// Package planar runs the physics collaborator on chipmunk. World vectors are
// three dimensional with +Y up; the simulation happens in the X/Y plane and Z
// only feeds bounds and support queries.
package planar

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/locomotion/common"
	"github.com/milk9111/locomotion/physics"
	"go.uber.org/zap"
)

const (
	defaultIterations = 20
	defaultMaxRay     = 50.0
	defaultRayBackoff = 0.25
	defaultMass       = 1.0
)

// Option configures a Space.
type Option func(*Space)

// WithGravity sets the downward acceleration.
func WithGravity(g float64) Option {
	return func(s *Space) {
		s.space.SetGravity(cp.Vector{X: 0, Y: -g})
	}
}

func WithIterations(n int) Option {
	return func(s *Space) {
		if n > 0 {
			s.space.Iterations = uint(n)
		}
	}
}

// WithMaxRayDistance bounds every raycast.
func WithMaxRayDistance(d float64) Option {
	return func(s *Space) {
		if d > 0 {
			s.maxRay = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Space) {
		s.log = common.OrNop(l)
	}
}

// Space owns a chipmunk space and the bodies added through it.
type Space struct {
	space   *cp.Space
	bodies  []*Body
	bridges map[physics.Constraint]*cp.Constraint
	owners  map[physics.Constraint]*Body

	maxRay  float64
	backoff float64
	log     *zap.Logger
}

var _ physics.World = (*Space)(nil)

func NewSpace(opts ...Option) *Space {
	space := cp.NewSpace()
	space.Iterations = defaultIterations
	space.SetGravity(cp.Vector{X: 0, Y: -common.Gravity})
	s := &Space{
		space:   space,
		bridges: make(map[physics.Constraint]*cp.Constraint),
		owners:  make(map[physics.Constraint]*Body),
		maxRay:  defaultMaxRay,
		backoff: defaultRayBackoff,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CP exposes the chipmunk space for debug drawing.
func (s *Space) CP() *cp.Space {
	if s == nil {
		return nil
	}
	return s.space
}

// Bodies returns the live bodies in insertion order.
func (s *Space) Bodies() []*Body {
	return s.bodies
}

func (s *Space) Iterations() int {
	return int(s.space.Iterations)
}

// AddBody creates a body and its shape from def.
func (s *Space) AddBody(def BodyDef) (*Body, error) {
	if def.Radius <= 0 && (def.HalfExtents.X() <= 0 || def.HalfExtents.Y() <= 0) {
		return nil, fmt.Errorf("planar: add body: needs a radius or positive half extents, got %v", def.HalfExtents)
	}

	var body *cp.Body
	switch def.Kind {
	case Static:
		body = cp.NewStaticBody()
	case Kinematic:
		body = cp.NewKinematicBody()
	default:
		mass := def.Mass
		if mass <= 0 {
			mass = defaultMass
		}
		var moment float64
		if def.Radius > 0 {
			moment = cp.MomentForCircle(mass, 0, def.Radius, cp.Vector{})
		} else {
			moment = cp.MomentForBox(mass, 2*def.HalfExtents.X(), 2*def.HalfExtents.Y())
		}
		body = cp.NewBody(mass, moment)
	}
	body.SetPosition(toCP(def.Position))
	if def.Kind != Static {
		body.SetVelocityVector(toCP(def.Velocity))
	}

	var shape *cp.Shape
	if def.Radius > 0 {
		shape = cp.NewCircle(body, def.Radius, cp.Vector{})
	} else {
		shape = cp.NewBox(body, 2*def.HalfExtents.X(), 2*def.HalfExtents.Y(), 0)
	}
	shape.SetFriction(def.Friction)
	shape.SetElasticity(def.Elasticity)
	shape.SetSensor(def.Sensor)

	b := &Body{space: s, body: body, shape: shape, def: def, yaw: def.Yaw}
	body.UserData = b
	shape.UserData = b

	s.space.AddBody(body)
	s.space.AddShape(shape)
	s.bodies = append(s.bodies, b)
	return b, nil
}

// RemoveBody takes b out of the space. Constraints still owned by b are
// removed first.
func (s *Space) RemoveBody(b *Body) {
	if b == nil || b.space != s {
		return
	}
	for c, owner := range s.owners {
		if owner == b {
			s.log.Warn("removing body with a live constraint")
			s.RemoveConstraint(c)
		}
	}
	s.space.RemoveShape(b.shape)
	s.space.RemoveBody(b.body)
	for i, existing := range s.bodies {
		if existing == b {
			s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
			break
		}
	}
	b.space = nil
}

// Step advances the simulation by dt.
func (s *Space) Step(dt float64) {
	for _, b := range s.bodies {
		b.advance(dt)
	}
	s.space.Step(dt)
}

// Raycast reports the nearest body accepted by filter along direction, up to
// the configured ray distance. Depth is in multiples of direction's length.
// The query starts slightly behind origin so an origin resting inside a
// surface still reports it, at depth zero.
func (s *Space) Raycast(origin, direction mgl64.Vec3, filter physics.Filter) (physics.RayHit, bool) {
	length := direction.Len()
	if length < common.Epsilon {
		return physics.Miss, false
	}
	dir := direction.Mul(1 / length)
	start := origin.Sub(dir.Mul(s.backoff))
	end := origin.Add(dir.Mul(s.maxRay))
	span := s.backoff + s.maxRay

	best := physics.Miss
	found := false
	s.space.SegmentQuery(toCP(start), toCP(end), 0, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, point, normal cp.Vector, alpha float64, data interface{}) {
		b, ok := shape.UserData.(*Body)
		if !ok || b.def.Sensor {
			return
		}
		depth := math.Max(alpha*span-s.backoff, 0) / length
		n := fromCP(normal, 0)
		if filter != nil && !filter(b, n, depth) {
			return
		}
		if found && depth >= best.Depth {
			return
		}
		best = physics.RayHit{Body: b, Normal: n, Depth: depth}
		found = true
	}, nil)
	return best, found
}
