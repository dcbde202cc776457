package motion

import (
	"math"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/common"
	"github.com/milk9111/locomotion/physics"
	"go.uber.org/zap"
)

// Option configures a Controller.
type Option func(*Controller)

// WithConfig replaces the default tuning.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg.normalized()
	}
}

// WithLogger sets the logger used for state-change and command traces.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.log = common.OrNop(l)
	}
}

// Controller is a solver constraint driving one character body. Prepare
// evaluates the motion state once per step; Iterate applies corrective
// impulses once per solver iteration.
//
// The controller holds non-owning references to its world and body and must
// be removed from the solver before the body goes away.
type Controller struct {
	world physics.World
	body  physics.Body
	cfg   Config
	log   *zap.Logger

	state  State
	step   uint64
	target mgl64.Vec3

	// requests latched by commands, cleared when the state machine consumes them
	pendingJump  bool
	pendingClimb bool
	// armed by the Grounded->Jumping transition, cleared at the next step
	jumpArmed    bool

	walkingOn physics.Body
	normal    mgl64.Vec3
	depth     float64
	onLadder  bool
	feet      float64
	filter    physics.Filter

	listeners *orderedmap.OrderedMap[uint64, func(Transition)]
	nextID    uint64
}

// NewController builds a controller for body. The feet offset is measured
// once here from the body's support mapping along the down axis.
func NewController(world physics.World, body physics.Body, opts ...Option) *Controller {
	c := &Controller{
		world:     world,
		body:      body,
		cfg:       DefaultConfig().normalized(),
		log:       zap.NewNop(),
		depth:     math.Inf(1),
		listeners: orderedmap.NewOrderedMap[uint64, func(Transition)](),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.normal = c.cfg.Up
	c.filter = physics.Exclude(body, physics.TagGhost)

	down := c.cfg.Up.Mul(-1)
	localDown := body.Orientation().Conjugate().Rotate(down)
	c.feet = body.SupportPoint(localDown).Dot(localDown)
	return c
}

func (c *Controller) State() State { return c.state }

// BodyWalkingOn is the body under the feet, or nil when none is within WalkDepth.
func (c *Controller) BodyWalkingOn() physics.Body { return c.walkingOn }

// FeetPosition is the distance from the body origin to its lowest point along down.
func (c *Controller) FeetPosition() float64 { return c.feet }

// Feet returns the world-space point the probes are cast from.
func (c *Controller) Feet() mgl64.Vec3 {
	return c.probeOrigin()
}

// GroundDepth is the last ground-probe hit depth, +Inf after a miss.
func (c *Controller) GroundDepth() float64 { return c.depth }

// GroundNormal is the surface normal under the feet, or up after a miss.
func (c *Controller) GroundNormal() mgl64.Vec3 { return c.normal }

// OnLadder reports whether the forward probe hit something within LadderReach.
func (c *Controller) OnLadder() bool { return c.onLadder }

func (c *Controller) Body() physics.Body { return c.body }
func (c *Controller) Config() Config { return c.cfg }

// Steps counts state evaluations since construction.
func (c *Controller) Steps() uint64 { return c.step }

func (c *Controller) TargetVelocity() mgl64.Vec3 { return c.target }

// SetConfig swaps the tuning. The feet offset keeps its construction value.
func (c *Controller) SetConfig(cfg Config) {
	c.cfg = cfg.normalized()
}

func (c *Controller) SetTargetVelocity(v mgl64.Vec3) {
	c.target = v
}

// Jump latches a jump request for the next Grounded evaluation.
func (c *Controller) Jump() {
	c.pendingJump = true
}

// ClimbUp latches a climb request for the next Grounded evaluation.
func (c *Controller) ClimbUp() {
	c.pendingClimb = true
}

// ClimbOver is reserved. Obstacle vaulting has no motion of its own yet.
func (c *Controller) ClimbOver() {
	c.log.Debug("climb over requested", zap.Stringer("state", c.state))
}

// OnStateChanged registers fn for every transition. Listeners run in
// registration order. The returned func unsubscribes.
func (c *Controller) OnStateChanged(fn func(Transition)) func() {
	id := c.nextID
	c.nextID++
	c.listeners.Set(id, fn)
	return func() {
		c.listeners.Delete(id)
	}
}

func (c *Controller) down() mgl64.Vec3 {
	return c.cfg.Up.Mul(-1)
}

func (c *Controller) probeOrigin() mgl64.Vec3 {
	return c.body.Position().Add(c.down().Mul(c.feet - c.cfg.ProbeLift))
}

func (c *Controller) forward() mgl64.Vec3 {
	return common.UnitOr(c.body.Orientation().Rotate(c.cfg.Forward), c.cfg.Forward)
}

// Prepare runs once per step. It evaluates the state machine and notifies
// listeners of any transition.
func (c *Controller) Prepare(dt float64) {
	tr, changed := c.Update(dt)
	if !changed {
		return
	}
	for el := c.listeners.Front(); el != nil; el = el.Next() {
		el.Value(tr)
	}
}

// Update refreshes the ground and ladder probes and evaluates the
// transition table once. It reports the transition when the state changed.
func (c *Controller) Update(dt float64) (Transition, bool) {
	c.step++
	c.jumpArmed = false

	origin := c.probeOrigin()
	ladder, ladderHit := c.world.Raycast(origin, c.forward(), c.filter)
	c.onLadder = ladderHit && ladder.Depth <= c.cfg.LadderReach

	ground, groundHit := c.world.Raycast(origin, c.down(), c.filter)
	if groundHit {
		c.normal = common.UnitOr(ground.Normal, c.cfg.Up)
		c.depth = ground.Depth
	} else {
		c.normal = c.cfg.Up
		c.depth = math.Inf(1)
	}
	c.walkingOn = nil
	if groundHit && ground.Depth <= c.cfg.WalkDepth {
		c.walkingOn = ground.Body
	}

	prev := c.state
	c.state = c.next(prev)
	if c.state == prev {
		return Transition{}, false
	}
	tr := Transition{Previous: prev, Current: c.state, Step: c.step}
	c.log.Debug("motion state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", c.state),
		zap.Uint64("step", c.step),
		zap.Float64("depth", c.depth),
		zap.Float64("dt", dt),
	)
	return tr, true
}

func (c *Controller) next(s State) State {
	up := common.Vertical(c.body.Velocity(), c.cfg.Up)
	grounded := c.walkingOn != nil
	switch s {
	case Grounded:
		if grounded {
			if c.pendingClimb {
				c.pendingClimb = false
				return Climbing
			}
			if up < c.cfg.JumpVelocity && c.pendingJump {
				c.pendingJump = false
				c.jumpArmed = true
				return Jumping
			}
		} else if -up >= c.cfg.FallVelocity {
			return Falling
		}
	case Jumping:
		if -up >= c.cfg.FallVelocity {
			return Falling
		}
		if c.depth < c.cfg.LandDepth && up <= 0 {
			return Grounded
		}
	case Falling:
		if grounded && c.depth < c.cfg.LandDepth && up <= 0 {
			return Grounded
		}
	case Climbing:
		if !grounded && !c.onLadder {
			return Grounded
		}
	}
	return s
}

// Iterate runs once per solver iteration.
func (c *Controller) Iterate() {
	cfg := c.cfg
	mass := c.body.Mass()

	target := c.target
	if c.walkingOn != nil {
		target = target.Add(c.walkingOn.Velocity())
	}
	delta := common.Tangential(target.Sub(c.body.Velocity()), c.normal)
	if c.state.Airborne() {
		delta = delta.Mul(cfg.AirControl)
	} else {
		delta = delta.Mul(cfg.GroundControl)
	}
	if delta.LenSqr() > cfg.MinImpulse {
		c.body.ApplyImpulse(delta.Mul(mass))
	}

	switch c.state {
	case Grounded:
		if c.walkingOn == nil {
			break
		}
		v := c.body.Velocity()
		rel := v.Sub(c.walkingOn.Velocity()).Dot(c.normal)
		c.body.SetVelocity(v.Sub(c.normal.Mul(cfg.GroundDamping * rel)))
	case Falling:
		up := common.Vertical(c.body.Velocity(), cfg.Up)
		if math.Abs(up) <= cfg.FallVelocity {
			break
		}
		clamped := (up + math.Copysign(cfg.FallVelocity, up)) / 2
		c.body.ApplyImpulse(cfg.Up.Mul((clamped - up) * mass))
	case Jumping:
		if !c.jumpArmed {
			break
		}
		c.jumpArmed = false
		c.body.ApplyImpulse(cfg.Up.Mul(cfg.JumpVelocity * mass))
		c.log.Debug("jump impulse applied", zap.Uint64("step", c.step))
	case Climbing:
		up := common.Vertical(c.body.Velocity(), cfg.Up)
		factor := 0.0
		if l := c.target.Len(); l > common.Epsilon {
			factor = c.target.Dot(cfg.Up) / l
		}
		err := factor*cfg.ClimbVelocity - up
		c.body.ApplyImpulse(cfg.Up.Mul(cfg.ClimbGain * err * mass))
	}
}
