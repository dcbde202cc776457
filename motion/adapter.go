package motion

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/common"
	"github.com/milk9111/locomotion/physics"
	"github.com/milk9111/locomotion/terrain"
	"go.uber.org/zap"
)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

func WithAdapterConfig(cfg AdapterConfig) AdapterOption {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithControllerOptions are passed to every controller the adapter builds.
func WithControllerOptions(opts ...Option) AdapterOption {
	return func(a *Adapter) {
		a.ctrlOpts = append(a.ctrlOpts, opts...)
	}
}

func WithAdapterLogger(l *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		a.log = common.OrNop(l)
	}
}

// Adapter is the entity-facing side of a character: it owns one Controller
// per attached body, gates jumps behind a cooldown and samples terrain.
type Adapter struct {
	surface  terrain.Surface
	cfg      AdapterConfig
	ctrlOpts []Option
	log      *zap.Logger

	world physics.World
	body  physics.Body
	ctrl  *Controller
	unsub func()

	cooldown  float64
	listeners *orderedmap.OrderedMap[uint64, func(Transition)]
	nextID    uint64
}

// NewAdapter returns a detached adapter. A nil surface disables floor and
// ladder sampling.
func NewAdapter(surface terrain.Surface, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		surface:   surface,
		cfg:       DefaultAdapterConfig(),
		log:       zap.NewNop(),
		listeners: orderedmap.NewOrderedMap[uint64, func(Transition)](),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach prepares body for controller-driven motion and registers a new
// controller with world's solver. Any previous controller is detached first.
func (a *Adapter) Attach(world physics.World, body physics.Body) {
	a.Detach()

	body.LockRotation()
	body.SetSurface(0, 0)

	a.world = world
	a.body = body
	a.ctrl = NewController(world, body, a.ctrlOpts...)
	a.unsub = a.ctrl.OnStateChanged(a.broadcast)
	world.AddConstraint(body, a.ctrl)

	a.log.Info("motion attached",
		zap.Float64("feet", a.ctrl.FeetPosition()),
		zap.Int("iterations", world.Iterations()),
	)
}

// Detach removes the controller from the solver. It must run before the body
// leaves the world; calling it while detached does nothing.
func (a *Adapter) Detach() {
	if a.ctrl == nil {
		return
	}
	a.world.RemoveConstraint(a.ctrl)
	a.unsub()
	a.log.Info("motion detached", zap.Stringer("state", a.ctrl.State()))
	a.world, a.body, a.ctrl, a.unsub = nil, nil, nil, nil
	a.cooldown = 0
}

func (a *Adapter) Attached() bool { return a.ctrl != nil }

// Controller returns the active controller, or nil while detached.
func (a *Adapter) Controller() *Controller { return a.ctrl }

// State reports the controller state. A detached adapter reports Grounded.
func (a *Adapter) State() State {
	if a.ctrl == nil {
		return Grounded
	}
	return a.ctrl.State()
}

func (a *Adapter) Config() AdapterConfig { return a.cfg }

func (a *Adapter) SetConfig(cfg AdapterConfig) {
	a.cfg = cfg
}

// OnStateChanged subscribes fn to transitions of the current and any future
// controller. The returned func unsubscribes.
func (a *Adapter) OnStateChanged(fn func(Transition)) func() {
	id := a.nextID
	a.nextID++
	a.listeners.Set(id, fn)
	return func() {
		a.listeners.Delete(id)
	}
}

func (a *Adapter) broadcast(tr Transition) {
	for el := a.listeners.Front(); el != nil; el = el.Next() {
		el.Value(tr)
	}
}

func (a *Adapter) SetTargetVelocity(v mgl64.Vec3) {
	if a.ctrl == nil {
		return
	}
	a.body.Activate()
	a.ctrl.SetTargetVelocity(v)
}

// Jump forwards a jump request unless one was accepted within the cooldown.
// It reports whether the request was forwarded.
func (a *Adapter) Jump() bool {
	if a.ctrl == nil {
		return false
	}
	a.body.Activate()
	if a.cooldown > 0 {
		return false
	}
	a.cooldown = a.cfg.JumpCooldown
	a.ctrl.Jump()
	return true
}

func (a *Adapter) ClimbUp() {
	if a.ctrl != nil {
		a.ctrl.ClimbUp()
	}
}

func (a *Adapter) ClimbOver() {
	if a.ctrl != nil {
		a.ctrl.ClimbOver()
	}
}

func (a *Adapter) SetAngularVelocity(w mgl64.Vec3) {
	if a.body == nil {
		return
	}
	a.body.Activate()
	a.body.SetAngularVelocity(w)
}

// JumpCooldown is the simulated time left before another jump is accepted.
func (a *Adapter) JumpCooldown() float64 { return a.cooldown }

// FloorMaterial samples the terrain under the feet. It is None unless the
// character is Grounded on a body.
func (a *Adapter) FloorMaterial() terrain.Material {
	if a.ctrl == nil || a.surface == nil {
		return terrain.None
	}
	if a.ctrl.State() != Grounded || a.ctrl.BodyWalkingOn() == nil {
		return terrain.None
	}
	return a.surface.MaterialAt(a.ctrl.Feet(), a.ctrl.down())
}

// Update runs once per game tick, outside the solver step. It decays the jump
// cooldown and turns ladder and obstacle contact into climb requests.
func (a *Adapter) Update(dt float64) {
	if a.cooldown > 0 {
		a.cooldown -= dt
		if a.cooldown < 0 {
			a.cooldown = 0
		}
	}
	if a.ctrl == nil || a.surface == nil {
		return
	}
	lo, hi := a.body.Bounds()
	if !a.surface.Overlaps(lo, hi) {
		return
	}
	switch m := a.surface.MaterialAt(a.body.Position(), a.ctrl.forward()); {
	case m.Climbable():
		a.ctrl.ClimbUp()
	case m == terrain.Obstacle:
		a.ctrl.ClimbOver()
	}
}
