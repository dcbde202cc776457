package system

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/common"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/motion"
	"github.com/milk9111/locomotion/physics"
	"github.com/milk9111/locomotion/physics/planar"
	"github.com/milk9111/locomotion/terrain"
	"go.uber.org/zap"
)

// EventMotionStateChanged carries a motion.Transition in Event.Data.
const EventMotionStateChanged = "motion_state_changed"

type MotionOption func(*MotionSystem)

func WithMotionStep(dt float64) MotionOption {
	return func(ms *MotionSystem) {
		if dt > 0 {
			ms.dt = dt
		}
	}
}

func WithMotionLogger(l *zap.Logger) MotionOption {
	return func(ms *MotionSystem) {
		ms.log = common.OrNop(l)
	}
}

type attachment struct {
	adapter *motion.Adapter
	body    *planar.Body
}

// MotionSystem binds Motion components to solver bodies and feeds Input
// intents into their adapters. It must run before PhysicsSystem in the
// schedule so intents reach the controller ahead of the step.
type MotionSystem struct {
	world physics.World
	dt    float64
	log   *zap.Logger

	attached map[ecs.Entity]attachment
}

func NewMotionSystem(world physics.World, opts ...MotionOption) *MotionSystem {
	ms := &MotionSystem{
		world:    world,
		dt:       DefaultStep,
		log:      zap.NewNop(),
		attached: make(map[ecs.Entity]attachment),
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

func (ms *MotionSystem) Update(w *ecs.World) {
	if ms == nil || w == nil || ms.world == nil {
		return
	}

	ms.detachStale(w)

	surface := ms.surface(w)
	for _, e := range w.Query(component.MotionComponent.Kind(), component.PhysicsBodyComponent.Kind()) {
		if ecs.Has(w, e, component.PendingDestroyComponent.Kind()) {
			continue
		}
		m, _ := ecs.Get(w, e, component.MotionComponent.Kind())
		pb, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		if pb.Body == nil {
			continue
		}

		if m.Adapter == nil {
			m.Adapter = ms.newAdapter(w, e, m, surface)
		}
		if at, ok := ms.attached[e]; !ok || at.body != pb.Body || !m.Adapter.Attached() {
			m.Adapter.Attach(ms.world, pb.Body)
			ms.attached[e] = attachment{adapter: m.Adapter, body: pb.Body}
		}
		if m.Reload {
			ms.reload(e, m)
		}

		if in, ok := ecs.Get(w, e, component.InputComponent.Kind()); ok {
			forwardInput(m.Adapter, in)
		}
		m.Adapter.Update(ms.dt)
		ms.publish(w, e, m.Adapter)
	}
}

// detachStale releases adapters whose entity is dead, pending destroy, or no
// longer carries Motion or a body.
func (ms *MotionSystem) detachStale(w *ecs.World) {
	stale := make([]ecs.Entity, 0)
	for e, at := range ms.attached {
		if !w.IsAlive(e) || ecs.Has(w, e, component.PendingDestroyComponent.Kind()) {
			stale = append(stale, e)
			continue
		}
		m, ok := ecs.Get(w, e, component.MotionComponent.Kind())
		pb, hasBody := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		if !ok || m.Adapter != at.adapter || !hasBody || pb.Body != at.body {
			stale = append(stale, e)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	for _, e := range stale {
		ms.attached[e].adapter.Detach()
		delete(ms.attached, e)
	}
}

func (ms *MotionSystem) surface(w *ecs.World) terrain.Surface {
	e, ok := w.First(component.TerrainComponent.Kind())
	if !ok {
		return nil
	}
	t, ok := ecs.Get(w, e, component.TerrainComponent.Kind())
	if !ok || t.Index == nil {
		return nil
	}
	return t.Index
}

func (ms *MotionSystem) newAdapter(w *ecs.World, e ecs.Entity, m *component.Motion, surface terrain.Surface) *motion.Adapter {
	log := ms.log.With(zap.Stringer("entity", e))
	cfg := m.Config
	if err := cfg.Validate(); err != nil {
		log.Warn("invalid motion config, using defaults", zap.Error(err))
		cfg = motion.DefaultConfig()
		m.Config = cfg
	}
	a := motion.NewAdapter(surface,
		motion.WithAdapterConfig(m.AdapterConfig),
		motion.WithAdapterLogger(log),
		motion.WithControllerOptions(motion.WithConfig(cfg), motion.WithLogger(log)),
	)
	events := w.Events()
	a.OnStateChanged(func(tr motion.Transition) {
		events.Push(ecs.Event{Type: EventMotionStateChanged, Entity: e, Data: tr})
	})
	return a
}

func (ms *MotionSystem) reload(e ecs.Entity, m *component.Motion) {
	m.Reload = false
	if err := m.Config.Validate(); err != nil {
		ms.log.Warn("rejecting motion reload", zap.Stringer("entity", e), zap.Error(err))
		if ctrl := m.Adapter.Controller(); ctrl != nil {
			m.Config = ctrl.Config()
		}
		return
	}
	m.Adapter.SetConfig(m.AdapterConfig)
	if ctrl := m.Adapter.Controller(); ctrl != nil {
		ctrl.SetConfig(m.Config)
	}
	ms.log.Info("motion config reloaded", zap.Stringer("entity", e))
}

func forwardInput(a *motion.Adapter, in *component.Input) {
	a.SetTargetVelocity(in.Move)
	a.SetAngularVelocity(mgl64.Vec3{0, in.Turn, 0})
	if in.Jump {
		a.Jump()
		in.Jump = false
	}
	if in.ClimbUp {
		a.ClimbUp()
		in.ClimbUp = false
	}
	if in.ClimbOver {
		a.ClimbOver()
		in.ClimbOver = false
	}
}

func (ms *MotionSystem) publish(w *ecs.World, e ecs.Entity, a *motion.Adapter) {
	contact, ok := ecs.Get(w, e, component.FloorContactComponent.Kind())
	if !ok {
		contact = &component.FloorContact{}
		if err := ecs.Add(w, e, component.FloorContactComponent.Kind(), contact); err != nil {
			ms.log.Error("add floor contact", zap.Stringer("entity", e), zap.Error(err))
			return
		}
	}
	contact.State = a.State()
	contact.Material = a.FloorMaterial()
	contact.Grounded = false
	if ctrl := a.Controller(); ctrl != nil {
		contact.Grounded = ctrl.BodyWalkingOn() != nil
	}
}
