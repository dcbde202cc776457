package system

import (
	"sort"

	"github.com/milk9111/locomotion/common"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/physics/planar"
	"go.uber.org/zap"
)

// DefaultStep is the fixed simulation step used when none is configured.
const DefaultStep = 1.0 / 60.0

type PhysicsOption func(*PhysicsSystem)

// WithStep sets the fixed dt passed to the space on every Update.
func WithStep(dt float64) PhysicsOption {
	return func(ps *PhysicsSystem) {
		if dt > 0 {
			ps.dt = dt
		}
	}
}

// WithSpaceOptions forwards options to the planar space.
func WithSpaceOptions(opts ...planar.Option) PhysicsOption {
	return func(ps *PhysicsSystem) {
		ps.spaceOpts = append(ps.spaceOpts, opts...)
	}
}

func WithPhysicsLogger(l *zap.Logger) PhysicsOption {
	return func(ps *PhysicsSystem) {
		ps.log = common.OrNop(l)
	}
}

// PhysicsSystem owns the solver space. It turns PhysicsBody definitions into
// solver bodies, steps the space and copies poses back into Transform.
type PhysicsSystem struct {
	space     *planar.Space
	spaceOpts []planar.Option
	dt        float64
	log       *zap.Logger

	bodies map[ecs.Entity]*planar.Body
}

func NewPhysicsSystem(opts ...PhysicsOption) *PhysicsSystem {
	ps := &PhysicsSystem{
		dt:     DefaultStep,
		log:    zap.NewNop(),
		bodies: make(map[ecs.Entity]*planar.Body),
	}
	for _, opt := range opts {
		opt(ps)
	}
	ps.space = planar.NewSpace(append([]planar.Option{planar.WithLogger(ps.log)}, ps.spaceOpts...)...)
	return ps
}

func (ps *PhysicsSystem) Space() *planar.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *PhysicsSystem) Step() float64 {
	return ps.dt
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}

	// Entities marked for teardown lose their motion constraint, then their
	// body, then the entity itself.
	for _, e := range w.Query(component.PendingDestroyComponent.Kind()) {
		if m, ok := ecs.Get(w, e, component.MotionComponent.Kind()); ok && m.Adapter != nil {
			m.Adapter.Detach()
		}
		ps.removeBody(e)
		w.DestroyEntity(e)
	}

	ps.cleanupEntities(w)
	ps.syncEntities(w)

	ps.space.Step(ps.dt)

	ps.syncTransforms(w)
}

func (ps *PhysicsSystem) removeBody(e ecs.Entity) {
	b, ok := ps.bodies[e]
	if !ok {
		return
	}
	ps.space.RemoveBody(b)
	delete(ps.bodies, e)
}

// cleanupEntities drops bodies whose entity died or lost its PhysicsBody.
func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	stale := make([]ecs.Entity, 0)
	for e := range ps.bodies {
		if !w.IsAlive(e) || !ecs.Has(w, e, component.PhysicsBodyComponent.Kind()) {
			stale = append(stale, e)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	for _, e := range stale {
		ps.log.Debug("removing orphaned body", zap.Stringer("entity", e))
		ps.removeBody(e)
	}
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	for _, e := range w.Query(component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind()) {
		bodyComp, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		transform, _ := ecs.Get(w, e, component.TransformComponent.Kind())

		if existing, ok := ps.bodies[e]; ok {
			if bodyComp.Body == existing {
				continue
			}
			// The component was replaced; rebuild from its definition.
			ps.removeBody(e)
		}

		def := bodyComp.Def
		def.Position = transform.Position
		def.Yaw = transform.Yaw
		b, err := ps.space.AddBody(def)
		if err != nil {
			ps.log.Error("create body", zap.Stringer("entity", e), zap.Error(err))
			continue
		}
		ps.bodies[e] = b
		bodyComp.Body = b
	}
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, b *component.PhysicsBody, t *component.Transform) {
		if b.Body == nil {
			return
		}
		t.Position = b.Body.Position()
		t.Yaw = b.Body.Yaw()
	})
}
