package system

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/common"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/motion"
	"github.com/milk9111/locomotion/prefabs"
	"go.uber.org/zap"
)

// Scripts define `intent := func(ctx) { ... }` and return a map with any of
// move ([x, y, z]), turn, jump, climb_up and climb_over. ctx carries tick,
// state, grounded, material, position, velocity and a memory map that
// persists between ticks.
const intentDispatchScript = `
__out := intent(__ctx)
`

type intentRuntime struct {
	path     string
	source   string
	compiled *tengo.Compiled
	memory   *tengo.Map
	failed   bool
}

type IntentScriptOption func(*IntentScriptSystem)

func WithIntentLogger(l *zap.Logger) IntentScriptOption {
	return func(s *IntentScriptSystem) {
		s.log = common.OrNop(l)
	}
}

// IntentScriptSystem runs one script per entity each tick and writes the
// returned intents into Input. It must run before MotionSystem.
type IntentScriptSystem struct {
	log      *zap.Logger
	tick     int64
	runtimes map[ecs.Entity]*intentRuntime
}

func NewIntentScriptSystem(opts ...IntentScriptOption) *IntentScriptSystem {
	s := &IntentScriptSystem{
		log:      zap.NewNop(),
		runtimes: make(map[ecs.Entity]*intentRuntime),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops compiled scripts loaded from path so the next tick
// recompiles them. Script memory is reset.
func (s *IntentScriptSystem) Invalidate(path string) {
	clean := prefabs.ScriptName(path)
	for e, rt := range s.runtimes {
		if rt.path != "" && prefabs.ScriptName(rt.path) == clean {
			delete(s.runtimes, e)
		}
	}
}

func (s *IntentScriptSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	s.tick++

	for e := range s.runtimes {
		if !w.IsAlive(e) || !ecs.Has(w, e, component.IntentScriptComponent.Kind()) {
			delete(s.runtimes, e)
		}
	}

	for _, e := range w.Query(component.IntentScriptComponent.Kind()) {
		spec, _ := ecs.Get(w, e, component.IntentScriptComponent.Kind())
		rt, err := s.runtime(e, spec)
		if err != nil {
			s.log.Error("load intent script", zap.Stringer("entity", e), zap.String("path", spec.Path), zap.Error(err))
			continue
		}
		if rt.failed {
			continue
		}

		in, ok := ecs.Get(w, e, component.InputComponent.Kind())
		if !ok {
			in = &component.Input{}
			if err := ecs.Add(w, e, component.InputComponent.Kind(), in); err != nil {
				continue
			}
		}

		out, err := rt.run(s.context(w, e, rt))
		if err != nil {
			// A script that errors stays disabled until it is reloaded.
			rt.failed = true
			s.log.Error("intent script", zap.Stringer("entity", e), zap.Error(err))
			continue
		}
		applyIntent(in, out)
	}
}

func (s *IntentScriptSystem) runtime(e ecs.Entity, spec *component.IntentScript) (*intentRuntime, error) {
	if rt, ok := s.runtimes[e]; ok && rt.path == spec.Path && rt.source == spec.Source {
		return rt, nil
	}

	src := []byte(spec.Source)
	if strings.TrimSpace(spec.Source) == "" {
		if strings.TrimSpace(spec.Path) == "" {
			return nil, fmt.Errorf("intent script has neither path nor source")
		}
		data, err := prefabs.LoadScript(spec.Path)
		if err != nil {
			return nil, err
		}
		src = data
	}

	script := tengo.NewScript(append(append([]byte(nil), src...), intentDispatchScript...))
	_ = script.Add("__ctx", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}

	rt := &intentRuntime{
		path:     spec.Path,
		source:   spec.Source,
		compiled: compiled,
		memory:   &tengo.Map{Value: map[string]tengo.Object{}},
	}
	s.runtimes[e] = rt
	return rt, nil
}

func (s *IntentScriptSystem) context(w *ecs.World, e ecs.Entity, rt *intentRuntime) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"tick":     &tengo.Int{Value: s.tick},
		"state":    &tengo.String{Value: motion.Grounded.String()},
		"grounded": tengo.FalseValue,
		"material": &tengo.String{Value: "none"},
		"memory":   rt.memory,
	}

	var pos, vel mgl64.Vec3
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		pos = t.Position
	}
	if b, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok && b.Body != nil {
		pos = b.Body.Position()
		vel = b.Body.Velocity()
	}
	values["position"] = vecObject(pos)
	values["velocity"] = vecObject(vel)

	if fc, ok := ecs.Get(w, e, component.FloorContactComponent.Kind()); ok {
		values["state"] = &tengo.String{Value: fc.State.String()}
		values["material"] = &tengo.String{Value: fc.Material.String()}
		if fc.Grounded {
			values["grounded"] = tengo.TrueValue
		}
	}
	return &tengo.ImmutableMap{Value: values}
}

func (rt *intentRuntime) run(ctx *tengo.ImmutableMap) (map[string]any, error) {
	if err := rt.compiled.Set("__ctx", ctx); err != nil {
		return nil, err
	}
	if err := rt.compiled.Run(); err != nil {
		return nil, err
	}
	if !rt.compiled.IsDefined("__out") {
		return nil, nil
	}
	switch out := objectToAny(rt.compiled.Get("__out").Object()).(type) {
	case map[string]any:
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("intent must return a map, got %T", out)
	}
}

// applyIntent overwrites continuous intents and latches edge triggers. Keys
// the script omits are left as they are.
func applyIntent(in *component.Input, out map[string]any) {
	if out == nil {
		return
	}
	if v, ok := out["move"]; ok {
		in.Move = anyToVec(v)
	}
	if v, ok := anyToFloat(out["turn"]); ok {
		in.Turn = v
	}
	in.Jump = in.Jump || truthy(out["jump"])
	in.ClimbUp = in.ClimbUp || truthy(out["climb_up"])
	in.ClimbOver = in.ClimbOver || truthy(out["climb_over"])
}

func vecObject(v mgl64.Vec3) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{
		&tengo.Float{Value: v.X()},
		&tengo.Float{Value: v.Y()},
		&tengo.Float{Value: v.Z()},
	}}
}

func anyToVec(v any) mgl64.Vec3 {
	var out mgl64.Vec3
	switch vv := v.(type) {
	case []any:
		for i := 0; i < len(vv) && i < 3; i++ {
			out[i], _ = anyToFloat(vv[i])
		}
	case map[string]any:
		out[0], _ = anyToFloat(vv["x"])
		out[1], _ = anyToFloat(vv["y"])
		out[2], _ = anyToFloat(vv["z"])
	}
	return out
}

func anyToFloat(v any) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case int:
		return float64(vv), true
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.ImmutableArray:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
