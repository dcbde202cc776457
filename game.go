package main

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/ecs/system"
	"github.com/milk9111/locomotion/motion"
	"github.com/milk9111/locomotion/physics/planar"
	"github.com/milk9111/locomotion/prefabs"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
)

const (
	baseWidth     = 1280
	baseHeight    = 720
	pixelsPerUnit = 40
)

type GameOptions struct {
	Scene string
	Debug bool
	Watch bool
	Log   *zap.Logger
}

type Game struct {
	world   *ecs.World
	sched   *ecs.Scheduler
	physics *system.PhysicsSystem
	intents *system.IntentScriptSystem
	scene   prefabs.SceneSpec
	spawned prefabs.Scene
	log     *zap.Logger

	// characters maps each motion entity to the file its tuning came from.
	characters map[ecs.Entity]string
	speed      float64
	turnRate   float64

	watcher *prefabs.Watcher
	hud     hud
	debug   bool
	paused  bool
	step    bool
}

func NewGame(opts GameOptions) (*Game, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	scene, err := prefabs.LoadScene(opts.Scene)
	if err != nil {
		return nil, err
	}
	charFile := scene.Character
	if charFile == "" {
		charFile = "character.yaml"
	}
	player, err := prefabs.LoadCharacter(charFile)
	if err != nil {
		return nil, err
	}

	gravity := scene.Gravity
	if gravity == 0 {
		gravity = 9.81
	}
	ps := system.NewPhysicsSystem(
		system.WithPhysicsLogger(log),
		system.WithSpaceOptions(planar.WithGravity(gravity)),
	)
	intents := system.NewIntentScriptSystem(system.WithIntentLogger(log))

	w := ecs.NewWorld()
	spawned, err := prefabs.SpawnScene(w, scene, &player)
	if err != nil {
		return nil, err
	}

	g := &Game{
		world: w,
		sched: ecs.NewScheduler(
			intents,
			system.NewMotionSystem(ps.Space(), system.WithMotionLogger(log)),
			ps,
		),
		physics:    ps,
		intents:    intents,
		scene:      scene,
		spawned:    spawned,
		log:        log,
		characters: map[ecs.Entity]string{spawned.Player: charFile},
		speed:      player.Speed,
		turnRate:   player.TurnRate,
		debug:      opts.Debug,
	}
	for i, e := range spawned.Agents {
		name := scene.Agents[i].Character
		if name == "" {
			name = charFile
		}
		g.characters[e] = name
	}

	if opts.Watch {
		watcher, err := prefabs.NewWatcher("prefabs", filepath.Join("prefabs", "scripts"))
		if err != nil {
			log.Warn("hot reload disabled", zap.Error(err))
		} else {
			g.watcher = watcher
		}
	}
	return g, nil
}

func (g *Game) Close() error {
	if g.watcher != nil {
		return g.watcher.Close()
	}
	return nil
}

func (g *Game) Update() error {
	g.pollWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debug = !g.debug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if g.paused && !inpututil.IsKeyJustPressed(ebiten.KeyN) {
		return nil
	}

	if in, ok := ecs.Get(g.world, g.spawned.Player, component.InputComponent.Kind()); ok {
		fc, _ := ecs.Get(g.world, g.spawned.Player, component.FloorContactComponent.Kind())
		readKeyboard(in, g.speed, g.turnRate, fc != nil && fc.State == motion.Climbing)
	}

	g.sched.Update(g.world)

	for _, ev := range g.world.Events().Drain() {
		if ev.Type != system.EventMotionStateChanged {
			continue
		}
		tr, ok := ev.Data.(motion.Transition)
		if !ok {
			continue
		}
		g.log.Debug("state changed", zap.Stringer("entity", ev.Entity), zap.Stringer("transition", tr))
		if ev.Entity == g.spawned.Player {
			g.hud.record(tr)
		}
	}
	return nil
}

// pollWatcher applies pending hot reloads without blocking the frame.
func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.reload(name)
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.log.Warn("watch", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (g *Game) reload(path string) {
	if strings.EqualFold(filepath.Ext(path), ".tengo") {
		g.intents.Invalidate(path)
		g.log.Info("script reloaded", zap.String("path", path))
		return
	}

	base := filepath.Base(path)
	var spec *prefabs.CharacterSpec
	for e, file := range g.characters {
		if filepath.Base(file) != base {
			continue
		}
		if spec == nil {
			loaded, err := prefabs.LoadCharacter(file)
			if err != nil {
				g.log.Warn("keeping previous tuning", zap.String("path", path), zap.Error(err))
				return
			}
			spec = &loaded
		}
		m, ok := ecs.Get(g.world, e, component.MotionComponent.Kind())
		if !ok {
			continue
		}
		m.Config = spec.Motion
		m.AdapterConfig = spec.Adapter
		m.Reload = true
		if e == g.spawned.Player {
			g.speed, g.turnRate = spec.Speed, spec.TurnRate
		}
	}
}

func (g *Game) camera() camera {
	cam := camera{zoom: pixelsPerUnit, width: baseWidth, height: baseHeight}
	if t, ok := ecs.Get(g.world, g.spawned.Player, component.TransformComponent.Kind()); ok {
		cam.x, cam.y = t.Position.X(), t.Position.Y()+2
	}
	return cam
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	cam := g.camera()

	for i, e := range g.spawned.Blocks {
		var fill color.Color = colornames.Gray
		if c := g.scene.Blocks[i].Color; c != nil {
			fill = c.Color
		}
		g.drawBody(screen, cam, e, fill)
	}
	for e := range g.characters {
		fill := color.Color(colornames.White)
		if fc, ok := ecs.Get(g.world, e, component.FloorContactComponent.Kind()); ok {
			fill = stateColor(fc.State)
		}
		g.drawBody(screen, cam, e, fill)
	}

	if g.debug {
		drawPhysicsDebug(g.physics.Space().CP(), cam, screen)
	}
	g.hud.draw(screen, g.world, g.spawned.Player, g.paused)
}

func (g *Game) drawBody(screen *ebiten.Image, cam camera, e ecs.Entity, fill color.Color) {
	t, ok := ecs.Get(g.world, e, component.TransformComponent.Kind())
	if !ok {
		return
	}
	b, ok := ecs.Get(g.world, e, component.PhysicsBodyComponent.Kind())
	if !ok {
		return
	}
	half := b.Def.HalfExtents
	if b.Def.Radius > 0 {
		x, y := cam.toScreen(t.Position.X(), t.Position.Y())
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(b.Def.Radius*cam.zoom), fill, true)
		return
	}
	x, y := cam.toScreen(t.Position.X()-half.X(), t.Position.Y()+half.Y())
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(2*half.X()*cam.zoom), float32(2*half.Y()*cam.zoom), fill, false)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

func (g *Game) String() string {
	return fmt.Sprintf("scene %s: %d blocks, %d characters", g.scene.Name, len(g.spawned.Blocks), len(g.characters))
}
