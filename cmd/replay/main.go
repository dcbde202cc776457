// Command replay runs a scene headless with a scripted input pattern and
// prints the player's transitions and a determinism digest.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/common"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/ecs/system"
	"github.com/milk9111/locomotion/physics/planar"
	"github.com/milk9111/locomotion/prefabs"
	"github.com/milk9111/locomotion/replay"
	"go.uber.org/zap"
)

type runConfig struct {
	scene     string
	steps     int
	move      float64
	jumpEvery int
	frames    bool
}

func main() {
	var cfg runConfig
	flag.StringVar(&cfg.scene, "scene", "playground.yaml", "scene file in prefabs/")
	flag.IntVar(&cfg.steps, "steps", 600, "number of fixed steps to simulate")
	flag.Float64Var(&cfg.move, "move", 1, "fraction of the character speed to walk at, negative walks left")
	flag.IntVar(&cfg.jumpEvery, "jump-every", 90, "request a jump every n steps, 0 disables")
	flag.BoolVar(&cfg.frames, "frames", false, "print every captured frame")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger, err := common.NewLogger(*debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	rec, err := run(cfg, logger)
	if err != nil {
		logger.Error("replay", zap.Error(err))
		os.Exit(1)
	}

	if cfg.frames {
		for _, f := range rec.Frames() {
			fmt.Println(f)
		}
	}
	for _, tr := range rec.Transitions() {
		fmt.Println(tr)
	}
	fmt.Printf("digest %016x\n", rec.Digest())
}

func run(cfg runConfig, logger *zap.Logger) (*replay.Recorder, error) {
	scene, err := prefabs.LoadScene(cfg.scene)
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
		system.WithPhysicsLogger(logger),
		system.WithSpaceOptions(planar.WithGravity(gravity)),
	)
	sched := ecs.NewScheduler(
		system.NewIntentScriptSystem(system.WithIntentLogger(logger)),
		system.NewMotionSystem(ps.Space(), system.WithMotionLogger(logger)),
		ps,
	)

	w := ecs.NewWorld()
	spawned, err := prefabs.SpawnScene(w, scene, &player)
	if err != nil {
		return nil, err
	}

	var rec *replay.Recorder
	for step := 1; step <= cfg.steps; step++ {
		in, ok := ecs.Get(w, spawned.Player, component.InputComponent.Kind())
		if !ok {
			return nil, errors.New("player has no input")
		}
		in.Move = mgl64.Vec3{cfg.move * player.Speed, 0, 0}
		if cfg.jumpEvery > 0 && step%cfg.jumpEvery == 0 {
			in.Jump = true
		}

		sched.Update(w)
		w.Events().Drain()

		if rec == nil {
			m, ok := ecs.Get(w, spawned.Player, component.MotionComponent.Kind())
			if !ok || m.Adapter == nil || m.Adapter.Controller() == nil {
				continue
			}
			opts := []replay.Option{}
			if !cfg.frames {
				opts = append(opts, replay.DiscardFrames())
			}
			rec = replay.NewRecorder(m.Adapter.Controller(), opts...)
		}
		rec.Capture()
	}
	if rec == nil {
		return nil, fmt.Errorf("player never attached in %d steps", cfg.steps)
	}
	rec.Close()
	return rec, nil
}
