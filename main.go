package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/locomotion/common"
	"go.uber.org/zap"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug drawing and logging")
	sceneName := flag.String("scene", "playground.yaml", "scene file in prefabs/")
	watch := flag.Bool("watch", true, "hot reload prefabs/ on change")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	logger, err := common.NewLogger(*debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("locomotion")
	ebiten.SetTPS(60)

	game, err := NewGame(GameOptions{Scene: *sceneName, Debug: *debug, Watch: *watch, Log: logger})
	if err != nil {
		logger.Fatal("load scene", zap.String("scene", *sceneName), zap.Error(err))
	}
	defer func() { _ = game.Close() }()
	logger.Info("starting", zap.Stringer("game", game))

	if err := ebiten.RunGame(game); err != nil {
		logger.Error("run", zap.Error(err))
	}
}
