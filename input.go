package main

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/locomotion/ecs/component"
)

func anyPressed(keys ...ebiten.Key) bool {
	for _, k := range keys {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

func anyJustPressed(keys ...ebiten.Key) bool {
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k) {
			return true
		}
	}
	return false
}

// readKeyboard maps the keyboard onto the player's intents. Edge triggers
// are only ever set here; MotionSystem clears them. W/S add an up component
// while climbing.
func readKeyboard(in *component.Input, speed, turnRate float64, climbing bool) {
	move := 0.0
	if anyPressed(ebiten.KeyA, ebiten.KeyArrowLeft) {
		move--
	}
	if anyPressed(ebiten.KeyD, ebiten.KeyArrowRight) {
		move++
	}
	if anyPressed(ebiten.KeyShift) {
		move *= 2
	}
	climb := 0.0
	if climbing && anyPressed(ebiten.KeyW, ebiten.KeyArrowUp) {
		climb++
	}
	if climbing && anyPressed(ebiten.KeyS, ebiten.KeyArrowDown) {
		climb--
	}
	in.Move = mgl64.Vec3{move * speed, climb * speed, 0}

	in.Turn = 0
	if anyPressed(ebiten.KeyQ) {
		in.Turn += turnRate
	}
	if anyPressed(ebiten.KeyE) {
		in.Turn -= turnRate
	}

	if anyJustPressed(ebiten.KeySpace) {
		in.Jump = true
	}
	if anyPressed(ebiten.KeyW, ebiten.KeyArrowUp) {
		in.ClimbUp = true
	}
	if anyJustPressed(ebiten.KeyF) {
		in.ClimbOver = true
	}
}
