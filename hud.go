package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/locomotion/ecs"
	"github.com/milk9111/locomotion/ecs/component"
	"github.com/milk9111/locomotion/motion"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

const hudHistory = 6

var hudFace ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)

var stateColors = map[motion.State]color.Color{
	motion.Grounded:  colornames.Limegreen,
	motion.Jumping:   colornames.Gold,
	motion.Falling:   colornames.Tomato,
	motion.Climbing:  colornames.Orange,
	motion.ClimbOver: colornames.Orchid,
}

func stateColor(s motion.State) color.Color {
	if c, ok := stateColors[s]; ok {
		return c
	}
	return colornames.White
}

// hud keeps the last few player transitions for display.
type hud struct {
	history []motion.Transition
}

func (h *hud) record(tr motion.Transition) {
	h.history = append(h.history, tr)
	if len(h.history) > hudHistory {
		h.history = h.history[len(h.history)-hudHistory:]
	}
}

func (h *hud) draw(screen *ebiten.Image, w *ecs.World, player ecs.Entity, paused bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "FPS %.1f  TPS %.1f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
	if paused {
		b.WriteString("PAUSED  [P] resume  [N] step\n")
	}

	if fc, ok := ecs.Get(w, player, component.FloorContactComponent.Kind()); ok {
		fmt.Fprintf(&b, "state %s  floor %s  grounded %v\n", fc.State, fc.Material, fc.Grounded)
	}
	if m, ok := ecs.Get(w, player, component.MotionComponent.Kind()); ok && m.Adapter != nil {
		fmt.Fprintf(&b, "jump cooldown %.2f\n", m.Adapter.JumpCooldown())
		if ctrl := m.Adapter.Controller(); ctrl != nil {
			fmt.Fprintf(&b, "ground depth %.3f  ladder %v\n", ctrl.GroundDepth(), ctrl.OnLadder())
			v := ctrl.Body().Velocity()
			fmt.Fprintf(&b, "velocity (%.2f, %.2f)\n", v.X(), v.Y())
		}
	}
	if t, ok := ecs.Get(w, player, component.TransformComponent.Kind()); ok {
		fmt.Fprintf(&b, "position (%.2f, %.2f)  yaw %.2f\n", t.Position.X(), t.Position.Y(), t.Yaw)
	}
	for _, tr := range h.history {
		b.WriteString(tr.String())
		b.WriteByte('\n')
	}
	b.WriteString("[A/D] move  [Shift] run  [Space] jump  [W/S] climb  [F] climb over  [Q/E] turn  [F1] debug")

	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(10, 10)
	op.LineSpacing = 16
	op.ColorScale.ScaleWithColor(colornames.White)
	ebtext.Draw(screen, b.String(), hudFace, op)
}
