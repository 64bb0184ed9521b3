package gekkofx

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// densityRunes shade a cell by how many particles fall into it.
var densityRunes = []rune{'.', ':', '*', '#', '@'}

// TerminalView draws a top-down (XZ) projection of the packed particles onto a
// tcell screen, one cell per 1/Scale world units along X. Terminal cells are
// about twice as tall as wide, so Z is halved.
type TerminalView struct {
	Screen tcell.Screen
	Center mgl32.Vec3
	Scale  float32

	counts map[[2]int]int
	colors map[[2]int]mgl32.Vec3
}

func NewTerminalView(screen tcell.Screen, scale float32) *TerminalView {
	if scale <= 0 {
		scale = 4
	}
	return &TerminalView{
		Screen: screen,
		Scale:  scale,
		counts: make(map[[2]int]int),
		colors: make(map[[2]int]mgl32.Vec3),
	}
}

// Cell maps a world position to screen coordinates. ok is false off screen.
func (v *TerminalView) Cell(p mgl32.Vec3) (x, y int, ok bool) {
	w, h := v.Screen.Size()
	x = int(math32.Floor((p.X()-v.Center.X())*v.Scale)) + w/2
	// row 0 holds the status line
	y = int(math32.Floor((p.Z()-v.Center.Z())*v.Scale*0.5)) + (h+1)/2
	return x, y, x >= 0 && x < w && y >= 1 && y < h
}

func (v *TerminalView) Draw(frame *ParticleFrame) {
	clear(v.counts)
	clear(v.colors)
	for _, inst := range frame.Instances {
		x, y, ok := v.Cell(inst.Pos)
		if !ok {
			continue
		}
		key := [2]int{x, y}
		v.counts[key]++
		if inst.Intensity > 0 {
			v.colors[key] = inst.Color
		}
	}

	v.Screen.Clear()
	for key, n := range v.counts {
		r := densityRunes[min(n, len(densityRunes))-1]
		v.Screen.SetContent(key[0], key[1], r, nil, cellStyle(v.colors[key]))
	}

	status := fmt.Sprintf("particles %d  emitters %d  culled %d", len(frame.Instances), frame.Emitters, frame.Culled)
	for i, r := range status {
		v.Screen.SetContent(i, 0, r, nil, tcell.StyleDefault)
	}
	v.Screen.Show()
}

func cellStyle(c mgl32.Vec3) tcell.Style {
	if c == (mgl32.Vec3{}) {
		return tcell.StyleDefault.Foreground(tcell.ColorWhite)
	}
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(channel(c.X()), channel(c.Y()), channel(c.Z())))
}

func channel(v float32) int32 {
	return int32(math32.Round(math32.Max(0, math32.Min(1, v)) * 255))
}

// TerminalViewModule draws the particle frame every Render stage.
type TerminalViewModule struct {
	Screen tcell.Screen
	Scale  float32
	Center mgl32.Vec3
}

func (m TerminalViewModule) Install(app *App, cmd *Commands) {
	view := NewTerminalView(m.Screen, m.Scale)
	view.Center = m.Center
	cmd.AddResources(view)
	app.UseSystem(
		System(func(view *TerminalView, frame *ParticleFrame) {
			view.Draw(frame)
		}).InStage(Render),
	)
}
