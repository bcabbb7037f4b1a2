//go:build cgo

package host

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/spirolab/spiro/backend-go/internal/dragging"
	"github.com/spirolab/spiro/backend-go/internal/engine"
	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
}

// RunWindow opens a desktop window that paints the engine and forwards mouse
// and keyboard input. It blocks until the window closes.
func RunWindow(eng *engine.Engine, cfg WindowConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	if cfg.Title == "" {
		cfg.Title = "Spirograph"
	}

	g := &windowGame{eng: eng}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type windowGame struct {
	eng    *engine.Engine
	width  int
	height int
	chars  []rune
}

func (g *windowGame) Update() error {
	g.eng.SetViewport(float64(g.width), float64(g.height))

	x, y := ebiten.CursorPosition()
	inside := x >= 0 && y >= 0 && x < g.width && y < g.height && ebiten.IsFocused()
	g.eng.SetPointer(float64(x), float64(y), inside)
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.eng.PressPointer()
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.eng.ReleasePointer()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		Apply(g.eng, ActionToggleSidebar)
	}
	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		if !Apply(g.eng, ActionForRune(r)) {
			return ebiten.Termination
		}
	}

	logTick(g.eng.Tick())

	switch g.eng.CursorIcon() {
	case dragging.CursorGrab:
		ebiten.SetCursorShape(ebiten.CursorShapePointer)
	case dragging.CursorGrabbing:
		ebiten.SetCursorShape(ebiten.CursorShapeMove)
	default:
		ebiten.SetCursorShape(ebiten.CursorShapeDefault)
	}
	return nil
}

func (g *windowGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	cam := g.eng.Camera()

	for _, cmd := range g.eng.DrawCommands() {
		clr := spiro.ColorOrWhite(cmd.Stroke)
		width := float32(max(cmd.StrokeWidth, 1))

		switch cmd.Op {
		case engine.OpPolyline:
			for i := 1; i < len(cmd.Points); i++ {
				x0, y0 := cam.WorldToScreen(cmd.Points[i-1])
				x1, y1 := cam.WorldToScreen(cmd.Points[i])
				vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), width, clr, true)
			}
		case engine.OpCircle:
			x, y := cam.WorldToScreen(spiro.V2(cmd.X, cmd.Y))
			r := float32(cmd.Radius * scaleOf(cam))
			if r < 1 {
				vector.DrawFilledCircle(screen, float32(x), float32(y), 1, clr, true)
				continue
			}
			vector.StrokeCircle(screen, float32(x), float32(y), r, width, clr, true)
		case engine.OpAxes:
			g.drawAxes(screen, cam, cmd)
		case engine.OpPoint:
			x, y := cam.WorldToScreen(spiro.V2(cmd.X, cmd.Y))
			vector.DrawFilledCircle(screen, float32(x), float32(y), float32(cmd.Radius*scaleOf(cam)), clr, true)
		}
	}

	if g.eng.Settings().ShowSidebar {
		vector.DrawFilledRect(screen, 0, 0, 360, float32(g.height), color.RGBA{A: 0xe0}, false)
		ebitenutil.DebugPrintAt(screen, SidebarText(g.eng.Snapshot()), 8, 8)
	}
}

// drawAxes draws the local x axis in red and the local y axis in green.
func (g *windowGame) drawAxes(screen *ebiten.Image, cam engine.Camera, cmd engine.DrawCommand) {
	origin := spiro.V2(cmd.X, cmd.Y)
	ox, oy := cam.WorldToScreen(origin)
	xTip := origin.Add(spiro.FromAngle(cmd.Angle).Mul(cmd.Length))
	yTip := origin.Add(spiro.FromAngle(cmd.Angle + math.Pi/2).Mul(cmd.Length))

	xx, xy := cam.WorldToScreen(xTip)
	yx, yy := cam.WorldToScreen(yTip)
	vector.StrokeLine(screen, float32(ox), float32(oy), float32(xx), float32(xy), 1, spiro.ColorOrWhite(spiro.ColorRed600), true)
	vector.StrokeLine(screen, float32(ox), float32(oy), float32(yx), float32(yy), 1, color.RGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 0xff}, true)
}

func (g *windowGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func scaleOf(cam engine.Camera) float64 {
	if cam.ScaleX == 0 {
		return 1
	}
	return cam.ScaleX
}
