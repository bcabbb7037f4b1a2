package host

import (
	"context"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/spirolab/spiro/backend-go/internal/engine"
	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

// TermConfig controls the terminal host.
type TermConfig struct {
	Hz int
	// WorldHeight is how many world units fit between the top and bottom rows.
	WorldHeight float64
}

// Glyphs used to plot draw commands.
const (
	glyphTrace  = '·'
	glyphGear   = 'o'
	glyphCenter = '+'
	glyphAxis   = '-'
	glyphPen    = '*'
)

// Terminal draws an engine onto a tcell screen and feeds it mouse input.
type Terminal struct {
	eng    *engine.Engine
	screen tcell.Screen
	cfg    TermConfig

	// Primary button state from the previous mouse event, for edge detection.
	button bool
}

// NewTerminal wraps an initialised screen.
func NewTerminal(eng *engine.Engine, screen tcell.Screen, cfg TermConfig) *Terminal {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.WorldHeight <= 0 {
		cfg.WorldHeight = 500
	}
	t := &Terminal{eng: eng, screen: screen, cfg: cfg}
	screen.EnableMouse()
	t.resize()
	return t
}

// Run processes input and redraws until ctx is done or the user quits.
func (t *Terminal) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(t.cfg.Hz))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-eventChan:
			if !t.HandleEvent(ev) {
				return nil
			}

		case <-ticker.C:
			logTick(t.eng.Tick())
			t.Draw()
		}
	}
}

// HandleEvent applies one terminal event. It returns false when the user quits.
func (t *Terminal) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape:
			return Apply(t.eng, ActionToggleSidebar)
		case tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			return Apply(t.eng, ActionForRune(ev.Rune()))
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		// Sample the centre of the cell.
		t.eng.SetPointer(float64(x)+0.5, float64(y)+0.5, true)

		down := ev.Buttons()&tcell.Button1 != 0
		if down && !t.button {
			t.eng.PressPointer()
		}
		if !down && t.button {
			t.eng.ReleasePointer()
		}
		t.button = down

	case *tcell.EventResize:
		t.resize()
		t.screen.Sync()
	}
	return true
}

func (t *Terminal) resize() {
	w, h := t.screen.Size()
	t.eng.SetViewport(float64(w), float64(h))
	sy := float64(h) / t.cfg.WorldHeight
	// Cells are roughly twice as tall as they are wide.
	t.eng.SetScale(2*sy, sy)
}

// Draw renders the current draw commands and, when enabled, the sidebar.
func (t *Terminal) Draw() {
	t.screen.Clear()
	cam := t.eng.Camera()

	for _, cmd := range t.eng.DrawCommands() {
		style := tcell.StyleDefault.Foreground(termColor(cmd.Stroke))
		switch cmd.Op {
		case engine.OpPolyline:
			for i := 1; i < len(cmd.Points); i++ {
				t.line(cam, cmd.Points[i-1], cmd.Points[i], glyphTrace, style)
			}
		case engine.OpCircle:
			if cmd.Radius < 1 {
				t.plot(cam, spiro.V2(cmd.X, cmd.Y), glyphCenter, style)
				continue
			}
			t.circle(cam, spiro.V2(cmd.X, cmd.Y), cmd.Radius, style)
		case engine.OpAxes:
			origin := spiro.V2(cmd.X, cmd.Y)
			tip := origin.Add(spiro.FromAngle(cmd.Angle).Mul(cmd.Length))
			t.line(cam, origin, tip, glyphAxis, tcell.StyleDefault.Foreground(tcell.ColorRed))
		case engine.OpPoint:
			t.plot(cam, spiro.V2(cmd.X, cmd.Y), glyphPen, style)
		}
	}

	if t.eng.Settings().ShowSidebar {
		t.sidebar()
	}
	t.screen.Show()
}

func (t *Terminal) sidebar() {
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	lines := SidebarLines(t.eng.Snapshot())

	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	for y, l := range lines {
		runes := []rune(l)
		for x := 0; x < width+2; x++ {
			r := ' '
			if x > 0 && x-1 < len(runes) {
				r = runes[x-1]
			}
			t.screen.SetContent(x, y, r, nil, style)
		}
	}
}

func (t *Terminal) plot(cam engine.Camera, p spiro.Vec2, glyph rune, style tcell.Style) {
	x, y := cam.WorldToScreen(p)
	w, h := t.screen.Size()
	cx, cy := int(math.Floor(x)), int(math.Floor(y))
	if cx < 0 || cy < 0 || cx >= w || cy >= h {
		return
	}
	t.screen.SetContent(cx, cy, glyph, nil, style)
}

func (t *Terminal) line(cam engine.Camera, a, b spiro.Vec2, glyph rune, style tcell.Style) {
	ax, ay := cam.WorldToScreen(a)
	bx, by := cam.WorldToScreen(b)
	steps := int(math.Ceil(max(math.Abs(bx-ax), math.Abs(by-ay))))
	if steps == 0 {
		t.plot(cam, a, glyph, style)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		t.plot(cam, spiro.V2(a.X+(b.X-a.X)*f, a.Y+(b.Y-a.Y)*f), glyph, style)
	}
}

func (t *Terminal) circle(cam engine.Camera, c spiro.Vec2, r float64, style tcell.Style) {
	sx, _ := cam.WorldToScreen(spiro.V2(c.X+r, c.Y))
	cx, _ := cam.WorldToScreen(c)
	n := max(16, int(2*math.Pi*math.Abs(sx-cx)))
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		t.plot(cam, c.Add(spiro.FromAngle(a).Mul(r)), glyphGear, style)
	}
}

func termColor(hex string) tcell.Color {
	if hex == "" {
		return tcell.ColorWhite
	}
	c := spiro.ColorOrWhite(hex)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
