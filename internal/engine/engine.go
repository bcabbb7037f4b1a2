package engine

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/dragging"
	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

// DefaultStep is the wall-clock duration of one simulation tick.
const DefaultStep = time.Second / 60

// defaultMaxSteps bounds how many ticks one Advance call may run after a stall.
const defaultMaxSteps = 8

// Options configures an Engine.
type Options struct {
	// Step is the fixed tick duration used by Advance.
	Step time.Duration
	// TickScale is the kinematic dt of one tick. Speeds are radians per tick at 1.
	TickScale float64
	// MaxSteps caps the ticks run by one Advance call; the rest of the backlog is dropped.
	MaxSteps      int
	SnapThreshold float64
	Resume        dragging.ResumePolicy
	// Empty skips the startup scene.
	Empty bool
}

// pointer holds the latest cursor sample and button edges not yet consumed by a tick.
type pointer struct {
	x, y     float64
	inside   bool
	pressed  bool
	released bool
}

// Engine is the simulation engine that owns the gear registry and the drag controller.
// It processes commands from a host and returns query results. It is not safe
// for concurrent use; hosts drive it from a single goroutine.
type Engine struct {
	reg  *spiro.Registry
	ctrl *dragging.Controller

	camera   Camera
	settings document.Settings
	pointer  pointer

	// Commands applied at the end of the next tick
	queue []Command

	// Fixed-step clock
	step     time.Duration
	acc      time.Duration
	dt       float64
	maxSteps int
	tick     uint64
}

// TickResult is everything one tick produced.
type TickResult struct {
	Tick     uint64           `json:"tick"`
	Events   []dragging.Event `json:"events,omitempty"`
	Commands []CommandResult  `json:"commands,omitempty"`
	Step     spiro.StepReport `json:"-"`
}

// NewEngine creates a new engine instance seeded with the startup scene: one
// fixed gear at the origin with one rotating gear.
func NewEngine(opts Options) *Engine {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.TickScale <= 0 {
		opts.TickScale = 1
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = defaultMaxSteps
	}

	e := &Engine{
		reg: spiro.NewRegistry(),
		ctrl: dragging.NewController(dragging.Options{
			SnapThreshold: opts.SnapThreshold,
			Resume:        opts.Resume,
		}),
		settings: document.Settings{DebugGuides: true},
		queue:    make([]Command, 0),
		step:     opts.Step,
		dt:       opts.TickScale,
		maxSteps: opts.MaxSteps,
	}

	if !opts.Empty {
		f := e.reg.AddFixed(spiro.DefaultFixedParams(spiro.Vec2{}))
		if _, err := e.reg.AddRotating(f.ID, spiro.DefaultRotatingParams()); err != nil {
			slog.Error("seed startup scene", "error", err)
		}
	}
	return e
}

// --- Commands (host → engine) ---

// SetViewport sets the window size. A zero size disables cursor projection.
func (e *Engine) SetViewport(width, height float64) {
	e.camera.Width = width
	e.camera.Height = height
}

// SetScale sets window units per world unit on each axis.
func (e *Engine) SetScale(sx, sy float64) {
	e.camera.ScaleX = sx
	e.camera.ScaleY = sy
}

// SetPointer records the cursor position in window space. inside is false when
// the cursor has left the window.
func (e *Engine) SetPointer(x, y float64, inside bool) {
	e.pointer.x = x
	e.pointer.y = y
	e.pointer.inside = inside
}

// PressPointer latches a primary button press for the next tick.
func (e *Engine) PressPointer() {
	e.pointer.pressed = true
}

// ReleasePointer latches a primary button release for the next tick.
func (e *Engine) ReleasePointer() {
	e.pointer.released = true
}

// Enqueue defers a command to the end of the next tick.
func (e *Engine) Enqueue(cmd Command) {
	e.queue = append(e.queue, cmd)
}

// ApplyNow applies a command immediately, outside the tick.
func (e *Engine) ApplyNow(cmd Command) CommandResult {
	res := e.apply(cmd)
	e.reg.Compact()
	return res
}

// Pending returns the number of queued commands.
func (e *Engine) Pending() int {
	return len(e.queue)
}

// UpdateSettings applies a settings patch immediately.
func (e *Engine) UpdateSettings(p document.SettingsPatch) {
	e.settings = e.settings.Apply(p)
}

// Tick runs one simulation tick: cursor projection, drag/hover update,
// kinematics unless globally paused, then the queued commands.
func (e *Engine) Tick() TickResult {
	in := e.input()
	e.pointer.pressed = false
	e.pointer.released = false

	res := TickResult{}
	res.Events = e.ctrl.Update(e.reg, in)

	if !e.settings.Paused {
		res.Step = spiro.Step(e.reg, e.dt)
	}

	if len(e.queue) > 0 {
		queued := e.queue
		e.queue = make([]Command, 0)
		res.Commands = make([]CommandResult, 0, len(queued))
		for _, cmd := range queued {
			r := e.apply(cmd)
			if r.Err != nil {
				slog.Warn("command failed", "type", cmd.Type, "gear", cmd.GearID, "error", r.Err)
			}
			res.Commands = append(res.Commands, r)
		}
	}
	if n := e.reg.Compact(); n > 0 {
		slog.Debug("reclaimed orphaned gears", "count", n)
	}

	e.tick++
	res.Tick = e.tick
	return res
}

// Advance runs as many whole ticks as fit in the accumulated elapsed time and
// returns their results. Leftover time carries over to the next call.
func (e *Engine) Advance(elapsed time.Duration) []TickResult {
	if elapsed < 0 {
		elapsed = 0
	}
	e.acc += elapsed

	n := int(e.acc / e.step)
	if n > e.maxSteps {
		slog.Debug("dropping simulation backlog", "ticks", n-e.maxSteps)
		n = e.maxSteps
		e.acc = 0
	} else {
		e.acc -= time.Duration(n) * e.step
	}

	results := make([]TickResult, 0, n)
	for range n {
		results = append(results, e.Tick())
	}
	return results
}

func (e *Engine) input() dragging.Input {
	in := dragging.Input{
		JustPressed:  e.pointer.pressed,
		JustReleased: e.pointer.released,
	}
	if !e.pointer.inside {
		return in
	}
	if p, ok := e.camera.ScreenToWorld(e.pointer.x, e.pointer.y); ok {
		in.Cursor = p
		in.HasCursor = true
	}
	return in
}

// --- Queries (host ← engine) ---

// DrawCommands compiles the current draw command list.
func (e *Engine) DrawCommands() []DrawCommand {
	return CompileDrawCommands(e.reg, e.settings, e.camera.View())
}

// Render returns the draw commands as JSON.
func (e *Engine) Render() string {
	result, _ := DrawCommandsToJSON(e.DrawCommands())
	return result
}

// HitTest performs a hit test at the given window coordinates.
// Returns the ID of the fixed gear that would be grabbed, or empty string.
func (e *Engine) HitTest(x, y float64) string {
	p, ok := e.camera.ScreenToWorld(x, y)
	if !ok {
		return ""
	}
	f, ok := dragging.HitTest(e.reg, p)
	if !ok {
		return ""
	}
	return string(f.ID)
}

// Snapshot returns the parameter-panel view of the simulation.
func (e *Engine) Snapshot() document.Document {
	st := e.ctrl.State()
	return document.Document{
		Tick:     e.tick,
		Settings: e.settings,
		Pointer: document.Pointer{
			Phase:  st.Phase.String(),
			Target: st.Target,
			Cursor: e.ctrl.CursorIcon().String(),
		},
		Fixed: document.FromRegistry(e.reg),
	}
}

// SnapshotJSON returns Snapshot as JSON.
func (e *Engine) SnapshotJSON() string {
	data, err := json.Marshal(e.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// CursorIcon returns the pointer feedback for the host.
func (e *Engine) CursorIcon() dragging.CursorIcon {
	return e.ctrl.CursorIcon()
}

// Settings returns the global settings.
func (e *Engine) Settings() document.Settings {
	return e.settings
}

// Camera returns the current camera.
func (e *Engine) Camera() Camera {
	return e.camera
}

// Registry exposes the gear registry for read-only use by hosts and tests.
func (e *Engine) Registry() *spiro.Registry {
	return e.reg
}

// TickCount returns the number of ticks run so far.
func (e *Engine) TickCount() uint64 {
	return e.tick
}
