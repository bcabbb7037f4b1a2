// Package dragging resolves pointer ownership across fixed gears: which gear is
// hovered, which one is being dragged, and how a drag ends.
package dragging

import (
	"log/slog"

	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

// DefaultSnapThreshold is the distance within which a dropped anchor collapses onto a neighbour.
const DefaultSnapThreshold = 10.0

// Phase is the controller's state discriminator.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHovering
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseHovering:
		return "hovering"
	case PhaseDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// State is the single hover/drag state. Target and Offset are only meaningful
// outside PhaseIdle. Offset is the target's position minus the cursor at the
// moment the target was picked.
type State struct {
	Phase  Phase
	Target spiro.GearID
	Offset spiro.Vec2
}

// ResumePolicy decides what happens to the dragged anchor's children on drag end.
type ResumePolicy int

const (
	// ResumeAll clears every child's pause, including pauses the user set before the drag.
	ResumeAll ResumePolicy = iota
	// ResumeRestore lifts only the drag hold and keeps user pauses.
	ResumeRestore
)

// ParseResumePolicy maps "all" / "restore" to a policy; anything else is ResumeAll.
func ParseResumePolicy(s string) ResumePolicy {
	if s == "restore" {
		return ResumeRestore
	}
	return ResumeAll
}

// CursorIcon is the pointer feedback the host should display.
type CursorIcon int

const (
	CursorNone CursorIcon = iota
	CursorGrab
	CursorGrabbing
)

func (c CursorIcon) String() string {
	switch c {
	case CursorGrab:
		return "grab"
	case CursorGrabbing:
		return "grabbing"
	default:
		return "none"
	}
}

// Input is one frame of pointer data in world space.
type Input struct {
	Cursor       spiro.Vec2
	HasCursor    bool // false when outside the viewport or no camera is available
	JustPressed  bool
	JustReleased bool
}

// Options configures a Controller.
type Options struct {
	// SnapThreshold is the snap distance; zero or less means DefaultSnapThreshold.
	SnapThreshold float64
	Resume        ResumePolicy
}

// Controller is the hover/drag state machine.
type Controller struct {
	state State
	opts  Options
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = DefaultSnapThreshold
	}
	return &Controller{opts: opts}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Dragging reports whether a drag is active.
func (c *Controller) Dragging() bool {
	return c.state.Phase == PhaseDragging
}

// CursorIcon derives pointer feedback from the current state.
func (c *Controller) CursorIcon() CursorIcon {
	switch c.state.Phase {
	case PhaseHovering:
		return CursorGrab
	case PhaseDragging:
		return CursorGrabbing
	default:
		return CursorNone
	}
}

// Update runs one frame of the state machine against the registry and returns
// the drag events it produced. Steps run in a fixed order: hover resolution,
// press, follow, release.
//
// Without a cursor the hover is cleared but an active drag is kept; the dragged
// gear stays where it is until the cursor returns.
func (c *Controller) Update(reg *spiro.Registry, in Input) []Event {
	var events []Event

	if c.state.Phase == PhaseDragging {
		if ev, cancelled := c.checkTarget(reg); cancelled {
			events = append(events, ev)
		}
	}

	if c.state.Phase != PhaseDragging {
		if in.HasCursor {
			c.state = hover(reg, in.Cursor)
		} else {
			c.state = State{}
		}
	}

	if in.JustPressed && c.state.Phase == PhaseHovering {
		events = append(events, c.startDrag(reg))
	}

	if c.state.Phase == PhaseDragging && in.HasCursor {
		if err := reg.MoveFixed(c.state.Target, in.Cursor.Add(c.state.Offset)); err != nil {
			slog.Warn("drag follow", "error", err)
		}
	}

	if in.JustReleased && c.state.Phase == PhaseDragging {
		events = append(events, c.endDrag(reg))
	}

	return events
}

// HitTest returns the first draggable fixed gear, in creation order, whose
// circle strictly contains p.
func HitTest(reg *spiro.Registry, p spiro.Vec2) (*spiro.FixedGear, bool) {
	for _, f := range reg.FixedGears() {
		if !f.Draggable {
			continue
		}
		if p.Distance(f.Position) < f.Radius {
			return f, true
		}
	}
	return nil, false
}

func hover(reg *spiro.Registry, cursor spiro.Vec2) State {
	f, ok := HitTest(reg, cursor)
	if !ok {
		return State{}
	}
	return State{
		Phase:  PhaseHovering,
		Target: f.ID,
		Offset: f.Position.Sub(cursor),
	}
}

func (c *Controller) startDrag(reg *spiro.Registry) Event {
	c.state.Phase = PhaseDragging
	if err := reg.HoldChildren(c.state.Target); err != nil {
		slog.Warn("hold children", "error", err)
	}
	slog.Debug("drag started", "gear", c.state.Target)
	return Event{Type: EventDragStarted, Gear: c.state.Target}
}

// checkTarget cancels the drag when its target was removed or made
// non-draggable since the last frame. A surviving target's children are
// released under the resume policy.
func (c *Controller) checkTarget(reg *spiro.Registry) (Event, bool) {
	target := c.state.Target
	f := reg.Fixed(target)
	if f != nil && f.Draggable {
		return Event{}, false
	}

	c.state = State{}
	ev := Event{Type: EventDragCancelled, Gear: target}
	if f == nil {
		slog.Debug("drag target removed mid-drag", "gear", target)
		return ev, true
	}

	if err := reg.ReleaseChildren(target, c.opts.Resume == ResumeAll); err != nil {
		slog.Warn("release children", "error", err)
	}
	ev.Position = f.Position
	slog.Debug("drag target no longer draggable", "gear", target)
	return ev, true
}

func (c *Controller) endDrag(reg *spiro.Registry) Event {
	target := c.state.Target
	c.state = State{}

	if err := reg.ReleaseChildren(target, c.opts.Resume == ResumeAll); err != nil {
		slog.Warn("release children", "error", err)
	}

	ev := Event{Type: EventDragEnded, Gear: target}
	f := reg.Fixed(target)
	if f == nil {
		return ev
	}
	ev.Position = f.Position

	if neighbour, ok := Nearest(reg, target, f.Position, c.opts.SnapThreshold); ok {
		if err := reg.MoveFixed(target, neighbour.Position); err != nil {
			slog.Warn("snap", "error", err)
			return ev
		}
		ev.Position = neighbour.Position
		ev.Snapped = true
		ev.SnapTarget = neighbour.ID
	}

	slog.Debug("drag ended", "gear", target, "snapped", ev.Snapped)
	return ev
}

// Nearest finds the fixed gear other than exclude whose position is closest to
// p and strictly within threshold. On equal distance the earliest gear wins.
func Nearest(reg *spiro.Registry, exclude spiro.GearID, p spiro.Vec2, threshold float64) (*spiro.FixedGear, bool) {
	var best *spiro.FixedGear
	bestDist := threshold
	for _, f := range reg.FixedGears() {
		if f.ID == exclude {
			continue
		}
		if d := p.Distance(f.Position); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, best != nil
}
