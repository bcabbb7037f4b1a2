package document

import "github.com/spirolab/spiro/backend-go/internal/spiro"

// Document is the parameter-panel view of a running simulation: every fixed
// gear with its rotating gears, plus global settings and pointer state.
type Document struct {
	Tick     uint64      `json:"tick"`
	Settings Settings    `json:"settings"`
	Pointer  Pointer     `json:"pointer"`
	Fixed    []FixedGear `json:"fixed"`
}

// Settings are global toggles owned by the presentation layer.
type Settings struct {
	DebugGuides bool `json:"debugGuides"`
	ShowSidebar bool `json:"showSidebar"`
	Paused      bool `json:"paused"`
}

// SettingsPatch holds optional settings edits.
type SettingsPatch struct {
	DebugGuides *bool `json:"debugGuides,omitempty"`
	ShowSidebar *bool `json:"showSidebar,omitempty"`
	Paused      *bool `json:"paused,omitempty"`
}

// Apply returns s with the non-nil fields of p applied.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.DebugGuides != nil {
		s.DebugGuides = *p.DebugGuides
	}
	if p.ShowSidebar != nil {
		s.ShowSidebar = *p.ShowSidebar
	}
	if p.Paused != nil {
		s.Paused = *p.Paused
	}
	return s
}

// Pointer describes the hover/drag state for cursor feedback.
type Pointer struct {
	Phase  string       `json:"phase"`
	Target spiro.GearID `json:"target,omitempty"`
	Cursor string       `json:"cursor"`
}

type FixedGear struct {
	ID        spiro.GearID   `json:"id"`
	Position  spiro.Vec2     `json:"position"`
	Radius    float64        `json:"radius"`
	Color     string         `json:"color"`
	Draggable bool           `json:"draggable"`
	Gears     []RotatingGear `json:"gears"`
}

type RotatingGear struct {
	ID          spiro.GearID `json:"id"`
	Parent      spiro.GearID `json:"parent"`
	Angle       float64      `json:"angle"`
	Speed       float64      `json:"speed"`
	Radius      float64      `json:"radius"`
	PenOffset   float64      `json:"pen"`
	Position    spiro.Vec2   `json:"position"`
	Orientation float64      `json:"orientation"`
	PenPosition spiro.Vec2   `json:"penPosition"`
	TraceLength int          `json:"traceLength"`
	LineColor   string       `json:"lineColor"`
	GearColor   string       `json:"gearColor"`
	Paused      bool         `json:"paused"`
	Held        bool         `json:"held"`
}

// FromRegistry builds the gear section of a document in registry order.
func FromRegistry(reg *spiro.Registry) []FixedGear {
	out := make([]FixedGear, 0, reg.FixedCount())
	reg.Each(func(f *spiro.FixedGear, children []*spiro.RotatingGear) {
		fg := FixedGear{
			ID:        f.ID,
			Position:  f.Position,
			Radius:    f.Radius,
			Color:     f.Color,
			Draggable: f.Draggable,
			Gears:     make([]RotatingGear, 0, len(children)),
		}
		for _, g := range children {
			fg.Gears = append(fg.Gears, RotatingGear{
				ID:          g.ID,
				Parent:      g.Parent,
				Angle:       g.Angle,
				Speed:       g.Speed,
				Radius:      g.Radius,
				PenOffset:   g.PenOffset,
				Position:    g.Position,
				Orientation: g.Orientation,
				PenPosition: g.Pen,
				TraceLength: len(g.Trace),
				LineColor:   g.LineColor,
				GearColor:   g.GearColor,
				Paused:      g.Paused,
				Held:        g.Held(),
			})
		}
		out = append(out, fg)
	})
	return out
}
