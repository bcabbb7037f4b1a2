package spiro

import (
	"fmt"
	"strconv"
	"strings"
)

// GearID identifies a fixed or rotating gear. Fixed gears carry the "fgear"
// typeid prefix and rotating gears the "gear" prefix.
type GearID string

// Palette entries used for defaults and guides.
const (
	ColorAmber600  = "#d97706"
	ColorPurple600 = "#9333ea"
	ColorPink600   = "#db2777"
	ColorRed600    = "#dc2626"
	ColorSlate50   = "#f8fafc"
)

// Defaults applied when gears are spawned without explicit parameters.
const (
	DefaultFixedRadius    = 150.0
	DefaultRotatingRadius = 55.0
	DefaultSpeed          = 0.1
	DefaultPenOffset      = 40.0
)

// DefaultSpawnPosition is where the "add spirograph" action places a new anchor.
var DefaultSpawnPosition = Vec2{X: 200, Y: 0}

// FixedGear is a stationary anchor that rotating gears roll around.
type FixedGear struct {
	ID        GearID
	Position  Vec2
	Radius    float64
	Color     string
	Draggable bool

	// Children in insertion (draw) order.
	Children []GearID

	// degenerate is set once a zero radius has been reported, so the warning fires once.
	degenerate bool
	// held is set while the anchor is dragged; children added meanwhile start held.
	held bool
}

// Held reports whether a drag currently holds this anchor's children.
func (f *FixedGear) Held() bool {
	return f.held
}

// RotatingGear rolls around its parent FixedGear and traces its pen.
type RotatingGear struct {
	ID     GearID
	Parent GearID

	Angle     float64
	Speed     float64
	Radius    float64
	PenOffset float64

	// Derived each tick by the kinematics step.
	Position    Vec2
	Orientation float64
	Pen         Vec2

	Trace []Vec2

	LineColor string
	GearColor string

	// Paused is the user-controlled flag.
	Paused bool
	// held is forced on while the parent anchor is being dragged.
	held bool
}

// Held reports whether a drag currently forces this gear to pause.
func (g *RotatingGear) Held() bool {
	return g.held
}

// EffectivelyPaused is true when either the user or an active drag pauses the gear.
func (g *RotatingGear) EffectivelyPaused() bool {
	return g.Paused || g.held
}

// FixedParams describes a fixed gear to spawn.
type FixedParams struct {
	Position  Vec2
	Radius    float64
	Color     string
	Draggable bool
}

// RotatingParams describes a rotating gear to spawn.
type RotatingParams struct {
	Speed     float64
	Radius    float64
	PenOffset float64
	LineColor string
	GearColor string
	Paused    bool
}

// DefaultFixedParams returns the parameters of a freshly added spirograph anchor.
func DefaultFixedParams(pos Vec2) FixedParams {
	return FixedParams{
		Position:  pos,
		Radius:    DefaultFixedRadius,
		Color:     ColorAmber600,
		Draggable: true,
	}
}

// DefaultRotatingParams returns the parameters of a freshly added rotating gear.
func DefaultRotatingParams() RotatingParams {
	return RotatingParams{
		Speed:     DefaultSpeed,
		Radius:    DefaultRotatingRadius,
		PenOffset: DefaultPenOffset,
		LineColor: ColorPurple600,
		GearColor: ColorPurple600,
	}
}

// RotatingPatch holds optional edits to a rotating gear. Nil fields are left untouched.
type RotatingPatch struct {
	Speed     *float64 `json:"speed,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
	PenOffset *float64 `json:"pen,omitempty"`
	LineColor *string  `json:"lineColor,omitempty"`
	GearColor *string  `json:"gearColor,omitempty"`
	Paused    *bool    `json:"paused,omitempty"`
}

// FixedPatch holds optional edits to a fixed gear.
type FixedPatch struct {
	Radius    *float64 `json:"radius,omitempty"`
	Color     *string  `json:"color,omitempty"`
	Draggable *bool    `json:"draggable,omitempty"`
}

// RGBA is a parsed colour with 8-bit channels.
type RGBA struct {
	R, G, B, A uint8
}

// RGBA implements color.Color.
func (c RGBA) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	a = uint32(c.A)
	a |= a << 8
	// color.Color expects alpha-premultiplied values
	r = r * a / 0xffff
	g = g * a / 0xffff
	b = b * a / 0xffff
	return
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return RGBA{}, fmt.Errorf("invalid color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		return RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	return RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ColorOrWhite parses s, falling back to opaque white for renderers that must paint something.
func ColorOrWhite(s string) RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	return c
}
