package engine

import (
	"encoding/json"

	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

// Draw operations.
const (
	OpCircle   = "circle"
	OpPolyline = "polyline"
	OpAxes     = "axes"
	OpPoint    = "point"
)

// Guide sizes, in world units.
const (
	AxesLength   = 10.0
	CenterRadius = 0.1
	PenRadius    = 1.0
)

// DrawCommand represents a single drawing operation for a host renderer to execute.
// Coordinates are in world space; Transform carries the camera view matrix for
// hosts that draw in window space.
type DrawCommand struct {
	Op          string       `json:"op"`                    // Operation: "circle", "polyline", "axes", "point"
	ObjectID    string       `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64    `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	X           float64      `json:"x"`                     // Centre or origin
	Y           float64      `json:"y"`                     //
	Radius      float64      `json:"radius,omitempty"`      // Circle and point radius
	Angle       float64      `json:"angle,omitempty"`       // Axes orientation (radians)
	Length      float64      `json:"length,omitempty"`      // Axes half-length
	Points      []spiro.Vec2 `json:"points,omitempty"`      // Polyline vertices
	Stroke      string       `json:"stroke,omitempty"`      // Stroke color
	Fill        string       `json:"fill,omitempty"`        // Fill color
	StrokeWidth float64      `json:"strokeWidth,omitempty"` // Stroke width
}

// CompileDrawCommands generates the draw command buffer for the registry.
// Commands are in painter's order (back to front): traces, then gear guides
// when enabled, then pen markers when enabled.
func CompileDrawCommands(reg *spiro.Registry, settings document.Settings, view Matrix2D) []DrawCommand {
	transform := view.ToSlice()
	commands := make([]DrawCommand, 0)

	reg.Each(func(_ *spiro.FixedGear, children []*spiro.RotatingGear) {
		for _, g := range children {
			if len(g.Trace) < 2 {
				continue
			}
			commands = append(commands, DrawCommand{
				Op:          OpPolyline,
				ObjectID:    string(g.ID),
				Transform:   transform,
				Points:      g.Trace,
				Stroke:      g.LineColor,
				StrokeWidth: 1,
			})
		}
	})

	if !settings.DebugGuides {
		return commands
	}

	reg.Each(func(f *spiro.FixedGear, children []*spiro.RotatingGear) {
		commands = append(commands, gearGuide(string(f.ID), f.Position, f.Radius, f.Color, transform)...)
		for _, g := range children {
			commands = append(commands, gearGuide(string(g.ID), g.Position, g.Radius, g.GearColor, transform)...)
			commands = append(commands, DrawCommand{
				Op:        OpAxes,
				ObjectID:  string(g.ID),
				Transform: transform,
				X:         g.Position.X,
				Y:         g.Position.Y,
				Angle:     g.Orientation,
				Length:    AxesLength,
			})
		}
	})

	reg.Each(func(_ *spiro.FixedGear, children []*spiro.RotatingGear) {
		for _, g := range children {
			commands = append(commands, DrawCommand{
				Op:        OpPoint,
				ObjectID:  string(g.ID),
				Transform: transform,
				X:         g.Pen.X,
				Y:         g.Pen.Y,
				Radius:    PenRadius,
				Stroke:    spiro.ColorPink600,
			})
		}
	})

	return commands
}

// gearGuide outlines a gear and marks its centre.
func gearGuide(id string, pos spiro.Vec2, radius float64, color string, transform []float64) []DrawCommand {
	return []DrawCommand{
		{
			Op:          OpCircle,
			ObjectID:    id,
			Transform:   transform,
			X:           pos.X,
			Y:           pos.Y,
			Radius:      radius,
			Stroke:      color,
			StrokeWidth: 1,
		},
		{
			Op:        OpCircle,
			ObjectID:  id,
			Transform: transform,
			X:         pos.X,
			Y:         pos.Y,
			Radius:    CenterRadius,
			Stroke:    spiro.ColorRed600,
		},
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
