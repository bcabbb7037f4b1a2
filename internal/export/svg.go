// Package export renders gear traces to standalone files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

// Padding around the traced area, in world units.
const Padding = 20.0

// Trace is one polyline to export.
type Trace struct {
	ID     spiro.GearID
	Color  string
	Points []spiro.Vec2
}

// bounds tracks the extent of everything drawn.
type bounds struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newBounds() *bounds {
	return &bounds{
		minX:  math.Inf(1),
		minY:  math.Inf(1),
		maxX:  math.Inf(-1),
		maxY:  math.Inf(-1),
		empty: true,
	}
}

func (b *bounds) add(p spiro.Vec2) {
	b.minX = min(b.minX, p.X)
	b.minY = min(b.minY, p.Y)
	b.maxX = max(b.maxX, p.X)
	b.maxY = max(b.maxY, p.Y)
	b.empty = false
}

// TracesFromRegistry collects every rotating gear's trace in registry order.
// Traces with fewer than two points are skipped.
func TracesFromRegistry(reg *spiro.Registry) []Trace {
	var traces []Trace
	reg.Each(func(_ *spiro.FixedGear, children []*spiro.RotatingGear) {
		for _, g := range children {
			if len(g.Trace) < 2 {
				continue
			}
			traces = append(traces, Trace{ID: g.ID, Color: g.LineColor, Points: g.Trace})
		}
	})
	return traces
}

// WriteSVG writes the traces as an SVG document, one polyline per trace. World
// y points up, so the document flips the y axis.
func WriteSVG(w io.Writer, traces []Trace) error {
	b := newBounds()
	for _, t := range traces {
		for _, p := range t.Points {
			b.add(p)
		}
	}
	if b.empty {
		b.add(spiro.Vec2{})
	}

	x := b.minX - Padding
	y := -b.maxY - Padding
	width := b.maxX - b.minX + 2*Padding
	height := b.maxY - b.minY + 2*Padding

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f" width="%.0f" height="%.0f">`,
		x, y, width, height, math.Ceil(width), math.Ceil(height))
	bw.WriteString("\n")
	fmt.Fprintf(bw, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`, x, y, width, height, "#000000")
	bw.WriteString("\n")

	for _, t := range traces {
		var points strings.Builder
		for i, p := range t.Points {
			if i > 0 {
				points.WriteByte(' ')
			}
			fmt.Fprintf(&points, "%.2f,%.2f", p.X, -p.Y)
		}
		fmt.Fprintf(bw, `  <polyline id="%s" points="%s" fill="none" stroke="%s" stroke-width="1"/>`,
			escapeXML(string(t.ID)), points.String(), escapeXML(t.Color))
		bw.WriteString("\n")
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// SanitizeName maps a user-supplied name onto a safe file name.
func SanitizeName(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}
