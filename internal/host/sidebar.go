package host

import (
	"fmt"
	"strings"

	"github.com/spirolab/spiro/backend-go/internal/document"
)

const sidebarHelp = "esc sidebar  space pause  g guides  c clear  a add  q quit"

// SidebarLines formats the parameter panel as plain text lines.
func SidebarLines(doc document.Document) []string {
	lines := []string{
		fmt.Sprintf("tick %d  %s", doc.Tick, pauseLabel(doc.Settings.Paused)),
		fmt.Sprintf("guides %v  cursor %s", doc.Settings.DebugGuides, doc.Pointer.Cursor),
	}
	for i, f := range doc.Fixed {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("spirograph %d  r=%.0f  at (%.0f, %.0f)", i+1, f.Radius, f.Position.X, f.Position.Y))
		for j, g := range f.Gears {
			state := ""
			switch {
			case g.Held:
				state = " [held]"
			case g.Paused:
				state = " [paused]"
			}
			lines = append(lines, fmt.Sprintf("  gear %d  speed %.2f  r %.0f  pen %.0f  line %d%s",
				j+1, g.Speed, g.Radius, g.PenOffset, g.TraceLength, state))
		}
	}
	lines = append(lines, "", sidebarHelp)
	return lines
}

// SidebarText joins SidebarLines with newlines.
func SidebarText(doc document.Document) string {
	return strings.Join(SidebarLines(doc), "\n")
}

func pauseLabel(paused bool) string {
	if paused {
		return "paused"
	}
	return "running"
}
