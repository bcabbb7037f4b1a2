package spiro

import (
	"log/slog"
	"math"
)

// StepReport summarises one kinematics step.
type StepReport struct {
	Advanced int      // rotating gears that moved and traced
	Paused   int      // rotating gears left untouched because they are paused
	Skipped  []GearID // fixed gears whose children were skipped (zero radius)
}

// Step advances every unpaused rotating gear by speed*dt, writes back its world
// transform, derives the pen position from the fresh transform and appends it to
// the trace.
//
// Fixed gears with a zero radius are skipped for this step; the condition is
// logged once per anchor until its radius becomes non-zero again.
func Step(reg *Registry, dt float64) StepReport {
	var report StepReport

	reg.Each(func(f *FixedGear, children []*RotatingGear) {
		if f.Radius == 0 {
			if !f.degenerate {
				slog.Warn("fixed gear has zero radius, skipping its gears", "gear", f.ID, "children", len(children))
				f.degenerate = true
			}
			report.Skipped = append(report.Skipped, f.ID)
			return
		}
		f.degenerate = false

		for _, g := range children {
			if g.EffectivelyPaused() {
				report.Paused++
				continue
			}

			g.Angle += g.Speed * dt
			place(f, g)
			g.Trace = append(g.Trace, g.Pen)
			report.Advanced++
		}
	})

	return report
}

// place recomputes a rotating gear's world transform and pen position from its
// current angle. The pen is derived from the transform written in the same call.
func place(f *FixedGear, g *RotatingGear) {
	spin, offset := Advance(g.Angle, f.Radius, g.Radius)

	g.Position = f.Position.Add(offset)
	g.Orientation = -spin

	g.Pen = g.Position.Add(FromAngle(g.Orientation + math.Pi/2).Mul(g.PenOffset))
}
