package spiro

import (
	"math"
	"slices"
	"testing"
)

func newTestSpirograph(t *testing.T) (*Registry, *FixedGear, *RotatingGear) {
	t.Helper()

	reg := NewRegistry()
	f := reg.AddFixed(FixedParams{Position: V2(10, 20), Radius: 150, Color: ColorAmber600, Draggable: true})
	g, err := reg.AddRotating(f.ID, RotatingParams{Speed: 0.1, Radius: 55, PenOffset: 40, LineColor: ColorPurple600, GearColor: ColorPurple600})
	if err != nil {
		t.Fatalf("AddRotating: %v", err)
	}
	return reg, f, g
}

func TestStep_AppendsFreshPenPosition(t *testing.T) {
	reg, f, g := newTestSpirograph(t)

	report := Step(reg, 1)
	if report.Advanced != 1 {
		t.Fatalf("Advanced = %d; want 1", report.Advanced)
	}
	if g.Angle != 0.1 {
		t.Fatalf("Angle = %v; want 0.1", g.Angle)
	}

	spin, offset := Advance(0.1, 150, 55)
	wantPos := f.Position.Add(offset)
	if g.Position != wantPos {
		t.Fatalf("Position = %+v; want %+v", g.Position, wantPos)
	}
	if g.Orientation != -spin {
		t.Fatalf("Orientation = %v; want %v", g.Orientation, -spin)
	}
	wantPen := wantPos.Add(FromAngle(-spin + math.Pi/2).Mul(40))
	if g.Pen != wantPen {
		t.Fatalf("Pen = %+v; want %+v", g.Pen, wantPen)
	}
	if len(g.Trace) != 1 || g.Trace[0] != wantPen {
		t.Fatalf("Trace = %+v; want [%+v]", g.Trace, wantPen)
	}
}

func TestStep_TraceGrowsByOnePerTick(t *testing.T) {
	reg, _, g := newTestSpirograph(t)

	for i := 1; i <= 50; i++ {
		Step(reg, 1)
		if len(g.Trace) != i {
			t.Fatalf("tick %d: len(Trace) = %d; want %d", i, len(g.Trace), i)
		}
		if g.Trace[i-1] != g.Pen {
			t.Fatalf("tick %d: last trace point %+v != pen %+v", i, g.Trace[i-1], g.Pen)
		}
	}
}

func TestStep_PausedGearUnchanged(t *testing.T) {
	for _, name := range []string{"user", "held"} {
		t.Run(name, func(t *testing.T) {
			reg, f, g := newTestSpirograph(t)
			Step(reg, 1)

			if name == "user" {
				g.Paused = true
			} else if err := reg.HoldChildren(f.ID); err != nil {
				t.Fatalf("HoldChildren: %v", err)
			}

			angle, pos, pen := g.Angle, g.Position, g.Pen
			traceLen := len(g.Trace)

			for i := 0; i < 10; i++ {
				report := Step(reg, 1)
				if report.Paused != 1 || report.Advanced != 0 {
					t.Fatalf("report = %+v; want one paused gear", report)
				}
			}

			if g.Angle != angle || g.Position != pos || g.Pen != pen || len(g.Trace) != traceLen {
				t.Fatalf("paused gear changed: angle %v->%v pos %+v->%+v pen %+v->%+v trace %d->%d",
					angle, g.Angle, pos, g.Position, pen, g.Pen, traceLen, len(g.Trace))
			}
		})
	}
}

func TestStep_NeverEditsUserParameters(t *testing.T) {
	reg, _, g := newTestSpirograph(t)
	g.Speed = -0.3

	for i := 0; i < 20; i++ {
		Step(reg, 1)
	}

	if g.Speed != -0.3 || g.Radius != 55 || g.PenOffset != 40 {
		t.Fatalf("user parameters mutated: speed=%v radius=%v pen=%v", g.Speed, g.Radius, g.PenOffset)
	}
	if math.Abs(g.Angle-(-0.3*20)) > 1e-9 {
		t.Fatalf("Angle = %v; want about -6", g.Angle)
	}
}

func TestStep_ZeroFixedRadiusSkipped(t *testing.T) {
	reg, f, g := newTestSpirograph(t)
	f.Radius = 0

	report := Step(reg, 1)
	if !slices.Contains(report.Skipped, f.ID) {
		t.Fatalf("Skipped = %v; want %s", report.Skipped, f.ID)
	}
	if report.Advanced != 0 || len(g.Trace) != 0 || g.Angle != 0 {
		t.Fatalf("degenerate anchor advanced its gear: report=%+v trace=%d angle=%v", report, len(g.Trace), g.Angle)
	}

	// Recovers once the radius is valid again.
	f.Radius = 100
	report = Step(reg, 1)
	if report.Advanced != 1 || len(report.Skipped) != 0 {
		t.Fatalf("report after recovery = %+v", report)
	}
}

func TestStep_SpawnPlacementMatchesAngleZero(t *testing.T) {
	_, f, g := newTestSpirograph(t)

	want := f.Position.Add(V2(95, 0))
	if g.Position != want {
		t.Fatalf("spawn Position = %+v; want %+v", g.Position, want)
	}
	if len(g.Trace) != 0 {
		t.Fatalf("spawn trace len = %d; want 0", len(g.Trace))
	}
}
