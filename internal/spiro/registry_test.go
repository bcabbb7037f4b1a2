package spiro

import (
	"errors"
	"testing"
)

func TestRegistry_CreationOrder(t *testing.T) {
	reg := NewRegistry()
	a := reg.AddFixed(DefaultFixedParams(V2(0, 0)))
	b := reg.AddFixed(DefaultFixedParams(V2(300, 0)))
	c := reg.AddFixed(DefaultFixedParams(V2(-300, 0)))

	got := reg.FixedGears()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("FixedGears order = %v; want [a b c]", got)
	}

	g1, _ := reg.AddRotating(b.ID, DefaultRotatingParams())
	g2, _ := reg.AddRotating(b.ID, DefaultRotatingParams())
	children := reg.Children(b.ID)
	if len(children) != 2 || children[0] != g1 || children[1] != g2 {
		t.Fatalf("Children order = %v; want [g1 g2]", children)
	}
}

func TestRegistry_AddRotatingUnknownParent(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.AddRotating("fgear_missing", DefaultRotatingParams())
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("AddRotating err = %v; want ErrParentNotFound", err)
	}
}

func TestRegistry_RemoveFixedCascades(t *testing.T) {
	reg := NewRegistry()
	keep := reg.AddFixed(DefaultFixedParams(V2(0, 0)))
	kept, _ := reg.AddRotating(keep.ID, DefaultRotatingParams())

	doomed := reg.AddFixed(DefaultFixedParams(V2(200, 0)))
	var doomedChildren []GearID
	for i := 0; i < 3; i++ {
		g, _ := reg.AddRotating(doomed.ID, DefaultRotatingParams())
		doomedChildren = append(doomedChildren, g.ID)
	}

	if err := reg.Remove(doomed.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if reg.Fixed(doomed.ID) != nil {
		t.Fatalf("fixed gear still present after removal")
	}
	for _, id := range doomedChildren {
		if reg.Rotating(id) != nil {
			t.Fatalf("child %s still reachable after cascade", id)
		}
	}

	seen := 0
	reg.Each(func(f *FixedGear, children []*RotatingGear) {
		for _, g := range children {
			if g.Parent != f.ID {
				t.Fatalf("gear %s iterated under %s but parent is %s", g.ID, f.ID, g.Parent)
			}
			seen++
		}
	})
	if seen != 1 || reg.Rotating(kept.ID) == nil {
		t.Fatalf("iteration saw %d rotating gears; want only the kept one", seen)
	}
	if reg.RotatingCount() != 1 || reg.FixedCount() != 1 {
		t.Fatalf("counts fixed=%d rotating=%d; want 1/1", reg.FixedCount(), reg.RotatingCount())
	}
}

func TestRegistry_RemoveRotatingLeavesParent(t *testing.T) {
	reg := NewRegistry()
	f := reg.AddFixed(DefaultFixedParams(V2(5, 5)))
	g1, _ := reg.AddRotating(f.ID, DefaultRotatingParams())
	g2, _ := reg.AddRotating(f.ID, DefaultRotatingParams())

	if err := reg.RemoveRotating(g1.ID); err != nil {
		t.Fatalf("RemoveRotating: %v", err)
	}
	if len(f.Children) != 1 || f.Children[0] != g2.ID {
		t.Fatalf("Children = %v; want [%s]", f.Children, g2.ID)
	}
	if f.Position != V2(5, 5) || f.Radius != DefaultFixedRadius {
		t.Fatalf("parent mutated: %+v", f)
	}

	if err := reg.RemoveRotating(f.ID); !errors.Is(err, ErrNotRotating) {
		t.Fatalf("RemoveRotating(fixed) err = %v; want ErrNotRotating", err)
	}
	if err := reg.Remove("gear_missing"); !errors.Is(err, ErrGearNotFound) {
		t.Fatalf("Remove(missing) err = %v; want ErrGearNotFound", err)
	}
}

func TestRegistry_ClearTraceIsolated(t *testing.T) {
	reg := NewRegistry()
	f := reg.AddFixed(DefaultFixedParams(V2(0, 0)))
	a, _ := reg.AddRotating(f.ID, DefaultRotatingParams())
	b, _ := reg.AddRotating(f.ID, DefaultRotatingParams())

	for i := 0; i < 5; i++ {
		Step(reg, 1)
	}

	before := *a
	bTrace := len(b.Trace)

	if err := reg.ClearTrace(a.ID); err != nil {
		t.Fatalf("ClearTrace: %v", err)
	}
	if a.Trace == nil || len(a.Trace) != 0 {
		t.Fatalf("Trace = %v; want empty sequence", a.Trace)
	}
	if a.Angle != before.Angle || a.Position != before.Position || a.Pen != before.Pen ||
		a.Speed != before.Speed || a.Radius != before.Radius || a.PenOffset != before.PenOffset ||
		a.LineColor != before.LineColor || a.GearColor != before.GearColor || a.Paused != before.Paused {
		t.Fatalf("ClearTrace changed other attributes")
	}
	if len(b.Trace) != bTrace {
		t.Fatalf("other gear trace len %d; want %d", len(b.Trace), bTrace)
	}

	reg.ClearAllTraces()
	if len(b.Trace) != 0 {
		t.Fatalf("ClearAllTraces left %d points", len(b.Trace))
	}
}

func TestRegistry_ReleaseChildren(t *testing.T) {
	reg := NewRegistry()
	f := reg.AddFixed(DefaultFixedParams(V2(0, 0)))
	userPaused, _ := reg.AddRotating(f.ID, DefaultRotatingParams())
	running, _ := reg.AddRotating(f.ID, DefaultRotatingParams())
	userPaused.Paused = true

	if err := reg.HoldChildren(f.ID); err != nil {
		t.Fatalf("HoldChildren: %v", err)
	}
	if !running.EffectivelyPaused() || !running.Held() {
		t.Fatalf("held child not paused")
	}

	if err := reg.ReleaseChildren(f.ID, false); err != nil {
		t.Fatalf("ReleaseChildren: %v", err)
	}
	if running.EffectivelyPaused() || !userPaused.EffectivelyPaused() {
		t.Fatalf("restore release: running=%v userPaused=%v", running.EffectivelyPaused(), userPaused.EffectivelyPaused())
	}

	_ = reg.HoldChildren(f.ID)
	_ = reg.ReleaseChildren(f.ID, true)
	if userPaused.EffectivelyPaused() {
		t.Fatalf("unconditional release left user pause on")
	}
}

func TestRegistry_AddRotatingWhileHeld(t *testing.T) {
	reg := NewRegistry()
	f := reg.AddFixed(DefaultFixedParams(V2(0, 0)))
	if err := reg.HoldChildren(f.ID); err != nil {
		t.Fatalf("HoldChildren: %v", err)
	}

	late, err := reg.AddRotating(f.ID, DefaultRotatingParams())
	if err != nil {
		t.Fatalf("AddRotating: %v", err)
	}
	if !f.Held() || !late.Held() {
		t.Fatalf("gear added to a held anchor: anchor held=%v, gear held=%v; want both true", f.Held(), late.Held())
	}

	Step(reg, 1)
	if late.Angle != 0 || len(late.Trace) != 0 {
		t.Fatalf("held gear advanced: angle=%v trace=%d", late.Angle, len(late.Trace))
	}

	if err := reg.ReleaseChildren(f.ID, false); err != nil {
		t.Fatalf("ReleaseChildren: %v", err)
	}
	after, _ := reg.AddRotating(f.ID, DefaultRotatingParams())
	if f.Held() || late.Held() || after.Held() {
		t.Fatalf("hold survived release: anchor=%v late=%v after=%v", f.Held(), late.Held(), after.Held())
	}
}

func TestRegistry_UpdateRotating(t *testing.T) {
	reg := NewRegistry()
	f := reg.AddFixed(DefaultFixedParams(V2(0, 0)))
	g, _ := reg.AddRotating(f.ID, DefaultRotatingParams())

	speed, radius, bad := 0.5, 12.0, "not-a-color"
	if err := reg.UpdateRotating(g.ID, RotatingPatch{Speed: &speed, Radius: &radius}); err != nil {
		t.Fatalf("UpdateRotating: %v", err)
	}
	if g.Speed != 0.5 || g.Radius != 12 || g.PenOffset != DefaultPenOffset {
		t.Fatalf("after update: %+v", g)
	}

	if err := reg.UpdateRotating(g.ID, RotatingPatch{Speed: &radius, LineColor: &bad}); err == nil {
		t.Fatalf("UpdateRotating accepted invalid color")
	}
	if g.Speed != 0.5 {
		t.Fatalf("rejected patch was partially applied: speed=%v", g.Speed)
	}
}

func TestRegistry_CompactReclaimsOrphans(t *testing.T) {
	reg := NewRegistry()
	f := reg.AddFixed(DefaultFixedParams(V2(0, 0)))
	g, _ := reg.AddRotating(f.ID, DefaultRotatingParams())

	// Simulate a stale parent reference.
	delete(reg.fixed, f.ID)
	reg.order = nil

	if reg.Rotating(g.ID) != nil {
		t.Fatalf("orphan reachable through Rotating")
	}
	if n := reg.Compact(); n != 1 {
		t.Fatalf("Compact reclaimed %d; want 1", n)
	}
	if len(reg.rotating) != 0 {
		t.Fatalf("orphan still stored after Compact")
	}
}
