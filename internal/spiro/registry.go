package spiro

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spirolab/spiro/backend-go/internal/typeid"
)

var (
	ErrGearNotFound   = errors.New("gear not found")
	ErrParentNotFound = errors.New("parent fixed gear not found")
	ErrNotFixed       = errors.New("gear is not a fixed gear")
	ErrNotRotating    = errors.New("gear is not a rotating gear")
)

// Registry owns every fixed anchor and, per anchor, its rotating gears.
//
// Gears live in an arena keyed by ID. Fixed gears iterate in creation order and
// each fixed gear lists its children in insertion order, which gives hit testing
// and the kinematics step a total, stable order.
type Registry struct {
	fixed    map[GearID]*FixedGear
	order    []GearID
	rotating map[GearID]*RotatingGear
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fixed:    make(map[GearID]*FixedGear),
		rotating: make(map[GearID]*RotatingGear),
	}
}

// AddFixed spawns a fixed gear and returns it.
func (r *Registry) AddFixed(p FixedParams) *FixedGear {
	f := &FixedGear{
		ID:        GearID(typeid.NewFixedGearID()),
		Position:  p.Position,
		Radius:    p.Radius,
		Color:     p.Color,
		Draggable: p.Draggable,
	}
	r.fixed[f.ID] = f
	r.order = append(r.order, f.ID)
	return f
}

// AddRotating spawns a rotating gear under parent. The gear is placed at its
// angle-zero position immediately so it is drawable before the first tick.
func (r *Registry) AddRotating(parent GearID, p RotatingParams) (*RotatingGear, error) {
	f, ok := r.fixed[parent]
	if !ok {
		return nil, fmt.Errorf("add gear to %s: %w", parent, ErrParentNotFound)
	}

	g := &RotatingGear{
		ID:        GearID(typeid.NewRotatingGearID()),
		Parent:    parent,
		Speed:     p.Speed,
		Radius:    p.Radius,
		PenOffset: p.PenOffset,
		LineColor: p.LineColor,
		GearColor: p.GearColor,
		Paused:    p.Paused,
		held:      f.held,
		Trace:     make([]Vec2, 0),
	}
	if f.Radius != 0 {
		place(f, g)
	} else {
		g.Position = f.Position
		g.Pen = f.Position
	}

	r.rotating[g.ID] = g
	f.Children = append(f.Children, g.ID)
	return g, nil
}

// RemoveFixed destroys a fixed gear and every rotating gear it owns.
func (r *Registry) RemoveFixed(id GearID) error {
	f, ok := r.fixed[id]
	if !ok {
		if _, isRotating := r.rotating[id]; isRotating {
			return fmt.Errorf("remove %s: %w", id, ErrNotFixed)
		}
		return fmt.Errorf("remove %s: %w", id, ErrGearNotFound)
	}

	for _, childID := range f.Children {
		delete(r.rotating, childID)
	}
	delete(r.fixed, id)
	r.order = slices.DeleteFunc(r.order, func(other GearID) bool { return other == id })
	return nil
}

// RemoveRotating destroys a rotating gear and unlinks it from its parent.
func (r *Registry) RemoveRotating(id GearID) error {
	g, ok := r.rotating[id]
	if !ok {
		if _, isFixed := r.fixed[id]; isFixed {
			return fmt.Errorf("remove %s: %w", id, ErrNotRotating)
		}
		return fmt.Errorf("remove %s: %w", id, ErrGearNotFound)
	}

	if f, ok := r.fixed[g.Parent]; ok {
		f.Children = slices.DeleteFunc(f.Children, func(other GearID) bool { return other == id })
	}
	delete(r.rotating, id)
	return nil
}

// Remove destroys a gear of either kind, cascading for fixed gears.
func (r *Registry) Remove(id GearID) error {
	if _, ok := r.fixed[id]; ok {
		return r.RemoveFixed(id)
	}
	return r.RemoveRotating(id)
}

// Fixed returns the fixed gear with the given ID, or nil.
func (r *Registry) Fixed(id GearID) *FixedGear {
	return r.fixed[id]
}

// Rotating returns the rotating gear with the given ID, or nil. Orphans are not returned.
func (r *Registry) Rotating(id GearID) *RotatingGear {
	g, ok := r.rotating[id]
	if !ok {
		return nil
	}
	if _, ok := r.fixed[g.Parent]; !ok {
		return nil
	}
	return g
}

// FixedGears returns every fixed gear in creation order.
func (r *Registry) FixedGears() []*FixedGear {
	out := make([]*FixedGear, 0, len(r.order))
	for _, id := range r.order {
		if f, ok := r.fixed[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Children returns the rotating gears owned by a fixed gear in insertion order.
func (r *Registry) Children(id GearID) []*RotatingGear {
	f, ok := r.fixed[id]
	if !ok {
		return nil
	}
	out := make([]*RotatingGear, 0, len(f.Children))
	for _, childID := range f.Children {
		if g, ok := r.rotating[childID]; ok && g.Parent == id {
			out = append(out, g)
		}
	}
	return out
}

// Each calls fn for every fixed gear and its children, in registry order.
func (r *Registry) Each(fn func(f *FixedGear, children []*RotatingGear)) {
	for _, f := range r.FixedGears() {
		fn(f, r.Children(f.ID))
	}
}

// FixedCount returns the number of fixed gears.
func (r *Registry) FixedCount() int {
	return len(r.order)
}

// RotatingCount returns the number of rotating gears reachable through a parent.
func (r *Registry) RotatingCount() int {
	n := 0
	for _, f := range r.FixedGears() {
		n += len(r.Children(f.ID))
	}
	return n
}

// MoveFixed sets a fixed gear's world position.
func (r *Registry) MoveFixed(id GearID, pos Vec2) error {
	f, ok := r.fixed[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrGearNotFound)
	}
	f.Position = pos
	return nil
}

// HoldChildren force-pauses every rotating gear owned by a fixed gear, including
// gears added to it before ReleaseChildren.
func (r *Registry) HoldChildren(id GearID) error {
	f, ok := r.fixed[id]
	if !ok {
		return fmt.Errorf("hold %s: %w", id, ErrGearNotFound)
	}
	f.held = true
	for _, g := range r.Children(id) {
		g.held = true
	}
	return nil
}

// ReleaseChildren lifts the forced pause on a fixed gear's children. When
// clearUserPause is set the user pause flag is cleared as well, so every child
// resumes regardless of its state before the drag.
func (r *Registry) ReleaseChildren(id GearID, clearUserPause bool) error {
	f, ok := r.fixed[id]
	if !ok {
		return fmt.Errorf("release %s: %w", id, ErrGearNotFound)
	}
	f.held = false
	for _, g := range r.Children(id) {
		g.held = false
		if clearUserPause {
			g.Paused = false
		}
	}
	return nil
}

// ClearTrace empties a rotating gear's trace without touching anything else.
func (r *Registry) ClearTrace(id GearID) error {
	g := r.Rotating(id)
	if g == nil {
		return fmt.Errorf("clear trace %s: %w", id, ErrGearNotFound)
	}
	g.Trace = make([]Vec2, 0)
	return nil
}

// ClearAllTraces empties every trace.
func (r *Registry) ClearAllTraces() {
	r.Each(func(_ *FixedGear, children []*RotatingGear) {
		for _, g := range children {
			g.Trace = make([]Vec2, 0)
		}
	})
}

// UpdateRotating applies user edits to a rotating gear.
func (r *Registry) UpdateRotating(id GearID, p RotatingPatch) error {
	g := r.Rotating(id)
	if g == nil {
		return fmt.Errorf("update %s: %w", id, ErrGearNotFound)
	}
	if p.LineColor != nil {
		if _, err := ParseColor(*p.LineColor); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}
	if p.GearColor != nil {
		if _, err := ParseColor(*p.GearColor); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}

	if p.Speed != nil {
		g.Speed = *p.Speed
	}
	if p.Radius != nil {
		g.Radius = *p.Radius
	}
	if p.PenOffset != nil {
		g.PenOffset = *p.PenOffset
	}
	if p.LineColor != nil {
		g.LineColor = *p.LineColor
	}
	if p.GearColor != nil {
		g.GearColor = *p.GearColor
	}
	if p.Paused != nil {
		g.Paused = *p.Paused
	}
	return nil
}

// UpdateFixed applies user edits to a fixed gear.
func (r *Registry) UpdateFixed(id GearID, p FixedPatch) error {
	f, ok := r.fixed[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrGearNotFound)
	}
	if p.Color != nil {
		if _, err := ParseColor(*p.Color); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
		f.Color = *p.Color
	}
	if p.Radius != nil {
		f.Radius = *p.Radius
	}
	if p.Draggable != nil {
		f.Draggable = *p.Draggable
	}
	return nil
}

// Compact reclaims rotating gears whose parent no longer exists or no longer
// lists them, and drops dangling child IDs. It returns the number of gears reclaimed.
func (r *Registry) Compact() int {
	reclaimed := 0
	for id, g := range r.rotating {
		f, ok := r.fixed[g.Parent]
		if !ok || !slices.Contains(f.Children, id) {
			delete(r.rotating, id)
			reclaimed++
		}
	}
	for _, f := range r.fixed {
		f.Children = slices.DeleteFunc(f.Children, func(id GearID) bool {
			g, ok := r.rotating[id]
			return !ok || g.Parent != f.ID
		})
	}
	return reclaimed
}
