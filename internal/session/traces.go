package session

import (
	"slices"

	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

// TraceDelta carries the trace points of one gear that the client has not
// seen yet. From is the index of the first point; From 0 replaces whatever the
// client holds for the gear.
type TraceDelta struct {
	Gear   spiro.GearID `json:"gearId"`
	Color  string       `json:"color"`
	From   int          `json:"from"`
	Points []spiro.Vec2 `json:"points"`
}

// traceTracker remembers how many points of each trace were already sent.
// Loop-owned.
type traceTracker struct {
	sent map[spiro.GearID]int
}

func newTraceTracker() *traceTracker {
	return &traceTracker{sent: make(map[spiro.GearID]int)}
}

// reset forgets everything sent, so the next diff resends every trace.
func (t *traceTracker) reset() {
	clear(t.sent)
}

// diff returns the new points of every trace since the previous diff, and
// the gears that no longer exist.
func (t *traceTracker) diff(reg *spiro.Registry) ([]TraceDelta, []spiro.GearID) {
	var deltas []TraceDelta
	seen := make(map[spiro.GearID]bool, len(t.sent))

	reg.Each(func(_ *spiro.FixedGear, children []*spiro.RotatingGear) {
		for _, g := range children {
			seen[g.ID] = true
			n := len(g.Trace)
			prev, known := t.sent[g.ID]
			t.sent[g.ID] = n

			from := prev
			switch {
			case !known && n == 0:
				continue
			case !known, n < prev:
				// New to the client, or cleared since.
				from = 0
			case n == prev:
				continue
			}
			deltas = append(deltas, TraceDelta{
				Gear:   g.ID,
				Color:  g.LineColor,
				From:   from,
				Points: slices.Clone(g.Trace[from:]),
			})
		}
	})

	var removed []spiro.GearID
	for id := range t.sent {
		if !seen[id] {
			removed = append(removed, id)
			delete(t.sent, id)
		}
	}
	slices.Sort(removed)
	return deltas, removed
}
