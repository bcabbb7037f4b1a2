package dragging

import "github.com/spirolab/spiro/backend-go/internal/spiro"

// EventType names a drag lifecycle event.
type EventType string

const (
	EventDragStarted   EventType = "drag.start"
	EventDragEnded     EventType = "drag.end"
	EventDragCancelled EventType = "drag.cancel"
)

// Event is produced by Controller.Update and drained by the caller once per tick.
type Event struct {
	Type       EventType    `json:"type"`
	Gear       spiro.GearID `json:"gearId"`
	Position   spiro.Vec2   `json:"position"`
	Snapped    bool         `json:"snapped,omitempty"`
	SnapTarget spiro.GearID `json:"snapTarget,omitempty"`
}
