package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/spiro"
)

var (
	ErrUnknownCommand = errors.New("unknown command type")
	ErrInvalidPayload = errors.New("invalid command payload")
)

// Command types accepted by Enqueue and ApplyNow.
const (
	CmdAddFixed       = "fixed.add"
	CmdAddGear        = "gear.add"
	CmdRemoveGear     = "gear.remove"
	CmdUpdateGear     = "gear.update"
	CmdUpdateFixed    = "fixed.update"
	CmdClearTrace     = "trace.clear"
	CmdClearAllTraces = "trace.clearAll"
	CmdUpdateSettings = "settings.update"
	CmdToggleSidebar  = "sidebar.toggle"
)

// Command is a user edit to the simulation. Commands queued with Enqueue are
// applied after the kinematics step of the next tick.
type Command struct {
	ID       string          `json:"id,omitempty"`
	Type     string          `json:"type"`
	GearID   spiro.GearID    `json:"gearId,omitempty"`
	ParentID spiro.GearID    `json:"parentId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"` // Type-specific data
}

// PositionPayload is the payload of fixed.add. Missing coordinates fall back to the spawn position.
type PositionPayload struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// CommandResult reports the outcome of one applied command.
type CommandResult struct {
	ID     string       `json:"id,omitempty"`
	Type   string       `json:"type"`
	GearID spiro.GearID `json:"gearId,omitempty"` // gear created or affected
	Err    error        `json:"-"`
	Error  string       `json:"error,omitempty"`
}

// NewCommand builds a command with a JSON-encoded payload. A nil payload is omitted.
func NewCommand(typ string, gearID spiro.GearID, payload any) (Command, error) {
	cmd := Command{Type: typ, GearID: gearID}
	if payload == nil {
		return cmd, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Command{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	cmd.Payload = data
	return cmd, nil
}

func (e *Engine) apply(cmd Command) CommandResult {
	res := CommandResult{ID: cmd.ID, Type: cmd.Type, GearID: cmd.GearID}
	id, err := e.applyCommand(cmd)
	if id != "" {
		res.GearID = id
	}
	if err != nil {
		res.Err = err
		res.Error = err.Error()
	}
	return res
}

func (e *Engine) applyCommand(cmd Command) (spiro.GearID, error) {
	switch cmd.Type {
	case CmdAddFixed:
		return e.applyAddFixed(cmd)
	case CmdAddGear:
		return e.applyAddGear(cmd)
	case CmdRemoveGear:
		return cmd.GearID, e.reg.Remove(cmd.GearID)
	case CmdUpdateGear:
		var patch spiro.RotatingPatch
		if err := decodePayload(cmd, &patch); err != nil {
			return "", err
		}
		return cmd.GearID, e.reg.UpdateRotating(cmd.GearID, patch)
	case CmdUpdateFixed:
		var patch spiro.FixedPatch
		if err := decodePayload(cmd, &patch); err != nil {
			return "", err
		}
		return cmd.GearID, e.reg.UpdateFixed(cmd.GearID, patch)
	case CmdClearTrace:
		return cmd.GearID, e.reg.ClearTrace(cmd.GearID)
	case CmdClearAllTraces:
		e.reg.ClearAllTraces()
		return "", nil
	case CmdUpdateSettings:
		var patch document.SettingsPatch
		if err := decodePayload(cmd, &patch); err != nil {
			return "", err
		}
		e.settings = e.settings.Apply(patch)
		return "", nil
	case CmdToggleSidebar:
		e.settings.ShowSidebar = !e.settings.ShowSidebar
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Type)
	}
}

// applyAddFixed spawns an anchor with default parameters and one default rotating gear.
func (e *Engine) applyAddFixed(cmd Command) (spiro.GearID, error) {
	var pos PositionPayload
	if err := decodePayload(cmd, &pos); err != nil {
		return "", err
	}
	at := spiro.DefaultSpawnPosition
	if pos.X != nil {
		at.X = *pos.X
	}
	if pos.Y != nil {
		at.Y = *pos.Y
	}

	f := e.reg.AddFixed(spiro.DefaultFixedParams(at))
	if _, err := e.reg.AddRotating(f.ID, spiro.DefaultRotatingParams()); err != nil {
		return f.ID, err
	}
	return f.ID, nil
}

func (e *Engine) applyAddGear(cmd Command) (spiro.GearID, error) {
	parent := cmd.ParentID
	if parent == "" {
		parent = cmd.GearID
	}
	g, err := e.reg.AddRotating(parent, spiro.DefaultRotatingParams())
	if err != nil {
		return "", err
	}
	return g.ID, nil
}

func decodePayload(cmd Command, v any) error {
	if len(cmd.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(cmd.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, cmd.Type, err)
	}
	return nil
}

// ClampRanges clamps edits to the ranges the parameter panel offers: speed
// [0.01, 1], radius [1, 128], pen [1, 128]. The engine itself never clamps.
func ClampRanges(p spiro.RotatingPatch) spiro.RotatingPatch {
	if p.Speed != nil {
		v := clamp(*p.Speed, 0.01, 1)
		p.Speed = &v
	}
	if p.Radius != nil {
		v := clamp(*p.Radius, 1, 128)
		p.Radius = &v
	}
	if p.PenOffset != nil {
		v := clamp(*p.PenOffset, 1, 128)
		p.PenOffset = &v
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
