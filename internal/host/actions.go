// Package host drives an engine from a desktop window, a terminal or a plain
// ticker, translating local input into engine calls.
package host

import (
	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/engine"
)

// Action is a keyboard shortcut shared by every interactive host.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionToggleSidebar
	ActionTogglePause
	ActionToggleGuides
	ActionClearAll
	ActionAddSpirograph
)

// ActionForRune maps a typed character to an action.
func ActionForRune(r rune) Action {
	switch r {
	case 'q':
		return ActionQuit
	case ' ':
		return ActionTogglePause
	case 'g':
		return ActionToggleGuides
	case 'c':
		return ActionClearAll
	case 'a':
		return ActionAddSpirograph
	default:
		return ActionNone
	}
}

// Apply queues the engine command for an action. It returns false for ActionQuit.
func Apply(eng *engine.Engine, a Action) bool {
	switch a {
	case ActionQuit:
		return false
	case ActionToggleSidebar:
		eng.Enqueue(engine.Command{Type: engine.CmdToggleSidebar})
	case ActionTogglePause:
		paused := !eng.Settings().Paused
		enqueueSettings(eng, document.SettingsPatch{Paused: &paused})
	case ActionToggleGuides:
		guides := !eng.Settings().DebugGuides
		enqueueSettings(eng, document.SettingsPatch{DebugGuides: &guides})
	case ActionClearAll:
		eng.Enqueue(engine.Command{Type: engine.CmdClearAllTraces})
	case ActionAddSpirograph:
		eng.Enqueue(engine.Command{Type: engine.CmdAddFixed})
	}
	return true
}

func enqueueSettings(eng *engine.Engine, p document.SettingsPatch) {
	cmd, err := engine.NewCommand(engine.CmdUpdateSettings, "", p)
	if err != nil {
		return
	}
	eng.Enqueue(cmd)
}
