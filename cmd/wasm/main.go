//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"
	"time"

	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.Options{})

	// Create the engine API object
	spiroEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	spiroEngine.Set("setViewport", js.FuncOf(setViewport))
	spiroEngine.Set("setPointer", js.FuncOf(setPointer))
	spiroEngine.Set("pressPointer", js.FuncOf(pressPointer))
	spiroEngine.Set("releasePointer", js.FuncOf(releasePointer))
	spiroEngine.Set("enqueue", js.FuncOf(enqueue))
	spiroEngine.Set("applyNow", js.FuncOf(applyNow))
	spiroEngine.Set("updateSettings", js.FuncOf(updateSettings))
	spiroEngine.Set("tick", js.FuncOf(tick))
	spiroEngine.Set("advance", js.FuncOf(advance))

	// --- Queries (frontend ← backend) ---
	spiroEngine.Set("render", js.FuncOf(render))
	spiroEngine.Set("hitTest", js.FuncOf(hitTest))
	spiroEngine.Set("getState", js.FuncOf(getState))
	spiroEngine.Set("getCursor", js.FuncOf(getCursor))
	spiroEngine.Set("getSettings", js.FuncOf(getSettings))
	spiroEngine.Set("exportSVG", js.FuncOf(exportSVG))

	// Register on global scope
	js.Global().Set("spiroEngine", spiroEngine)

	// Signal that WASM is ready
	js.Global().Set("spiroWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetViewport(args[0].Float(), args[1].Float())
	if len(args) >= 4 {
		eng.SetScale(args[2].Float(), args[3].Float())
	}
	return nil
}

func setPointer(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SetPointer(args[0].Float(), args[1].Float(), args[2].Bool())
	return nil
}

func pressPointer(this js.Value, args []js.Value) interface{} {
	eng.PressPointer()
	return nil
}

func releasePointer(this js.Value, args []js.Value) interface{} {
	eng.ReleasePointer()
	return nil
}

func enqueue(this js.Value, args []js.Value) interface{} {
	cmd, errValue := parseCommand(args)
	if errValue != nil {
		return errValue
	}
	eng.Enqueue(cmd)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func applyNow(this js.Value, args []js.Value) interface{} {
	cmd, errValue := parseCommand(args)
	if errValue != nil {
		return errValue
	}
	res := eng.ApplyNow(cmd)
	if res.Err != nil {
		return js.ValueOf(map[string]interface{}{"error": res.Err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "gearId": string(res.GearID)})
}

func parseCommand(args []js.Value) (engine.Command, interface{}) {
	if len(args) < 1 {
		return engine.Command{}, js.ValueOf(map[string]interface{}{"error": "missing command JSON"})
	}
	var cmd engine.Command
	if err := json.Unmarshal([]byte(args[0].String()), &cmd); err != nil {
		return engine.Command{}, js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return cmd, nil
}

func updateSettings(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing settings JSON"})
	}
	var patch document.SettingsPatch
	if err := json.Unmarshal([]byte(args[0].String()), &patch); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	eng.UpdateSettings(patch)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(marshal([]engine.TickResult{eng.Tick()}))
}

// advance runs the ticks that fit in the elapsed milliseconds and returns their results as JSON.
func advance(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("[]")
	}
	elapsed := time.Duration(args[0].Float() * float64(time.Millisecond))
	return js.ValueOf(marshal(eng.Advance(elapsed)))
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	x := args[0].Float()
	y := args[1].Float()
	return js.ValueOf(eng.HitTest(x, y))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.SnapshotJSON())
}

func getCursor(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CursorIcon().String())
}

func getSettings(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(marshal(eng.Settings()))
}

func exportSVG(this js.Value, args []js.Value) interface{} {
	var sb strings.Builder
	if err := eng.ExportSVG(&sb); err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(sb.String())
}
