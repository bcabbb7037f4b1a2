//go:build !cgo

package host

import (
	"errors"

	"github.com/spirolab/spiro/backend-go/internal/engine"
)

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
}

func RunWindow(_ *engine.Engine, _ WindowConfig) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
