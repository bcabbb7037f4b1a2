package engine

import (
	"io"

	"github.com/spirolab/spiro/backend-go/internal/export"
)

// ExportSVG writes every trace as an SVG document.
func (e *Engine) ExportSVG(w io.Writer) error {
	return export.WriteSVG(w, export.TracesFromRegistry(e.reg))
}
