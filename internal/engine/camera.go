package engine

import "github.com/spirolab/spiro/backend-go/internal/spiro"

// Camera maps between window space (origin top-left, y down) and world space
// (origin at the viewport centre, y up). A zero-sized viewport means no camera
// is available and no cursor can be projected.
type Camera struct {
	Width  float64
	Height float64

	// Window units per world unit on each axis. Zero means 1. Character-cell
	// hosts use unequal scales to compensate for tall cells.
	ScaleX float64
	ScaleY float64
}

func (c Camera) scales() (float64, float64) {
	sx, sy := c.ScaleX, c.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

// View returns the world-to-window matrix.
func (c Camera) View() Matrix2D {
	sx, sy := c.scales()
	return Translate(c.Width/2, c.Height/2).Multiply(Scale(sx, -sy))
}

// Ready reports whether the camera has a usable viewport.
func (c Camera) Ready() bool {
	return c.Width > 0 && c.Height > 0
}

// ScreenToWorld projects a window-space point into the world. It fails when the
// camera is not ready or the point lies outside the viewport.
func (c Camera) ScreenToWorld(x, y float64) (spiro.Vec2, bool) {
	if !c.Ready() || x < 0 || y < 0 || x > c.Width || y > c.Height {
		return spiro.Vec2{}, false
	}
	inv, ok := c.View().Invert()
	if !ok {
		return spiro.Vec2{}, false
	}
	wx, wy := inv.TransformPoint(x, y)
	return spiro.V2(wx, wy), true
}

// WorldToScreen projects a world point into window space.
func (c Camera) WorldToScreen(p spiro.Vec2) (float64, float64) {
	return c.View().TransformPoint(p.X, p.Y)
}
