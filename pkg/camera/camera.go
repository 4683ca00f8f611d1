// Package camera maps world coordinates to screen coordinates with a pan
// offset and a clamped zoom factor.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Zoom limits and the per-notch wheel factor.
const (
	DefaultMinZoom = 0.2
	DefaultMaxZoom = 5.0
	WheelFactor    = 1.1
)

// Camera is a pan/zoom transform over a viewport of W x H screen units.
// Screen = world*Zoom + Pan.
type Camera struct {
	Pan  r2.Vec
	Zoom float64
	W, H float64

	MinZoom, MaxZoom float64
}

// New returns a camera centered on a w x h viewport at zoom 1.
func New(w, h float64) *Camera {
	c := &Camera{MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom}
	c.Resize(w, h)
	c.Reset()
	return c
}

// SetLimits changes the zoom range and re-clamps the current zoom.
func (c *Camera) SetLimits(minZoom, maxZoom float64) {
	if minZoom <= 0 || maxZoom < minZoom {
		minZoom, maxZoom = DefaultMinZoom, DefaultMaxZoom
	}
	c.MinZoom, c.MaxZoom = minZoom, maxZoom
	c.Zoom = c.clamp(c.Zoom)
}

// Reset centers the world origin in the viewport at zoom 1.
func (c *Camera) Reset() {
	c.Pan = r2.Vec{X: c.W / 2, Y: c.H / 2}
	c.Zoom = c.clamp(1)
}

// Resize records new viewport dimensions. Pan and zoom are kept.
func (c *Camera) Resize(w, h float64) {
	c.W, c.H = math.Max(0, w), math.Max(0, h)
}

// WorldToScreen maps a world point to the screen.
func (c *Camera) WorldToScreen(p r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(c.Zoom, p), c.Pan)
}

// ScreenToWorld maps a screen point back into world space.
func (c *Camera) ScreenToWorld(p r2.Vec) r2.Vec {
	return r2.Scale(1/c.Zoom, r2.Sub(p, c.Pan))
}

// PanBy shifts the view by a screen-space delta.
func (c *Camera) PanBy(d r2.Vec) {
	c.Pan = r2.Add(c.Pan, d)
}

// ZoomAt multiplies the zoom by factor, clamped, keeping the world point
// under the screen point cursor fixed. It reports whether zoom changed.
func (c *Camera) ZoomAt(cursor r2.Vec, factor float64) bool {
	if factor <= 0 || math.IsNaN(factor) {
		return false
	}
	next := c.clamp(c.Zoom * factor)
	if next == c.Zoom {
		return false
	}
	// pan' = cursor - (cursor - pan) * zoom'/zoom
	c.Pan = r2.Sub(cursor, r2.Scale(next/c.Zoom, r2.Sub(cursor, c.Pan)))
	c.Zoom = next
	return true
}

// Wheel zooms in one notch at cursor when in is true, out otherwise.
func (c *Camera) Wheel(cursor r2.Vec, in bool) bool {
	if in {
		return c.ZoomAt(cursor, WheelFactor)
	}
	return c.ZoomAt(cursor, 1/WheelFactor)
}

// VisibleRect returns the world-space rectangle covered by the viewport.
func (c *Camera) VisibleRect() (min, max r2.Vec) {
	return c.ScreenToWorld(r2.Vec{}), c.ScreenToWorld(r2.Vec{X: c.W, Y: c.H})
}

func (c *Camera) clamp(z float64) float64 {
	lo, hi := c.MinZoom, c.MaxZoom
	if lo <= 0 {
		lo = DefaultMinZoom
	}
	if hi < lo {
		hi = DefaultMaxZoom
	}
	return math.Max(lo, math.Min(hi, z))
}
