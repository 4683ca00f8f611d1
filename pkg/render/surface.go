// Package render draws a scene frame onto an abstract Surface: background
// grid, gradient edges, flowing particles, nodes and the HUD.
//
// Surfaces exist for PNG (gg), SVG (svgo), the terminal (pkg/ui) and a
// Recorder used in tests. Coordinates passed to a Surface are in world
// space after SetTransform, and in screen space after ResetTransform.
package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

// Surface is the drawing target for one frame.
type Surface interface {
	// Size returns the viewport in screen units.
	Size() (w, h float64)
	Clear(bg color.NRGBA)
	// SetTransform maps world p to screen p*zoom + pan for later calls.
	SetTransform(pan r2.Vec, zoom float64)
	ResetTransform()

	FillCircle(c r2.Vec, r float64, f Fill)
	StrokeCircle(c r2.Vec, r float64, s Stroke)
	Line(a, b r2.Vec, s Stroke)
	Text(p r2.Vec, text string, t TextStyle)
}

// Fill paints a disc. When Inner differs from Outer the disc gets a radial
// gradient with its highlight offset toward the top left.
type Fill struct {
	Inner color.NRGBA
	Outer color.NRGBA
}

// Solid returns a flat fill.
func Solid(c color.NRGBA) Fill { return Fill{Inner: c, Outer: c} }

// Gradient reports whether the fill is a radial gradient.
func (f Fill) Gradient() bool { return f.Inner != f.Outer }

// Stroke paints a line or ring. From and To form a linear gradient along
// a line; rings use From.
type Stroke struct {
	From  color.NRGBA
	To    color.NRGBA
	Width float64
	Dash  []float64
}

// Anchor positions text relative to its point.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorLeft
)

// TextStyle describes one label.
type TextStyle struct {
	Color  color.NRGBA
	Size   float64
	Anchor Anchor
	Bold   bool
}

// css formats a colour for SVG style attributes.
func css(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, float64(c.A)/255)
}
