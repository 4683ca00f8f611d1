package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
	"gonum.org/v1/gonum/spatial/r2"
)

// VectorSurface writes SVG elements with svgo. svgo takes integer
// coordinates, so every point is transformed to screen space here.
type VectorSurface struct {
	canvas *svg.SVG
	w, h   int
	pan    r2.Vec
	zoom   float64
	nextID int
}

// NewVectorSurface starts a w x h SVG document on out. Call Close to
// finish it.
func NewVectorSurface(out io.Writer, w, h int) *VectorSurface {
	s := &VectorSurface{canvas: svg.New(out), w: max(1, w), h: max(1, h), zoom: 1}
	s.canvas.Start(s.w, s.h)
	return s
}

// Close ends the SVG document.
func (s *VectorSurface) Close() { s.canvas.End() }

func (s *VectorSurface) Size() (float64, float64) { return float64(s.w), float64(s.h) }

func (s *VectorSurface) Clear(bg color.NRGBA) {
	s.canvas.Rect(0, 0, s.w, s.h, "fill:"+css(bg))
}

func (s *VectorSurface) SetTransform(pan r2.Vec, zoom float64) { s.pan, s.zoom = pan, zoom }

func (s *VectorSurface) ResetTransform() { s.pan, s.zoom = r2.Vec{}, 1 }

func (s *VectorSurface) screen(p r2.Vec) (int, int) {
	q := r2.Add(r2.Scale(s.zoom, p), s.pan)
	return int(math.Round(q.X)), int(math.Round(q.Y))
}

func (s *VectorSurface) length(v float64) int {
	return max(1, int(math.Round(v*s.zoom)))
}

func (s *VectorSurface) id() string {
	s.nextID++
	return fmt.Sprintf("g%d", s.nextID)
}

func (s *VectorSurface) FillCircle(c r2.Vec, r float64, f Fill) {
	x, y := s.screen(c)
	if x < -s.w || y < -s.h || x > 2*s.w || y > 2*s.h {
		return
	}
	if !f.Gradient() {
		s.canvas.Circle(x, y, s.length(r), "fill:"+css(f.Outer))
		return
	}
	id := s.id()
	s.canvas.Def()
	s.canvas.RadialGradient(id, 50, 50, 50, 35, 35, []svg.Offcolor{
		{Offset: 0, Color: rgbHex(f.Inner), Opacity: opacity(f.Inner)},
		{Offset: 100, Color: rgbHex(f.Outer), Opacity: opacity(f.Outer)},
	})
	s.canvas.DefEnd()
	s.canvas.Circle(x, y, s.length(r), fmt.Sprintf("fill:url(#%s)", id))
}

func (s *VectorSurface) StrokeCircle(c r2.Vec, r float64, st Stroke) {
	x, y := s.screen(c)
	s.canvas.Circle(x, y, s.length(r),
		fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.2f", css(st.From), st.Width*s.zoom))
}

func (s *VectorSurface) Line(a, b r2.Vec, st Stroke) {
	x1, y1 := s.screen(a)
	x2, y2 := s.screen(b)
	paint := css(st.From)
	if st.From != st.To {
		// svgo's LinearGradient is bounding-box relative, which collapses on
		// axis-aligned lines; write a user-space gradient instead.
		id := s.id()
		fmt.Fprintf(s.canvas.Writer,
			`<defs><linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%d" y1="%d" x2="%d" y2="%d">`+
				`<stop offset="0" stop-color="%s" stop-opacity="%.3f"/>`+
				`<stop offset="1" stop-color="%s" stop-opacity="%.3f"/></linearGradient></defs>`+"\n",
			id, x1, y1, x2, y2, rgbHex(st.From), opacity(st.From), rgbHex(st.To), opacity(st.To))
		paint = fmt.Sprintf("url(#%s)", id)
	}
	style := fmt.Sprintf("stroke:%s;stroke-width:%.2f;stroke-linecap:round", paint, st.Width*s.zoom)
	if len(st.Dash) > 0 {
		parts := make([]string, len(st.Dash))
		for i, d := range st.Dash {
			parts[i] = fmt.Sprintf("%.1f", d*s.zoom)
		}
		style += ";stroke-dasharray:" + strings.Join(parts, ",")
	}
	s.canvas.Line(x1, y1, x2, y2, style)
}

func (s *VectorSurface) Text(p r2.Vec, text string, t TextStyle) {
	x, y := s.screen(p)
	anchor := "middle"
	if t.Anchor == AnchorLeft {
		anchor = "start"
	}
	weight := "normal"
	if t.Bold {
		weight = "600"
	}
	s.canvas.Text(x, y, text, fmt.Sprintf(
		"fill:%s;font-size:%.1fpx;font-family:sans-serif;font-weight:%s;text-anchor:%s;dominant-baseline:central",
		css(t.Color), t.Size*s.zoom, weight, anchor))
}

func rgbHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacity(c color.NRGBA) float64 {
	return float64(c.A) / 255
}
