package render

import (
	"image"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/spatial/r2"
)

// RasterSurface draws into an RGBA image with gg. Geometry goes through
// the gg matrix; gradients and stroke widths are evaluated in pixels, so
// they are scaled here.
type RasterSurface struct {
	dc   *gg.Context
	pan  r2.Vec
	zoom float64
}

// NewRasterSurface allocates a w x h pixel surface.
func NewRasterSurface(w, h int) *RasterSurface {
	dc := gg.NewContext(max(1, w), max(1, h))
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineCapRound()
	return &RasterSurface{dc: dc, zoom: 1}
}

func (s *RasterSurface) Size() (float64, float64) {
	return float64(s.dc.Width()), float64(s.dc.Height())
}

func (s *RasterSurface) Clear(bg color.NRGBA) {
	s.dc.SetColor(bg)
	s.dc.Clear()
}

func (s *RasterSurface) SetTransform(pan r2.Vec, zoom float64) {
	s.pan, s.zoom = pan, zoom
	s.dc.Identity()
	s.dc.Translate(pan.X, pan.Y)
	s.dc.Scale(zoom, zoom)
}

func (s *RasterSurface) ResetTransform() {
	s.pan, s.zoom = r2.Vec{}, 1
	s.dc.Identity()
}

func (s *RasterSurface) device(p r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(s.zoom, p), s.pan)
}

func (s *RasterSurface) FillCircle(c r2.Vec, r float64, f Fill) {
	if f.Gradient() {
		d := s.device(c)
		dr := r * s.zoom
		g := gg.NewRadialGradient(d.X-dr*0.3, d.Y-dr*0.3, 0, d.X, d.Y, dr)
		g.AddColorStop(0, f.Inner)
		g.AddColorStop(1, f.Outer)
		s.dc.SetFillStyle(g)
	} else {
		s.dc.SetColor(f.Outer)
	}
	s.dc.DrawCircle(c.X, c.Y, r)
	s.dc.Fill()
}

func (s *RasterSurface) StrokeCircle(c r2.Vec, r float64, st Stroke) {
	s.dc.SetColor(st.From)
	s.dc.SetLineWidth(st.Width * s.zoom)
	s.dc.SetDash()
	s.dc.DrawCircle(c.X, c.Y, r)
	s.dc.Stroke()
}

func (s *RasterSurface) Line(a, b r2.Vec, st Stroke) {
	if st.From != st.To {
		da, db := s.device(a), s.device(b)
		g := gg.NewLinearGradient(da.X, da.Y, db.X, db.Y)
		g.AddColorStop(0, st.From)
		g.AddColorStop(1, st.To)
		s.dc.SetStrokeStyle(g)
	} else {
		s.dc.SetColor(st.From)
	}
	s.dc.SetLineWidth(st.Width * s.zoom)
	dash := make([]float64, len(st.Dash))
	for i, d := range st.Dash {
		dash[i] = d * s.zoom
	}
	s.dc.SetDash(dash...)
	s.dc.DrawLine(a.X, a.Y, b.X, b.Y)
	s.dc.Stroke()
	s.dc.SetDash()
}

// Text uses the fixed 7x13 face and ignores Size.
func (s *RasterSurface) Text(p r2.Vec, text string, t TextStyle) {
	s.dc.SetColor(t.Color)
	ax := 0.5
	if t.Anchor == AnchorLeft {
		ax = 0
	}
	s.dc.DrawStringAnchored(text, p.X, p.Y, ax, 0.35)
}

// Image returns the rendered frame.
func (s *RasterSurface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the frame as PNG.
func (s *RasterSurface) EncodePNG(w io.Writer) error { return s.dc.EncodePNG(w) }

// SavePNG writes the frame to path.
func (s *RasterSurface) SavePNG(path string) error { return s.dc.SavePNG(path) }
