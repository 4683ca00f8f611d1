package ui

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/render"
)

// One terminal cell stands for a CellWidth x CellHeight block of screen
// units, so the renderer's pixel-sized constants keep their proportions.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

type cell struct {
	ch   rune // 0 marks the right half of a wide rune
	fg   color.NRGBA
	bg   color.NRGBA
	bold bool
}

// CellSurface is a render.Surface backed by a grid of terminal cells.
type CellSurface struct {
	cols, rows int
	cells      []cell

	pan   r2.Vec
	zoom  float64
	world bool

	r *lipgloss.Renderer
}

// NewCellSurface returns a cols x rows surface. A nil renderer uses the
// lipgloss default.
func NewCellSurface(cols, rows int, r *lipgloss.Renderer) *CellSurface {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	s := &CellSurface{r: r, zoom: 1}
	s.Resize(cols, rows)
	return s
}

// Resize changes the grid dimensions and blanks it.
func (s *CellSurface) Resize(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.cells = make([]cell, s.cols*s.rows)
	for i := range s.cells {
		s.cells[i].ch = ' '
	}
}

// Cols returns the grid width in cells.
func (s *CellSurface) Cols() int { return s.cols }

// Rows returns the grid height in cells.
func (s *CellSurface) Rows() int { return s.rows }

func (s *CellSurface) Size() (float64, float64) {
	return float64(s.cols) * CellWidth, float64(s.rows) * CellHeight
}

func (s *CellSurface) Clear(bg color.NRGBA) {
	bg.A = 0xff
	for i := range s.cells {
		s.cells[i] = cell{ch: ' ', fg: bg, bg: bg}
	}
}

func (s *CellSurface) SetTransform(pan r2.Vec, zoom float64) {
	s.pan, s.zoom, s.world = pan, zoom, true
}

func (s *CellSurface) ResetTransform() {
	s.pan, s.zoom, s.world = r2.Vec{}, 1, false
}

func (s *CellSurface) screen(p r2.Vec) r2.Vec {
	if !s.world {
		return p
	}
	return r2.Add(r2.Scale(s.zoom, p), s.pan)
}

func (s *CellSurface) length(v float64) float64 {
	if !s.world {
		return v
	}
	return v * s.zoom
}

func (s *CellSurface) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return nil
	}
	return &s.cells[row*s.cols+col]
}

func cellOf(p r2.Vec) (col, row int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

func (s *CellSurface) FillCircle(c r2.Vec, r float64, f render.Fill) {
	sc, sr := s.screen(c), s.length(r)
	if sr < CellWidth {
		col, row := cellOf(sc)
		if cl := s.at(col, row); cl != nil {
			cl.ch = '●'
			if sr < 3 {
				cl.ch = '•'
			}
			cl.fg = blend(f.Outer, cl.bg)
		}
		return
	}
	c0, r0 := cellOf(r2.Vec{X: sc.X - sr, Y: sc.Y - sr})
	c1, r1 := cellOf(r2.Vec{X: sc.X + sr, Y: sc.Y + sr})
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cl := s.at(col, row)
			if cl == nil {
				continue
			}
			mid := r2.Vec{X: (float64(col) + 0.5) * CellWidth, Y: (float64(row) + 0.5) * CellHeight}
			d := r2.Norm(r2.Sub(mid, sc))
			if d > sr {
				continue
			}
			fill := f.Outer
			if f.Gradient() {
				fill = lerp(f.Inner, f.Outer, d/sr)
			}
			cl.bg = blend(fill, cl.bg)
			if cl.ch != ' ' && fill.A == 0xff {
				cl.ch = ' '
			}
		}
	}
}

func (s *CellSurface) StrokeCircle(c r2.Vec, r float64, st render.Stroke) {
	sc, sr := s.screen(c), s.length(r)
	steps := max(8, int(2*math.Pi*sr/CellWidth)*2)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		col, row := cellOf(r2.Vec{X: sc.X + sr*math.Cos(a), Y: sc.Y + sr*math.Sin(a)})
		if cl := s.at(col, row); cl != nil && cl.ch == ' ' {
			cl.ch = '·'
			cl.fg = blend(st.From, cl.bg)
		}
	}
}

func (s *CellSurface) Line(a, b r2.Vec, st render.Stroke) {
	sa, sb := s.screen(a), s.screen(b)
	d := r2.Sub(sb, sa)
	glyph := lineGlyph(d, len(st.Dash) > 0)

	c0, r0 := cellOf(sa)
	c1, r1 := cellOf(sb)
	steps := max(abs(c1-c0), abs(r1-r0))
	if steps == 0 {
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		if len(st.Dash) > 0 && glyph == '·' && i%2 == 1 {
			continue
		}
		col, row := cellOf(r2.Add(sa, r2.Scale(t, d)))
		cl := s.at(col, row)
		if cl == nil || cl.ch != ' ' {
			continue
		}
		cl.ch = glyph
		cl.fg = blend(lerp(st.From, st.To, t), cl.bg)
	}
}

// lineGlyph picks a box-drawing rune for a screen-space direction. Screen
// y grows downward.
func lineGlyph(d r2.Vec, dashed bool) rune {
	ax, ay := math.Abs(d.X), math.Abs(d.Y)*CellWidth/CellHeight
	switch {
	case ay < ax*0.4:
		if dashed {
			return '┄'
		}
		return '─'
	case ax < ay*0.4:
		if dashed {
			return '┆'
		}
		return '│'
	case dashed:
		return '·'
	case (d.X > 0) == (d.Y > 0):
		return '╲'
	default:
		return '╱'
	}
}

func (s *CellSurface) Text(p r2.Vec, text string, t render.TextStyle) {
	sp := s.screen(p)
	col, row := cellOf(sp)
	if t.Anchor == render.AnchorCenter {
		col -= runewidth.StringWidth(text) / 2
	}
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if cl := s.at(col, row); cl != nil {
			cl.ch = ch
			cl.fg = blend(t.Color, cl.bg)
			cl.bold = t.Bold
		}
		if w == 2 {
			if cl := s.at(col+1, row); cl != nil {
				cl.ch = 0
			}
		}
		col += w
	}
}

// Plain returns the grid as unstyled text, one line per row.
func (s *CellSurface) Plain() string {
	var sb strings.Builder
	for row := range s.rows {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := range s.cols {
			if ch := s.cells[row*s.cols+col].ch; ch != 0 {
				sb.WriteRune(ch)
			}
		}
	}
	return sb.String()
}

// View renders the grid with colours, grouping runs of identical style.
func (s *CellSurface) View() string {
	var sb strings.Builder
	var run strings.Builder
	for row := range s.rows {
		if row > 0 {
			sb.WriteByte('\n')
		}
		var cur cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			st := s.r.NewStyle().
				Foreground(lipgloss.Color(hexColor(cur.fg))).
				Background(lipgloss.Color(hexColor(cur.bg))).
				Bold(cur.bold)
			sb.WriteString(st.Render(run.String()))
			run.Reset()
		}
		for col := range s.cols {
			cl := s.cells[row*s.cols+col]
			if cl.ch == 0 {
				continue
			}
			if run.Len() > 0 && (cl.fg != cur.fg || cl.bg != cur.bg || cl.bold != cur.bold) {
				flush()
			}
			cur = cl
			run.WriteRune(cl.ch)
		}
		flush()
	}
	return sb.String()
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// blend composites c over an opaque background.
func blend(c, under color.NRGBA) color.NRGBA {
	if c.A == 0xff {
		return c
	}
	a := float64(c.A) / 255
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*a + float64(y)*(1-a)))
	}
	return color.NRGBA{R: mix(c.R, under.R), G: mix(c.G, under.G), B: mix(c.B, under.B), A: 0xff}
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
