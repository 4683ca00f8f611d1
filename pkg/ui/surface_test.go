package ui

import (
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/render"
)

var (
	testBg  = color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}
	testInk = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func newTestSurface(cols, rows int) *CellSurface {
	return NewCellSurface(cols, rows, lipgloss.NewRenderer(io.Discard))
}

func TestCellSurface_SizeInScreenUnits(t *testing.T) {
	s := newTestSurface(10, 5)
	w, h := s.Size()
	if w != 80 || h != 80 {
		t.Errorf("expected 80x80 screen units, got %vx%v", w, h)
	}
	lines := strings.Split(s.Plain(), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(lines))
	}
	for i, l := range lines {
		if len([]rune(l)) != 10 {
			t.Errorf("row %d: expected 10 cells, got %d", i, len([]rune(l)))
		}
	}
}

func TestCellSurface_TextAnchors(t *testing.T) {
	s := newTestSurface(20, 3)
	s.Clear(testBg)
	s.Text(r2.Vec{X: 0, Y: 0}, "left", render.TextStyle{Color: testInk, Anchor: render.AnchorLeft})
	s.Text(r2.Vec{X: 80, Y: 16}, "mid", render.TextStyle{Color: testInk, Anchor: render.AnchorCenter})

	lines := strings.Split(s.Plain(), "\n")
	if !strings.HasPrefix(lines[0], "left") {
		t.Errorf("expected row 0 to start with 'left', got %q", lines[0])
	}
	// Centred on column 10, three runes start at column 9.
	if got := string([]rune(lines[1])[9:12]); got != "mid" {
		t.Errorf("expected 'mid' at column 9, got %q in %q", got, lines[1])
	}
}

func TestCellSurface_TextClipsAtEdges(t *testing.T) {
	s := newTestSurface(4, 1)
	s.Text(r2.Vec{X: 16, Y: 0}, "overflow", render.TextStyle{Color: testInk, Anchor: render.AnchorLeft})
	if got := s.Plain(); got != "  ov" {
		t.Errorf("expected clipped text %q, got %q", "  ov", got)
	}
}

func TestCellSurface_WideRunes(t *testing.T) {
	s := newTestSurface(6, 1)
	s.Text(r2.Vec{}, "日本", render.TextStyle{Color: testInk, Anchor: render.AnchorLeft})
	if got := s.Plain(); got != "日本  " {
		t.Errorf("expected wide runes to take two cells, got %q", got)
	}
}

func TestCellSurface_WorldTransform(t *testing.T) {
	s := newTestSurface(20, 10)
	s.SetTransform(r2.Vec{X: 80, Y: 80}, 2)
	s.FillCircle(r2.Vec{}, 1, render.Solid(testInk))
	lines := strings.Split(s.Plain(), "\n")
	// World origin lands on screen (80, 80): column 10, row 5.
	if got := []rune(lines[5])[10]; got != '•' {
		t.Errorf("expected particle glyph at (10,5), got %q", got)
	}

	s.ResetTransform()
	s.Text(r2.Vec{X: 0, Y: 0}, "x", render.TextStyle{Color: testInk})
	if got := []rune(strings.Split(s.Plain(), "\n")[0])[0]; got != 'x' {
		t.Errorf("expected screen-space text at (0,0), got %q", got)
	}
}

func TestCellSurface_LargeCircleFillsBackground(t *testing.T) {
	s := newTestSurface(20, 10)
	s.Clear(testBg)
	red := color.NRGBA{R: 0xff, A: 0xff}
	s.FillCircle(r2.Vec{X: 80, Y: 80}, 24, render.Solid(red))

	c := s.at(10, 5)
	if c.bg != red {
		t.Errorf("expected centre cell background red, got %v", c.bg)
	}
	if corner := s.at(0, 0); corner.bg != testBg {
		t.Errorf("expected corner untouched, got %v", corner.bg)
	}
}

func TestCellSurface_LineGlyphs(t *testing.T) {
	tests := []struct {
		name string
		d    r2.Vec
		dash bool
		want rune
	}{
		{"horizontal", r2.Vec{X: 100}, false, '─'},
		{"vertical", r2.Vec{Y: 100}, false, '│'},
		{"down-right", r2.Vec{X: 100, Y: 200}, false, '╲'},
		{"up-right", r2.Vec{X: 100, Y: -200}, false, '╱'},
		{"dashed horizontal", r2.Vec{X: 100}, true, '┄'},
		{"dashed vertical", r2.Vec{Y: 100}, true, '┆'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lineGlyph(tt.d, tt.dash); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCellSurface_LineDoesNotOverwriteText(t *testing.T) {
	s := newTestSurface(10, 1)
	s.Clear(testBg)
	s.Text(r2.Vec{X: 32, Y: 0}, "A", render.TextStyle{Color: testInk})
	s.Line(r2.Vec{X: 0, Y: 8}, r2.Vec{X: 79, Y: 8}, render.Stroke{From: testInk, To: testInk, Width: 1})
	if got := s.Plain(); got != "────A─────" {
		t.Errorf("expected line around text, got %q", got)
	}
}

func TestBlend(t *testing.T) {
	half := color.NRGBA{R: 200, A: 128}
	got := blend(half, color.NRGBA{A: 0xff})
	if got.A != 0xff {
		t.Errorf("expected opaque result, got alpha %d", got.A)
	}
	if got.R < 95 || got.R > 105 {
		t.Errorf("expected red near 100, got %d", got.R)
	}
	if blend(testInk, testBg) != testInk {
		t.Error("expected opaque colour to pass through")
	}
}

func TestCellSurface_ViewKeepsText(t *testing.T) {
	s := newTestSurface(12, 2)
	s.Clear(testBg)
	s.Text(r2.Vec{}, "recall", render.TextStyle{Color: testInk})
	if !strings.Contains(s.View(), "recall") {
		t.Errorf("expected styled view to contain text, got %q", s.View())
	}
}

func TestRendererFrameOnCellSurface(t *testing.T) {
	s := newTestSurface(60, 20)
	r := render.New(render.DefaultOptions())
	r.Frame(s, render.FrameState{})
	if !strings.Contains(s.Plain(), "No graph data") {
		t.Errorf("expected empty-scene message, got:\n%s", s.Plain())
	}
}
