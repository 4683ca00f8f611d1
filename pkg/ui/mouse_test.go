package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/recall/pkg/interaction"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMapper() (*pointerMapper, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	p := newPointerMapper(40, 20)
	p.now = clk.now
	return p, clk
}

func mouse(x, y int, action tea.MouseAction, button tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func kinds(evs []interaction.Event) []interaction.EventKind {
	out := make([]interaction.EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func TestPointerMapper_BasicEvents(t *testing.T) {
	p, _ := newTestMapper()

	tests := []struct {
		name string
		msg  tea.MouseMsg
		want interaction.EventKind
	}{
		{"motion", mouse(3, 4, tea.MouseActionMotion, tea.MouseButtonNone), interaction.PointerMove},
		{"press", mouse(3, 4, tea.MouseActionPress, tea.MouseButtonLeft), interaction.PointerDown},
		{"release", mouse(3, 4, tea.MouseActionRelease, tea.MouseButtonLeft), interaction.PointerUp},
		{"wheel", mouse(3, 4, tea.MouseActionPress, tea.MouseButtonWheelDown), interaction.Wheel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evs := p.Map(tt.msg)
			if len(evs) == 0 || evs[0].Kind != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, kinds(evs))
			}
		})
	}
}

func TestPointerMapper_CellCentre(t *testing.T) {
	p, _ := newTestMapper()
	evs := p.Map(mouse(2, 3, tea.MouseActionMotion, tea.MouseButtonNone))
	if len(evs) != 1 {
		t.Fatalf("expected one event, got %d", len(evs))
	}
	if evs[0].Pos.X != 20 || evs[0].Pos.Y != 56 {
		t.Errorf("expected screen (20,56), got (%v,%v)", evs[0].Pos.X, evs[0].Pos.Y)
	}
}

func TestPointerMapper_WheelDirection(t *testing.T) {
	p, _ := newTestMapper()
	up := p.Map(mouse(1, 1, tea.MouseActionPress, tea.MouseButtonWheelUp))
	down := p.Map(mouse(1, 1, tea.MouseActionPress, tea.MouseButtonWheelDown))
	if !up[0].WheelIn {
		t.Error("expected wheel up to zoom in")
	}
	if down[0].WheelIn {
		t.Error("expected wheel down to zoom out")
	}
}

func TestPointerMapper_DoubleClick(t *testing.T) {
	p, clk := newTestMapper()

	p.Map(mouse(5, 5, tea.MouseActionPress, tea.MouseButtonLeft))
	first := p.Map(mouse(5, 5, tea.MouseActionRelease, tea.MouseButtonLeft))
	if len(first) != 1 {
		t.Fatalf("expected single PointerUp on first release, got %v", kinds(first))
	}

	clk.advance(150 * time.Millisecond)
	p.Map(mouse(5, 5, tea.MouseActionPress, tea.MouseButtonLeft))
	second := p.Map(mouse(6, 5, tea.MouseActionRelease, tea.MouseButtonLeft))
	if len(second) != 2 || second[1].Kind != interaction.DoubleClick {
		t.Fatalf("expected PointerUp then DoubleClick, got %v", kinds(second))
	}

	// A third click right after starts a new pair.
	clk.advance(100 * time.Millisecond)
	third := p.Map(mouse(6, 5, tea.MouseActionRelease, tea.MouseButtonLeft))
	if len(third) != 1 {
		t.Errorf("expected the pair to reset, got %v", kinds(third))
	}
}

func TestPointerMapper_SlowClicksAreNotDouble(t *testing.T) {
	p, clk := newTestMapper()
	p.Map(mouse(5, 5, tea.MouseActionRelease, tea.MouseButtonLeft))
	clk.advance(DoubleClickWindow + time.Millisecond)
	evs := p.Map(mouse(5, 5, tea.MouseActionRelease, tea.MouseButtonLeft))
	if len(evs) != 1 {
		t.Errorf("expected no double click after the window, got %v", kinds(evs))
	}
}

func TestPointerMapper_DistantClicksAreNotDouble(t *testing.T) {
	p, clk := newTestMapper()
	p.Map(mouse(5, 5, tea.MouseActionRelease, tea.MouseButtonLeft))
	clk.advance(50 * time.Millisecond)
	evs := p.Map(mouse(15, 5, tea.MouseActionRelease, tea.MouseButtonLeft))
	if len(evs) != 1 {
		t.Errorf("expected no double click across cells, got %v", kinds(evs))
	}
}

func TestPointerMapper_LeaveOnce(t *testing.T) {
	p, _ := newTestMapper()
	p.Map(mouse(5, 5, tea.MouseActionMotion, tea.MouseButtonNone))

	evs := p.Map(mouse(45, 5, tea.MouseActionMotion, tea.MouseButtonNone))
	if len(evs) != 1 || evs[0].Kind != interaction.PointerLeave {
		t.Fatalf("expected PointerLeave, got %v", kinds(evs))
	}
	if evs := p.Map(mouse(46, 5, tea.MouseActionMotion, tea.MouseButtonNone)); len(evs) != 0 {
		t.Errorf("expected no repeat leave, got %v", kinds(evs))
	}
	if evs := p.Map(mouse(5, 5, tea.MouseActionMotion, tea.MouseButtonNone)); len(evs) != 1 || evs[0].Kind != interaction.PointerMove {
		t.Errorf("expected move after re-entry, got %v", kinds(evs))
	}
}
