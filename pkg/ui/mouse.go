package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/interaction"
)

// DoubleClickWindow is the longest gap between two releases on the same
// cell that still counts as a double click.
const DoubleClickWindow = 400 * time.Millisecond

// pointerMapper turns terminal mouse reports into interaction events.
// The graph occupies cols x rows cells starting at the top-left corner.
type pointerMapper struct {
	cols, rows int

	inside      bool
	lastRelease time.Time
	lastX       int
	lastY       int

	now func() time.Time
}

func newPointerMapper(cols, rows int) *pointerMapper {
	return &pointerMapper{cols: cols, rows: rows, now: time.Now}
}

func (p *pointerMapper) resize(cols, rows int) {
	p.cols, p.rows = cols, rows
}

// screenPos returns the centre of cell (x, y) in screen units.
func screenPos(x, y int) r2.Vec {
	return r2.Vec{X: (float64(x) + 0.5) * CellWidth, Y: (float64(y) + 0.5) * CellHeight}
}

// Map translates one mouse message. Leaving the graph area yields a single
// PointerLeave.
func (p *pointerMapper) Map(msg tea.MouseMsg) []interaction.Event {
	if msg.X < 0 || msg.Y < 0 || msg.X >= p.cols || msg.Y >= p.rows {
		if p.inside {
			p.inside = false
			return []interaction.Event{{Kind: interaction.PointerLeave}}
		}
		return nil
	}
	p.inside = true
	pos := screenPos(msg.X, msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		return []interaction.Event{{Kind: interaction.Wheel, Pos: pos, WheelIn: true}}
	case msg.Button == tea.MouseButtonWheelDown:
		return []interaction.Event{{Kind: interaction.Wheel, Pos: pos}}
	case msg.Action == tea.MouseActionMotion:
		return []interaction.Event{{Kind: interaction.PointerMove, Pos: pos}}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		return []interaction.Event{{Kind: interaction.PointerDown, Pos: pos}}
	case msg.Action == tea.MouseActionRelease:
		evs := []interaction.Event{{Kind: interaction.PointerUp, Pos: pos}}
		now := p.now()
		if !p.lastRelease.IsZero() && now.Sub(p.lastRelease) <= DoubleClickWindow &&
			abs(msg.X-p.lastX) <= 1 && abs(msg.Y-p.lastY) <= 1 {
			evs = append(evs, interaction.Event{Kind: interaction.DoubleClick, Pos: pos})
			p.lastRelease = time.Time{}
			return evs
		}
		p.lastRelease, p.lastX, p.lastY = now, msg.X, msg.Y
		return evs
	}
	return nil
}
