// Package interaction turns raw pointer, wheel and key events into camera
// moves, node drags, hover and selection changes, and drill-down requests.
//
// The machine is independent of any front end: the terminal UI and tests
// feed it Events in screen coordinates. Transitions are looked up in a
// dispatch table keyed by (State, EventKind).
package interaction

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/camera"
	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/scene"
)

// State is the machine state. Selection is tracked separately.
type State int

const (
	Idle State = iota
	Hovering
	Dragging
	Panning
	numStates
)

func (s State) String() string {
	switch s {
	case Hovering:
		return "hovering"
	case Dragging:
		return "dragging"
	case Panning:
		return "panning"
	default:
		return "idle"
	}
}

// EventKind enumerates the inputs the machine understands.
type EventKind int

const (
	PointerMove EventKind = iota
	PointerDown
	PointerUp
	PointerLeave
	DoubleClick
	Wheel
	Key
	numEventKinds
)

// KeyAction is a keyboard command already resolved from a key binding.
type KeyAction int

const (
	KeyNone KeyAction = iota
	KeyDeselect
	KeyZoomIn
	KeyZoomOut
	KeyResetCamera
	KeyActivate // drill down into the selected node
)

// Event is one input in screen coordinates.
type Event struct {
	Kind EventKind
	Pos  r2.Vec
	// WheelIn is true for a zoom-in notch.
	WheelIn bool
	Action  KeyAction
}

// DrillDown asks an external collaborator for details on one node.
type DrillDown struct {
	Kind  scene.Kind
	Label string
	ID    string
}

func (d DrillDown) String() string {
	return fmt.Sprintf("%s:%s", d.Kind, d.Label)
}

// Hooks receive the machine's side effects. Nil hooks are skipped.
type Hooks struct {
	// OnFocus fires when hovered-or-selected changes; node may be NoNode.
	OnFocus func(node int)
	// OnDrillDown fires on a double click over a node, or on KeyActivate.
	OnDrillDown func(DrillDown)
	// OnPerturb fires whenever a drag moves a node.
	OnPerturb func()
}

type handler func(m *Machine, ev Event)

// dispatch[state][event] holds the transition for each pair. A nil entry
// ignores the event.
var dispatch [numStates][numEventKinds]handler

func init() {
	for s := State(0); s < numStates; s++ {
		dispatch[s][PointerLeave] = (*Machine).leave
		dispatch[s][DoubleClick] = (*Machine).doubleClick
		dispatch[s][Wheel] = (*Machine).wheel
		dispatch[s][Key] = (*Machine).key
	}
	for _, s := range []State{Idle, Hovering} {
		dispatch[s][PointerMove] = (*Machine).hover
		dispatch[s][PointerDown] = (*Machine).press
	}
	dispatch[Dragging][PointerMove] = (*Machine).drag
	dispatch[Dragging][PointerUp] = (*Machine).releaseDrag
	dispatch[Panning][PointerMove] = (*Machine).pan
	dispatch[Panning][PointerUp] = (*Machine).releasePan
}

// Machine is the interaction state for one scene and camera.
type Machine struct {
	state    State
	hovered  int
	selected int
	dragging int
	last     r2.Vec

	scene      *scene.Scene
	cam        *camera.Camera
	hooks      Hooks
	hitPadding float64
	focus      int
}

// New creates an idle machine over sc and cam.
func New(sc *scene.Scene, cam *camera.Camera, hooks Hooks) *Machine {
	m := &Machine{cam: cam, hooks: hooks, hitPadding: DefaultHitPadding, focus: scene.NoNode}
	m.Reset(sc)
	return m
}

// SetHitPadding overrides DefaultHitPadding.
func (m *Machine) SetHitPadding(p float64) {
	if p >= 0 {
		m.hitPadding = p
	}
}

// Reset points the machine at a freshly built scene. Hover, drag, pan and
// selection all refer to the discarded scene and are cleared. A focused
// node is reported as lost even if the new scene reuses its index.
func (m *Machine) Reset(sc *scene.Scene) {
	prev := m.focus
	m.scene = sc
	m.state = Idle
	m.hovered, m.selected, m.dragging = scene.NoNode, scene.NoNode, scene.NoNode
	m.focus = scene.NoNode
	if prev != scene.NoNode && m.hooks.OnFocus != nil {
		m.hooks.OnFocus(scene.NoNode)
	}
}

// Dispatch handles one event synchronously.
func (m *Machine) Dispatch(ev Event) {
	if ev.Kind < 0 || ev.Kind >= numEventKinds {
		return
	}
	if h := dispatch[m.state][ev.Kind]; h != nil {
		h(m, ev)
	}
}

func (m *Machine) State() State  { return m.state }
func (m *Machine) Hovered() int  { return m.hovered }
func (m *Machine) Selected() int { return m.selected }
func (m *Machine) Dragging() int { return m.dragging }

// Focus returns the hovered node, falling back to the selected one.
func (m *Machine) Focus() int {
	if m.hovered != scene.NoNode {
		return m.hovered
	}
	return m.selected
}

// Select sets the selection directly, e.g. from a list in the front end.
func (m *Machine) Select(i int) {
	if !m.scene.Valid(i) {
		i = scene.NoNode
	}
	m.selected = i
	m.notifyFocus()
}

func (m *Machine) hit(pos r2.Vec) int {
	return FindNodeAt(m.scene, m.cam, pos, m.hovered, m.selected, m.hitPadding)
}

func (m *Machine) settle(pos r2.Vec) {
	m.hovered = m.hit(pos)
	if m.hovered != scene.NoNode {
		m.state = Hovering
	} else {
		m.state = Idle
	}
	m.notifyFocus()
}

func (m *Machine) hover(ev Event) {
	m.last = ev.Pos
	m.settle(ev.Pos)
}

func (m *Machine) press(ev Event) {
	m.last = ev.Pos
	if n := m.hit(ev.Pos); n != scene.NoNode {
		m.dragging = n
		m.hovered = n
		m.state = Dragging
		m.notifyFocus()
		return
	}
	m.state = Panning
}

func (m *Machine) drag(ev Event) {
	m.last = ev.Pos
	n := m.scene.Node(m.dragging)
	if n == nil {
		m.state = Idle
		m.dragging = scene.NoNode
		return
	}
	n.Pos = m.cam.ScreenToWorld(ev.Pos)
	n.Vel = r2.Vec{}
	if m.hooks.OnPerturb != nil {
		m.hooks.OnPerturb()
	}
}

func (m *Machine) releaseDrag(ev Event) {
	node := m.dragging
	m.dragging = scene.NoNode
	if m.hit(ev.Pos) == node {
		if m.selected == node {
			m.selected = scene.NoNode
		} else {
			m.selected = node
		}
		debug.Log("interaction: selected=%d", m.selected)
	}
	m.last = ev.Pos
	m.settle(ev.Pos)
}

func (m *Machine) pan(ev Event) {
	m.cam.PanBy(r2.Sub(ev.Pos, m.last))
	m.last = ev.Pos
}

func (m *Machine) releasePan(ev Event) {
	m.last = ev.Pos
	m.settle(ev.Pos)
}

func (m *Machine) leave(Event) {
	m.dragging = scene.NoNode
	m.hovered = scene.NoNode
	m.state = Idle
	m.notifyFocus()
}

func (m *Machine) doubleClick(ev Event) {
	n := m.hit(ev.Pos)
	if n == scene.NoNode {
		m.cam.Reset()
		return
	}
	m.drillDown(n)
}

func (m *Machine) wheel(ev Event) {
	m.cam.Wheel(ev.Pos, ev.WheelIn)
}

func (m *Machine) key(ev Event) {
	center := r2.Vec{X: m.cam.W / 2, Y: m.cam.H / 2}
	switch ev.Action {
	case KeyDeselect:
		m.Select(scene.NoNode)
	case KeyZoomIn:
		m.cam.Wheel(center, true)
	case KeyZoomOut:
		m.cam.Wheel(center, false)
	case KeyResetCamera:
		m.cam.Reset()
	case KeyActivate:
		if m.selected != scene.NoNode {
			m.drillDown(m.selected)
		}
	}
}

func (m *Machine) drillDown(i int) {
	n := m.scene.Node(i)
	if n == nil || m.hooks.OnDrillDown == nil {
		return
	}
	m.hooks.OnDrillDown(DrillDown{Kind: n.Kind, Label: n.Label, ID: n.ID})
}

func (m *Machine) notifyFocus() {
	f := m.Focus()
	if f == m.focus {
		return
	}
	m.focus = f
	if m.hooks.OnFocus != nil {
		m.hooks.OnFocus(f)
	}
}
