// Package ui is the terminal front end for the recall graph: a bubbletea
// model that drives an engine.Engine onto a CellSurface, maps mouse and
// keys to interaction events, and shows node details and drill-down
// commands beside the graph.
package ui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/internal/datasource"
	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/engine"
	"github.com/vanderheijden86/recall/pkg/interaction"
	"github.com/vanderheijden86/recall/pkg/model"
	"github.com/vanderheijden86/recall/pkg/physics"
	"github.com/vanderheijden86/recall/pkg/render"
	"github.com/vanderheijden86/recall/pkg/scene"
	"github.com/vanderheijden86/recall/pkg/watcher"
)

const (
	defaultWidth  = 120
	defaultHeight = 36

	fetchTimeout   = 15 * time.Second
	statusLifetime = 4 * time.Second
	panStep        = 4 * CellWidth
)

// Options configures a Model.
type Options struct {
	Fetcher engine.Fetcher
	// Lookup answers drill-down requests; nil disables the drawer.
	Lookup  engine.CommandLookup
	Watcher *watcher.Watcher

	Physics      physics.Params
	Render       render.Options
	FPS          int
	HitPadding   float64
	MinZoom      float64
	MaxZoom      float64
	CommandLimit int

	// GlamourStyle names the drawer's markdown style ("dark", "light",
	// "notty").
	GlamourStyle string
	Renderer     *lipgloss.Renderer
	Rand         *rand.Rand
}

// FileChangedMsg is sent when recall.db changes on disk.
type FileChangedMsg struct{}

type frameMsg struct{}

type graphLoadedMsg struct {
	token   engine.LoadToken
	payload *model.GraphPayload
	err     error
	reload  bool
}

type commandsLoadedMsg struct {
	seq  int
	cmds []model.Command
	err  error
}

type statusClearMsg struct{ seq int }

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// hookState collects engine hook output. Hooks run inside engine calls
// made from Update, so no locking is needed.
type hookState struct {
	focus *scene.Node
	drill []interaction.DrillDown
}

// Model is the bubbletea model for the graph view.
type Model struct {
	opts  Options
	eng   *engine.Engine
	hooks *hookState

	surface *CellSurface
	pointer *pointerMapper
	keys    keyMap
	theme   Theme
	drawer  drawer

	width, height int
	ready         bool
	showHelp      bool
	interval      time.Duration

	payload   *model.GraphPayload
	status    string
	statusSeq int

	now func() time.Time
}

// NewModel builds the view and its engine. The engine stays stopped until
// Init makes it visible.
func NewModel(opts Options) Model {
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	if opts.FPS <= 0 {
		opts.FPS = engine.DefaultFPS
	}
	if opts.CommandLimit <= 0 {
		opts.CommandLimit = 50
	}

	hooks := &hookState{}
	cols, rows, _ := layout(defaultWidth, defaultHeight, false)
	eng := engine.New(engine.Options{
		Width:      float64(cols) * CellWidth,
		Height:     float64(rows) * CellHeight,
		Physics:    opts.Physics,
		Render:     opts.Render,
		HitPadding: opts.HitPadding,
		MinZoom:    opts.MinZoom,
		MaxZoom:    opts.MaxZoom,
		Rand:       opts.Rand,
		OnDrillDown: func(d interaction.DrillDown) {
			hooks.drill = append(hooks.drill, d)
		},
		OnFocus: func(n *scene.Node) {
			hooks.focus = n
		},
	})

	return Model{
		opts:     opts,
		eng:      eng,
		hooks:    hooks,
		surface:  NewCellSurface(cols, rows, opts.Renderer),
		pointer:  newPointerMapper(cols, rows),
		keys:     defaultKeyMap(),
		theme:    DefaultTheme(opts.Renderer),
		drawer:   newDrawer(opts.GlamourStyle),
		width:    defaultWidth,
		height:   defaultHeight,
		interval: time.Second / time.Duration(opts.FPS),
		now:      time.Now,
	}
}

// Engine exposes the underlying engine.
func (m Model) Engine() *engine.Engine { return m.eng }

// Init makes the engine visible, issues the first load and starts the
// frame loop.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	if m.eng.SetVisible(true) {
		cmds = append(cmds, m.loadCmd(false))
	}
	if m.opts.Watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return frameMsg{} })
}

// loadCmd starts a load on the engine and fetches off the update loop.
func (m Model) loadCmd(reload bool) tea.Cmd {
	tok := m.eng.BeginLoad()
	f := m.opts.Fetcher
	return func() tea.Msg {
		if f == nil {
			return graphLoadedMsg{token: tok, err: errors.New("no graph source configured"), reload: reload}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		p, err := f.FetchGraph(ctx)
		return graphLoadedMsg{token: tok, payload: p, err: err, reload: reload}
	}
}

func (m Model) commandsCmd(seq int, d interaction.DrillDown) tea.Cmd {
	lookup, q := m.opts.Lookup, engine.QueryFor(d, m.opts.CommandLimit)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		cmds, err := lookup.Commands(ctx, q)
		return commandsLoadedMsg{seq: seq, cmds: cmds, err: err}
	}
}

func (m *Model) setStatus(s string) tea.Cmd {
	m.status = s
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	cols, rows, side := layout(width, height, m.drawer.open)
	m.surface.Resize(cols, rows)
	m.pointer.resize(cols, rows)
	m.drawer.resize(side, rows)
	m.eng.Resize(float64(cols)*CellWidth, float64(rows)*CellHeight)
}

// takeDrillDown opens the drawer on the latest drill-down request, if any.
func (m *Model) takeDrillDown() tea.Cmd {
	if len(m.hooks.drill) == 0 {
		return nil
	}
	d := m.hooks.drill[len(m.hooks.drill)-1]
	m.hooks.drill = m.hooks.drill[:0]
	if m.opts.Lookup == nil {
		return m.setStatus("No command source for " + d.String())
	}
	debug.Log("ui: drill down %s", d)
	wasOpen := m.drawer.open
	seq := m.drawer.begin(d)
	if !wasOpen {
		m.resize(m.width, m.height)
	}
	return m.commandsCmd(seq, d)
}

func (m *Model) closeDrawer() {
	m.drawer.close()
	m.resize(m.width, m.height)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.resize(msg.Width, msg.Height)
		return m, nil

	case frameMsg:
		if m.eng.Tick(m.surface) {
			return m, m.tickCmd()
		}
		return m, nil

	case graphLoadedMsg:
		err := m.eng.CompleteLoad(msg.token, msg.payload, msg.err)
		if err != nil {
			debug.Log("ui: load ignored: %v", err)
			return m, nil
		}
		m.hooks.drill = m.hooks.drill[:0]
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Load failed: %v", msg.err))
		}
		var cmd tea.Cmd
		if msg.reload && m.payload != nil {
			diff := datasource.DiffPayloads(m.payload, msg.payload)
			cmd = m.setStatus("Reloaded: " + diff.Summary())
		}
		m.payload = msg.payload
		return m, cmd

	case FileChangedMsg:
		cmds := []tea.Cmd{m.loadCmd(true)}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		return m, tea.Batch(cmds...)

	case commandsLoadedMsg:
		if msg.seq == m.drawer.seq && m.drawer.open {
			m.drawer.fill(msg.cmds, msg.err, m.now())
		}
		return m, nil

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.BlurMsg:
		m.eng.Dispatch(interaction.Event{Kind: interaction.PointerLeave})
		return m, nil

	case tea.MouseMsg:
		for _, ev := range m.pointer.Map(msg) {
			m.eng.Dispatch(ev)
		}
		return m, m.takeDrillDown()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.eng.Teardown()
		return m, tea.Quit
	}
	if m.drawer.open {
		if key.Matches(msg, m.keys.Close) {
			m.closeDrawer()
			return m, nil
		}
		var cmd tea.Cmd
		m.drawer.vp, cmd = m.drawer.vp.Update(msg)
		return m, cmd
	}

	keyEvent := func(a interaction.KeyAction) {
		m.eng.Dispatch(interaction.Event{Kind: interaction.Key, Action: a})
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.eng.Teardown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Deselect):
		keyEvent(interaction.KeyDeselect)
	case key.Matches(msg, m.keys.ZoomIn):
		keyEvent(interaction.KeyZoomIn)
	case key.Matches(msg, m.keys.ZoomOut):
		keyEvent(interaction.KeyZoomOut)
	case key.Matches(msg, m.keys.Reset):
		keyEvent(interaction.KeyResetCamera)
	case key.Matches(msg, m.keys.Drill):
		keyEvent(interaction.KeyActivate)
		return m, m.takeDrillDown()
	case key.Matches(msg, m.keys.Up):
		m.eng.PanBy(r2.Vec{Y: panStep})
	case key.Matches(msg, m.keys.Down):
		m.eng.PanBy(r2.Vec{Y: -panStep})
	case key.Matches(msg, m.keys.Left):
		m.eng.PanBy(r2.Vec{X: panStep})
	case key.Matches(msg, m.keys.Right):
		m.eng.PanBy(r2.Vec{X: -panStep})
	case key.Matches(msg, m.keys.Scatter):
		m.eng.Scatter()
	case key.Matches(msg, m.keys.Reload):
		return m, tea.Batch(m.loadCmd(true), m.setStatus("Reloading…"))
	case key.Matches(msg, m.keys.Copy):
		n := m.eng.SelectedNode()
		if n == nil {
			n = m.hooks.focus
		}
		if n == nil {
			return m, m.setStatus("Nothing selected")
		}
		if err := clipboard.WriteAll(n.Label); err != nil {
			return m, m.setStatus(fmt.Sprintf("Copy failed: %v", err))
		}
		return m, m.setStatus("Copied " + n.Label)
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing…"
	}
	_, rows, side := layout(m.width, m.height, m.drawer.open)

	body := m.surface.View()
	if side > 0 {
		var column string
		switch {
		case m.drawer.open:
			column = m.drawer.view(m.theme, side, rows)
		case m.showHelp:
			column = renderHelpPanel(m.theme, m.keys, side, rows)
		default:
			column = renderInfoPanel(m.theme, m.hooks.focus, m.eng.Summary(), side, rows, m.now())
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, column)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}

func (m Model) statusBar() string {
	left := m.status
	if left == "" {
		left = m.eng.Summary()
		if s := m.eng.Status(); s != "" {
			left = s
		}
	}
	right := helpLine(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	line := " " + left
	if gap > 0 {
		line += padRight("", gap) + right
	}
	return m.theme.StatusBar.Width(m.width).Render(truncate(line, m.width))
}
