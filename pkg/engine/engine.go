// Package engine owns one graph view: the scene, camera, physics
// simulation, interaction machine and renderer, plus their lifecycle.
//
// The engine is driven from a single goroutine (the frame loop). Loads may
// be fetched elsewhere; BeginLoad hands out a token and CompleteLoad applies
// the result on the frame goroutine, ignoring stale or post-teardown
// results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/camera"
	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/interaction"
	"github.com/vanderheijden86/recall/pkg/metrics"
	"github.com/vanderheijden86/recall/pkg/model"
	"github.com/vanderheijden86/recall/pkg/physics"
	"github.com/vanderheijden86/recall/pkg/render"
	"github.com/vanderheijden86/recall/pkg/scene"
)

var (
	// ErrTornDown is returned when a load completes after Teardown.
	ErrTornDown = errors.New("engine torn down")
	// ErrStaleLoad is returned when a newer load superseded this one.
	ErrStaleLoad = errors.New("stale graph load")
)

// Status strings shown in the HUD.
const (
	StatusLoading = "Loading…"
	StatusFailed  = "Failed to load"
	StatusEmpty   = "No graph data"
)

// Options configures a new Engine.
type Options struct {
	Width, Height float64

	Physics    physics.Params
	Render     render.Options
	HitPadding float64
	MinZoom    float64
	MaxZoom    float64

	// Rand seeds initial positions and particles; nil uses the clock.
	Rand *rand.Rand

	// Hooks run with the engine locked and must not call back into it.
	OnDrillDown func(interaction.DrillDown)
	// OnFocus receives the hovered-or-selected node, or nil.
	OnFocus func(*scene.Node)
}

// LoadToken identifies one load request.
type LoadToken struct {
	seq     uint64
	started time.Time
}

// Engine is the graph view's context object.
type Engine struct {
	mu sync.Mutex

	opts     Options
	scene    *scene.Scene
	cam      *camera.Camera
	sim      *physics.Simulation
	machine  *interaction.Machine
	renderer *render.Renderer
	rng      *rand.Rand

	running  bool
	loaded   bool
	tornDown bool
	seq      uint64
	status   string
	loadErr  error
}

// New creates a stopped engine with an empty scene.
func New(opts Options) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{
		opts:     opts,
		scene:    scene.Empty(),
		cam:      camera.New(opts.Width, opts.Height),
		sim:      physics.New(opts.Physics),
		renderer: render.New(opts.Render),
		rng:      rng,
	}
	if opts.MinZoom > 0 || opts.MaxZoom > 0 {
		e.cam.SetLimits(opts.MinZoom, opts.MaxZoom)
	}
	e.machine = interaction.New(e.scene, e.cam, interaction.Hooks{
		OnPerturb:   e.sim.Wake,
		OnDrillDown: opts.OnDrillDown,
		OnFocus:     e.focusChanged,
	})
	if opts.HitPadding > 0 {
		e.machine.SetHitPadding(opts.HitPadding)
	}
	return e
}

func (e *Engine) focusChanged(i int) {
	if e.opts.OnFocus != nil {
		e.opts.OnFocus(e.scene.Node(i))
	}
}

// BeginLoad starts a load and returns its token. Any earlier token
// becomes stale.
func (e *Engine) BeginLoad() LoadToken {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.status = StatusLoading
	return LoadToken{seq: e.seq, started: time.Now()}
}

// CompleteLoad applies a fetched payload. A fetch error or an empty payload
// leaves an empty scene and a status message; neither is returned. The
// returned error is ErrTornDown or ErrStaleLoad when the result was ignored.
func (e *Engine) CompleteLoad(tok LoadToken, p *model.GraphPayload, fetchErr error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tornDown {
		return ErrTornDown
	}
	if tok.seq != e.seq {
		return fmt.Errorf("load %d superseded by %d: %w", tok.seq, e.seq, ErrStaleLoad)
	}
	if !tok.started.IsZero() {
		metrics.GraphLoad.Record(time.Since(tok.started))
	}

	e.loadErr = fetchErr
	switch {
	case fetchErr != nil:
		debug.Log("engine: load failed: %v", fetchErr)
		e.install(scene.Empty())
		e.status = StatusFailed
	case p == nil || len(p.Nodes) == 0:
		e.install(scene.Empty())
		e.status = StatusEmpty
	default:
		w, h := e.cam.W, e.cam.H
		e.install(scene.FromPayload(p, scene.BuildOptions{ViewportW: w, ViewportH: h, Rand: e.rng}))
		e.status = ""
		if e.scene.DroppedEdges > 0 {
			e.status = fmt.Sprintf("%d malformed edges skipped", e.scene.DroppedEdges)
		}
	}
	return nil
}

// install swaps in a freshly built scene. The camera recentres and the
// machine forgets hover, drag and selection.
func (e *Engine) install(sc *scene.Scene) {
	e.scene = sc
	e.cam.Reset()
	e.sim.Wake()
	e.machine.Reset(sc)
}

// Load fetches synchronously and completes the load.
func (e *Engine) Load(ctx context.Context, f Fetcher) error {
	tok := e.BeginLoad()
	p, err := f.FetchGraph(ctx)
	return e.CompleteLoad(tok, p, err)
}

// LoadErr returns the error of the last completed load, if any.
func (e *Engine) LoadErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// Start marks the frame loop running.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.tornDown {
		e.running = true
	}
}

// Stop halts the frame loop. The scene is kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Running reports whether frames should be scheduled.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetVisible starts or stops the loop as the view is shown or hidden. It
// returns true exactly once, on the first activation, when the caller must
// issue the initial load.
func (e *Engine) SetVisible(visible bool) (needsLoad bool) {
	if !visible {
		e.Stop()
		return false
	}
	e.Start()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded || e.tornDown {
		return false
	}
	e.loaded = true
	return true
}

// Teardown stops the engine for good. Later loads are ignored.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tornDown = true
	e.running = false
}

// TornDown reports whether Teardown was called.
func (e *Engine) TornDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tornDown
}

// Simulate runs one physics step; it is a no-op once settled.
func (e *Engine) Simulate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Step(e.scene, e.machine.Dragging())
}

// Render draws one frame onto s.
func (e *Engine) Render(s render.Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderer.Frame(s, e.frameState())
}

// Tick runs one simulate+render pair when running. The physics step
// completes before drawing starts.
func (e *Engine) Tick(s render.Surface) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	e.sim.Step(e.scene, e.machine.Dragging())
	e.renderer.Frame(s, e.frameState())
	return true
}

func (e *Engine) frameState() render.FrameState {
	return render.FrameState{
		Scene:    e.scene,
		Camera:   e.cam,
		Hovered:  e.machine.Hovered(),
		Selected: e.machine.Selected(),
		HUD: render.HUD{
			Status:    e.status,
			Settled:   e.sim.Settled(),
			FrameTime: metrics.RenderFrame.Avg() + metrics.PhysicsStep.Avg(),
		},
	}
}

// Resize updates the viewport without moving nodes, pan or zoom.
func (e *Engine) Resize(w, h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cam.Resize(w, h)
}

// Dispatch feeds one input event to the interaction machine.
func (e *Engine) Dispatch(ev interaction.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tornDown {
		return
	}
	e.machine.Dispatch(ev)
}

// PanBy shifts the camera by d screen units.
func (e *Engine) PanBy(d r2.Vec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cam.PanBy(d)
}

// Scatter throws every node to a new random position and wakes physics.
func (e *Engine) Scatter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Scatter(e.rng, e.cam.W, e.cam.H)
	e.sim.Wake()
}

// Select sets the selection by node id; an unknown id clears it.
func (e *Engine) Select(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Select(e.scene.Find(id))
}

// Settled reports whether physics has stopped.
func (e *Engine) Settled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Settled()
}

// Status returns the HUD status message.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Summary returns the node and edge counts line.
func (e *Engine) Summary() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return render.Summary(e.scene)
}

// Scene returns the current scene. Callers must not hold it across loads.
func (e *Engine) Scene() *scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

// Camera returns the engine's camera.
func (e *Engine) Camera() *camera.Camera { return e.cam }

// Machine returns the interaction machine.
func (e *Engine) Machine() *interaction.Machine { return e.machine }

// Simulation returns the physics simulation.
func (e *Engine) Simulation() *physics.Simulation { return e.sim }

// Renderer returns the frame renderer.
func (e *Engine) Renderer() *render.Renderer { return e.renderer }

// Focus returns the hovered-or-selected node, or nil.
func (e *Engine) Focus() *scene.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Node(e.machine.Focus())
}

// SelectedNode returns the selected node, or nil.
func (e *Engine) SelectedNode() *scene.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Node(e.machine.Selected())
}
