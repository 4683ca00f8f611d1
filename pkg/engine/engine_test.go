package engine

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/interaction"
	"github.com/vanderheijden86/recall/pkg/model"
	"github.com/vanderheijden86/recall/pkg/render"
	"github.com/vanderheijden86/recall/pkg/scene"
	"github.com/vanderheijden86/recall/pkg/testutil"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Width == 0 {
		opts.Width, opts.Height = 800, 600
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(9))
	}
	return New(opts)
}

func TestLoad_PairExampleSettlesNearRepoToolRest(t *testing.T) {
	e := newEngine(t, Options{})
	if err := e.Load(context.Background(), Static(testutil.Pair())); err != nil {
		t.Fatalf("load: %v", err)
	}
	sc := e.Scene()
	if sc.Len() != 2 || len(sc.Edges) != 1 || len(sc.Particles) != 3 {
		t.Fatalf("expected 2 nodes, 1 edge, 3 particles; got %d, %d, %d", sc.Len(), len(sc.Edges), len(sc.Particles))
	}

	e.Start()
	sched := NewScheduler(e, render.NewRecorder(800, 600), 60)
	sched.RunUntilSettled(5000)
	if !e.Settled() {
		t.Fatal("expected layout to settle")
	}
	p := e.Simulation().Params()
	d := r2.Norm(r2.Sub(sc.Nodes[0].Pos, sc.Nodes[1].Pos))
	if math.Abs(d-p.RestRepoTool) >= math.Abs(d-p.RestRepoRepo) {
		t.Errorf("expected distance %.1f nearer %.0f than %.0f", d, p.RestRepoTool, p.RestRepoRepo)
	}
}

func TestCompleteLoad_StaleAndTornDown(t *testing.T) {
	e := newEngine(t, Options{})
	first := e.BeginLoad()
	second := e.BeginLoad()

	if err := e.CompleteLoad(first, testutil.Pair(), nil); !errors.Is(err, ErrStaleLoad) {
		t.Errorf("expected ErrStaleLoad, got %v", err)
	}
	if e.Scene().Len() != 0 {
		t.Error("expected stale result ignored")
	}
	if err := e.CompleteLoad(second, testutil.Pair(), nil); err != nil {
		t.Fatalf("expected current load applied, got %v", err)
	}

	tok := e.BeginLoad()
	e.Teardown()
	if err := e.CompleteLoad(tok, &model.GraphPayload{}, nil); !errors.Is(err, ErrTornDown) {
		t.Errorf("expected ErrTornDown, got %v", err)
	}
	if e.Scene().Len() != 2 {
		t.Error("expected scene untouched after teardown")
	}
}

func TestCompleteLoad_FailureDegradesToEmpty(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.Pair()))

	boom := errors.New("connection refused")
	if err := e.Load(context.Background(), FetcherFunc(func(context.Context) (*model.GraphPayload, error) {
		return nil, boom
	})); err != nil {
		t.Fatalf("expected load failure not returned, got %v", err)
	}
	if e.Scene().Len() != 0 {
		t.Error("expected empty scene after failed load")
	}
	if e.Status() != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, e.Status())
	}
	if !errors.Is(e.LoadErr(), boom) {
		t.Errorf("expected LoadErr to keep the cause, got %v", e.LoadErr())
	}

	rec := render.NewRecorder(800, 600)
	e.Start()
	e.Tick(rec)
	if !strings.Contains(strings.Join(rec.Texts(), "|"), StatusFailed) {
		t.Errorf("expected HUD to show %q, got %v", StatusFailed, rec.Texts())
	}
}

func TestLoad_ResetsCameraAndInteraction(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.Pair()))
	e.Select("r1")
	e.Camera().PanBy(r2.Vec{X: 50})
	e.Camera().ZoomAt(r2.Vec{}, 2)

	_ = e.Load(context.Background(), Static(testutil.Pair()))
	if e.SelectedNode() != nil {
		t.Error("expected selection cleared on reload")
	}
	if e.Camera().Zoom != 1 || e.Camera().Pan != (r2.Vec{X: 400, Y: 300}) {
		t.Errorf("expected camera reset, got %+v zoom %v", e.Camera().Pan, e.Camera().Zoom)
	}
}

func TestSetVisible_FirstActivationLoads(t *testing.T) {
	e := newEngine(t, Options{})
	if !e.SetVisible(true) {
		t.Error("expected first activation to request a load")
	}
	if !e.Running() {
		t.Error("expected running while visible")
	}
	e.SetVisible(false)
	if e.Running() {
		t.Error("expected stopped while hidden")
	}
	if e.SetVisible(true) {
		t.Error("expected re-entry not to request another load")
	}
}

func TestTick_StoppedDoesNothing(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.Pair()))
	rec := render.NewRecorder(800, 600)
	if e.Tick(rec) {
		t.Error("expected Tick to skip while stopped")
	}
	if len(rec.Ops) != 0 {
		t.Errorf("expected no drawing, got %d ops", len(rec.Ops))
	}
	sched := NewScheduler(e, rec, 30)
	if sched.Step() {
		t.Error("expected Step to report no frame while stopped")
	}
}

func TestScheduler_RunStopsWithContext(t *testing.T) {
	e := newEngine(t, Options{})
	e.Start()
	frames := 0
	sched := NewScheduler(e, render.NewRecorder(100, 100), 500)
	ctx, cancel := context.WithCancel(context.Background())
	sched.OnFrame = func(uint64) {
		frames++
		if frames == 3 {
			cancel()
		}
	}
	if err := sched.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if frames < 3 {
		t.Errorf("expected at least 3 frames, got %d", frames)
	}
}

func TestDispatch_DragWakesPhysics(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.Pair()))
	e.Start()
	sched := NewScheduler(e, render.NewRecorder(800, 600), 60)
	sched.RunUntilSettled(5000)
	if !e.Settled() {
		t.Fatal("expected settled before drag")
	}

	n := e.Scene().Nodes[0]
	at := e.Camera().WorldToScreen(n.Pos)
	e.Dispatch(interaction.Event{Kind: interaction.PointerDown, Pos: at})
	e.Dispatch(interaction.Event{Kind: interaction.PointerMove, Pos: r2.Add(at, r2.Vec{X: 30})})
	if e.Settled() {
		t.Error("expected drag to clear the settle flag")
	}
	sched.Step()
	if got := e.Scene().Nodes[0].Pos; got != e.Camera().ScreenToWorld(r2.Add(at, r2.Vec{X: 30})) {
		t.Errorf("expected dragged node held under pointer, got %+v", got)
	}
}

func TestDrillDownAndFocusHooks(t *testing.T) {
	var drills []interaction.DrillDown
	var focus []*scene.Node
	e := newEngine(t, Options{
		OnDrillDown: func(d interaction.DrillDown) { drills = append(drills, d) },
		OnFocus:     func(n *scene.Node) { focus = append(focus, n) },
	})
	_ = e.Load(context.Background(), Static(testutil.Pair()))

	at := e.Camera().WorldToScreen(e.Scene().Nodes[1].Pos)
	e.Dispatch(interaction.Event{Kind: interaction.PointerMove, Pos: at})
	e.Dispatch(interaction.Event{Kind: interaction.DoubleClick, Pos: at})

	if len(focus) == 0 || focus[len(focus)-1] == nil || focus[len(focus)-1].ID != "t1" {
		t.Errorf("expected focus on t1, got %v", focus)
	}
	if len(drills) != 1 || drills[0].Kind != scene.KindTool || drills[0].Label != "t1" {
		t.Errorf("expected tool drill-down on t1, got %v", drills)
	}
	q := QueryFor(drills[0], 20)
	if q.Tool != "t1" || q.Repo != "" || q.Limit != 20 {
		t.Errorf("expected tool query, got %+v", q)
	}
}

func TestReloadClearsFocus(t *testing.T) {
	var focus []*scene.Node
	e := newEngine(t, Options{OnFocus: func(n *scene.Node) { focus = append(focus, n) }})
	_ = e.Load(context.Background(), Static(testutil.Pair()))

	at := e.Camera().WorldToScreen(e.Scene().Nodes[0].Pos)
	e.Dispatch(interaction.Event{Kind: interaction.PointerDown, Pos: at})
	e.Dispatch(interaction.Event{Kind: interaction.PointerUp, Pos: at})
	if len(focus) == 0 || focus[len(focus)-1] == nil {
		t.Fatalf("expected a focused node after click, got %v", focus)
	}
	before := len(focus)

	_ = e.Load(context.Background(), Static(testutil.Pair()))
	if len(focus) != before+1 {
		t.Fatalf("expected one focus report after reload, got %d", len(focus)-before)
	}
	if focus[len(focus)-1] != nil {
		t.Errorf("expected focus cleared on reload, got %q", focus[len(focus)-1].ID)
	}

	at = e.Camera().WorldToScreen(e.Scene().Nodes[0].Pos)
	e.Dispatch(interaction.Event{Kind: interaction.PointerMove, Pos: at})
	failing := FetcherFunc(func(context.Context) (*model.GraphPayload, error) {
		return nil, errors.New("boom")
	})
	_ = e.Load(context.Background(), failing)
	if focus[len(focus)-1] != nil {
		t.Errorf("expected focus cleared on failed load, got %q", focus[len(focus)-1].ID)
	}
}

func TestScatterWakes(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.Pair()))
	e.Start()
	NewScheduler(e, render.NewRecorder(800, 600), 60).RunUntilSettled(5000)
	e.Scatter()
	if e.Settled() {
		t.Error("expected scatter to wake physics")
	}
}

func TestResizeKeepsLayout(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.Pair()))
	pos := e.Scene().Nodes[0].Pos
	pan := e.Camera().Pan
	e.Resize(1200, 900)
	if e.Scene().Nodes[0].Pos != pos || e.Camera().Pan != pan {
		t.Error("expected resize to keep positions and pan")
	}
	if e.Camera().W != 1200 {
		t.Errorf("expected viewport width 1200, got %v", e.Camera().W)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/graph":
			_ = model.EncodeGraphPayload(w, testutil.Pair())
		case "/api/commands":
			if r.URL.Query().Get("repo") != "r1" {
				http.Error(w, "bad query", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"commands":[{"id":1,"session_id":"s","command_text":"git status","timestamp":1}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL + "/")
	p, err := f.FetchGraph(context.Background())
	if err != nil {
		t.Fatalf("fetch graph: %v", err)
	}
	testutil.AssertNodeCount(t, p, 2)

	cmds, err := f.Commands(context.Background(), model.CommandQuery{Repo: "r1"})
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	if len(cmds) != 1 || cmds[0].ToolName() != "git" {
		t.Errorf("expected one git command, got %+v", cmds)
	}

	if _, err := f.Commands(context.Background(), model.CommandQuery{Tool: "x"}); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestPanByMovesCameraOnly(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.Pair()))
	before := e.Camera().Pan
	pos := e.Scene().Nodes[0].Pos

	e.PanBy(r2.Vec{X: 16, Y: -8})
	got := e.Camera().Pan
	if got.X != before.X+16 || got.Y != before.Y-8 {
		t.Errorf("expected pan shifted by (16,-8), got %v from %v", got, before)
	}
	if e.Scene().Nodes[0].Pos != pos {
		t.Error("expected node positions untouched")
	}
}

func TestScheduler_RunUntilSettledRespectsCap(t *testing.T) {
	e := newEngine(t, Options{})
	_ = e.Load(context.Background(), Static(testutil.NewDefault().Star(12)))
	e.Start()
	sched := NewScheduler(e, render.NewRecorder(800, 600), 0)
	if sched.Interval() != time.Second/DefaultFPS {
		t.Errorf("expected default interval, got %v", sched.Interval())
	}
	if n := sched.RunUntilSettled(5); n != 5 {
		t.Errorf("expected 5 frames before warmup ends, got %d", n)
	}

	e.Stop()
	if n := sched.RunUntilSettled(5); n != 0 {
		t.Errorf("expected no frames while stopped, got %d", n)
	}
}
