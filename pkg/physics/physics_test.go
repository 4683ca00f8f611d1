package physics

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/model"
	"github.com/vanderheijden86/recall/pkg/scene"
	"github.com/vanderheijden86/recall/pkg/testutil"
)

func pairScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.FromPayload(testutil.Pair(), scene.BuildOptions{
		ViewportW: 800, ViewportH: 600, Rand: rand.New(rand.NewSource(11)),
	})
	if s.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", s.Len())
	}
	return s
}

func distance(s *scene.Scene) float64 {
	return r2.Norm(r2.Sub(s.Nodes[0].Pos, s.Nodes[1].Pos))
}

func TestStep_PairConvergesNearRepoToolRest(t *testing.T) {
	s := pairScene(t)
	s.Nodes[0].Pos = r2.Vec{X: -25}
	s.Nodes[1].Pos = r2.Vec{X: 25}

	sim := New(DefaultParams())
	p := sim.Params()
	settled := false
	for i := 0; i < 5000 && !settled; i++ {
		settled = sim.Step(s, scene.NoNode)
	}
	if !settled {
		t.Fatalf("expected layout to settle, energy %.4f after %d frames", sim.Energy(), sim.Frames())
	}

	d := distance(s)
	if math.Abs(d-p.RestRepoTool) >= math.Abs(d-p.RestRepoRepo) {
		t.Errorf("expected distance %.1f nearer repo-tool rest %.0f than repo-repo rest %.0f", d, p.RestRepoTool, p.RestRepoRepo)
	}
	if d < p.RestRepoTool*0.8 || d > p.RestRepoTool*1.6 {
		t.Errorf("expected distance near %.0f, got %.1f", p.RestRepoTool, d)
	}
}

func TestStep_PairDistanceGrowsFromBelowRest(t *testing.T) {
	s := pairScene(t)
	s.Nodes[0].Pos = r2.Vec{X: -25}
	s.Nodes[1].Pos = r2.Vec{X: 25}
	sim := New(DefaultParams())

	prev := distance(s)
	for i := 0; i < 10; i++ {
		sim.Step(s, scene.NoNode)
		d := distance(s)
		if d < prev {
			t.Fatalf("frame %d: expected distance to grow toward rest, %.2f -> %.2f", i, prev, d)
		}
		prev = d
	}
}

func TestStep_SingleNodeSettles(t *testing.T) {
	s := scene.FromPayload(&model.GraphPayload{Nodes: []model.GraphNode{testutil.Repo("solo", 12)}}, scene.BuildOptions{Rand: rand.New(rand.NewSource(3))})
	sim := New(DefaultParams())
	for i := 0; i < 5000; i++ {
		if sim.Step(s, scene.NoNode) {
			break
		}
	}
	if !sim.Settled() {
		t.Fatalf("expected single node to settle, energy %.4f", sim.Energy())
	}
	if sim.Frames() <= sim.Params().WarmupFrames {
		t.Errorf("expected settle only after warm-up, got %d frames", sim.Frames())
	}
}

func TestStep_SettledSkipsWork(t *testing.T) {
	s := pairScene(t)
	sim := New(DefaultParams())
	for i := 0; i < 5000 && !sim.Step(s, scene.NoNode); i++ {
	}
	before := s.Nodes[0].Pos
	frames := sim.Frames()
	sim.Step(s, scene.NoNode)
	if s.Nodes[0].Pos != before || sim.Frames() != frames {
		t.Error("expected settled simulation to leave positions untouched")
	}

	sim.Wake()
	if sim.Settled() || sim.Frames() != 0 {
		t.Error("expected Wake to clear settle flag and warm-up count")
	}
}

func TestStep_DraggedNodeHeld(t *testing.T) {
	s := pairScene(t)
	s.Nodes[0].Pos = r2.Vec{X: 300, Y: 300}
	s.Nodes[0].Vel = r2.Vec{X: 9, Y: 9}
	sim := New(DefaultParams())

	for i := 0; i < 20; i++ {
		sim.Step(s, 0)
	}
	if s.Nodes[0].Pos != (r2.Vec{X: 300, Y: 300}) {
		t.Errorf("expected dragged node fixed, got %+v", s.Nodes[0].Pos)
	}
	if s.Nodes[0].Vel != (r2.Vec{}) {
		t.Errorf("expected dragged node velocity zero, got %+v", s.Nodes[0].Vel)
	}
}

func TestStep_CoincidentNodesStayFinite(t *testing.T) {
	s := testutil.NewDefault().Star(5)
	sc := scene.FromPayload(s, scene.BuildOptions{Rand: rand.New(rand.NewSource(5))})
	for i := range sc.Nodes {
		sc.Nodes[i].Pos = r2.Vec{}
	}
	sim := New(DefaultParams())
	for i := 0; i < 50; i++ {
		sim.Step(sc, scene.NoNode)
	}
	for _, n := range sc.Nodes {
		if math.IsNaN(n.Pos.X) || math.IsNaN(n.Pos.Y) || math.IsInf(n.Pos.X, 0) || math.IsInf(n.Pos.Y, 0) {
			t.Fatalf("expected finite positions, got %+v for %s", n.Pos, n.ID)
		}
	}
}

func TestStep_ToolPairsRepelLess(t *testing.T) {
	mk := func(kind scene.Kind) *scene.Scene {
		sc := scene.Empty()
		sc.Nodes = []scene.Node{
			{Kind: kind, Pos: r2.Vec{X: -10}, Radius: 6},
			{Kind: kind, Pos: r2.Vec{X: 10}, Radius: 6},
		}
		return sc
	}
	repos, tools := mk(scene.KindRepo), mk(scene.KindTool)
	New(DefaultParams()).Step(repos, scene.NoNode)
	New(DefaultParams()).Step(tools, scene.NoNode)

	if tools.Nodes[1].Vel.X >= repos.Nodes[1].Vel.X {
		t.Errorf("expected tool-tool push %.3f below repo-repo push %.3f", tools.Nodes[1].Vel.X, repos.Nodes[1].Vel.X)
	}
}

func TestParams_Sanitize(t *testing.T) {
	p := Params{Damping: 1.5}.Sanitize()
	d := DefaultParams()
	if p.Damping != d.Damping {
		t.Errorf("expected damping reset to %.2f, got %.2f", d.Damping, p.Damping)
	}
	if p.Repulsion != d.Repulsion || p.RestRepoTool != d.RestRepoTool {
		t.Error("expected zero values replaced by defaults")
	}
	if d.RestLength(scene.RepoRepo) <= d.RestLength(scene.RepoTool) {
		t.Error("expected repo-repo springs longer than repo-tool springs")
	}
}
