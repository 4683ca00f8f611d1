package scene

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/model"
)

// Radius scaling per kind. Tool nodes use a smaller base and range so they
// read as satellites of the repositories they are used in.
const (
	RepoBaseRadius  = 10.0
	RepoRadiusRange = 30.0
	ToolBaseRadius  = 6.0
	ToolRadiusRange = 14.0

	// MaxParticlesPerEdge caps the particles spawned on one edge.
	MaxParticlesPerEdge = 4

	minParticleSpeed = 0.002
	particleSpeedVar = 0.004

	// The initial scatter is bounded by the viewport but never wider than
	// these extents, so large windows still start with a compact layout.
	scatterMaxW = 500.0
	scatterMaxH = 350.0
)

// BuildOptions controls the random parts of Build.
type BuildOptions struct {
	ViewportW float64
	ViewportH float64
	// Rand seeds positions, phases and particles. Nil uses a time seed.
	Rand *rand.Rand
}

func (o BuildOptions) rng() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Radius returns base + sqrt(commands/maxCommands) * range for kind, with
// maxCommands floored at 1. Area, not radius, grows with activity.
func Radius(kind Kind, commands, maxCommands int) float64 {
	base, span := RepoBaseRadius, RepoRadiusRange
	if kind == KindTool {
		base, span = ToolBaseRadius, ToolRadiusRange
	}
	c := math.Max(0, float64(commands))
	return base + math.Sqrt(c/float64(max(1, maxCommands)))*span
}

// KindOf maps a payload node type to a Kind. Anything but "tool" is a repo.
func KindOf(t model.NodeType) Kind {
	if t == model.NodeTool {
		return KindTool
	}
	return KindRepo
}

// Build turns a payload into a fresh Scene. Edges whose endpoints do not
// resolve, and self loops, are dropped and logged. Duplicate node ids keep
// the first occurrence.
func Build(nodes []model.GraphNode, edges []model.GraphEdge, opts BuildOptions) *Scene {
	defer debug.LogEnterExit("scene.Build")()
	rng := opts.rng()

	s := &Scene{
		Nodes: make([]Node, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
	}

	maxCommands := map[Kind]int{KindRepo: 1, KindTool: 1}
	for _, in := range nodes {
		k := KindOf(in.Type)
		if in.Commands > maxCommands[k] {
			maxCommands[k] = in.Commands
		}
	}

	spreadW, spreadH := scatterExtent(opts.ViewportW, opts.ViewportH)
	ordinal := map[Kind]int{}
	for _, in := range nodes {
		if _, dup := s.index[in.ID]; dup {
			debug.Log("scene: duplicate node id %q ignored", in.ID)
			continue
		}
		k := KindOf(in.Type)
		label := in.Label
		if label == "" {
			label = in.ID
		}
		n := Node{
			ID:         in.ID,
			Label:      label,
			Kind:       k,
			Commands:   max(0, in.Commands),
			Sessions:   max(0, in.Sessions),
			Failures:   max(0, in.Failures),
			Branches:   append([]string(nil), in.Branches...),
			Repos:      append([]string(nil), in.Repos...),
			Radius:     Radius(k, in.Commands, maxCommands[k]),
			ColorIndex: ordinal[k],
			Phase:      rng.Float64() * 2 * math.Pi,
			Pos: r2.Vec{
				X: (rng.Float64() - 0.5) * spreadW,
				Y: (rng.Float64() - 0.5) * spreadH,
			},
		}
		if in.LastActive != nil {
			n.LastActive = in.LastActive.Time
		}
		ordinal[k]++
		s.index[n.ID] = len(s.Nodes)
		s.Nodes = append(s.Nodes, n)
	}

	s.adj = make([]map[int]struct{}, len(s.Nodes))
	for i := range s.adj {
		s.adj[i] = map[int]struct{}{}
	}

	for _, in := range edges {
		src, okS := s.index[in.Source]
		dst, okT := s.index[in.Target]
		if !okS || !okT {
			debug.Log("scene: dropping edge %s -> %s: unresolved endpoint", in.Source, in.Target)
			s.DroppedEdges++
			continue
		}
		if src == dst {
			debug.Log("scene: dropping self edge on %s", in.Source)
			s.DroppedEdges++
			continue
		}
		e := Edge{
			Source: src,
			Target: dst,
			Weight: in.EffectiveWeight(),
			Kind:   edgeKind(in.Type, s.Nodes[src].Kind, s.Nodes[dst].Kind),
		}
		idx := len(s.Edges)
		s.Edges = append(s.Edges, e)
		s.adj[src][dst] = struct{}{}
		s.adj[dst][src] = struct{}{}

		for j := 0; j < min(e.Weight, MaxParticlesPerEdge); j++ {
			s.Particles = append(s.Particles, Particle{
				Edge:  idx,
				T:     rng.Float64(),
				Speed: minParticleSpeed + rng.Float64()*particleSpeedVar,
			})
		}
	}

	debug.Log("scene: built %d nodes, %d edges, %d particles (%d edges dropped)",
		len(s.Nodes), len(s.Edges), len(s.Particles), s.DroppedEdges)
	return s
}

// FromPayload is Build over a whole payload. A nil payload yields an
// empty scene.
func FromPayload(p *model.GraphPayload, opts BuildOptions) *Scene {
	if p == nil {
		return Empty()
	}
	return Build(p.Nodes, p.Edges, opts)
}

// Scatter throws every node back to a random position near the origin and
// zeroes its velocity.
func (s *Scene) Scatter(rng *rand.Rand, viewportW, viewportH float64) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	w, h := scatterExtent(viewportW, viewportH)
	for i := range s.Nodes {
		s.Nodes[i].Pos = r2.Vec{X: (rng.Float64() - 0.5) * w, Y: (rng.Float64() - 0.5) * h}
		s.Nodes[i].Vel = r2.Vec{}
	}
}

func scatterExtent(w, h float64) (float64, float64) {
	if w <= 0 {
		w = scatterMaxW
	}
	if h <= 0 {
		h = scatterMaxH
	}
	return math.Min(w, scatterMaxW), math.Min(h, scatterMaxH)
}

func edgeKind(t model.EdgeType, a, b Kind) EdgeKind {
	switch t {
	case model.EdgeRepoTool:
		return RepoTool
	case model.EdgeRepoRepo:
		return RepoRepo
	}
	if a == KindTool || b == KindTool {
		return RepoTool
	}
	return RepoRepo
}
