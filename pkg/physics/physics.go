// Package physics runs the force-directed layout: pairwise inverse-square
// repulsion, Hookean springs along edges, a weak pull toward the origin and
// velocity damping, integrated with semi-implicit Euler once per frame.
//
// A Simulation stops doing work once the layout has settled. Dragging a node
// or loading a new scene wakes it again.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/metrics"
	"github.com/vanderheijden86/recall/pkg/scene"
)

// Params holds the force constants. All values are per frame.
type Params struct {
	Repulsion float64 `yaml:"repulsion" toml:"repulsion"`
	// ToolRepulsionFactor scales Repulsion for tool-tool pairs.
	ToolRepulsionFactor float64 `yaml:"tool_repulsion_factor" toml:"tool_repulsion_factor"`
	Stiffness           float64 `yaml:"stiffness" toml:"stiffness"`
	RestRepoRepo        float64 `yaml:"rest_repo_repo" toml:"rest_repo_repo"`
	RestRepoTool        float64 `yaml:"rest_repo_tool" toml:"rest_repo_tool"`
	Centering           float64 `yaml:"centering" toml:"centering"`
	Damping             float64 `yaml:"damping" toml:"damping"`
	// MinDistance clamps pair distance before dividing.
	MinDistance float64 `yaml:"min_distance" toml:"min_distance"`
	// WarmupFrames must elapse before the layout may settle.
	WarmupFrames int `yaml:"warmup_frames" toml:"warmup_frames"`
	// SettleEpsilon is the mean |vx|+|vy| per node below which the layout
	// counts as settled.
	SettleEpsilon float64 `yaml:"settle_epsilon" toml:"settle_epsilon"`
}

// DefaultParams returns the constants the viewer ships with.
func DefaultParams() Params {
	return Params{
		Repulsion:           2200,
		ToolRepulsionFactor: 0.3,
		Stiffness:           0.007,
		RestRepoRepo:        140,
		RestRepoTool:        70,
		Centering:           0.003,
		Damping:             0.87,
		MinDistance:         1,
		WarmupFrames:        60,
		SettleEpsilon:       0.02,
	}
}

// Sanitize replaces out-of-range values with defaults. Damping must stay
// below 1 or the layout never loses energy.
func (p Params) Sanitize() Params {
	d := DefaultParams()
	if p.Repulsion <= 0 {
		p.Repulsion = d.Repulsion
	}
	if p.ToolRepulsionFactor <= 0 {
		p.ToolRepulsionFactor = d.ToolRepulsionFactor
	}
	if p.Stiffness <= 0 {
		p.Stiffness = d.Stiffness
	}
	if p.RestRepoRepo <= 0 {
		p.RestRepoRepo = d.RestRepoRepo
	}
	if p.RestRepoTool <= 0 {
		p.RestRepoTool = d.RestRepoTool
	}
	if p.Centering < 0 {
		p.Centering = d.Centering
	}
	if p.Damping <= 0 || p.Damping >= 1 {
		p.Damping = d.Damping
	}
	if p.MinDistance <= 0 {
		p.MinDistance = d.MinDistance
	}
	if p.WarmupFrames < 0 {
		p.WarmupFrames = d.WarmupFrames
	}
	if p.SettleEpsilon <= 0 {
		p.SettleEpsilon = d.SettleEpsilon
	}
	return p
}

// RestLength returns the spring rest length for an edge kind.
func (p Params) RestLength(k scene.EdgeKind) float64 {
	if k == scene.RepoTool {
		return p.RestRepoTool
	}
	return p.RestRepoRepo
}

// Simulation owns the settle state for one scene. It never allocates per
// step beyond the force buffer it keeps between frames.
type Simulation struct {
	params  Params
	frames  int
	settled bool
	energy  float64
	force   []r2.Vec
}

// New creates a Simulation with sanitized params.
func New(p Params) *Simulation {
	return &Simulation{params: p.Sanitize()}
}

// Params returns the active constants.
func (s *Simulation) Params() Params { return s.params }

// Settled reports whether steps are currently skipped.
func (s *Simulation) Settled() bool { return s.settled }

// Frames returns the number of steps integrated since the last Wake.
func (s *Simulation) Frames() int { return s.frames }

// Energy returns the summed |vx|+|vy| from the last integrated step.
func (s *Simulation) Energy() float64 { return s.energy }

// Wake clears the settle flag and restarts the warm-up count.
func (s *Simulation) Wake() {
	s.settled = false
	s.frames = 0
}

// Step advances sc by one frame unless the layout has settled. The node at
// index dragged (or scene.NoNode) keeps its position and has zero velocity.
// It returns whether the layout is settled after the step.
func (s *Simulation) Step(sc *scene.Scene, dragged int) bool {
	if s.settled || sc.Len() == 0 {
		return s.settled
	}
	defer metrics.Timer(metrics.PhysicsStep)()

	nodes := sc.Nodes
	if cap(s.force) < len(nodes) {
		s.force = make([]r2.Vec, len(nodes))
	}
	force := s.force[:len(nodes)]
	for i := range force {
		force[i] = r2.Vec{}
	}

	p := s.params
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			delta := r2.Sub(nodes[i].Pos, nodes[j].Pos)
			d := r2.Norm(delta)
			if d < p.MinDistance {
				d = p.MinDistance
				if delta == (r2.Vec{}) {
					// Coincident nodes: separate along a fixed axis.
					delta = r2.Vec{X: 1}
				}
			}
			k := p.Repulsion
			if nodes[i].Kind == scene.KindTool && nodes[j].Kind == scene.KindTool {
				k *= p.ToolRepulsionFactor
			}
			push := r2.Scale(k/(d*d*d), delta)
			force[i] = r2.Add(force[i], push)
			force[j] = r2.Sub(force[j], push)
		}
	}

	for _, e := range sc.Edges {
		delta := r2.Sub(nodes[e.Target].Pos, nodes[e.Source].Pos)
		d := math.Max(r2.Norm(delta), p.MinDistance)
		pull := r2.Scale(p.Stiffness*(d-p.RestLength(e.Kind))/d, delta)
		force[e.Source] = r2.Add(force[e.Source], pull)
		force[e.Target] = r2.Sub(force[e.Target], pull)
	}

	energy := 0.0
	for i := range nodes {
		n := &nodes[i]
		if i == dragged {
			n.Vel = r2.Vec{}
			continue
		}
		f := r2.Sub(force[i], r2.Scale(p.Centering, n.Pos))
		n.Vel = r2.Scale(p.Damping, r2.Add(n.Vel, f))
		n.Pos = r2.Add(n.Pos, n.Vel)
		energy += math.Abs(n.Vel.X) + math.Abs(n.Vel.Y)
	}

	s.frames++
	s.energy = energy
	if s.frames > p.WarmupFrames && energy < p.SettleEpsilon*float64(len(nodes)) {
		s.settled = true
	}
	return s.settled
}
