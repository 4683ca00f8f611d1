// Package testutil provides test fixture generators for graph payloads and
// recorded command histories. All generators produce deterministic output
// for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/recall/pkg/model"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed       int64     // Random seed for determinism (0 = use current time)
	RepoPrefix string    // Prefix for repository names (default: "repo")
	BaseTime   time.Time // Base time for timestamps (default: fixed time)
	MaxCmds    int       // Upper bound for generated command counts (default: 200)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42,
		RepoPrefix: "repo",
		BaseTime:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		MaxCmds:    200,
	}
}

// Generator creates payload fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	if cfg.RepoPrefix == "" {
		cfg.RepoPrefix = "repo"
	}
	if cfg.MaxCmds <= 0 {
		cfg.MaxCmds = 200
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Rand exposes the generator's random source so tests can share one seed
// between fixtures and scene building.
func (g *Generator) Rand() *rand.Rand {
	return g.rng
}

// ============================================================================
// Payload topologies
// ============================================================================

// Repo returns a repository node with the given id and command count.
func Repo(id string, commands int) model.GraphNode {
	return model.GraphNode{ID: id, Label: id, Type: model.NodeRepo, Commands: commands, Sessions: 1}
}

// Tool returns a tool node for name with the given command count.
func Tool(name string, commands int) model.GraphNode {
	return model.GraphNode{ID: model.ToolIDPrefix + name, Label: name, Type: model.NodeTool, Commands: commands, Sessions: 1}
}

// Link returns an edge with an explicit type.
func Link(src, dst string, weight int, t model.EdgeType) model.GraphEdge {
	return model.GraphEdge{Source: src, Target: dst, Weight: weight, Type: t}
}

// Pair is the two-node, one-edge payload used by the end-to-end examples:
// repo r1 (100 commands) uses tool t1 (10 commands) with weight 3.
func Pair() *model.GraphPayload {
	return &model.GraphPayload{
		Nodes: []model.GraphNode{
			{ID: "r1", Label: "r1", Type: model.NodeRepo, Commands: 100, Sessions: 5},
			{ID: "t1", Label: "t1", Type: model.NodeTool, Commands: 10, Sessions: 2},
		},
		Edges: []model.GraphEdge{Link("r1", "t1", 3, model.EdgeRepoTool)},
	}
}

// Chain creates repositories r0 - r1 - ... - r{size-1} joined by shared
// sessions.
func (g *Generator) Chain(size int) *model.GraphPayload {
	p := &model.GraphPayload{}
	for i := 0; i < size; i++ {
		p.Nodes = append(p.Nodes, Repo(g.repoName(i), 1+g.rng.Intn(g.cfg.MaxCmds)))
		if i > 0 {
			p.Edges = append(p.Edges, model.GraphEdge{
				Source:         g.repoName(i - 1),
				Target:         g.repoName(i),
				SharedSessions: 1 + g.rng.Intn(5),
				Type:           model.EdgeRepoRepo,
			})
		}
	}
	return p
}

// Star creates one hub repository using `spokes` tools.
func (g *Generator) Star(spokes int) *model.GraphPayload {
	hub := g.repoName(0)
	p := &model.GraphPayload{Nodes: []model.GraphNode{Repo(hub, g.cfg.MaxCmds)}}
	for i := 1; i <= spokes; i++ {
		name := fmt.Sprintf("tool%d", i)
		p.Nodes = append(p.Nodes, Tool(name, 1+g.rng.Intn(g.cfg.MaxCmds/2+1)))
		p.Edges = append(p.Edges, Link(hub, model.ToolIDPrefix+name, 1+g.rng.Intn(8), model.EdgeRepoTool))
	}
	return p
}

// Bipartite creates `repos` repositories and `tools` tools where every
// repo uses each tool with the given probability, plus a sparse set of
// repo-repo co-occurrence edges.
func (g *Generator) Bipartite(repos, tools int, density float64) *model.GraphPayload {
	p := &model.GraphPayload{}
	for i := 0; i < repos; i++ {
		n := Repo(g.repoName(i), 1+g.rng.Intn(g.cfg.MaxCmds))
		n.Failures = g.rng.Intn(n.Commands/2 + 1)
		n.Branches = []string{"main"}
		n.LastActive = model.NewTimestamp(g.cfg.BaseTime.Add(-time.Duration(i) * time.Hour))
		p.Nodes = append(p.Nodes, n)
	}
	for j := 0; j < tools; j++ {
		p.Nodes = append(p.Nodes, Tool(fmt.Sprintf("tool%d", j), 1+g.rng.Intn(g.cfg.MaxCmds/2+1)))
	}
	for i := 0; i < repos; i++ {
		for j := 0; j < tools; j++ {
			if g.rng.Float64() < density {
				p.Edges = append(p.Edges, Link(g.repoName(i), fmt.Sprintf("%stool%d", model.ToolIDPrefix, j), 1+g.rng.Intn(10), model.EdgeRepoTool))
			}
		}
		if i > 0 && g.rng.Float64() < density {
			p.Edges = append(p.Edges, model.GraphEdge{
				Source:         g.repoName(i - 1),
				Target:         g.repoName(i),
				SharedSessions: 1 + g.rng.Intn(4),
				Type:           model.EdgeRepoRepo,
			})
		}
	}
	return p
}

// ============================================================================
// Command histories
// ============================================================================

// SessionFixture is one session with its commands.
type SessionFixture struct {
	Session  model.Session
	Commands []model.Command
}

// History creates `sessions` sessions, each running `perSession` commands
// drawn from tools across the given repositories. Every fifth command fails.
func (g *Generator) History(sessions, perSession int, repos, tools []string) []SessionFixture {
	out := make([]SessionFixture, 0, sessions)
	seq := int64(1)
	for s := 0; s < sessions; s++ {
		start := g.cfg.BaseTime.Add(time.Duration(s) * time.Hour)
		sess := model.Session{
			ID:          fmt.Sprintf("sess-%03d", s),
			StartTime:   start.UnixMilli(),
			TerminalApp: "iTerm.app",
			InitialDir:  "/home/dev",
		}
		fx := SessionFixture{Session: sess}
		for c := 0; c < perSession; c++ {
			repo := repos[g.rng.Intn(len(repos))]
			tool := tools[g.rng.Intn(len(tools))]
			code := 0
			if seq%5 == 0 {
				code = 1
			}
			fx.Commands = append(fx.Commands, model.Command{
				ID:          seq,
				SessionID:   sess.ID,
				CommandText: tool + " run",
				Timestamp:   start.Add(time.Duration(c) * time.Minute).UnixMilli(),
				Cwd:         "/home/dev/src/" + repo,
				GitRepo:     "/home/dev/src/" + repo,
				GitBranch:   "main",
				ExitCode:    &code,
			})
			seq++
		}
		out = append(out, fx)
	}
	return out
}

func (g *Generator) repoName(i int) string {
	return fmt.Sprintf("%s%d", g.cfg.RepoPrefix, i)
}
