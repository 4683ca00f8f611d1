package datasource

import (
	"sort"

	"github.com/vanderheijden86/recall/pkg/model"
)

// knownTools lowers the usage threshold for familiar developer commands.
var knownTools = map[string]bool{}

func init() {
	for _, t := range []string{
		"git", "cargo", "docker", "npm", "npx", "pnpm", "yarn", "bun", "node", "python",
		"python3", "pip", "pip3", "make", "cmake", "gcc", "g++", "clang", "rustc", "rustup",
		"go", "java", "javac", "mvn", "gradle", "ruby", "gem", "bundle", "rails", "php",
		"composer", "swift", "xcodebuild", "kubectl", "terraform", "ansible", "vagrant",
		"brew", "apt", "yum", "pacman", "ssh", "scp", "rsync", "curl", "wget", "grep",
		"find", "sed", "awk", "cat", "less", "vim", "nvim", "nano", "emacs", "code",
		"tmux", "screen", "htop", "top", "ps", "kill", "systemctl", "journalctl",
		"tar", "zip", "unzip", "gzip", "ls", "cd", "cp", "mv", "rm", "mkdir", "chmod",
		"chown", "ln", "echo", "env", "export", "source", "eval", "deno", "tsx", "ts-node",
		"jest", "pytest", "rspec", "mocha", "vitest", "eslint", "prettier", "tsc",
		"podman", "nix", "just", "task", "watchexec", "ag", "rg", "fd", "bat", "exa",
		"jq", "yq", "helm", "skaffold", "minikube", "kind",
	} {
		knownTools[t] = true
	}
}

// IsKnownTool reports whether name is on the familiar-tools list.
func IsKnownTool(name string) bool { return knownTools[name] }

// SessionHistory is one session with its commands in execution order.
type SessionHistory struct {
	Session  model.Session
	Commands []model.Command
}

// Thresholds decides which tools become nodes.
type Thresholds struct {
	KnownMin   int `yaml:"known_min" toml:"known_min"`
	UnknownMin int `yaml:"unknown_min" toml:"unknown_min"`
}

// DefaultThresholds keeps known tools used 3 times and others used 5 times.
func DefaultThresholds() Thresholds {
	return Thresholds{KnownMin: 3, UnknownMin: 5}
}

func (t Thresholds) keep(name string, uses int) bool {
	if knownTools[name] {
		return uses >= t.KnownMin
	}
	return uses >= t.UnknownMin
}

type repoStats struct {
	commands, sessions, failures int
	lastActive                   int64
	branches                     map[string]bool
}

type toolStats struct {
	commands, failures int
	sessions           map[string]bool
	repos              map[string]bool
}

type pair struct{ a, b string }

// Aggregate folds session histories into a graph payload. Repositories are
// keyed by the last segment of git_repo; two repositories are linked once
// per session they share; tools are linked to the repositories they ran in.
// Output order is deterministic: repos then tools by name, edges by
// endpoints.
func Aggregate(history []SessionHistory, th Thresholds) *model.GraphPayload {
	repos := map[string]*repoStats{}
	tools := map[string]*toolStats{}
	shared := map[pair]int{}
	repoTool := map[pair]int{}

	for _, h := range history {
		inSession := map[string]bool{}
		for _, c := range h.Commands {
			name := c.RepoName()
			if name == "" {
				continue
			}
			rs := repos[name]
			if rs == nil {
				rs = &repoStats{branches: map[string]bool{}}
				repos[name] = rs
			}
			rs.commands++
			if c.Failed() {
				rs.failures++
			}
			if c.GitBranch != "" {
				rs.branches[c.GitBranch] = true
			}
			if !inSession[name] {
				inSession[name] = true
				rs.sessions++
				if h.Session.StartTime > rs.lastActive {
					rs.lastActive = h.Session.StartTime
				}
			}
		}

		names := sortedKeys(inSession)
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				shared[pair{names[i], names[j]}]++
			}
		}

		for _, c := range h.Commands {
			tool := c.ToolName()
			if tool == "" {
				continue
			}
			ts := tools[tool]
			if ts == nil {
				ts = &toolStats{sessions: map[string]bool{}, repos: map[string]bool{}}
				tools[tool] = ts
			}
			ts.commands++
			if c.Failed() {
				ts.failures++
			}
			ts.sessions[h.Session.ID] = true
			if repo := c.RepoName(); repo != "" {
				ts.repos[repo] = true
				repoTool[pair{repo, tool}]++
			}
		}
	}

	p := &model.GraphPayload{Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}
	for _, name := range sortedKeys(repos) {
		rs := repos[name]
		n := model.GraphNode{
			ID:       name,
			Label:    name,
			Type:     model.NodeRepo,
			Commands: rs.commands,
			Sessions: rs.sessions,
			Failures: rs.failures,
			Branches: sortedKeys(rs.branches),
		}
		if rs.lastActive > 0 {
			n.LastActive = model.FromMillis(rs.lastActive)
		}
		p.Nodes = append(p.Nodes, n)
	}

	kept := map[string]bool{}
	for _, name := range sortedKeys(tools) {
		ts := tools[name]
		if !th.keep(name, ts.commands) {
			continue
		}
		kept[name] = true
		p.Nodes = append(p.Nodes, model.GraphNode{
			ID:       model.ToolIDPrefix + name,
			Label:    name,
			Type:     model.NodeTool,
			Commands: ts.commands,
			Sessions: len(ts.sessions),
			Failures: ts.failures,
			Repos:    sortedKeys(ts.repos),
		})
	}

	for _, k := range sortedPairs(shared) {
		p.Edges = append(p.Edges, model.GraphEdge{
			Source:         k.a,
			Target:         k.b,
			Type:           model.EdgeRepoRepo,
			SharedSessions: shared[k],
		})
	}
	for _, k := range sortedPairs(repoTool) {
		if !kept[k.b] {
			continue
		}
		p.Edges = append(p.Edges, model.GraphEdge{
			Source: k.a,
			Target: model.ToolIDPrefix + k.b,
			Type:   model.EdgeRepoTool,
			Weight: repoTool[k],
		})
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedPairs(m map[pair]int) []pair {
	out := make([]pair, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].a != out[j].a {
			return out[i].a < out[j].a
		}
		return out[i].b < out[j].b
	})
	return out
}
