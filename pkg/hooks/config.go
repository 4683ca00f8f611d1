// Package hooks runs user shell commands around `recall render`.
// Hooks are configured in hooks.yaml (the recall config directory, or
// .recall/hooks.yaml in the working directory) and run before the
// snapshot is settled and after the file is written.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/recall/pkg/config"
)

// HookPhase represents when a hook runs
type HookPhase string

const (
	// PreRender runs before the layout is simulated. Failure cancels the render.
	PreRender HookPhase = "pre-render"
	// PostRender runs after the image is written. Failure is reported but the image stays.
	PostRender HookPhase = "post-render"
)

// Hook defines a single hook configuration
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"` // run with sh -c
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"` // values expand $VARS
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"` // "fail" or "continue"
}

// Config holds all hook configurations
type Config struct {
	Hooks HooksByPhase `yaml:"hooks" json:"hooks"`
}

// HooksByPhase organizes hooks by their execution phase
type HooksByPhase struct {
	PreRender  []Hook `yaml:"pre-render,omitempty" json:"pre-render,omitempty"`
	PostRender []Hook `yaml:"post-render,omitempty" json:"post-render,omitempty"`
}

// RenderContext is passed to hooks as RECALL_* environment variables.
type RenderContext struct {
	SnapshotPath   string    // RECALL_SNAPSHOT_PATH
	SnapshotFormat string    // RECALL_SNAPSHOT_FORMAT: png or svg
	NodeCount      int       // RECALL_NODE_COUNT, zero before the graph is loaded
	EdgeCount      int       // RECALL_EDGE_COUNT
	Timestamp      time.Time // RECALL_TIMESTAMP (RFC3339)
}

// ToEnv converts the render context to environment variables
func (c RenderContext) ToEnv() []string {
	return []string{
		fmt.Sprintf("RECALL_SNAPSHOT_PATH=%s", c.SnapshotPath),
		fmt.Sprintf("RECALL_SNAPSHOT_FORMAT=%s", c.SnapshotFormat),
		fmt.Sprintf("RECALL_NODE_COUNT=%d", c.NodeCount),
		fmt.Sprintf("RECALL_EDGE_COUNT=%d", c.EdgeCount),
		fmt.Sprintf("RECALL_TIMESTAMP=%s", c.Timestamp.Format(time.RFC3339)),
	}
}

// DefaultTimeout is the default hook execution timeout
const DefaultTimeout = 30 * time.Second

const fileName = "hooks.yaml"

// Loader finds and parses hooks.yaml.
type Loader struct {
	projectDir string
	configDir  string
	config     *Config
	path       string
	warnings   []string
}

// LoaderOption configures the loader
type LoaderOption func(*Loader)

// WithProjectDir sets the directory searched for .recall/hooks.yaml
// (default: current directory).
func WithProjectDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.projectDir = dir
	}
}

// WithConfigDir overrides the user config directory.
func WithConfigDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.configDir = dir
	}
}

// NewLoader creates a new hook loader with options
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}

	for _, opt := range opts {
		opt(l)
	}

	if l.projectDir == "" {
		l.projectDir, _ = os.Getwd()
	}
	if l.configDir == "" {
		l.configDir = config.ConfigDir()
	}

	return l
}

// candidates lists hook files in priority order.
func (l *Loader) candidates() []string {
	var out []string
	if l.projectDir != "" {
		out = append(out, filepath.Join(l.projectDir, ".recall", fileName))
	}
	if l.configDir != "" {
		out = append(out, filepath.Join(l.configDir, fileName))
	}
	return out
}

// Load reads the first hooks.yaml found. No file means no hooks.
func (l *Loader) Load() error {
	l.config = &Config{}
	for _, path := range l.candidates() {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading hooks config: %w", err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		l.normalizeConfig(&cfg)
		l.config = &cfg
		l.path = path
		return nil
	}
	return nil
}

// normalizeConfig applies defaults and validates hooks
func (l *Loader) normalizeConfig(cfg *Config) {
	cfg.Hooks.PreRender, l.warnings = normalizeHooks(cfg.Hooks.PreRender, PreRender, l.warnings)
	cfg.Hooks.PostRender, l.warnings = normalizeHooks(cfg.Hooks.PostRender, PostRender, l.warnings)
}

// normalizeHooks applies defaults, drops empty commands, and accumulates warnings.
func normalizeHooks(hooks []Hook, phase HookPhase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i := range hooks {
		hook := hooks[i]
		if strings.TrimSpace(hook.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if hook.Timeout == 0 {
			hook.Timeout = DefaultTimeout
		}
		if hook.OnError == "" {
			if phase == PreRender {
				hook.OnError = "fail"
			} else {
				hook.OnError = "continue"
			}
		}
		if hook.Name == "" {
			hook.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, hook)
	}
	return out, warnings
}

// Config returns the loaded configuration (or empty if not loaded)
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// Path returns the file the hooks came from, or "".
func (l *Loader) Path() string { return l.path }

// HasHooks returns true if any hooks are configured
func (l *Loader) HasHooks() bool {
	if l.config == nil {
		return false
	}
	return len(l.config.Hooks.PreRender) > 0 || len(l.config.Hooks.PostRender) > 0
}

// GetHooks returns hooks for a specific phase
func (l *Loader) GetHooks(phase HookPhase) []Hook {
	if l.config == nil {
		return nil
	}

	switch phase {
	case PreRender:
		return l.config.Hooks.PreRender
	case PostRender:
		return l.config.Hooks.PostRender
	default:
		return nil
	}
}

// Warnings returns any warnings from loading
func (l *Loader) Warnings() []string {
	return l.warnings
}

// LoadDefault creates a loader and loads with default settings
func LoadDefault() (*Loader, error) {
	loader := NewLoader()
	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// UnmarshalYAML implements custom YAML unmarshalling for Duration
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	// WARNING: This struct must match Hook definition exactly, except for Timeout which is string.
	// If you add a field to Hook, you MUST add it here too.
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}

	h.Name = dto.Name
	h.Command = dto.Command
	h.Env = dto.Env
	h.OnError = dto.OnError

	if dto.Timeout != "" {
		d, err := time.ParseDuration(dto.Timeout)
		if err == nil {
			h.Timeout = d
		} else {
			// "timeout: 30" means seconds.
			var seconds float64
			if _, scanErr := fmt.Sscanf(dto.Timeout, "%f", &seconds); scanErr == nil {
				h.Timeout = time.Duration(seconds * float64(time.Second))
			} else {
				return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
			}
		}
	}

	return nil
}
