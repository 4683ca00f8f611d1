package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/recall/pkg/debug"
)

// HookResult records one hook execution.
type HookResult struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Error    error
	Duration time.Duration
}

// Executor runs configured hooks with a render context.
type Executor struct {
	config  *Config
	ctx     context.Context
	render  RenderContext
	results []HookResult
}

// NewExecutor creates an executor for cfg.
func NewExecutor(cfg *Config, rc RenderContext) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Executor{config: cfg, ctx: context.Background(), render: rc}
}

// WithContext bounds every hook by ctx as well as its own timeout.
func (e *Executor) WithContext(ctx context.Context) *Executor {
	e.ctx = ctx
	return e
}

// SetRenderContext updates what later hooks see, e.g. node counts once
// the graph has loaded.
func (e *Executor) SetRenderContext(rc RenderContext) {
	e.render = rc
}

// RunPreRender runs pre-render hooks in order and stops at the first
// failing hook with on_error=fail.
func (e *Executor) RunPreRender() error {
	for _, h := range e.config.Hooks.PreRender {
		res := e.run(h, PreRender)
		if !res.Success && h.OnError != "continue" {
			return fmt.Errorf("pre-render hook %q failed: %w", h.Name, res.Error)
		}
	}
	return nil
}

// RunPostRender runs every post-render hook and reports the failures of
// hooks with on_error=fail.
func (e *Executor) RunPostRender() error {
	var errs []error
	for _, h := range e.config.Hooks.PostRender {
		res := e.run(h, PostRender)
		if !res.Success && h.OnError == "fail" {
			errs = append(errs, fmt.Errorf("post-render hook %q failed: %w", h.Name, res.Error))
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) run(h Hook, phase HookPhase) HookResult {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(e.ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = append(os.Environ(), e.render.ToEnv()...)
	for k, v := range h.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}
	// Children of sh may keep the pipes open after a kill.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := HookResult{
		Hook:     h,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		res.Error = err
	}
	debug.Log("hooks: %s %s success=%v in %s", phase, h.Name, res.Success, res.Duration)
	e.results = append(e.results, res)
	return res
}

// Results returns every hook run so far.
func (e *Executor) Results() []HookResult {
	return e.results
}

// Summary describes the runs, e.g. "hooks: 2 succeeded, 1 failed".
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return "hooks: none run"
	}
	ok, failed := 0, 0
	var lines []string
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		detail := r.Stderr
		if detail == "" && r.Error != nil {
			detail = r.Error.Error()
		}
		lines = append(lines, fmt.Sprintf("  %s %s: %s", r.Phase, r.Hook.Name, truncate(detail, 80)))
	}
	head := fmt.Sprintf("hooks: %d succeeded, %d failed", ok, failed)
	if len(lines) == 0 {
		return head
	}
	return head + "\n" + strings.Join(lines, "\n")
}

// RunHooks loads hooks for projectDir and returns an executor, or nil
// when noHooks is set or nothing is configured.
func RunHooks(projectDir string, rc RenderContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	loader := NewLoader(WithProjectDir(projectDir))
	if err := loader.Load(); err != nil {
		return nil, err
	}
	for _, w := range loader.Warnings() {
		debug.Log("hooks: %s", w)
	}
	if !loader.HasHooks() {
		return nil, nil
	}
	return NewExecutor(loader.Config(), rc), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
