package engine

import (
	"context"
	"time"

	"github.com/vanderheijden86/recall/pkg/render"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 30

// Scheduler drives an engine's simulate+render cycle. Step runs one frame
// for tests and headless rendering; Run ticks until the context ends or
// the engine stops.
type Scheduler struct {
	eng      *Engine
	surface  render.Surface
	interval time.Duration

	// OnFrame, if set, runs after every rendered frame.
	OnFrame func(frame uint64)
}

// NewScheduler binds an engine to a surface at fps frames per second.
func NewScheduler(e *Engine, s render.Surface, fps int) *Scheduler {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Scheduler{eng: e, surface: s, interval: time.Second / time.Duration(fps)}
}

// Interval returns the time between frames.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Step runs one frame if the engine is running and reports whether it did.
func (s *Scheduler) Step() bool {
	if !s.eng.Tick(s.surface) {
		return false
	}
	if s.OnFrame != nil {
		s.OnFrame(s.eng.Renderer().Frames())
	}
	return true
}

// Run ticks until ctx is cancelled or the engine is stopped.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if !s.Step() {
				return nil
			}
		}
	}
}

// RunUntilSettled steps without waiting until physics settles or maxFrames
// have run, and returns the number of frames stepped. Headless export uses
// it before writing the final frame.
func (s *Scheduler) RunUntilSettled(maxFrames int) int {
	n := 0
	for n < maxFrames && !s.eng.Settled() {
		if !s.Step() {
			break
		}
		n++
	}
	return n
}
