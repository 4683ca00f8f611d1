package metrics

import (
	"testing"
	"time"
)

func TestTimingMetric_Record(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	if m.Count() != 2 {
		t.Errorf("expected count 2, got %d", m.Count())
	}
	if m.Avg() != 3*time.Millisecond {
		t.Errorf("expected avg 3ms, got %v", m.Avg())
	}
	if m.Last() != 4*time.Millisecond {
		t.Errorf("expected last 4ms, got %v", m.Last())
	}
	s := m.Stats()
	if s.MinMs != 2 || s.MaxMs != 4 {
		t.Errorf("expected min 2 max 4, got %v %v", s.MinMs, s.MaxMs)
	}

	m.Reset()
	if m.Count() != 0 || m.Avg() != 0 {
		t.Errorf("expected reset metric to be empty, got %d", m.Count())
	}
}

func TestTimer_Disabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	if m.Count() != 0 {
		t.Errorf("expected no recording while disabled, got %d", m.Count())
	}
}

func TestAllTimingStats_OnlyWithData(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	PhysicsStep.Record(time.Millisecond)

	stats := AllTimingStats()
	if len(stats) != 1 || stats[0].Name != "physics_step" {
		t.Errorf("expected only physics_step, got %+v", stats)
	}
	ResetAll()
}
