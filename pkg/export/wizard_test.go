package export

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/recall/pkg/config"
)

func TestFromExportConfig_Defaults(t *testing.T) {
	wc := fromExportConfig(config.ExportConfig{})
	if wc.Format != "png" || wc.Theme != "light" {
		t.Errorf("expected png/light, got %s/%s", wc.Format, wc.Theme)
	}
	if wc.Width != DefaultWidth || wc.Height != DefaultHeight || wc.MaxFrames != DefaultMaxFrames {
		t.Errorf("expected default size, got %dx%d/%d", wc.Width, wc.Height, wc.MaxFrames)
	}
	if !strings.HasPrefix(filepath.Base(wc.Path), "recall-") || filepath.Ext(wc.Path) != ".png" {
		t.Errorf("expected recall-*.png, got %s", wc.Path)
	}
}

func TestFromExportConfig_UsesDir(t *testing.T) {
	wc := fromExportConfig(config.ExportConfig{Format: "svg", Dir: "/tmp/shots"})
	if filepath.Dir(wc.Path) != "/tmp/shots" || filepath.Ext(wc.Path) != ".svg" {
		t.Errorf("expected svg under /tmp/shots, got %s", wc.Path)
	}
}

func TestDefaultFileName(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := defaultFileName(now, "svg"); got != "recall-20260304-050607.svg" {
		t.Errorf("expected recall-20260304-050607.svg, got %s", got)
	}
}

func TestMerge(t *testing.T) {
	base := WizardConfig{Path: "out/recall-1.png", Format: "png", Width: 100, Height: 100, Theme: "light", MaxFrames: 10}
	got := merge(base, WizardConfig{Path: "old.svg", Format: "svg", Width: 640, Theme: "dark", HideHUD: true})

	if got.Path != "out/recall-1.svg" {
		t.Errorf("expected fresh path with svg extension, got %s", got.Path)
	}
	if got.Width != 640 || got.Height != 100 {
		t.Errorf("expected width from saved and height from base, got %dx%d", got.Width, got.Height)
	}
	if got.Theme != "dark" || !got.HideHUD || got.MaxFrames != 10 {
		t.Errorf("unexpected merge result %+v", got)
	}

	if bad := merge(base, WizardConfig{Format: "gif"}); bad.Format != "png" {
		t.Errorf("expected unknown saved format ignored, got %s", bad.Format)
	}
}

func TestWizardFinish(t *testing.T) {
	w := &Wizard{config: WizardConfig{Path: "  shots/graph.png ", Format: "svg"}}
	w.width, w.height, w.frames = "800", " 600", "120"
	if err := w.finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	c := w.Config()
	if c.Path != "shots/graph.svg" {
		t.Errorf("expected extension fixed to svg, got %q", c.Path)
	}
	if c.Width != 800 || c.Height != 600 || c.MaxFrames != 120 {
		t.Errorf("expected parsed numbers, got %dx%d/%d", c.Width, c.Height, c.MaxFrames)
	}

	opts := w.Options()
	if opts.Path != c.Path || opts.Format != "svg" || opts.Width != 800 {
		t.Errorf("expected options mirroring answers, got %+v", opts)
	}
}

func TestWizardFinish_RejectsBadNumbers(t *testing.T) {
	w := &Wizard{config: WizardConfig{Path: "g.png", Format: "png"}}
	w.width = "wide"
	if err := w.finish(); err == nil {
		t.Error("expected error for non-numeric width")
	}
}

func TestPositiveInt(t *testing.T) {
	for _, s := range []string{"1", " 42 "} {
		if err := positiveInt(s); err != nil {
			t.Errorf("expected %q valid, got %v", s, err)
		}
	}
	for _, s := range []string{"", "0", "-3", "x"} {
		if err := positiveInt(s); err == nil {
			t.Errorf("expected %q invalid", s)
		}
	}
}

func TestWizardConfig_SaveLoad(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	if cfg, err := LoadWizardConfig(); err != nil || cfg != nil {
		t.Fatalf("expected nothing saved yet, got %+v, %v", cfg, err)
	}

	want := WizardConfig{Path: "a.svg", Format: "svg", Width: 320, Height: 200, Theme: "dark", MaxFrames: 99}
	if err := SaveWizardConfig(&want); err != nil {
		t.Fatalf("SaveWizardConfig: %v", err)
	}
	got, err := LoadWizardConfig()
	if err != nil || got == nil {
		t.Fatalf("LoadWizardConfig: %v", err)
	}
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, *got)
	}

	w := NewWizard(config.ExportConfig{})
	if w.Config().Theme != "dark" || w.Config().Width != 320 {
		t.Errorf("expected saved answers as defaults, got %+v", w.Config())
	}
	if w.Config().Path == "a.svg" {
		t.Error("expected a fresh output path")
	}
}
