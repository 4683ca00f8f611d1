package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Data.Sessions != 500 {
		t.Errorf("expected session window 500, got %d", cfg.Data.Sessions)
	}
	if cfg.Data.KnownToolMin != 3 || cfg.Data.UnknownToolMin != 5 {
		t.Errorf("expected tool thresholds 3/5, got %d/%d", cfg.Data.KnownToolMin, cfg.Data.UnknownToolMin)
	}
	if cfg.Physics.RestRepoRepo != 140 || cfg.Physics.RestRepoTool != 70 {
		t.Errorf("expected rest lengths 140/70, got %v/%v", cfg.Physics.RestRepoRepo, cfg.Physics.RestRepoTool)
	}
	if cfg.View.Theme != "dark" {
		t.Errorf("expected dark view theme, got %q", cfg.View.Theme)
	}
	if cfg.Export.Format != "png" {
		t.Errorf("expected png export, got %q", cfg.Export.Format)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.View.FPS != 30 {
		t.Errorf("expected default config, got fps %d", cfg.View.FPS)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
data:
  db: ~/work/recall.db
  sessions: 200
  known_tool_min: 2

physics:
  repulsion: 3000
  damping: 0.9

view:
  fps: 60
  theme: light
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	expectedPath := filepath.Join(home, "work/recall.db")
	if cfg.Data.DB != expectedPath {
		t.Errorf("expected expanded path %q, got %q", expectedPath, cfg.Data.DB)
	}
	if cfg.Data.Sessions != 200 {
		t.Errorf("expected 200 sessions, got %d", cfg.Data.Sessions)
	}
	if cfg.Data.KnownToolMin != 2 {
		t.Errorf("expected known tool min 2, got %d", cfg.Data.KnownToolMin)
	}
	// Unset keys keep their defaults.
	if cfg.Data.UnknownToolMin != 5 {
		t.Errorf("expected unknown tool min 5, got %d", cfg.Data.UnknownToolMin)
	}
	if cfg.Physics.Repulsion != 3000 {
		t.Errorf("expected repulsion 3000, got %v", cfg.Physics.Repulsion)
	}
	if cfg.Physics.Damping != 0.9 {
		t.Errorf("expected damping 0.9, got %v", cfg.Physics.Damping)
	}
	if cfg.Physics.RestRepoTool != 70 {
		t.Errorf("expected default rest length 70, got %v", cfg.Physics.RestRepoTool)
	}
	if cfg.View.FPS != 60 || cfg.View.Theme != "light" {
		t.Errorf("expected fps 60 light, got %d %q", cfg.View.FPS, cfg.View.Theme)
	}
}

func TestLoadFrom_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[data]
server = "http://localhost:8765"
unknown_tool_min = 7

[physics]
stiffness = 0.01

[export]
format = "svg"
width = 800
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Data.Server != "http://localhost:8765" {
		t.Errorf("expected server url, got %q", cfg.Data.Server)
	}
	if cfg.Data.UnknownToolMin != 7 {
		t.Errorf("expected unknown tool min 7, got %d", cfg.Data.UnknownToolMin)
	}
	if cfg.Physics.Stiffness != 0.01 {
		t.Errorf("expected stiffness 0.01, got %v", cfg.Physics.Stiffness)
	}
	if cfg.Export.Format != "svg" || cfg.Export.Width != 800 {
		t.Errorf("expected svg 800, got %q %d", cfg.Export.Format, cfg.Export.Width)
	}
	if cfg.Export.Height != 1000 {
		t.Errorf("expected default height 1000, got %d", cfg.Export.Height)
	}
}

func TestLoadFrom_SanitizesPhysics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
physics:
  damping: 1.5
  repulsion: -4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Physics.Damping != 0.87 {
		t.Errorf("expected damping reset to 0.87, got %v", cfg.Physics.Damping)
	}
	if cfg.Physics.Repulsion != 2200 {
		t.Errorf("expected repulsion reset to 2200, got %v", cfg.Physics.Repulsion)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("[data\nsessions = "), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Data.DB = "/data/recall.db"
	cfg.View.FPS = 24
	cfg.Physics.Repulsion = 1800

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Data.DB != "/data/recall.db" {
		t.Errorf("expected db path to round-trip, got %q", loaded.Data.DB)
	}
	if loaded.View.FPS != 24 {
		t.Errorf("expected fps 24, got %d", loaded.View.FPS)
	}
	if loaded.Physics.Repulsion != 1800 {
		t.Errorf("expected repulsion 1800, got %v", loaded.Physics.Repulsion)
	}
}

func TestWithEnv(t *testing.T) {
	t.Setenv(EnvDB, "/tmp/other.db")
	t.Setenv(EnvServer, "http://example.test")
	t.Setenv(EnvFPS, "12")

	cfg := DefaultConfig().WithEnv()
	if cfg.Data.DB != "/tmp/other.db" {
		t.Errorf("expected env db, got %q", cfg.Data.DB)
	}
	if cfg.Data.Server != "http://example.test" {
		t.Errorf("expected env server, got %q", cfg.Data.Server)
	}
	if cfg.View.FPS != 12 {
		t.Errorf("expected fps 12, got %d", cfg.View.FPS)
	}
}

func TestWithEnv_BadFPSIgnored(t *testing.T) {
	t.Setenv(EnvFPS, "fast")
	cfg := DefaultConfig().WithEnv()
	if cfg.View.FPS != 30 {
		t.Errorf("expected fps 30, got %d", cfg.View.FPS)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env")
	content := "RECALL_TEST_ONLY_KEY=from-file\nRECALL_TEST_KEEP=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RECALL_TEST_KEEP", "from-env")
	t.Setenv("RECALL_TEST_ONLY_KEY", "")
	os.Unsetenv("RECALL_TEST_ONLY_KEY")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv("RECALL_TEST_ONLY_KEY"); got != "from-file" {
		t.Errorf("expected from-file, got %q", got)
	}
	if got := os.Getenv("RECALL_TEST_KEEP"); got != "from-env" {
		t.Errorf("expected existing variable to win, got %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("expected nil for missing env file, got %v", err)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	dir := ConfigDir()
	if dir != "/custom/config/recall" {
		t.Errorf("expected /custom/config/recall, got %q", dir)
	}
	if ConfigPath() != "/custom/config/recall/config.yaml" {
		t.Errorf("expected config.yaml under XDG dir, got %q", ConfigPath())
	}
}

func TestStateDir_XDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	dir := StateDir()
	if dir != "/custom/state/recall" {
		t.Errorf("expected /custom/state/recall, got %q", dir)
	}
}

func TestLoad_AppliesEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvDB, "/env/recall.db")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Data.DB != "/env/recall.db" {
		t.Errorf("expected env db, got %q", cfg.Data.DB)
	}
}
