// Package config handles loading and saving recall graph configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/recall/config.yaml
//   - State:   ~/.local/state/recall/ (exports, debug logs)
//
// The recall capture tool keeps its own settings in ~/.recall/config.toml
// and secrets in ~/.recall/env. LoadFrom reads a .toml path with the same
// schema, and LoadEnvFile imports the env file without overriding
// variables that are already set.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/recall/pkg/physics"
)

// Environment overrides.
const (
	EnvDB     = "RECALL_DB"
	EnvServer = "RECALL_SERVER"
	EnvFPS    = "RECALL_FPS"
)

// DataConfig says where graphs come from.
type DataConfig struct {
	DB             string `yaml:"db,omitempty" toml:"db"`         // recall.db path; empty uses ~/.recall/recall.db
	Server         string `yaml:"server,omitempty" toml:"server"` // base URL; when set the viewer fetches over HTTP
	Sessions       int    `yaml:"sessions,omitempty" toml:"sessions"`
	KnownToolMin   int    `yaml:"known_tool_min,omitempty" toml:"known_tool_min"`
	UnknownToolMin int    `yaml:"unknown_tool_min,omitempty" toml:"unknown_tool_min"`
	CommandLimit   int    `yaml:"command_limit,omitempty" toml:"command_limit"` // drill-down rows
}

// ViewConfig holds interactive view settings.
type ViewConfig struct {
	FPS        int     `yaml:"fps,omitempty" toml:"fps"`
	HitPadding float64 `yaml:"hit_padding,omitempty" toml:"hit_padding"`
	MinZoom    float64 `yaml:"min_zoom,omitempty" toml:"min_zoom"`
	MaxZoom    float64 `yaml:"max_zoom,omitempty" toml:"max_zoom"`
	Theme      string  `yaml:"theme,omitempty" toml:"theme"` // dark, light
	HideHUD    bool    `yaml:"hide_hud,omitempty" toml:"hide_hud"`
}

// ExportConfig holds headless render defaults.
type ExportConfig struct {
	Format    string `yaml:"format,omitempty" toml:"format"` // png, svg
	Width     int    `yaml:"width,omitempty" toml:"width"`
	Height    int    `yaml:"height,omitempty" toml:"height"`
	MaxFrames int    `yaml:"max_frames,omitempty" toml:"max_frames"`
	Theme     string `yaml:"theme,omitempty" toml:"theme"`
	Dir       string `yaml:"dir,omitempty" toml:"dir"`
}

// Config is the top-level configuration.
type Config struct {
	Data    DataConfig     `yaml:"data,omitempty" toml:"data"`
	Physics physics.Params `yaml:"physics" toml:"physics"`
	View    ViewConfig     `yaml:"view,omitempty" toml:"view"`
	Export  ExportConfig   `yaml:"export,omitempty" toml:"export"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			Sessions:       500,
			KnownToolMin:   3,
			UnknownToolMin: 5,
			CommandLimit:   50,
		},
		Physics: physics.DefaultParams(),
		View: ViewConfig{
			FPS:        30,
			HitPadding: 5,
			MinZoom:    0.2,
			MaxZoom:    5,
			Theme:      "dark",
		},
		Export: ExportConfig{
			Format:    "png",
			Width:     1600,
			Height:    1000,
			MaxFrames: 3000,
			Theme:     "light",
		},
	}
}

// ConfigDir returns the XDG config directory for recall.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "recall")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "recall")
}

// StateDir returns the XDG state directory for recall.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "recall")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "recall")
}

// RecallDir returns ~/.recall, home of the capture tool's files.
func RecallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".recall")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory and applies
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig().WithEnv(), nil
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	return cfg.WithEnv(), nil
}

// LoadFrom reads config from a specific path; .toml files are decoded as
// TOML, anything else as YAML. Returns DefaultConfig if the file doesn't
// exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data.DB = expandHome(cfg.Data.DB)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	cfg.Physics = cfg.Physics.Sanitize()
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path as YAML.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// WithEnv returns c with RECALL_DB, RECALL_SERVER and RECALL_FPS applied.
// An unparsable RECALL_FPS is ignored.
func (c Config) WithEnv() Config {
	if v := os.Getenv(EnvDB); v != "" {
		c.Data.DB = expandHome(v)
	}
	if v := os.Getenv(EnvServer); v != "" {
		c.Data.Server = v
	}
	if v := os.Getenv(EnvFPS); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.View.FPS = n
		}
	}
	return c
}

// LoadEnvFile imports KEY=VALUE lines from path (default ~/.recall/env).
// Variables already in the environment win. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		dir := RecallDir()
		if dir == "" {
			return nil
		}
		path = filepath.Join(dir, "env")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
