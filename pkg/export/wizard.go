package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/recall/pkg/config"
)

// WizardConfig holds the answers of one wizard run. The last answers are
// saved and offered as defaults next time.
type WizardConfig struct {
	Path      string `json:"path"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Theme     string `json:"theme"`
	MaxFrames int    `json:"max_frames"`
	HideHUD   bool   `json:"hide_hud,omitempty"`
}

// Wizard prompts for snapshot settings missing from the command line.
type Wizard struct {
	config WizardConfig

	// answers from the text inputs, parsed in finish
	width, height, frames string
}

// NewWizard seeds the prompts from the export section of the config and,
// when present, the previous run's answers.
func NewWizard(defaults config.ExportConfig) *Wizard {
	w := &Wizard{config: fromExportConfig(defaults)}
	if saved, err := LoadWizardConfig(); err == nil && saved != nil {
		w.config = merge(w.config, *saved)
	}
	return w
}

func fromExportConfig(c config.ExportConfig) WizardConfig {
	wc := WizardConfig{
		Format:    c.Format,
		Width:     c.Width,
		Height:    c.Height,
		Theme:     c.Theme,
		MaxFrames: c.MaxFrames,
	}
	if wc.Format == "" {
		wc.Format = "png"
	}
	if wc.Width <= 0 {
		wc.Width = DefaultWidth
	}
	if wc.Height <= 0 {
		wc.Height = DefaultHeight
	}
	if wc.MaxFrames <= 0 {
		wc.MaxFrames = DefaultMaxFrames
	}
	if wc.Theme == "" {
		wc.Theme = "light"
	}
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	wc.Path = filepath.Join(dir, defaultFileName(time.Now(), wc.Format))
	return wc
}

func defaultFileName(now time.Time, format string) string {
	return fmt.Sprintf("recall-%s.%s", now.Format("20060102-150405"), format)
}

// merge overlays the non-zero fields of saved onto base. The output path is
// not carried over so a new run never overwrites the last image by default.
func merge(base, saved WizardConfig) WizardConfig {
	if saved.Format == "png" || saved.Format == "svg" {
		if saved.Format != base.Format {
			base.Path = strings.TrimSuffix(base.Path, filepath.Ext(base.Path)) + "." + saved.Format
		}
		base.Format = saved.Format
	}
	if saved.Width > 0 {
		base.Width = saved.Width
	}
	if saved.Height > 0 {
		base.Height = saved.Height
	}
	if saved.Theme != "" {
		base.Theme = saved.Theme
	}
	if saved.MaxFrames > 0 {
		base.MaxFrames = saved.MaxFrames
	}
	base.HideHUD = saved.HideHUD
	return base
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive whole number")
	}
	return nil
}

func (w *Wizard) form() *huh.Form {
	w.width = strconv.Itoa(w.config.Width)
	w.height = strconv.Itoa(w.config.Height)
	w.frames = strconv.Itoa(w.config.MaxFrames)

	return newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Image format").
				Options(
					huh.NewOption("PNG (raster)", "png"),
					huh.NewOption("SVG (vector)", "svg"),
				).
				Value(&w.config.Format),
			huh.NewInput().
				Title("Output file").
				Value(&w.config.Path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("output file is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().Title("Width (px)").Value(&w.width).Validate(positiveInt),
			huh.NewInput().Title("Height (px)").Value(&w.height).Validate(positiveInt),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOption("Light", "light"), huh.NewOption("Dark", "dark")).
				Value(&w.config.Theme),
			huh.NewInput().
				Title("Frame limit").
				Description("Simulation frames to run before writing, if the layout has not settled").
				Value(&w.frames).
				Validate(positiveInt),
			huh.NewConfirm().
				Title("Hide the status overlay?").
				Value(&w.config.HideHUD),
		),
	)
}

// finish parses the text answers and fixes the extension to the format.
func (w *Wizard) finish() error {
	for _, f := range []struct {
		s   string
		dst *int
	}{{w.width, &w.config.Width}, {w.height, &w.config.Height}, {w.frames, &w.config.MaxFrames}} {
		if f.s == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(f.s))
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid number %q", f.s)
		}
		*f.dst = n
	}
	w.config.Path = strings.TrimSpace(w.config.Path)
	if ext := strings.ToLower(filepath.Ext(w.config.Path)); ext != "."+w.config.Format {
		w.config.Path = strings.TrimSuffix(w.config.Path, filepath.Ext(w.config.Path)) + "." + w.config.Format
	}
	return nil
}

// Run shows the prompts and returns the chosen snapshot options. The
// caller fills in Fetcher and Physics.
func (w *Wizard) Run() (SnapshotOptions, error) {
	fmt.Println("")
	fmt.Println("recall → render a snapshot of the command graph")
	fmt.Println("────────────────────────────────────────────────")
	fmt.Println("")

	if err := w.form().Run(); err != nil {
		return SnapshotOptions{}, err
	}
	if err := w.finish(); err != nil {
		return SnapshotOptions{}, err
	}
	if err := SaveWizardConfig(&w.config); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save wizard answers: %v\n", err)
	}
	return w.Options(), nil
}

// Config returns the current answers.
func (w *Wizard) Config() WizardConfig { return w.config }

// Options converts the answers into snapshot options.
func (w *Wizard) Options() SnapshotOptions {
	return SnapshotOptions{
		Path:      w.config.Path,
		Format:    w.config.Format,
		Width:     w.config.Width,
		Height:    w.config.Height,
		MaxFrames: w.config.MaxFrames,
		Theme:     w.config.Theme,
		HideHUD:   w.config.HideHUD,
	}
}

// WizardConfigPath returns the path to the wizard config file.
func WizardConfigPath() string {
	dir := config.StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "render-wizard.json")
}

// LoadWizardConfig loads previously saved wizard configuration.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No saved config
		}
		return nil, err
	}

	var cfg WizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveWizardConfig saves wizard configuration for future runs.
func SaveWizardConfig(cfg *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
