package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the pre-built styles for the panels around the graph.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Repo    lipgloss.AdaptiveColor
	Tool    lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Panel     lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	MutedText lipgloss.Style
	Warning   lipgloss.Style
	StatusBar lipgloss.Style
	KeyHint   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary: ColorPrimary,
		Subtext: ColorSubtext,
		Border:  ColorBorder,
		Muted:   ColorMuted,
		Repo:    ColorInfo,
		Tool:    ColorWarning,
		Danger:  ColorDanger,
	}

	t.Base = r.NewStyle().Foreground(ColorText)
	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, SpaceXS)
	t.Title = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Label = r.NewStyle().Foreground(t.Muted)
	t.Value = r.NewStyle().Foreground(ColorText)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.Warning = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.StatusBar = r.NewStyle().
		Background(ColorBgSubtle).
		Foreground(ColorSubtext)
	t.KeyHint = r.NewStyle().Foreground(t.Primary)

	return t
}

// KindColor returns the accent colour for a node kind name.
func (t Theme) KindColor(kind string) lipgloss.AdaptiveColor {
	if kind == "tool" {
		return t.Tool
	}
	return t.Repo
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
