package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// Layout of the frame around the graph.
const (
	panelWidth    = 34 // side panel, border included
	drawerWidth   = 56
	minGraphCols  = 40
	statusBarRows = 1
)

// Adaptive palette; light mode colors keep WCAG AA contrast on white.
var (
	ColorBgSubtle = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorText     = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext  = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted    = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorBorder   = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// layout splits a terminal of width x height cells into the graph area and
// the side column. Narrow terminals drop the side column.
func layout(width, height int, drawerOpen bool) (graphCols, graphRows, sideCols int) {
	graphRows = max(height-statusBarRows, 1)
	sideCols = panelWidth
	if drawerOpen {
		sideCols = drawerWidth
	}
	if width-sideCols < minGraphCols {
		sideCols = 0
	}
	graphCols = max(width-sideCols, 1)
	return graphCols, graphRows, sideCols
}
