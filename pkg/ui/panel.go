package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/recall/pkg/scene"
)

// warnRatio matches the renderer's failure colouring threshold.
const warnRatio = 0.3

// renderInfoPanel shows the focused node, or a hint when nothing is
// focused. width and height include the border.
func renderInfoPanel(t Theme, n *scene.Node, summary string, width, height int, now time.Time) string {
	inner := max(width-2-2*SpaceXS, 1)
	var lines []string

	if n == nil {
		lines = append(lines,
			t.Title.Render("recall graph"),
			"",
			t.MutedText.Render(truncate(summary, inner)),
			"",
			t.MutedText.Render("Hover a node for details."),
			t.MutedText.Render("Click to select, double"),
			t.MutedText.Render("click for its commands."),
		)
	} else {
		kind := n.Kind.String()
		badge := t.Renderer.NewStyle().Foreground(t.KindColor(kind)).Bold(true).Render(kind)
		lines = append(lines,
			t.Title.Render(truncate(n.Label, inner)),
			badge,
			"",
		)
		row := func(label, value string) {
			lines = append(lines, t.Label.Render(padRight(label, 10))+t.Value.Render(truncate(value, inner-10)))
		}
		row("commands", fmt.Sprintf("%d", n.Commands))
		if n.Kind == scene.KindRepo {
			row("sessions", fmt.Sprintf("%d", n.Sessions))
			fail := fmt.Sprintf("%d (%.0f%%)", n.Failures, n.FailureRatio()*100)
			if n.FailureRatio() > warnRatio {
				lines = append(lines, t.Label.Render(padRight("failures", 10))+t.Warning.Render(truncate(fail, inner-10)))
			} else {
				row("failures", fail)
			}
			row("active", formatTimeRelAt(n.LastActive, now))
			if len(n.Branches) > 0 {
				lines = append(lines, "", t.Label.Render("branches"))
				lines = append(lines, wrapList(n.Branches, inner, 4)...)
			}
		} else if len(n.Repos) > 0 {
			lines = append(lines, "", t.Label.Render("used in"))
			lines = append(lines, wrapList(n.Repos, inner, 6)...)
		}
	}

	if len(lines) > height-2 {
		lines = lines[:max(height-2, 0)]
	}
	return t.Panel.
		Width(width - 2).
		Height(max(height-2, 0)).
		Render(strings.Join(lines, "\n"))
}

// wrapList renders up to n items one per line, then a "+k more" line.
func wrapList(items []string, width, n int) []string {
	var out []string
	for i, it := range items {
		if i == n {
			out = append(out, fmt.Sprintf("  +%d more", len(items)-n))
			break
		}
		out = append(out, "  "+truncate(it, width-2))
	}
	return out
}

// renderHelpPanel lists every key binding.
func renderHelpPanel(t Theme, k keyMap, width, height int) string {
	inner := max(width-2-2*SpaceXS, 1)
	lines := []string{t.Title.Render("keys"), ""}
	for _, b := range k.FullHelp() {
		h := b.Help()
		lines = append(lines, t.KeyHint.Render(padRight(h.Key, 8))+t.Value.Render(truncate(h.Desc, inner-8)))
	}
	if len(lines) > height-2 {
		lines = lines[:max(height-2, 0)]
	}
	return t.Panel.
		Width(width - 2).
		Height(max(height-2, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
