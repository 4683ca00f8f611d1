package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/recall/pkg/interaction"
	"github.com/vanderheijden86/recall/pkg/model"
	"github.com/vanderheijden86/recall/pkg/scene"
)

// drawer shows the recent commands behind one node as rendered markdown.
type drawer struct {
	open    bool
	loading bool
	seq     int
	target  interaction.DrillDown
	err     error

	style string
	vp    viewport.Model
}

func newDrawer(style string) drawer {
	if style == "" {
		style = "dark"
	}
	return drawer{style: style, vp: viewport.New(drawerWidth-2, 10)}
}

// begin opens the drawer on d and returns the request sequence number.
func (d *drawer) begin(target interaction.DrillDown) int {
	d.seq++
	d.open = true
	d.loading = true
	d.target = target
	d.err = nil
	d.vp.SetContent(fmt.Sprintf("Loading commands for %s…", target.Label))
	d.vp.GotoTop()
	return d.seq
}

func (d *drawer) close() {
	d.open = false
	d.loading = false
}

func (d *drawer) resize(width, height int) {
	d.vp.Width = max(width-2, 1)
	d.vp.Height = max(height-3, 1)
}

// fill renders cmds into the viewport. A glamour failure falls back to
// the raw markdown.
func (d *drawer) fill(cmds []model.Command, err error, now time.Time) {
	d.loading = false
	d.err = err
	if err != nil {
		d.vp.SetContent(fmt.Sprintf("Could not load commands:\n%v", err))
		return
	}
	md := commandsMarkdown(d.target, cmds, now)
	r, rerr := glamour.NewTermRenderer(
		glamour.WithStandardStyle(d.style),
		glamour.WithWordWrap(max(d.vp.Width-2, 20)),
	)
	if rerr == nil {
		if out, err := r.Render(md); err == nil {
			md = strings.TrimRight(out, "\n ")
		}
	}
	d.vp.SetContent(md)
	d.vp.GotoTop()
}

func (d drawer) view(t Theme, width, height int) string {
	title := t.Title.Render(truncate(fmt.Sprintf("%s · %s", d.target.Kind, d.target.Label), width-4))
	body := d.vp.View()
	return t.Panel.
		Width(width - 2).
		Height(max(height-2, 0)).
		Render(title + "\n" + body)
}

// commandsMarkdown formats a drill-down result.
func commandsMarkdown(target interaction.DrillDown, cmds []model.Command, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", target.Label)
	if len(cmds) == 0 {
		sb.WriteString("_No commands recorded._\n")
		return sb.String()
	}
	failed := 0
	for _, c := range cmds {
		if c.Failed() {
			failed++
		}
	}
	fmt.Fprintf(&sb, "%d recent commands, %d failed.\n\n", len(cmds), failed)
	for _, c := range cmds {
		fmt.Fprintf(&sb, "- `%s`", strings.ReplaceAll(c.CommandText, "`", "'"))
		var meta []string
		meta = append(meta, formatTimeRelAt(c.Time(), now))
		if target.Kind == scene.KindTool {
			if repo := c.RepoName(); repo != "" {
				meta = append(meta, repo)
			}
		} else if c.GitBranch != "" {
			meta = append(meta, c.GitBranch)
		}
		if c.DurationMs != nil {
			meta = append(meta, formatDuration(*c.DurationMs))
		}
		if c.Failed() {
			meta = append(meta, fmt.Sprintf("**exit %d**", *c.ExitCode))
		}
		fmt.Fprintf(&sb, " · %s\n", strings.Join(meta, " · "))
	}
	return sb.String()
}
