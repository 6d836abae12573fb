// Package ui renders run summaries for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/syncro-import/internal/importer"
	"github.com/Tiliavir/syncro-import/internal/timecalc"
)

var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle  = lipgloss.NewStyle().Width(14)
)

const (
	IconPass = "✓"
	IconSkip = "–"
	IconFail = "✗"

	separator = "──────────────────────────────────────────"
)

// Summary renders the outcome of an import run.
func Summary(s *importer.Summary) string {
	var b strings.Builder

	title := "Import"
	if s.Kind != "" {
		title = strings.ToUpper(s.Kind[:1]) + s.Kind[1:] + " import"
	}
	if s.DryRun {
		title += " (dry run, nothing was written)"
	}
	b.WriteString(HeaderStyle.Render(title) + "\n")
	b.WriteString(MutedStyle.Render(separator) + "\n")

	created := "Created"
	if s.DryRun {
		created = "Would create"
	}
	row(&b, PassStyle, IconPass, created, fmt.Sprint(s.Created))
	row(&b, MutedStyle, IconSkip, "Duplicates", fmt.Sprint(s.Duplicates))
	row(&b, WarnStyle, IconSkip, "Skipped", fmt.Sprint(s.Skipped))
	row(&b, FailStyle, IconFail, "Failed", fmt.Sprint(s.Failed))

	if s.Comments+s.CommentsFailed > 0 {
		row(&b, MutedStyle, " ", "Comments", fmt.Sprintf("%d (%d failed)", s.Comments, s.CommentsFailed))
	}
	if s.Charged+s.Uncharged+s.ChargeFailed > 0 {
		row(&b, MutedStyle, " ", "Charged", fmt.Sprintf("%d (%d uncharged, %d failed)", s.Charged, s.Uncharged, s.ChargeFailed))
	}
	row(&b, MutedStyle, " ", "API calls", fmt.Sprint(s.APICalls))
	row(&b, MutedStyle, " ", "Elapsed", timecalc.FormatElapsed(s.Elapsed))

	if len(s.Errors) > 0 {
		b.WriteString("\n" + HeaderStyle.Render("Problems") + "\n")
		for _, e := range s.Errors {
			b.WriteString("  " + FailStyle.Render(IconFail) + " " + e.Error() + "\n")
		}
	}
	return b.String()
}

func row(b *strings.Builder, style lipgloss.Style, icon, label, value string) {
	fmt.Fprintf(b, "  %s %s %s\n", style.Render(icon), labelStyle.Render(label), value)
}
