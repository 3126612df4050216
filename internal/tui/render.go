package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pronounce/internal/scoring"
)

var (
	goodStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	needsWorkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	scoreStyle     = lipgloss.NewStyle().Bold(true)
)

// RenderReport returns the coloured sentence wrapped to width, followed by a
// footer line with the score and status counts. A width of zero disables
// wrapping.
func RenderReport(report scoring.SessionReport, width int) string {
	if len(report.Breakdown) == 0 {
		return footerStyle.Render("Nothing to score.")
	}
	focus := focusIndex(report.Breakdown)
	sentence := wrapStyledRunes(buildStyledRunes(report.Breakdown, focus), width)

	var b strings.Builder
	b.WriteString(sentence)
	b.WriteString("\n\n")
	b.WriteString(renderFooter(report, focus))
	return b.String()
}

func renderFooter(report scoring.SessionReport, focus int) string {
	good := 0
	for _, wr := range report.Breakdown {
		if wr.Status == scoring.StatusGood {
			good++
		}
	}
	parts := []string{
		scoreStyle.Render(fmt.Sprintf("Score %d%%", report.Score)),
		footerStyle.Render(fmt.Sprintf("Good %d", good)),
		footerStyle.Render(fmt.Sprintf("Needs Work %d", len(report.Breakdown)-good)),
	}
	if focus >= 0 {
		wr := report.Breakdown[focus]
		parts = append(parts, footerStyle.Render(fmt.Sprintf("Focus %q /%s/", wr.Word, wr.Phonemes)))
	}
	return strings.Join(parts, footerStyle.Render(" · "))
}
