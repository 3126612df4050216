// Package tui renders scored sentences for the terminal.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/pronounce/internal/scoring"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes lays the breakdown out as one sentence, each word coloured
// by its status. The focus word, if any, is underlined.
func buildStyledRunes(breakdown []scoring.WordReport, focus int) []styledRune {
	out := make([]styledRune, 0, len(breakdown)*6)
	for i, wr := range breakdown {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		style := styleFor(wr.Status)
		if i == focus {
			style = style.Underline(true)
		}
		for _, r := range wr.Word {
			out = append(out, styledRune{
				s:     style.Render(string(r)),
				width: runewidth.RuneWidth(r),
			})
		}
	}
	return out
}

func styleFor(status scoring.Status) lipgloss.Style {
	if status == scoring.StatusGood {
		return goodStyle
	}
	return needsWorkStyle
}

// focusIndex picks the lowest-accuracy word that needs work, first on ties.
func focusIndex(breakdown []scoring.WordReport) int {
	idx := -1
	for i, wr := range breakdown {
		if wr.Status == scoring.StatusGood {
			continue
		}
		if idx == -1 || wr.Accuracy < breakdown[idx].Accuracy {
			idx = i
		}
	}
	return idx
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks at the last space that fits, or mid-word when a
// single word is wider than the line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
			} else {
				out.WriteString(renderStyledRunes(line))
				line = line[:0]
			}
			out.WriteRune('\n')
			lineWidth = lineWidthOf(line)
			lastSpaceIdx = lastSpaceIndex(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
