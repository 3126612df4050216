package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/pronounce/internal/scoring"
)

func sampleBreakdown() []scoring.WordReport {
	return []scoring.WordReport{
		{Word: "the", Accuracy: 50, Status: scoring.StatusNeedsWork, Phonemes: "ðʌ"},
		{Word: "cat", Accuracy: 100, Status: scoring.StatusGood, Phonemes: "kæt"},
		{Word: "sat", Accuracy: 67, Status: scoring.StatusNeedsWork, Phonemes: "sæt"},
	}
}

func TestBuildStyledRunesColoursByStatus(t *testing.T) {
	runes := buildStyledRunes(sampleBreakdown(), -1)
	if len(runes) != len("the cat sat") {
		t.Fatalf("expected %d runes, got %d", len("the cat sat"), len(runes))
	}
	if runes[0].s != needsWorkStyle.Render("t") {
		t.Fatalf("expected needs-work style for first word")
	}
	if !runes[3].isSpace || runes[3].s != " " {
		t.Fatalf("expected plain separator space")
	}
	if runes[4].s != goodStyle.Render("c") {
		t.Fatalf("expected good style for second word")
	}
}

func TestBuildStyledRunesUnderlinesFocus(t *testing.T) {
	runes := buildStyledRunes(sampleBreakdown(), 0)
	if runes[0].s != needsWorkStyle.Underline(true).Render("t") {
		t.Fatalf("expected focus word to be underlined")
	}
	if runes[8].s != needsWorkStyle.Render("s") {
		t.Fatalf("expected other words without underline")
	}
}

func TestFocusIndex(t *testing.T) {
	if got := focusIndex(sampleBreakdown()); got != 0 {
		t.Fatalf("expected weakest word at 0, got %d", got)
	}
	allGood := []scoring.WordReport{{Word: "a", Accuracy: 100, Status: scoring.StatusGood}}
	if got := focusIndex(allGood); got != -1 {
		t.Fatalf("expected no focus, got %d", got)
	}
}

func plainRunes(text string) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		out = append(out, styledRune{s: string(r), width: 1, isSpace: r == ' '})
	}
	return out
}

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	got := wrapStyledRunes(plainRunes("the cat sat on"), 8)
	want := "the cat\nsat on"
	if got != want {
		t.Fatalf("wrap = %q, want %q", got, want)
	}
}

func TestWrapStyledRunesSplitsLongWords(t *testing.T) {
	got := wrapStyledRunes(plainRunes("abcdefgh"), 3)
	if got != "abc\ndef\ngh" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapStyledRunesNoWidth(t *testing.T) {
	if got := wrapStyledRunes(plainRunes("a b"), 0); got != "a b" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRenderReport(t *testing.T) {
	out := RenderReport(scoring.SessionReport{Score: 72, Breakdown: sampleBreakdown()}, 40)
	for _, want := range []string{"Score 72%", "Good 1", "Needs Work 2", `Focus "the" /ðʌ/`} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q: %s", want, out)
		}
	}
	if empty := RenderReport(scoring.SessionReport{}, 40); !strings.Contains(empty, "Nothing to score.") {
		t.Fatalf("unexpected empty render: %s", empty)
	}
}
