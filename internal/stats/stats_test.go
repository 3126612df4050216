package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/verte-zerg/pronounce/internal/model"
	"github.com/verte-zerg/pronounce/internal/scoring"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{10, 20, 30, 40}, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MovingAverage = %v, want %v", got, want)
		}
	}
}

func TestRenderSessionReport(t *testing.T) {
	var buf bytes.Buffer
	report := scoring.SessionReport{
		Score: 75,
		Breakdown: []scoring.WordReport{
			{Word: "the", Accuracy: 50, Status: scoring.StatusNeedsWork, Phonemes: "ðʌ"},
			{Word: "cat", Accuracy: 100, Status: scoring.StatusGood, Phonemes: "kæt"},
		},
		UserPhonemes: "dʌkæt",
	}
	if err := RenderSessionReport(&buf, report); err != nil {
		t.Fatalf("RenderSessionReport failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Word", "the", "Needs Work", "/ðʌ/", "Heard: /dʌkæt/", "Score: 75%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "the") > strings.Index(out, "cat") {
		t.Fatalf("words out of sentence order:\n%s", out)
	}
}

func TestRenderSessionReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSessionReport(&buf, scoring.SessionReport{}); err != nil {
		t.Fatalf("RenderSessionReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No scorable words.") || !strings.Contains(buf.String(), "Score: 0%") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	attempts := []model.AttemptAggregate{{Score: 40}, {Score: 80}, {Score: 60}}
	if err := RenderSummary(&buf, attempts); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Attempts: 3", "Avg Score: 60.0%", "Best Score: 80%", "Last Score: 60%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{0, 50, 100, 50, 0}},
		{Name: "B", Values: []float64{10, 10, 20}},
	}, PlotOptions{Width: 12, Height: 4})
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") || !strings.Contains(out, "Legend:") {
		t.Fatalf("missing title or legend:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "100%") || !strings.HasPrefix(lines[4], "  0%") {
		t.Fatalf("unexpected axis labels:\n%s", out)
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "x", []Series{{Name: "A"}}, PlotOptions{}); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty series")
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestSelectWeakWords(t *testing.T) {
	aggs := []model.WordAggregate{
		{Word: "cat", Attempts: 2, AccuracySum: 200},
		{Word: "the", Attempts: 2, AccuracySum: 100},
		{Word: "fox", Attempts: 1, AccuracySum: 50},
		{Word: "dog", Attempts: 1, AccuracySum: 80},
	}
	weak := SelectWeakWords(aggs, 3)
	if len(weak) != 3 {
		t.Fatalf("expected 3 weak words, got %d", len(weak))
	}
	// the and fox tie at 50; more attempts first.
	if weak[0].Word != "the" || weak[1].Word != "fox" || weak[2].Word != "dog" {
		t.Fatalf("unexpected order: %+v", weak)
	}
	if got := SelectWeakWords(nil, 3); got != nil {
		t.Fatalf("expected nil for no aggregates")
	}
}

func TestTopWordsByFrequency(t *testing.T) {
	aggs := []model.WordAggregate{
		{Word: "b", Attempts: 3},
		{Word: "a", Attempts: 3},
		{Word: "c", Attempts: 1},
	}
	top := TopWordsByFrequency(aggs, 2)
	if len(top) != 2 || top[0] != "a" || top[1] != "b" {
		t.Fatalf("unexpected order: %v", top)
	}
}

func TestStatusCounts(t *testing.T) {
	report := scoring.SessionReport{Breakdown: []scoring.WordReport{
		{Status: scoring.StatusGood}, {Status: scoring.StatusNeedsWork}, {Status: scoring.StatusGood},
	}}
	counts := StatusCounts(report)
	if len(counts) != 2 || counts[0].Status != scoring.StatusGood || counts[0].Count != 2 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
