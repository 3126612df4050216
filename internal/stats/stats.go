package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/pronounce/internal/model"
	"github.com/verte-zerg/pronounce/internal/scoring"
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// RenderSessionReport prints the per-word breakdown of one analysis.
func RenderSessionReport(w io.Writer, report scoring.SessionReport) error {
	if len(report.Breakdown) == 0 {
		if _, err := fmt.Fprintln(w, "No scorable words."); err != nil {
			return err
		}
	} else {
		headers := []string{"Word", "Accuracy", "Status", "Expected"}
		rows := make([][]string, 0, len(report.Breakdown))
		for _, wr := range report.Breakdown {
			rows = append(rows, []string{
				wr.Word,
				fmt.Sprintf("%d%%", wr.Accuracy),
				string(wr.Status),
				"/" + wr.Phonemes + "/",
			})
		}
		for _, line := range FormatTable(headers, rows, map[int]bool{1: true}) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "\nHeard: /%s/\n", report.UserPhonemes); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Score: %d%%\n", report.Score)
	return err
}

// RenderSummary prints a summary block for attempts.
func RenderSummary(w io.Writer, attempts []model.AttemptAggregate) error {
	if len(attempts) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	total := 0
	best := 0
	for _, a := range attempts {
		total += a.Score
		if a.Score > best {
			best = a.Score
		}
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Attempts: %d", len(attempts)),
		fmt.Sprintf("Avg Score: %.1f%%", float64(total)/float64(len(attempts))),
		fmt.Sprintf("Best Score: %d%%", best),
		fmt.Sprintf("Last Score: %d%%", attempts[len(attempts)-1].Score),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints the score learning curve.
func RenderCurves(w io.Writer, attempts []model.AttemptAggregate, window, width int, useColor bool) error {
	return RenderCurvesWithSize(w, attempts, window, width, 0, useColor)
}

// RenderCurvesWithSize prints the score learning curve with an explicit height.
func RenderCurvesWithSize(w io.Writer, attempts []model.AttemptAggregate, window, width, height int, useColor bool) error {
	if len(attempts) == 0 {
		return nil
	}
	scores := make([]float64, len(attempts))
	for i, a := range attempts {
		scores[i] = float64(a.Score)
	}
	return PlotSeries(w, "Score Curve", []Series{
		{Name: "Score", Values: scores},
		{Name: fmt.Sprintf("Avg(%d)", window), Values: MovingAverage(scores, window)},
	}, PlotOptions{Width: width, Height: height, ForceColor: useColor})
}

// RenderWordTable prints per-word aggregates, weakest first.
func RenderWordTable(w io.Writer, aggs []model.WordAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No word stats found.")
		return err
	}
	headers, rows := WordTableRows(aggs)
	if _, err := fmt.Fprintln(w, "Per-Word"); err != nil {
		return err
	}
	for _, line := range FormatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// WordTableRows formats aggregates for table display, weakest first.
func WordTableRows(aggs []model.WordAggregate) ([]string, [][]string) {
	sorted := SelectWeakWords(aggs, 0)
	headers := []string{"Word", "Accuracy", "Good", "Attempts", "Phoneme Errors"}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		rows = append(rows, []string{
			agg.Word,
			fmt.Sprintf("%.1f%%", MeanAccuracy(agg)),
			fmt.Sprintf("%d", agg.Good),
			fmt.Sprintf("%d", agg.Attempts),
			fmt.Sprintf("%d/%d", agg.Mistakes, agg.Length),
		})
	}
	return headers, rows
}

// StatusCounts tallies word statuses in a report, sorted by status name.
func StatusCounts(report scoring.SessionReport) []StatusCount {
	counts := map[scoring.Status]int{}
	for _, wr := range report.Breakdown {
		counts[wr.Status]++
	}
	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// StatusCount is the number of words with a given status.
type StatusCount struct {
	Status scoring.Status
	Count  int
}
