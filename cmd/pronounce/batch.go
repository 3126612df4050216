package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pronounce/internal/analyzer"
	"github.com/verte-zerg/pronounce/internal/batch"
	"github.com/verte-zerg/pronounce/internal/scoring"
	"github.com/verte-zerg/pronounce/internal/stats"
)

var (
	batchConcurrency int
	batchNoSave      bool
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Score text<TAB>phonemes lines from FILE (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatchCmd,
	}
	cmd.Flags().IntVar(&batchConcurrency, "concurrency", runtime.NumCPU(), "lines scored in parallel")
	cmd.Flags().BoolVar(&batchNoSave, "no-save", false, "do not record attempts")
	return cmd
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	if batchConcurrency <= 0 {
		return fmt.Errorf("--concurrency must be > 0")
	}
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	items, err := batch.LoadItems(args[0])
	if err != nil {
		return fmt.Errorf("failed to load batch: %w", err)
	}

	var recorder analyzer.Recorder
	if !batchNoSave {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		recorder = st
	}
	a, err := buildAnalyzer(cfg, recorder, false)
	if err != nil {
		return err
	}

	results, err := batch.Run(cmd.Context(), items, a.Score, batchConcurrency)
	if err != nil {
		return err
	}
	return renderBatch(cmd, results)
}

func renderBatch(cmd *cobra.Command, results []batch.Result) error {
	out := cmd.OutOrStdout()
	headers := []string{"Line", "Score", "Good", "Needs Work", "Text"}
	rows := make([][]string, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logErrf("line %d: %v\n", r.Item.Line, r.Err)
			rows = append(rows, []string{fmt.Sprint(r.Item.Line), "error", "", "", r.Item.Text})
			continue
		}
		good, needsWork := 0, 0
		for _, c := range stats.StatusCounts(r.Report) {
			if c.Status == scoring.StatusGood {
				good = c.Count
			} else {
				needsWork += c.Count
			}
		}
		rows = append(rows, []string{
			fmt.Sprint(r.Item.Line),
			fmt.Sprintf("%d%%", r.Report.Score),
			fmt.Sprint(good),
			fmt.Sprint(needsWork),
			r.Item.Text,
		})
	}
	for _, line := range stats.FormatTable(headers, rows, map[int]bool{0: true, 1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if mean, ok := batch.MeanScore(results); ok {
		if _, err := fmt.Fprintf(out, "\nMean Score: %.1f%% over %d lines\n", mean, len(results)-failed); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(results))
	}
	return nil
}
