package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/pronounce/internal/scoring"
)

// ScoreFunc scores one item.
type ScoreFunc func(ctx context.Context, text, phonemes string) (scoring.SessionReport, error)

// Result pairs an item with its report or error.
type Result struct {
	Item   Item
	Report scoring.SessionReport
	Err    error
}

// Run scores items with at most limit in flight. Results keep input order.
// A failing item does not stop the others; only cancellation of ctx does.
func Run(ctx context.Context, items []Item, score ScoreFunc, limit int) ([]Result, error) {
	results := make([]Result, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := score(ctx, item.Text, item.Phonemes)
			results[i] = Result{Item: item, Report: report, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MeanScore averages the scores of successful results. ok is false when
// none succeeded.
func MeanScore(results []Result) (mean float64, ok bool) {
	total, n := 0, 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		total += r.Report.Score
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(total) / float64(n), true
}
