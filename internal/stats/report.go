// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"

	"github.com/verte-zerg/pronounce/internal/model"
)

// History is the read side of the attempt store used for reporting.
type History interface {
	ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.AttemptAggregate, error)
	ListWordAggregatesForAttempts(ctx context.Context, attemptIDs []int64) ([]model.WordAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Attempts         []model.AttemptAggregate
	WindowAttemptIDs []int64
	WordAggsAll      []model.WordAggregate
	WordAggsWindow   []model.WordAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st History, cfg model.StatsConfig) (Report, error) {
	attempts, err := st.ListAttempts(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(attempts) > cfg.Last {
		attempts = attempts[len(attempts)-cfg.Last:]
	}

	allIDs := attemptIDs(attempts)
	windowIDs := lastAttemptIDs(attempts, cfg.CurveWindow)
	wordAggsAll, err := st.ListWordAggregatesForAttempts(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	wordAggsWindow, err := st.ListWordAggregatesForAttempts(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Attempts:         attempts,
		WindowAttemptIDs: windowIDs,
		WordAggsAll:      wordAggsAll,
		WordAggsWindow:   wordAggsWindow,
	}, nil
}

func attemptIDs(attempts []model.AttemptAggregate) []int64 {
	ids := make([]int64, len(attempts))
	for i, a := range attempts {
		ids[i] = a.AttemptID
	}
	return ids
}

func lastAttemptIDs(attempts []model.AttemptAggregate, window int) []int64 {
	if window <= 0 || len(attempts) <= window {
		return attemptIDs(attempts)
	}
	return attemptIDs(attempts[len(attempts)-window:])
}
