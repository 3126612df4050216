package stats

import (
	"sort"

	"github.com/verte-zerg/pronounce/internal/model"
)

// SelectWeakWords returns up to top words with the lowest mean accuracy.
// A top of zero or less returns every word, weakest first.
func SelectWeakWords(aggs []model.WordAggregate, top int) []model.WordAggregate {
	if len(aggs) == 0 {
		return nil
	}
	candidates := make([]model.WordAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := MeanAccuracy(candidates[i])
		aj := MeanAccuracy(candidates[j])
		if ai == aj {
			if candidates[i].Attempts != candidates[j].Attempts {
				return candidates[i].Attempts > candidates[j].Attempts
			}
			return candidates[i].Word < candidates[j].Word
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

// MeanAccuracy is the average word accuracy across attempts, 0-100.
func MeanAccuracy(agg model.WordAggregate) float64 {
	if agg.Attempts == 0 {
		return 100
	}
	return float64(agg.AccuracySum) / float64(agg.Attempts)
}
