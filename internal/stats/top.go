package stats

import (
	"sort"

	"github.com/verte-zerg/pronounce/internal/model"
)

// TopWordsByFrequency returns the N most practised words.
func TopWordsByFrequency(aggs []model.WordAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.WordAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Attempts == items[j].Attempts {
			return items[i].Word < items[j].Word
		}
		return items[i].Attempts > items[j].Attempts
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].Word)
	}
	return out
}
