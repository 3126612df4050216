package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/pronounce/internal/model"
	"github.com/verte-zerg/pronounce/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "pronounce.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		attempt := model.AttemptStats{
			CreatedAt:      time.Unix(0, 0).Add(time.Duration(i) * time.Minute).UTC(),
			Text:           "the cat",
			Voice:          "en-us",
			TargetPhonemes: "ðʌkæt",
			UserPhonemes:   "dʌkæt",
			Score:          75,
			Distance:       1,
			ScoredWords:    2,
		}
		words := []model.WordStats{
			{Position: 0, Word: "the", Key: "the", Phonemes: "ðʌ", Accuracy: 50, Mistakes: 1, Length: 2, Status: "Needs Work"},
			{Position: 1, Word: "cat", Key: "cat", Phonemes: "kæt", Accuracy: 100, Mistakes: 0, Length: 3, Status: "Good"},
		}
		id, err := st.InsertAttempt(ctx, attempt, words)
		if err != nil {
			t.Fatalf("insert attempt: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Voice: "en-us", Last: 2, CurveWindow: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(report.Attempts))
	}
	if report.Attempts[0].AttemptID != ids[1] || report.Attempts[1].AttemptID != ids[2] {
		t.Fatalf("expected the last two attempts, got %+v", report.Attempts)
	}
	if len(report.WindowAttemptIDs) != 1 || report.WindowAttemptIDs[0] != ids[2] {
		t.Fatalf("unexpected window ids: %v", report.WindowAttemptIDs)
	}
	if len(report.WordAggsAll) != 2 {
		t.Fatalf("expected 2 word aggregates, got %d", len(report.WordAggsAll))
	}
	for _, agg := range report.WordAggsAll {
		if agg.Attempts != 2 {
			t.Fatalf("expected 2 attempts for %q, got %d", agg.Word, agg.Attempts)
		}
	}
	for _, agg := range report.WordAggsWindow {
		if agg.Attempts != 1 {
			t.Fatalf("expected 1 windowed attempt for %q, got %d", agg.Word, agg.Attempts)
		}
	}
}
