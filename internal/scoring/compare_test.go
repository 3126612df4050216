package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/verte-zerg/pronounce/internal/phoneme"
)

type fakePhonemizer map[string]string

func (f fakePhonemizer) Phonemize(_ context.Context, word string) (string, error) {
	p, ok := f[word]
	if !ok {
		return "", errors.New("unknown word " + word)
	}
	return p, nil
}

var testLexicon = fakePhonemizer{
	"the":   "ðə",
	"cat":   "kˈæt",
	"sat":   "sˈæt",
	"on":    "ɑːn",
	"mat":   "mˈæt",
	"hmm":   "",
	"quick": "kwˈɪk",
}

func TestComparePerfectMatch(t *testing.T) {
	s := NewScorer(testLexicon)
	user := phoneme.NormalizeWord(testLexicon["cat"])
	report, err := s.Compare(context.Background(), "cat", user)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if report.Score != 100 {
		t.Fatalf("expected score 100, got %d", report.Score)
	}
	if len(report.Breakdown) != 1 {
		t.Fatalf("expected 1 word report, got %d", len(report.Breakdown))
	}
	if got := report.Breakdown[0]; got.Word != "cat" || got.Accuracy != 100 || got.Status != StatusGood {
		t.Fatalf("unexpected report: %+v", got)
	}
	if report.Distance() != 0 {
		t.Fatalf("expected zero distance, got %d", report.Distance())
	}
}

func TestCompareTotalMismatch(t *testing.T) {
	s := NewScorer(testLexicon)
	report, err := s.Compare(context.Background(), "cat", "pɪz")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	got := report.Breakdown[0]
	if got.Accuracy != 0 || got.Status != StatusNeedsWork {
		t.Fatalf("expected 0/Needs Work, got %+v", got)
	}
	if report.Score != 0 {
		t.Fatalf("expected score 0, got %d", report.Score)
	}
}

func TestCompareEmptySentence(t *testing.T) {
	s := NewScorer(testLexicon)
	report, err := s.Compare(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if report.Score != 0 || len(report.Breakdown) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestCompareAllWordsEmpty(t *testing.T) {
	s := NewScorer(testLexicon)
	report, err := s.Compare(context.Background(), "hmm hmm", "hm")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if report.Score != 0 || len(report.Breakdown) != 0 {
		t.Fatalf("expected zero scored words, got %+v", report)
	}
}

func TestCompareTrailingInsertionsDoNotPenalize(t *testing.T) {
	s := NewScorer(testLexicon)
	report, err := s.Compare(context.Background(), "the cat", "ðʌkætsɪz")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	for _, w := range report.Breakdown {
		if w.Accuracy != 100 || w.Status != StatusGood {
			t.Fatalf("expected perfect word, got %+v", w)
		}
	}
	if report.Score != 100 {
		t.Fatalf("expected score 100, got %d", report.Score)
	}
	if report.Distance() != 3 {
		t.Fatalf("expected 3 insertions, got %d", report.Distance())
	}
}

func TestComparePreservesOrderWithRepeatedWords(t *testing.T) {
	s := NewScorer(testLexicon)
	// second "the" is mispronounced, first is fine.
	report, err := s.Compare(context.Background(), "the cat sat on the mat", "ðʌkætsætanzʌmæt")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	wantWords := []string{"the", "cat", "sat", "on", "the", "mat"}
	if len(report.Breakdown) != len(wantWords) {
		t.Fatalf("expected %d reports, got %d", len(wantWords), len(report.Breakdown))
	}
	for i, w := range wantWords {
		if report.Breakdown[i].Word != w {
			t.Fatalf("report %d is %q, want %q", i, report.Breakdown[i].Word, w)
		}
	}
	if report.Breakdown[0].Accuracy != 100 {
		t.Fatalf("first 'the' should be perfect: %+v", report.Breakdown[0])
	}
	if report.Breakdown[4].Accuracy != 50 || report.Breakdown[4].Status != StatusNeedsWork {
		t.Fatalf("second 'the' should be half right: %+v", report.Breakdown[4])
	}
}

func TestComparePropagatesPhonemizerError(t *testing.T) {
	s := NewScorer(testLexicon)
	_, err := s.Compare(context.Background(), "the zebra", "ðʌ")
	if err == nil {
		t.Fatalf("expected phonemizer error")
	}
}

func TestCompareNormalizesUserPhonemes(t *testing.T) {
	s := NewScorer(PhonemizerFunc(func(context.Context, string) (string, error) {
		return "kwˈɪk", nil
	}))
	report, err := s.Compare(context.Background(), "quick", " kwˈɪk ")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if report.UserPhonemes != "kwɪk" || report.Score != 100 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
