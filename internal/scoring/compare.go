package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/pronounce/internal/align"
	"github.com/verte-zerg/pronounce/internal/phoneme"
)

// Phonemizer turns a single word into a raw phoneme transcription.
type Phonemizer interface {
	Phonemize(ctx context.Context, word string) (string, error)
}

// PhonemizerFunc adapts a function to Phonemizer.
type PhonemizerFunc func(ctx context.Context, word string) (string, error)

// Phonemize implements Phonemizer.
func (f PhonemizerFunc) Phonemize(ctx context.Context, word string) (string, error) {
	return f(ctx, word)
}

// SessionReport is the transient result of one analysis.
type SessionReport struct {
	Score        int          `json:"score"`
	Breakdown    []WordReport `json:"breakdown"`
	UserPhonemes string       `json:"user_phonemes"`

	Target string         `json:"-"`
	Spans  []WordSpan     `json:"-"`
	Ops    []align.EditOp `json:"-"`
}

// Distance is the edit distance between the target and the user phonemes.
func (r SessionReport) Distance() int {
	return align.Distance(r.Ops)
}

// Scorer composes normalization, span indexing, alignment and scoring.
type Scorer struct {
	Phonemizer Phonemizer
	Table      phoneme.Table
}

// NewScorer returns a Scorer using the default substitution table.
func NewScorer(p Phonemizer) *Scorer {
	return &Scorer{Phonemizer: p, Table: phoneme.DefaultTable}
}

// Compare phonemizes each word of text, aligns the result against
// userPhonemes and scores every word. Phonemizer errors are returned as is.
func (s *Scorer) Compare(ctx context.Context, text, userPhonemes string) (SessionReport, error) {
	words := strings.Fields(text)
	perWord := make([]string, 0, len(words))
	for _, word := range words {
		raw, err := s.Phonemizer.Phonemize(ctx, word)
		if err != nil {
			return SessionReport{}, fmt.Errorf("phonemize %q: %w", word, err)
		}
		perWord = append(perWord, s.Table.NormalizeWord(raw))
	}
	return s.CompareWords(words, perWord, userPhonemes)
}

// CompareWords scores already phonemized words. Word phonemes must be
// normalized; userPhonemes is normalized here.
func (s *Scorer) CompareWords(words, phonemesPerWord []string, userPhonemes string) (SessionReport, error) {
	spans, err := BuildSpans(words, phonemesPerWord)
	if err != nil {
		return SessionReport{}, err
	}
	target := Target(spans)
	user := s.Table.NormalizeWord(userPhonemes)
	ops := align.Align(target, user)
	score, reports := Score(spans, align.ErrorIndices(ops))
	return SessionReport{
		Score:        score,
		Breakdown:    reports,
		UserPhonemes: user,
		Target:       target,
		Spans:        spans,
		Ops:          ops,
	}, nil
}
