// Package scoring maps alignment errors onto words and scores an utterance.
package scoring

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrLengthMismatch is returned when words and phoneme strings are not paired.
var ErrLengthMismatch = errors.New("words and phoneme strings differ in length")

// WordSpan is the half-open rune range a word occupies in the concatenated
// target phoneme string.
type WordSpan struct {
	Start    int
	End      int
	Word     string
	Phonemes string
}

// Len returns the span length in phonemes.
func (s WordSpan) Len() int {
	return s.End - s.Start
}

// Empty reports whether the word phonemized to nothing. Such spans are
// never scored.
func (s WordSpan) Empty() bool {
	return s.End == s.Start
}

// BuildSpans lays words out back to back. Spans are contiguous, ordered and
// cover the concatenated phoneme string exactly once.
func BuildSpans(words, phonemesPerWord []string) ([]WordSpan, error) {
	if len(words) != len(phonemesPerWord) {
		return nil, fmt.Errorf("%w: %d words, %d phoneme strings", ErrLengthMismatch, len(words), len(phonemesPerWord))
	}
	spans := make([]WordSpan, 0, len(words))
	offset := 0
	for i, word := range words {
		n := utf8.RuneCountInString(phonemesPerWord[i])
		spans = append(spans, WordSpan{
			Start:    offset,
			End:      offset + n,
			Word:     word,
			Phonemes: phonemesPerWord[i],
		})
		offset += n
	}
	return spans, nil
}

// Target returns the concatenated phoneme string the spans index into.
func Target(spans []WordSpan) string {
	n := 0
	for _, s := range spans {
		n += len(s.Phonemes)
	}
	buf := make([]byte, 0, n)
	for _, s := range spans {
		buf = append(buf, s.Phonemes...)
	}
	return string(buf)
}
