package scoring

import "math"

// Status classifies a word's pronunciation.
type Status string

const (
	// StatusGood marks a word scored strictly above goodThreshold.
	StatusGood Status = "Good"
	// StatusNeedsWork marks every other scored word.
	StatusNeedsWork Status = "Needs Work"
)

// goodThreshold is exclusive: a word at exactly 95 needs work.
const goodThreshold = 95

// WordReport is the scored result for one word of the sentence.
type WordReport struct {
	Word     string `json:"word"`
	Accuracy int    `json:"accuracy"`
	Status   Status `json:"status"`

	Phonemes string `json:"-"`
	Mistakes int    `json:"-"`
	Length   int    `json:"-"`
}

// Score attributes error positions to spans. Empty spans are skipped and do
// not count toward the final score's divisor. Reports keep sentence order.
func Score(spans []WordSpan, errs map[int]struct{}) (int, []WordReport) {
	reports := make([]WordReport, 0, len(spans))
	total := 0.0
	scored := 0
	for _, span := range spans {
		if span.Empty() {
			continue
		}
		mistakes := 0
		for i := span.Start; i < span.End; i++ {
			if _, ok := errs[i]; ok {
				mistakes++
			}
		}
		length := span.Len()
		accuracy := math.Max(0, float64(length-mistakes)*100/float64(length))
		total += accuracy
		scored++

		rounded := roundInt(accuracy)
		status := StatusNeedsWork
		if rounded > goodThreshold {
			status = StatusGood
		}
		reports = append(reports, WordReport{
			Word:     span.Word,
			Accuracy: rounded,
			Status:   status,
			Phonemes: span.Phonemes,
			Mistakes: mistakes,
			Length:   length,
		})
	}
	if scored == 0 {
		return 0, reports
	}
	return roundInt(total / float64(scored)), reports
}

// roundInt rounds half to even.
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}
