package oracle

import (
	"context"
	"fmt"
	"strings"
)

const (
	// DefaultEspeakBin is the espeak binary looked up on PATH.
	DefaultEspeakBin = "espeak-ng"
	// DefaultVoice is the espeak voice used for target sentences.
	DefaultVoice = "en-us"
)

// Espeak phonemizes words with espeak-ng's IPA output.
type Espeak struct {
	Bin   string
	Voice string

	run runFunc
}

// NewEspeak returns an Espeak phonemizer. Empty arguments select defaults.
func NewEspeak(bin, voice string) *Espeak {
	if bin == "" {
		bin = DefaultEspeakBin
	}
	if voice == "" {
		voice = DefaultVoice
	}
	return &Espeak{Bin: bin, Voice: voice, run: runCommand}
}

// Phonemize implements scoring.Phonemizer.
func (e *Espeak) Phonemize(ctx context.Context, word string) (string, error) {
	out, err := e.run(ctx, e.Bin, "-q", "--ipa", "-v", e.Voice, "--", word)
	if err != nil {
		return "", fmt.Errorf("espeak %q: %w", word, err)
	}
	return strings.TrimSpace(string(out)), nil
}
