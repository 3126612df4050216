package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
)

const (
	// DefaultFFmpegBin is the ffmpeg binary looked up on PATH.
	DefaultFFmpegBin = "ffmpeg"
	// DefaultSampleRate is the rate phoneme recognizers expect.
	DefaultSampleRate = 16000
	// DefaultSilenceThreshold is the level below which edges are trimmed.
	DefaultSilenceThreshold = "-40dB"
)

// FFmpeg resamples audio to mono WAV and trims leading and trailing silence.
type FFmpeg struct {
	Bin              string
	SampleRate       int
	SilenceThreshold string

	run runFunc
}

// NewFFmpeg returns an FFmpeg preprocessor with defaults applied.
func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = DefaultFFmpegBin
	}
	return &FFmpeg{
		Bin:              bin,
		SampleRate:       DefaultSampleRate,
		SilenceThreshold: DefaultSilenceThreshold,
		run:              runCommand,
	}
}

// Preprocess implements Preprocessor. The output is written to dir/clean.wav.
func (f *FFmpeg) Preprocess(ctx context.Context, inputPath, dir string) (string, error) {
	out := filepath.Join(dir, "clean.wav")
	slog.Debug("preprocessing audio", "input", filepath.Base(inputPath), "rate", f.SampleRate)
	if _, err := f.run(ctx, f.Bin, f.args(inputPath, out)...); err != nil {
		return "", fmt.Errorf("ffmpeg preprocess: %w", err)
	}
	return out, nil
}

func (f *FFmpeg) args(in, out string) []string {
	trim := fmt.Sprintf("silenceremove=start_periods=1:start_threshold=%s", f.SilenceThreshold)
	filter := trim + ",areverse," + trim + ",areverse"
	return []string{
		"-nostdin", "-v", "error",
		"-i", in,
		"-ar", strconv.Itoa(f.SampleRate),
		"-ac", "1",
		"-af", filter,
		"-f", "wav",
		"-y", out,
	}
}
