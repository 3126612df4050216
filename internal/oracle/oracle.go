// Package oracle wraps the external programs and services that turn text and
// audio into raw phoneme strings.
package oracle

import (
	"context"
	"errors"
	"os/exec"
)

// ErrNoPhonemes is returned when a recognizer answers without a transcription.
var ErrNoPhonemes = errors.New("recognizer returned no phonemes")

// Recognizer transcribes a preprocessed audio file into raw phonemes.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string) (string, error)
}

// Preprocessor converts arbitrary audio into the recognizer's input format
// and writes the result under dir.
type Preprocessor interface {
	Preprocess(ctx context.Context, inputPath, dir string) (string, error)
}

// runFunc executes a command and returns its stdout. Tests replace it.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, &CommandError{Name: name, Err: err, Stderr: string(exitErr.Stderr)}
		}
		return nil, &CommandError{Name: name, Err: err}
	}
	return out, nil
}

// CommandError reports a failed external command.
type CommandError struct {
	Name   string
	Err    error
	Stderr string
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Name + " failed: " + e.Err.Error() + "\n" + e.Stderr
	}
	return e.Name + " failed: " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Available reports whether bin can be found on PATH.
func Available(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}
