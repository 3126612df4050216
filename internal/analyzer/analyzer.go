// Package analyzer runs the audio-to-score pipeline and records attempts.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/verte-zerg/pronounce/internal/model"
	"github.com/verte-zerg/pronounce/internal/observe"
	"github.com/verte-zerg/pronounce/internal/oracle"
	"github.com/verte-zerg/pronounce/internal/scoring"
)

// Metric source labels.
const (
	SourceAudio    = "audio"
	SourcePhonemes = "phonemes"
)

// Recorder persists scored attempts.
type Recorder interface {
	InsertAttempt(ctx context.Context, attempt model.AttemptStats, words []model.WordStats) (int64, error)
}

// Analyzer ties the oracles to the scorer. Store is optional.
type Analyzer struct {
	Preprocessor oracle.Preprocessor
	Recognizer   oracle.Recognizer
	Scorer       *scoring.Scorer
	Store        Recorder
	Metrics      *observe.Metrics
	Voice        string

	now func() time.Time
}

// New returns an Analyzer reporting to the default metrics.
func New(pre oracle.Preprocessor, rec oracle.Recognizer, scorer *scoring.Scorer, store Recorder, voice string) *Analyzer {
	return &Analyzer{
		Preprocessor: pre,
		Recognizer:   rec,
		Scorer:       scorer,
		Store:        store,
		Metrics:      observe.DefaultMetrics(),
		Voice:        voice,
		now:          time.Now,
	}
}

// Analyze converts the audio at audioPath, recognizes it and scores it
// against text. Intermediate files live in a temporary directory that is
// removed before returning.
func (a *Analyzer) Analyze(ctx context.Context, audioPath, text string) (report scoring.SessionReport, err error) {
	ctx, span := observe.StartSpan(ctx, "analyze")
	defer func() { a.finish(ctx, span, SourceAudio, report, err) }()
	if a.Preprocessor == nil || a.Recognizer == nil {
		return scoring.SessionReport{}, fmt.Errorf("audio analysis requires a preprocessor and a recognizer")
	}

	dir, err := os.MkdirTemp("", "pronounce-*")
	if err != nil {
		return scoring.SessionReport{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			observe.Logger(ctx).Warn("remove temp dir", "dir", dir, "err", rerr)
		}
	}()

	var wavPath string
	if err := a.stage(ctx, observe.StagePreprocess, func(ctx context.Context) error {
		var perr error
		wavPath, perr = a.Preprocessor.Preprocess(ctx, audioPath, dir)
		return perr
	}); err != nil {
		return scoring.SessionReport{}, fmt.Errorf("preprocess audio: %w", err)
	}

	var raw string
	if err := a.stage(ctx, observe.StageRecognize, func(ctx context.Context) error {
		var rerr error
		raw, rerr = a.Recognizer.Recognize(ctx, wavPath)
		return rerr
	}); err != nil {
		return scoring.SessionReport{}, fmt.Errorf("recognize audio: %w", err)
	}
	observe.Logger(ctx).Debug("recognized phonemes", "raw", raw)

	return a.compare(ctx, text, raw)
}

// Score compares already recognized phonemes with text.
func (a *Analyzer) Score(ctx context.Context, text, userPhonemes string) (report scoring.SessionReport, err error) {
	ctx, span := observe.StartSpan(ctx, "score")
	defer func() { a.finish(ctx, span, SourcePhonemes, report, err) }()
	return a.compare(ctx, text, userPhonemes)
}

func (a *Analyzer) compare(ctx context.Context, text, userPhonemes string) (scoring.SessionReport, error) {
	var report scoring.SessionReport
	if err := a.stage(ctx, observe.StageCompare, func(ctx context.Context) error {
		var cerr error
		report, cerr = a.Scorer.Compare(ctx, text, userPhonemes)
		return cerr
	}); err != nil {
		return scoring.SessionReport{}, err
	}
	if a.Store != nil {
		if _, err := a.Record(ctx, text, report); err != nil {
			observe.Logger(ctx).Error("save attempt", "err", err)
		}
	}
	return report, nil
}

func (a *Analyzer) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observe.StartSpan(ctx, name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	if a.Metrics != nil {
		a.Metrics.RecordStage(ctx, name, time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (a *Analyzer) finish(ctx context.Context, span trace.Span, source string, report scoring.SessionReport, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("score", report.Score), attribute.Int("words", len(report.Breakdown)))
	}
	span.End()
	if a.Metrics == nil {
		return
	}
	if err != nil {
		a.Metrics.RecordAnalysis(ctx, source, "error")
		return
	}
	a.Metrics.RecordAnalysis(ctx, source, "ok")
	byStatus := map[string]int{}
	for _, wr := range report.Breakdown {
		byStatus[string(wr.Status)]++
	}
	a.Metrics.RecordScore(ctx, report.Score, byStatus)
}

// Record saves a derived summary of report. The report itself is not kept.
func (a *Analyzer) Record(ctx context.Context, text string, report scoring.SessionReport) (int64, error) {
	if a.Store == nil {
		return 0, fmt.Errorf("no store configured")
	}
	attempt, words := Summarize(text, a.Voice, report)
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	attempt.CreatedAt = now().UTC()
	id, err := a.Store.InsertAttempt(ctx, attempt, words)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

// Summarize derives the stored rows for report. CreatedAt is left unset.
func Summarize(text, voice string, report scoring.SessionReport) (model.AttemptStats, []model.WordStats) {
	attempt := model.AttemptStats{
		Text:           strings.Join(strings.Fields(text), " "),
		Voice:          voice,
		TargetPhonemes: report.Target,
		UserPhonemes:   report.UserPhonemes,
		Score:          report.Score,
		Distance:       report.Distance(),
		ScoredWords:    len(report.Breakdown),
	}
	words := make([]model.WordStats, 0, len(report.Breakdown))
	for i, wr := range report.Breakdown {
		words = append(words, model.WordStats{
			Position: i,
			Word:     wr.Word,
			Key:      WordKey(wr.Word),
			Phonemes: wr.Phonemes,
			Accuracy: wr.Accuracy,
			Mistakes: wr.Mistakes,
			Length:   wr.Length,
			Status:   string(wr.Status),
		})
	}
	return attempt, words
}

// WordKey folds a word for aggregation: lower case, surrounding punctuation
// removed. A word made only of punctuation keeps its lower-cased form.
func WordKey(word string) string {
	lower := strings.ToLower(word)
	if key := strings.TrimFunc(lower, unicode.IsPunct); key != "" {
		return key
	}
	return lower
}
