// Package observe wires OpenTelemetry metrics and traces for the analysis
// pipeline and the HTTP service. Instruments are created through the metric
// API; InitProvider installs an SDK provider backed by the Prometheus
// exporter so the service can expose them on /metrics.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/verte-zerg/pronounce"

// Pipeline stages reported through StageDuration.
const (
	StagePreprocess = "preprocess"
	StageRecognize  = "recognize"
	StageCompare    = "compare"
)

// Metrics holds the instruments used across the application.
type Metrics struct {
	// StageDuration tracks time spent per analysis stage. Attribute: stage.
	StageDuration metric.Float64Histogram

	// Analyses counts finished analyses. Attributes: source, status.
	Analyses metric.Int64Counter

	// Scores tracks the distribution of final scores.
	Scores metric.Int64Histogram

	// WordsScored counts scored words. Attribute: status.
	WordsScored metric.Int64Counter

	// HTTPRequestDuration tracks request latency. Attributes: method, path, status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.StageDuration, err = m.Float64Histogram("pronounce.stage.duration",
		metric.WithDescription("Latency of one analysis stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Analyses, err = m.Int64Counter("pronounce.analyses",
		metric.WithDescription("Finished analyses by source and status."),
	); err != nil {
		return nil, err
	}
	if met.Scores, err = m.Int64Histogram("pronounce.score",
		metric.WithDescription("Final pronunciation scores."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.WordsScored, err = m.Int64Counter("pronounce.words.scored",
		metric.WithDescription("Scored words by status."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("pronounce.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns metrics bound to the global meter provider. It is a
// no-op until InitProvider has run.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordStage records the duration of one analysis stage in seconds.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordAnalysis counts a finished analysis.
func (m *Metrics) RecordAnalysis(ctx context.Context, source, status string) {
	m.Analyses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
}

// RecordScore records a final score and the per-status word counts.
func (m *Metrics) RecordScore(ctx context.Context, score int, wordsByStatus map[string]int) {
	m.Scores.Record(ctx, int64(score))
	for status, n := range wordsByStatus {
		m.WordsScored.Add(ctx, int64(n), metric.WithAttributes(attribute.String("status", status)))
	}
}
