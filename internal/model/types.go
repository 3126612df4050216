// Package model defines shared data structures.
package model

import "time"

// Config defines analysis settings.
type Config struct {
	Voice             string
	EspeakBin         string
	FFmpegBin         string
	RecognizerURL     string
	RecognizerTimeout time.Duration
	Substitutions     []Substitution
}

// Substitution is a user-supplied phoneme rewrite appended to the default table.
type Substitution struct {
	From string
	To   string
}

// ServerConfig defines HTTP service settings.
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64
	LogLevel       string
	AllowedOrigins []string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Voice       string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// AttemptStats captures one scored utterance.
type AttemptStats struct {
	CreatedAt      time.Time
	Text           string
	Voice          string
	TargetPhonemes string
	UserPhonemes   string
	Score          int
	Distance       int
	ScoredWords    int
}

// WordStats stores the result for one word of an attempt.
type WordStats struct {
	Position int
	Word     string
	Key      string
	Phonemes string
	Accuracy int
	Mistakes int
	Length   int
	Status   string
}

// WordAggregate aggregates word results across attempts.
type WordAggregate struct {
	Word        string
	Attempts    int
	AccuracySum int
	Good        int
	Mistakes    int
	Length      int
}

// AttemptAggregate summarizes an attempt for reporting.
type AttemptAggregate struct {
	AttemptID   int64
	CreatedAt   time.Time
	Text        string
	Score       int
	Distance    int
	ScoredWords int
}
