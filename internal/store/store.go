// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/pronounce/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for attempt history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers from concurrent analyses.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			text TEXT NOT NULL,
			voice TEXT NOT NULL,
			target_phonemes TEXT NOT NULL,
			user_phonemes TEXT NOT NULL,
			score INTEGER NOT NULL,
			distance INTEGER NOT NULL,
			scored_words INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempt_word_stats (
			attempt_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			word TEXT NOT NULL,
			word_key TEXT NOT NULL,
			phonemes TEXT NOT NULL,
			accuracy INTEGER NOT NULL,
			mistakes INTEGER NOT NULL,
			length INTEGER NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (attempt_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_attempt_word_stats_key ON attempt_word_stats(word_key);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertAttempt stores a scored attempt and its per-word results.
func (s *Store) InsertAttempt(ctx context.Context, attempt model.AttemptStats, words []model.WordStats) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO attempts (created_at, text, voice, target_phonemes, user_phonemes, score, distance, scored_words)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.CreatedAt.Format(time.RFC3339Nano),
		attempt.Text,
		attempt.Voice,
		attempt.TargetPhonemes,
		attempt.UserPhonemes,
		attempt.Score,
		attempt.Distance,
		attempt.ScoredWords,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(words) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO attempt_word_stats (attempt_id, position, word, word_key, phonemes, accuracy, mistakes, length, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ws := range words {
			if _, err = stmt.ExecContext(ctx, id, ws.Position, ws.Word, ws.Key, ws.Phonemes, ws.Accuracy, ws.Mistakes, ws.Length, ws.Status); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakWords aggregates word results over the most recent attempts.
func (s *Store) GetWeakWords(ctx context.Context, window int, voice string) ([]model.WordAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_attempts AS (
		SELECT id FROM attempts
		WHERE (? = '' OR voice = ?)
		ORDER BY created_at DESC
		LIMIT ?
	)
	SELECT ws.word_key, COUNT(*) AS attempts, SUM(ws.accuracy) AS accuracy_sum,
		SUM(CASE WHEN ws.status = 'Good' THEN 1 ELSE 0 END) AS good,
		SUM(ws.mistakes) AS mistakes, SUM(ws.length) AS length
	FROM attempt_word_stats ws
	JOIN recent_attempts r ON r.id = ws.attempt_id
	GROUP BY ws.word_key`

	rows, err := s.db.QueryContext(ctx, query, voice, voice, window)
	if err != nil {
		return nil, err
	}
	return scanWordAggregates(rows)
}

// ListAttempts returns attempt aggregates filtered by stats config.
func (s *Store) ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.AttemptAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Voice != "" {
		clauses = append(clauses, "voice = ?")
		args = append(args, cfg.Voice)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, created_at, text, score, distance, scored_words
		FROM attempts
		WHERE %s
		ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var attempts []model.AttemptAggregate
	for rows.Next() {
		var agg model.AttemptAggregate
		var createdAt string
		if err := rows.Scan(&agg.AttemptID, &createdAt, &agg.Text, &agg.Score, &agg.Distance, &agg.ScoredWords); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		agg.CreatedAt = parsed
		attempts = append(attempts, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

// ListWordAggregatesForAttempts aggregates per-word results across attempts.
func (s *Store) ListWordAggregatesForAttempts(ctx context.Context, attemptIDs []int64) ([]model.WordAggregate, error) {
	if len(attemptIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(attemptIDs))
	args := make([]any, len(attemptIDs))
	for i, id := range attemptIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT word_key, COUNT(*) AS attempts, SUM(accuracy) AS accuracy_sum,
		SUM(CASE WHEN status = 'Good' THEN 1 ELSE 0 END) AS good,
		SUM(mistakes) AS mistakes, SUM(length) AS length
		FROM attempt_word_stats
		WHERE attempt_id IN (%s)
		GROUP BY word_key`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanWordAggregates(rows)
}

// ListWordStats returns the stored per-word results of one attempt in
// sentence order.
func (s *Store) ListWordStats(ctx context.Context, attemptID int64) ([]model.WordStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, word, word_key, phonemes, accuracy, mistakes, length, status
		 FROM attempt_word_stats
		 WHERE attempt_id = ?
		 ORDER BY position ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.WordStats
	for rows.Next() {
		var ws model.WordStats
		if err := rows.Scan(&ws.Position, &ws.Word, &ws.Key, &ws.Phonemes, &ws.Accuracy, &ws.Mistakes, &ws.Length, &ws.Status); err != nil {
			return nil, err
		}
		result = append(result, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanWordAggregates(rows *sql.Rows) ([]model.WordAggregate, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.WordAggregate
	for rows.Next() {
		var agg model.WordAggregate
		if err := rows.Scan(&agg.Word, &agg.Attempts, &agg.AccuracySum, &agg.Good, &agg.Mistakes, &agg.Length); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
