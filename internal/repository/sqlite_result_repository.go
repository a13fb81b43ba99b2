package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go-emotion-inspector/pkg/models"

	_ "modernc.org/sqlite"
)

const resultSchema = `
CREATE TABLE IF NOT EXISTS emotion_results (
	id                  TEXT PRIMARY KEY,
	modality            TEXT NOT NULL,
	source              TEXT,
	emotion             TEXT NOT NULL,
	scores_json         TEXT NOT NULL,
	created_at          INTEGER NOT NULL,
	processing_time_sec REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_emotion_results_created
	ON emotion_results (created_at DESC);
`

// SQLiteResultRepository persists results in a SQLite database
type SQLiteResultRepository struct {
	db     *sql.DB
	limit  int
	closed atomic.Bool
}

// NewSQLiteResultRepository opens a SQLite database and runs migrations.
// When limit > 0 only the newest limit results are kept.
func NewSQLiteResultRepository(dbPath string, limit int) (*SQLiteResultRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(resultSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteResultRepository{db: db, limit: limit}, nil
}

// Save implements ResultRepository
func (r *SQLiteResultRepository) Save(ctx context.Context, result *models.StoredResult) error {
	if r.closed.Load() {
		return ErrRepositoryUnavailable
	}
	prepareForSave(result)

	scoresJSON, err := result.Scores.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.unavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO emotion_results (id, modality, source, emotion, scores_json, created_at, processing_time_sec)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			modality = excluded.modality,
			source = excluded.source,
			emotion = excluded.emotion,
			scores_json = excluded.scores_json,
			processing_time_sec = excluded.processing_time_sec`,
		result.ID, string(result.Modality), result.Source, result.Emotion.String(),
		string(scoresJSON), result.Timestamp.UnixNano(), result.ProcessingTimeSec,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	if r.limit > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM emotion_results WHERE id NOT IN (
				SELECT id FROM emotion_results ORDER BY created_at DESC, rowid DESC LIMIT ?
			)`,
			r.limit,
		)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get implements ResultRepository
func (r *SQLiteResultRepository) Get(ctx context.Context, id string) (models.StoredResult, error) {
	if r.closed.Load() {
		return models.StoredResult{}, ErrRepositoryUnavailable
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, modality, source, emotion, scores_json, created_at, processing_time_sec
		 FROM emotion_results WHERE id = ?`, id)

	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredResult{}, ErrResultNotFound
	}
	return result, r.unavailable(err)
}

// List implements ResultRepository
func (r *SQLiteResultRepository) List(ctx context.Context, filter ResultFilter) ([]models.StoredResult, error) {
	if r.closed.Load() {
		return nil, ErrRepositoryUnavailable
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, modality, source, emotion, scores_json, created_at, processing_time_sec
		 FROM emotion_results
		 WHERE (? = '' OR modality = ?)
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		string(filter.Modality), string(filter.Modality), limit,
	)
	if err != nil {
		return nil, r.unavailable(fmt.Errorf("query results: %w", err))
	}
	defer rows.Close()

	out := make([]models.StoredResult, 0)
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection. Later calls report
// ErrRepositoryUnavailable.
func (r *SQLiteResultRepository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.db.Close()
}

// unavailable marks errors caused by a Close racing an in-flight call
func (r *SQLiteResultRepository) unavailable(err error) error {
	if err != nil && r.closed.Load() {
		return fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (models.StoredResult, error) {
	var (
		result     models.StoredResult
		modality   string
		source     sql.NullString
		emotion    string
		scoresJSON string
		createdAt  int64
	)
	if err := row.Scan(&result.ID, &modality, &source, &emotion, &scoresJSON, &createdAt, &result.ProcessingTimeSec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, err
		}
		return result, fmt.Errorf("scan result: %w", err)
	}

	e, err := models.ParseEmotion(emotion)
	if err != nil {
		return result, fmt.Errorf("stored emotion: %w", err)
	}
	if err := result.Scores.UnmarshalJSON([]byte(scoresJSON)); err != nil {
		return result, fmt.Errorf("stored scores: %w", err)
	}
	result.Modality = models.Modality(modality)
	result.Source = source.String
	result.Emotion = e
	result.Timestamp = time.Unix(0, createdAt).UTC()
	return result, nil
}
