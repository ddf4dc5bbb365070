package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore is a Store backed by an embedded SQLite database. The schema is
// a single append-only table; rows are never updated or deleted. A secondary
// index on created_at serves the time-range queries the graph exporter runs
// against the same file.
type SQLStore struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

// Open creates or opens the database at path, creating parent directories
// and the schema as needed. Calling it on an existing database is a no-op
// beyond opening the handle.
func Open(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// newWithDB wraps an existing handle. Used by tests with sqlmock.
func newWithDB(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) initSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS heart_rate (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bpm INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create heart_rate table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_heart_rate_created_at
		ON heart_rate (created_at)`); err != nil {
		return fmt.Errorf("create heart_rate index: %w", err)
	}

	return nil
}

// Insert appends one sample. The timestamp is assigned by the database.
func (s *SQLStore) Insert(bpm int) error {
	if _, err := s.db.Exec(`INSERT INTO heart_rate (bpm) VALUES (?)`, bpm); err != nil {
		return fmt.Errorf("insert heart rate: %w", err)
	}
	return nil
}

// Range returns samples recorded in [since, until), oldest first.
func (s *SQLStore) Range(since, until time.Time) ([]Sample, error) {
	rows, err := s.db.Query(`
		SELECT id, bpm, strftime('%s', created_at)
		FROM heart_rate
		WHERE created_at >= datetime(?, 'unixepoch') AND created_at < datetime(?, 'unixepoch')
		ORDER BY created_at ASC`,
		since.Unix(), until.Unix())
	if err != nil {
		return nil, fmt.Errorf("query heart rate range: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

// Recent returns up to limit samples, newest first.
func (s *SQLStore) Recent(limit int) ([]Sample, error) {
	rows, err := s.db.Query(`
		SELECT id, bpm, strftime('%s', created_at)
		FROM heart_rate
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent heart rates: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows)
}

func scanSamples(rows *sql.Rows) ([]Sample, error) {
	var samples []Sample
	for rows.Next() {
		var (
			sample Sample
			epoch  int64
		)
		if err := rows.Scan(&sample.ID, &sample.BPM, &epoch); err != nil {
			return nil, fmt.Errorf("scan heart rate row: %w", err)
		}
		sample.RecordedAt = time.Unix(epoch, 0).UTC()
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate heart rate rows: %w", err)
	}
	return samples, nil
}

// Close releases the handle. Repeated calls return the first result.
func (s *SQLStore) Close() error {
	s.closeOnce.Do(func() {
		if err := s.db.Close(); err != nil {
			s.closeErr = fmt.Errorf("close database: %w", err)
		}
	})
	return s.closeErr
}
