package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a SQLite database file. Payloads are
// stored as versioned JSON.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Nothing is opened
// until Init.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates missing tables. Calling it again is a
// no-op.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveExperiment implements Store.
func (s *SQLiteStore) SaveExperiment(ctx context.Context, record ExperimentRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeExperiment(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO experiments (id, created_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, record.Experiment.ID, record.Experiment.CreatedAt.UnixNano(), record.SchemaVersion, record.CodecVersion, payload)
	return err
}

// GetExperiment implements Store.
func (s *SQLiteStore) GetExperiment(ctx context.Context, id string) (ExperimentRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return ExperimentRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM experiments WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExperimentRecord{}, false, nil
		}
		return ExperimentRecord{}, false, err
	}

	record, err := DecodeExperiment(payload)
	if err != nil {
		return ExperimentRecord{}, false, fmt.Errorf("decode experiment %s: %w", id, err)
	}
	return record, true, nil
}

// ListExperiments implements Store, oldest first.
func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]ExperimentRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM experiments ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExperimentRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}

		record, err := DecodeExperiment(payload)
		if err != nil {
			return nil, fmt.Errorf("decode experiment %s: %w", id, err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// SaveRun implements Store.
func (s *SQLiteStore) SaveRun(ctx context.Context, record RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRun(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, experiment_id, run_index, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			experiment_id = excluded.experiment_id,
			run_index = excluded.run_index,
			payload = excluded.payload
	`, record.Outcome.ID, record.ExperimentID, record.Outcome.Index, payload)
	return err
}

// ListRuns implements Store, ordered by run index.
func (s *SQLiteStore) ListRuns(ctx context.Context, experimentID string) ([]RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM runs WHERE experiment_id = ? ORDER BY run_index`, experimentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}

		record, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// SaveSnapshot implements Store.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, record SnapshotRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeSnapshot(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, record.RunID, payload)
	return err
}

// GetSnapshot implements Store.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, runID string) (SnapshotRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return SnapshotRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SnapshotRecord{}, false, nil
		}
		return SnapshotRecord{}, false, err
	}

	record, err := DecodeSnapshot(payload)
	if err != nil {
		return SnapshotRecord{}, false, fmt.Errorf("decode snapshot %s: %w", runID, err)
	}
	return record, true, nil
}

// Close closes the database. The store can be initialised again.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experiments (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			experiment_id TEXT NOT NULL,
			run_index INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_experiment ON runs (experiment_id, run_index);
		CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
