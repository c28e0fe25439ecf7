package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB

	// path is the filesystem location of the sqlite file, kept for the
	// tailsql label and backup filenames.
	path string
}

// OpenDB opens the sqlite database at path without touching the schema.
// Use this when migrations manage the schema themselves.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// NewDB opens the sqlite database at path and ensures the baseline schema
// exists. The inline schema must stay consistent with the migration files
// so that a freshly created database reports the same shape as a fully
// migrated one.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			guid              TEXT PRIMARY KEY,
			name              TEXT,
			quality           TEXT,
			document          TEXT,
			generated_at      TIMESTAMP,
			updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS session_metrics (
			session_id         TEXT,
			side               TEXT,
			frames             BIGINT,
			window_size        BIGINT,
			drift_mean         DOUBLE,
			drift_stddev       DOUBLE,
			jitter_mean        DOUBLE,
			jitter_stddev      DOUBLE,
			suppression_mean   DOUBLE,
			suppression_stddev DOUBLE,
			neutral_p95        DOUBLE,
			corrected_p95      DOUBLE,
			timestamp          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_session_metrics_session
			ON session_metrics(session_id, timestamp);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise schema: %w", err)
	}

	return db, nil
}
