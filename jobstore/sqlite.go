// Package jobstore provides durable job.Store implementations: SQLite for
// single-node deployments and Postgres for shared ones.
package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/smoreau/docforge/job"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    stage      TEXT NOT NULL,
    progress   INTEGER NOT NULL,
    error      TEXT NOT NULL DEFAULT '',
    stats      TEXT NOT NULL DEFAULT '{}',
    updated_at TIMESTAMP NOT NULL
);`

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create jobs table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Write(ctx context.Context, jobID string, snap job.Snapshot) error {
	stats, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, stage, progress, error, stats, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			stage = excluded.stage,
			progress = excluded.progress,
			error = excluded.error,
			stats = excluded.stats,
			updated_at = excluded.updated_at`,
		jobID, string(snap.Status), snap.Stage, snap.Progress, snap.Error, string(stats), snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to write job snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, jobID string) (job.Snapshot, bool, error) {
	var snap job.Snapshot
	var status, stats string

	row := s.db.QueryRowContext(ctx, `
		SELECT status, stage, progress, error, stats, updated_at
		FROM jobs WHERE id = ?`, jobID)
	err := row.Scan(&status, &snap.Stage, &snap.Progress, &snap.Error, &stats, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return job.Snapshot{}, false, nil
	}
	if err != nil {
		return job.Snapshot{}, false, fmt.Errorf("failed to read job snapshot: %w", err)
	}

	snap.Status = job.Status(status)
	if err := json.Unmarshal([]byte(stats), &snap.Stats); err != nil {
		return job.Snapshot{}, false, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return snap, true, nil
}
