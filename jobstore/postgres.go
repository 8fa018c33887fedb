package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smoreau/docforge/job"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    stage      TEXT NOT NULL,
    progress   INTEGER NOT NULL,
    error      TEXT NOT NULL DEFAULT '',
    stats      JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL
);`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create jobs table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Write(ctx context.Context, jobID string, snap job.Snapshot) error {
	stats, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO jobs (id, status, stage, progress, error, stats, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			stage = EXCLUDED.stage,
			progress = EXCLUDED.progress,
			error = EXCLUDED.error,
			stats = EXCLUDED.stats,
			updated_at = EXCLUDED.updated_at`,
		jobID, string(snap.Status), snap.Stage, snap.Progress, snap.Error, stats, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to write job snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, jobID string) (job.Snapshot, bool, error) {
	var snap job.Snapshot
	var status string
	var stats []byte

	row := s.pool.QueryRow(ctx, `
		SELECT status, stage, progress, error, stats, updated_at
		FROM jobs WHERE id = $1`, jobID)
	err := row.Scan(&status, &snap.Stage, &snap.Progress, &snap.Error, &stats, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return job.Snapshot{}, false, nil
	}
	if err != nil {
		return job.Snapshot{}, false, fmt.Errorf("failed to read job snapshot: %w", err)
	}

	snap.Status = job.Status(status)
	if err := json.Unmarshal(stats, &snap.Stats); err != nil {
		return job.Snapshot{}, false, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return snap, true, nil
}
