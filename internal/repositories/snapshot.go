// package repositories provides SQLite persistence for run snapshots.
//
// The snapshot table holds one row per key; the sync pipeline overwrites
// the "latest" row after every run so the status surface always reflects
// the most recent outcome.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/livesync/internal/shared"
	"github.com/desertthunder/livesync/internal/tasks"
)

// SnapshotRepository persists serialized run summaries keyed by a fixed identifier.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a SnapshotRepository and ensures its table exists.
func NewSnapshotRepository(db *sql.DB) (*SnapshotRepository, error) {
	query := `
		CREATE TABLE IF NOT EXISTS run_snapshots (
			key TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			saved_at TIMESTAMP NOT NULL
		)
	`

	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

// Save upserts the summary under the given key, replacing any previous row.
func (r *SnapshotRepository) Save(ctx context.Context, key string, summary *tasks.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize run summary: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO run_snapshots (key, summary, saved_at)
		VALUES (?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, key, string(payload), time.Now()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Get retrieves the summary stored under the given key.
//
// Returns [shared.ErrSnapshotMissing] when no run has been recorded yet.
func (r *SnapshotRepository) Get(ctx context.Context, key string) (*tasks.RunSummary, error) {
	query := `
		SELECT summary
		FROM run_snapshots
		WHERE key = ?
	`

	var payload string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no run recorded under %q", shared.ErrSnapshotMissing, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var summary tasks.RunSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &summary, nil
}
