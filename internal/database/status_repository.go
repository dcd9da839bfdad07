package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/pdfcrawl/internal/domain"
)

// StatusRepository handles the per-worker status rows in the log database.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository creates a new worker status repository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Truncate removes all worker status rows. Called once at process start.
func (r *StatusRepository) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM thread_status`); err != nil {
		return fmt.Errorf("failed to truncate thread_status: %w", err)
	}

	return nil
}

// Upsert writes a worker's status row, creating it on first publish.
func (r *StatusRepository) Upsert(ctx context.Context, status *domain.WorkerStatus) error {
	status.Timestamp = time.Now().UTC()

	query := `INSERT INTO thread_status (thread, status, running_time, parsed, added, downloaded, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (thread) DO UPDATE SET
			status = excluded.status,
			running_time = excluded.running_time,
			parsed = excluded.parsed,
			added = excluded.added,
			downloaded = excluded.downloaded,
			timestamp = excluded.timestamp`

	_, err := r.db.ExecContext(ctx, query,
		status.Worker, status.Status, status.RunningTime,
		status.Parsed, status.Added, status.Downloaded, status.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to upsert worker status: %w", err)
	}

	return nil
}

// CountRunning returns the number of workers currently published as RUNNING.
func (r *StatusRepository) CountRunning(ctx context.Context) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM thread_status WHERE status = ?`
	if err := r.db.GetContext(ctx, &n, query, domain.WorkerStatusRunning); err != nil {
		return 0, fmt.Errorf("failed to count running workers: %w", err)
	}

	return n, nil
}

// List returns all worker status rows ordered by worker name.
func (r *StatusRepository) List(ctx context.Context) ([]domain.WorkerStatus, error) {
	query := `SELECT id, thread, status, running_time, parsed, added, downloaded, timestamp
		FROM thread_status ORDER BY thread`

	var rows []domain.WorkerStatus
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list worker status: %w", err)
	}

	return rows, nil
}
