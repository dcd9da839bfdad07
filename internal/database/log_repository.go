package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LogRepository handles the message catalog and log entries in the log
// database.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository creates a new log repository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// SeedMessages installs the known message labels, ignoring existing rows.
func (r *LogRepository) SeedMessages(ctx context.Context, labels []string) error {
	query := `INSERT INTO messages (label) VALUES (?) ON CONFLICT (label) DO NOTHING`

	for _, label := range labels {
		if _, err := r.db.ExecContext(ctx, query, label); err != nil {
			return fmt.Errorf("failed to seed message %q: %w", label, err)
		}
	}

	return nil
}

// Insert appends a log entry row.
func (r *LogRepository) Insert(ctx context.Context, level, label, text, worker string) error {
	query := `INSERT INTO log_entries (type, message_label, text, thread, timestamp)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, level, label, text, worker, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}

	return nil
}

// CountByLabel returns the number of entries recorded under a label.
func (r *LogRepository) CountByLabel(ctx context.Context, label string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM log_entries WHERE message_label = ?`
	if err := r.db.GetContext(ctx, &n, query, label); err != nil {
		return 0, fmt.Errorf("failed to count log entries: %w", err)
	}

	return n, nil
}
