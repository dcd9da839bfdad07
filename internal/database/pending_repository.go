package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/pdfcrawl/internal/domain"
)

// pendingSelectColumns lists columns for SELECT queries joining pending (p)
// with its resource (r). The resource columns are aliased into the nested
// struct fields of domain.PendingItem.
const pendingSelectColumns = `p.id, p.priority, p.resource_id, p.depth, p.retries, p.timestamp,
	r.id AS "resource.id", r.title AS "resource.title", r.url AS "resource.url",
	r.timestamp AS "resource.timestamp", r.fetched AS "resource.fetched",
	r.last_code AS "resource.last_code", r.document_id AS "resource.document_id"`

// QueueEntry is the cached (id, priority) projection of a pending row.
type QueueEntry struct {
	ID       int64 `db:"id"`
	Priority *int  `db:"priority"`
}

// PendingRepository handles database operations for the pending queue.
type PendingRepository struct {
	db *sqlx.DB
}

// NewPendingRepository creates a new pending repository.
func NewPendingRepository(db *sqlx.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

// Create inserts a pending item and fills in its generated id and timestamp.
func (r *PendingRepository) Create(ctx context.Context, item *domain.PendingItem) error {
	item.Timestamp = time.Now().UTC()

	query := `INSERT INTO pending (priority, resource_id, depth, retries, timestamp)
		VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		item.Priority, item.ResourceID, item.Depth, item.Retries, item.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert pending item: %w", err)
	}

	id, idErr := result.LastInsertId()
	if idErr != nil {
		return fmt.Errorf("failed to read pending id: %w", idErr)
	}
	item.ID = id

	return nil
}

// GetByID loads the full pending item (with its resource) by queue id.
func (r *PendingRepository) GetByID(ctx context.Context, id int64) (*domain.PendingItem, error) {
	query := `SELECT ` + pendingSelectColumns + `
		FROM pending p
		JOIN resources r ON r.id = p.resource_id
		WHERE p.id = ?`

	var item domain.PendingItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to select pending item: %w", err)
	}

	return &item, nil
}

// GetByResourceID returns the pending item referencing the given resource.
// Returns ErrNotFound when the resource is not queued.
func (r *PendingRepository) GetByResourceID(ctx context.Context, resourceID int64) (*domain.PendingItem, error) {
	query := `SELECT ` + pendingSelectColumns + `
		FROM pending p
		JOIN resources r ON r.id = p.resource_id
		WHERE p.resource_id = ?`

	var item domain.PendingItem
	if err := r.db.GetContext(ctx, &item, query, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to select pending item by resource: %w", err)
	}

	return &item, nil
}

// ListQueue returns all (id, priority) pairs in pop order: non-null
// priorities first (descending), then null priorities, ids ascending
// within equal priority.
func (r *PendingRepository) ListQueue(ctx context.Context) ([]QueueEntry, error) {
	// SQLite has no NULLS LAST; "priority IS NULL" sorts null rows after
	// the rest because false (0) orders before true (1).
	query := `SELECT id, priority FROM pending
		ORDER BY priority IS NULL, priority DESC, id ASC`

	var entries []QueueEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list pending queue: %w", err)
	}

	return entries, nil
}

// UpdatePriority raises (or sets) the priority of a queued item.
func (r *PendingRepository) UpdatePriority(ctx context.Context, id int64, priority *int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE pending SET priority = ? WHERE id = ?`, priority, id)
	return execRequireRows(result, err, fmt.Errorf("pending item not found: %d: %w", id, ErrNotFound))
}

// UpdateRetry persists the new retry count and decayed priority of a
// failed item.
func (r *PendingRepository) UpdateRetry(ctx context.Context, id int64, retries int, priority *int) error {
	query := `UPDATE pending SET retries = ?, priority = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, retries, priority, id)
	return execRequireRows(result, err, fmt.Errorf("pending item not found: %d: %w", id, ErrNotFound))
}

// Delete removes a pending item. Deleting an already-deleted item is not
// an error: discard is idempotent.
func (r *PendingRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pending item: %w", err)
	}

	return nil
}

// DeleteAll wipes the pending table and reports the number of rows removed.
func (r *PendingRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pending`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear pending table: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return 0, fmt.Errorf("failed to read cleared row count: %w", affectedErr)
	}

	return n, nil
}

// Count returns the number of pending rows.
func (r *PendingRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM pending`); err != nil {
		return 0, fmt.Errorf("failed to count pending items: %w", err)
	}

	return n, nil
}
