package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/pdfcrawl/internal/domain"
)

// LinkRepository handles database operations for link edges.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository creates a new link repository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts a link edge. Duplicate (referrer, target) pairs are kept;
// the graph records every observation.
func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (text, referrer_id, target_id) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, link.Text, link.ReferrerID, link.TargetID)
	if err != nil {
		return fmt.Errorf("failed to insert link: %w", err)
	}

	id, idErr := result.LastInsertId()
	if idErr != nil {
		return fmt.Errorf("failed to read link id: %w", idErr)
	}
	link.ID = id

	return nil
}

// CountByReferrer returns the number of outgoing edges from a resource.
func (r *LinkRepository) CountByReferrer(ctx context.Context, referrerID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM links WHERE referrer_id = ?`
	if err := r.db.GetContext(ctx, &n, query, referrerID); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}

	return n, nil
}
