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

// resourceSelectColumns lists columns for SELECT queries on resources.
const resourceSelectColumns = `id, title, url, timestamp, fetched, last_code, document_id`

// ResourceRepository handles database operations for crawled resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new resource repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a resource and fills in its generated id and timestamp.
func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	res.Timestamp = time.Now().UTC()

	query := `INSERT INTO resources (title, url, timestamp) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, res.Title, res.URL, res.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}

	id, idErr := result.LastInsertId()
	if idErr != nil {
		return fmt.Errorf("failed to read resource id: %w", idErr)
	}
	res.ID = id

	return nil
}

// GetByURL returns the resource with the given canonical URL.
// Returns ErrNotFound when no such resource exists.
func (r *ResourceRepository) GetByURL(ctx context.Context, url string) (*domain.Resource, error) {
	query := `SELECT ` + resourceSelectColumns + ` FROM resources WHERE url = ?`

	var res domain.Resource
	if err := r.db.GetContext(ctx, &res, query, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to select resource by url: %w", err)
	}

	return &res, nil
}

// GetByID returns the resource with the given id.
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	query := `SELECT ` + resourceSelectColumns + ` FROM resources WHERE id = ?`

	var res domain.Resource
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to select resource by id: %w", err)
	}

	return &res, nil
}

// ListURLs returns the URLs of all known resources. Used to rebuild the
// frontier's dedup set on startup.
func (r *ResourceRepository) ListURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.SelectContext(ctx, &urls, `SELECT url FROM resources`); err != nil {
		return nil, fmt.Errorf("failed to list resource urls: %w", err)
	}

	return urls, nil
}

// UpdateTitle sets the page title observed while parsing the resource.
func (r *ResourceRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE resources SET title = ? WHERE id = ?`, title, id)
	return execRequireRows(result, err, fmt.Errorf("resource not found: %d: %w", id, ErrNotFound))
}

// UpdateFetched records the HTTP status code and fetch time of the last
// fetch attempt that produced a response.
func (r *ResourceRepository) UpdateFetched(ctx context.Context, id int64, code int, at time.Time) error {
	query := `UPDATE resources SET last_code = ?, fetched = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, code, at.UTC(), id)
	return execRequireRows(result, err, fmt.Errorf("resource not found: %d: %w", id, ErrNotFound))
}

// SetDocument links a stored document to its resource.
func (r *ResourceRepository) SetDocument(ctx context.Context, id, documentID int64) error {
	query := `UPDATE resources SET document_id = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, documentID, id)
	return execRequireRows(result, err, fmt.Errorf("resource not found: %d: %w", id, ErrNotFound))
}

// CountByURL returns the number of resource rows holding the given URL.
func (r *ResourceRepository) CountByURL(ctx context.Context, url string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM resources WHERE url = ?`, url); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}

	return n, nil
}
