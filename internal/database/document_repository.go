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

// DocumentRepository handles database operations for stored documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document row and fills in its generated id and
// timestamp. The caller supplies the uuid; documents are immutable after
// creation.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	doc.Timestamp = time.Now().UTC()

	query := `INSERT INTO documents (name, author, type, filename, meta_data, relevancy, num_pages, accepted, timestamp, uuid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		doc.Name, doc.Author, doc.Type, doc.Filename, doc.MetaData,
		doc.Relevancy, doc.NumPages, doc.Accepted, doc.Timestamp, doc.UUID)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	id, idErr := result.LastInsertId()
	if idErr != nil {
		return fmt.Errorf("failed to read document id: %w", idErr)
	}
	doc.ID = id

	return nil
}

// GetByUUID returns the document with the given opaque identifier.
func (r *DocumentRepository) GetByUUID(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT id, name, author, type, filename, meta_data, relevancy, num_pages, accepted, timestamp, uuid
		FROM documents WHERE uuid = ?`

	var doc domain.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to select document: %w", err)
	}

	return &doc, nil
}

// Count returns the number of stored documents.
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM documents`); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return n, nil
}
