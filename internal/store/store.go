// Package store persists accepted and rejected documents: the file on
// disk and the immutable documents row describing it.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/domain"
	"github.com/jonesrussell/pdfcrawl/internal/fetcher"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
	"github.com/jonesrussell/pdfcrawl/internal/processor"
)

// Store writes document files under the accepted or rejected folder and
// records every processed document in the database. An empty rejected
// folder means rejected documents get a row but no file.
type Store struct {
	acceptedDir string
	rejectedDir string
	documents   *database.DocumentRepository
	resources   *database.ResourceRepository
	log         logger.Interface
}

// New creates a store and ensures the destination folders exist.
func New(acceptedDir, rejectedDir string, documents *database.DocumentRepository, resources *database.ResourceRepository, log logger.Interface) (*Store, error) {
	if err := os.MkdirAll(acceptedDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download folder: %w", err)
	}
	if rejectedDir != "" {
		if err := os.MkdirAll(rejectedDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create rejected folder: %w", err)
		}
	}

	return &Store{
		acceptedDir: acceptedDir,
		rejectedDir: rejectedDir,
		documents:   documents,
		resources:   resources,
		log:         log,
	}, nil
}

// Save persists one processed document: writes the file (unless rejected
// with no rejected folder configured), inserts the documents row, and
// links it to the originating resource. Returns the created document.
func (s *Store) Save(ctx context.Context, item *domain.PendingItem, result fetcher.Result, relevancy float64, metadata map[string]any, accepted bool) (*domain.Document, error) {
	name := s.filename(item, result)

	dir := s.acceptedDir
	if !accepted {
		dir = s.rejectedDir
	}

	if dir != "" {
		target := filepath.Join(dir, name)
		if err := os.WriteFile(target, result.Body, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write document file: %w", err)
		}
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document metadata: %w", err)
	}

	doc := &domain.Document{
		Name:      metaString(metadata, processor.MetaTitle),
		Author:    metaString(metadata, processor.MetaAuthor),
		Type:      result.MIME,
		Filename:  name,
		MetaData:  string(meta),
		Relevancy: relevancy,
		NumPages:  metaInt(metadata, processor.MetaNumPages),
		Accepted:  accepted,
		UUID:      uuid.NewString(),
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.resources.SetDocument(ctx, item.ResourceID, doc.ID); err != nil {
		return nil, err
	}

	s.log.Debug("Stored document",
		"url", item.Resource.URL,
		"filename", name,
		"accepted", accepted,
		"relevancy", relevancy)

	return doc, nil
}

// filename derives the on-disk name: the fetched filename sanitized to
// alphanumerics and dots, suffixed with the media type's canonical
// extension unless it already carries it, and prefixed with the resource
// id so concurrent workers never collide.
func (s *Store) filename(item *domain.PendingItem, result fetcher.Result) string {
	name := sanitize(result.Filename)
	if name == "" {
		name = "document"
	}

	if exts, err := mime.ExtensionsByType(result.MIME); err == nil && len(exts) > 0 {
		if !strings.HasSuffix(name, exts[0]) {
			name += exts[0]
		}
	}

	return fmt.Sprintf("%d_%s", item.ResourceID, name)
}

// sanitize keeps letters, digits and dots; everything else becomes an
// underscore.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}

func metaString(metadata map[string]any, key string) *string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return &v
	}

	return nil
}

func metaInt(metadata map[string]any, key string) int {
	if v, ok := metadata[key].(int); ok {
		return v
	}

	return 0
}
