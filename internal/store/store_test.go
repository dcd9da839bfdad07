package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/domain"
	"github.com/jonesrussell/pdfcrawl/internal/fetcher"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
	"github.com/jonesrussell/pdfcrawl/internal/processor"
	"github.com/jonesrussell/pdfcrawl/internal/store"
)

type fixture struct {
	store       *store.Store
	documents   *database.DocumentRepository
	resources   *database.ResourceRepository
	acceptedDir string
	rejectedDir string
	item        *domain.PendingItem
}

func newFixture(t *testing.T, withRejectedDir bool) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db, false))

	resources := database.NewResourceRepository(db)
	documents := database.NewDocumentRepository(db)

	res := &domain.Resource{URL: "http://example.com/paper"}
	require.NoError(t, resources.Create(ctx, res))

	pending := database.NewPendingRepository(db)
	item := &domain.PendingItem{ResourceID: res.ID, Resource: *res}
	require.NoError(t, pending.Create(ctx, item))

	acceptedDir := filepath.Join(t.TempDir(), "accepted")
	rejectedDir := ""
	if withRejectedDir {
		rejectedDir = filepath.Join(t.TempDir(), "rejected")
	}

	s, err := store.New(acceptedDir, rejectedDir, documents, resources, logger.NewNoOp())
	require.NoError(t, err)

	return &fixture{
		store:       s,
		documents:   documents,
		resources:   resources,
		acceptedDir: acceptedDir,
		rejectedDir: rejectedDir,
		item:        item,
	}
}

func pdfResult(filename string) fetcher.Result {
	code := 200
	return fetcher.Result{
		Code:     &code,
		MIME:     "application/pdf",
		Filename: filename,
		Body:     []byte("%PDF-1.4 fake"),
	}
}

func TestSaveAcceptedWritesFileAndRow(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t, false)

	metadata := map[string]any{
		processor.MetaTitle:    "Deep Learning Survey",
		processor.MetaNumPages: 12,
	}

	doc, err := fix.store.Save(ctx, fix.item, pdfResult("survey.pdf"), 23.5, metadata, true)
	require.NoError(t, err)

	require.NotNil(t, doc.Name)
	assert.Equal(t, "Deep Learning Survey", *doc.Name)
	assert.Equal(t, 12, doc.NumPages)
	assert.True(t, doc.Accepted)
	assert.NotEmpty(t, doc.UUID)
	assert.Contains(t, doc.MetaData, "Deep Learning Survey")

	content, err := os.ReadFile(filepath.Join(fix.acceptedDir, doc.Filename))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), content)

	// The resource now points at the stored document.
	res, err := fix.resources.GetByID(ctx, fix.item.ResourceID)
	require.NoError(t, err)
	require.NotNil(t, res.DocumentID)
	assert.Equal(t, doc.ID, *res.DocumentID)
}

func TestSaveRejectedWithoutFolderSkipsFile(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t, false)

	doc, err := fix.store.Save(ctx, fix.item, pdfResult("boring.pdf"), 0, map[string]any{}, false)
	require.NoError(t, err)
	assert.False(t, doc.Accepted)

	// Row exists, file does not.
	got, err := fix.documents.GetByUUID(ctx, doc.UUID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	entries, err := os.ReadDir(fix.acceptedDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectedWithFolderWritesFile(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t, true)

	doc, err := fix.store.Save(ctx, fix.item, pdfResult("boring.pdf"), 0, map[string]any{}, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(fix.rejectedDir, doc.Filename))
	require.NoError(t, err)
}

func TestSaveFilenameSanitizedAndPrefixed(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t, false)

	tests := []struct {
		name     string
		fetched  string
		mime     string
		wantName string
	}{
		{
			name:     "specials become underscores",
			fetched:  "my paper (v2).pdf",
			mime:     "application/pdf",
			wantName: "my_paper__v2_.pdf",
		},
		{
			name:     "extension added from media type",
			fetched:  "download",
			mime:     "application/pdf",
			wantName: "download.pdf",
		},
		{
			name:     "empty name falls back",
			fetched:  "",
			mime:     "application/pdf",
			wantName: "document.pdf",
		},
		{
			name:     "foreign extension still gets canonical one",
			fetched:  "report.v1",
			mime:     "application/pdf",
			wantName: "report.v1.pdf",
		},
		{
			name:     "canonical extension not doubled",
			fetched:  "paper.pdf",
			mime:     "application/pdf",
			wantName: "paper.pdf",
		},
		{
			name:     "edge underscores kept",
			fetched:  "(draft).pdf",
			mime:     "application/pdf",
			wantName: "_draft_.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pdfResult(tt.fetched)
			result.MIME = tt.mime

			doc, err := fix.store.Save(ctx, fix.item, result, 1, map[string]any{}, true)
			require.NoError(t, err)

			want := strconv.FormatInt(fix.item.ResourceID, 10) + "_" + tt.wantName
			assert.Equal(t, want, doc.Filename)
		})
	}
}
