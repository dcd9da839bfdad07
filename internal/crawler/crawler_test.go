package crawler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pdfcrawl/internal/config"
	"github.com/jonesrussell/pdfcrawl/internal/crawler"
	"github.com/jonesrussell/pdfcrawl/internal/database"
	"github.com/jonesrussell/pdfcrawl/internal/frontier"
	"github.com/jonesrussell/pdfcrawl/internal/logger"
)

func TestRunWithoutSeedResumesPersistedQueue(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>leaf</body></html>`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "crawl.db")

	// A previous run left an unprocessed item in the pending queue.
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, false))

	front, err := frontier.New(ctx, db, frontier.Options{Retries: 1}, logger.NewNoOp())
	require.NoError(t, err)
	_, _, err = front.Add(ctx, srv.URL+"/", nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := &config.Config{
		Threads:        1,
		Retries:        1,
		Parser:         config.DefaultParser,
		Processor:      config.DefaultProcessor,
		DownloadFolder: filepath.Join(dir, "files"),
		DBPath:         dbPath,
		LogDBPath:      filepath.Join(dir, "log.db"),
		UserAgent:      "test-agent",
		Timeout:        5 * time.Second,
	}

	// No seed: the persisted queue is picked up and drained.
	require.NoError(t, crawler.New(cfg, logger.NewNoOp()).Run(ctx))

	db, err = database.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	n, err := database.NewPendingRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	res, err := database.NewResourceRepository(db).GetByURL(ctx, srv.URL+"/")
	require.NoError(t, err)
	require.NotNil(t, res.LastCode)
	assert.Equal(t, http.StatusOK, *res.LastCode)
}
