package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pdfcrawl/internal/fetcher"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := fetcher.New(srv.Client(), "test-agent")
	result := f.Fetch(context.Background(), srv.URL+"/index.html")

	require.True(t, result.OK())
	assert.Equal(t, "text/html", result.MIME)
	assert.Equal(t, "utf-8", result.Encoding)
	assert.Equal(t, "index.html", result.Filename)
	assert.Equal(t, []byte("<html></html>"), result.Body)
}

func TestFetchPrefersContentDispositionFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="report 2024.pdf"`)
		_, _ = w.Write([]byte("%PDF-"))
	}))
	defer srv.Close()

	result := fetcher.New(srv.Client(), "test-agent").Fetch(context.Background(), srv.URL+"/dl?id=42")

	require.True(t, result.OK())
	assert.Equal(t, "application/pdf", result.MIME)
	assert.Equal(t, "report 2024.pdf", result.Filename)
	assert.Empty(t, result.Encoding)
}

func TestFetchNonOKCarriesOnlyCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	result := fetcher.New(srv.Client(), "test-agent").Fetch(context.Background(), srv.URL)

	assert.False(t, result.OK())
	require.NotNil(t, result.Code)
	assert.Equal(t, http.StatusNotFound, *result.Code)
	assert.Empty(t, result.Body)
}

func TestFetchTransportFailureHasNilCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	result := fetcher.New(http.DefaultClient, "test-agent").Fetch(context.Background(), srv.URL)

	assert.Nil(t, result.Code)
	assert.False(t, result.OK())
}
