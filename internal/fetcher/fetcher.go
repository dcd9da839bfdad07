// Package fetcher provides HTTP fetching utilities for the crawler,
// including robots.txt compliance checking with per-origin caching.
package fetcher

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
)

// maxResponseBodyBytes limits the size of fetched responses.
const maxResponseBodyBytes = 50 * 1024 * 1024 // 50 MB

// Result is the outcome of a single fetch. All failures are encoded in
// the struct; Fetch never returns an error.
//
//   - Transport failure (DNS, connect, reset): Code is nil.
//   - HTTP protocol error: Code holds the real status, other fields empty.
//   - Success: Code, MIME, Filename, Body and Encoding are populated.
//     Encoding is empty when the server supplied no charset; the caller
//     guesses.
type Result struct {
	Code     *int
	MIME     string
	Filename string
	Body     []byte
	Encoding string
}

// OK reports whether the fetch produced a 200 response.
func (r Result) OK() bool {
	return r.Code != nil && *r.Code == http.StatusOK
}

// Fetcher performs one-shot HTTP GETs.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a fetcher sharing the given HTTP client.
func New(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch downloads rawURL and derives (status, mime, filename, body,
// encoding) from the response. See Result for the failure encoding.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if reqErr != nil {
		return Result{}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		// Unreachable: nil code signals the retry path.
		return Result{}
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	if code != http.StatusOK {
		return Result{Code: &code}
	}

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)
	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return Result{}
	}

	mediaType, encoding := contentType(resp.Header.Get("Content-Type"))

	return Result{
		Code:     &code,
		MIME:     mediaType,
		Filename: filename(resp.Header.Get("Content-Disposition"), rawURL),
		Body:     body,
		Encoding: encoding,
	}
}

// contentType splits a Content-Type header into media type and charset.
func contentType(header string) (mediaType, encoding string) {
	if header == "" {
		return "", ""
	}

	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", ""
	}

	return mediaType, params["charset"]
}

// filename prefers the server-supplied Content-Disposition filename and
// falls back to the last path segment of the URL.
func filename(disposition, rawURL string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return ""
	}

	return base
}
