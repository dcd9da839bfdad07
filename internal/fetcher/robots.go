package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
)

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024 // 512 KB

// RobotsCache maps an origin (scheme + authority) to its parsed robots.txt
// policy. Each worker owns one cache: policies are tiny and per-worker
// caches avoid contention on the hot path.
//
// A fetch failure or non-2xx response installs a permit-all policy so the
// origin is not re-queried.
type RobotsCache struct {
	client    *http.Client
	userAgent string
	cache     map[string]*robotstxt.RobotsData // keyed by origin
}

// NewRobotsCache creates an empty robots cache.
func NewRobotsCache(client *http.Client, userAgent string) *RobotsCache {
	return &RobotsCache{
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched under its origin's robots
// policy. Unparseable URLs are allowed; the fetch will fail on its own.
func (r *RobotsCache) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}

	origin := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)

	data, ok := r.cache[origin]
	if !ok {
		data = r.fetch(ctx, origin)
		r.cache[origin] = data
	}

	return data.TestAgent(parsed.Path, r.userAgent)
}

// fetch retrieves and parses {origin}/robots.txt. Any failure yields the
// permit-all policy, which stays installed for the origin.
func (r *RobotsCache) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, origin+robotsTxtPath, http.NoBody)
	if reqErr != nil {
		return permitAll()
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, doErr := r.client.Do(req)
	if doErr != nil {
		return permitAll()
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return permitAll()
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if readErr != nil {
		return permitAll()
	}

	data, parseErr := robotstxt.FromBytes(body)
	if parseErr != nil {
		return permitAll()
	}

	return data
}

// permitAll returns the empty policy: no rules, everything allowed.
func permitAll() *robotstxt.RobotsData {
	data, _ := robotstxt.FromString("")
	return data
}
