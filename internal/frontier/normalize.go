// Package frontier owns the persistent priority queue of URLs yet to
// fetch, the URL dedup set, and retry bookkeeping. URLs are normalized
// before insertion so that the same URL expressed differently maps to the
// same resource.
package frontier

import (
	"fmt"
	"net/url"
	"strings"
)

// sessionMarker is the path segment some servlet containers append to
// URLs. Everything from the marker on is dropped during normalization.
const sessionMarker = ";jsessionid"

// Normalize applies deterministic transformations to a raw URL:
// the fragment is stripped, relative references are resolved against
// base (when non-nil), any ";jsessionid..." suffix is removed, and the
// host is lowercased. The result is validated: scheme must be http or
// https and the authority must be non-empty. Normalize is idempotent.
func Normalize(rawURL string, base *url.URL) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, ErrMalformedURL)
	}

	if base != nil {
		ref = base.ResolveReference(ref)
	}
	ref.Fragment = ""

	s := ref.String()
	if i := strings.Index(s, sessionMarker); i != -1 {
		s = s[:i]
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", s, ErrMalformedURL)
	}
	if err := validate(parsed); err != nil {
		return "", err
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	return parsed.String(), nil
}

// Authority returns the authority (host[:port]) component of a URL,
// lowercased. Used for the base-domain gate.
func Authority(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, ErrMalformedURL)
	}

	return strings.ToLower(parsed.Host), nil
}

// validate checks that a parsed URL has an admissible scheme and a host.
func validate(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("scheme %q: %w", u.Scheme, ErrMalformedURL)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host: %w", ErrMalformedURL)
	}

	return nil
}
