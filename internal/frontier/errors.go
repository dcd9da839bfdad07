package frontier

import "errors"

// Admission and queue errors. Callers should check with errors.Is().
var (
	// ErrMalformedURL is returned when a URL fails scheme or authority
	// validation. Only http and https URLs with a host are admissible.
	ErrMalformedURL = errors.New("url not valid: use http or https with at least the host component")

	// ErrNotInBaseDomain is returned when a discovered URL lives outside
	// the referrer's authority and cross-domain crawling is disabled.
	ErrNotInBaseDomain = errors.New("url not in the base domain")

	// ErrQueueEmpty is returned by Next when the cached queue is empty.
	// Workers treat this as "sleep, then re-check the coordinator".
	ErrQueueEmpty = errors.New("pending queue is empty")
)
