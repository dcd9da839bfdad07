// Package domain defines the persisted entities shared across the crawler:
// resources, links, pending queue items, stored documents and worker status.
package domain

import "time"

// Resource is a URL the crawler has seen. A resource is created at most
// once per canonical URL; the URL is immutable after creation.
type Resource struct {
	ID         int64      `db:"id"`
	Title      *string    `db:"title"`
	URL        string     `db:"url"`
	Timestamp  time.Time  `db:"timestamp"`
	Fetched    *time.Time `db:"fetched"`
	LastCode   *int       `db:"last_code"`
	DocumentID *int64     `db:"document_id"`
}

// Link is a directed edge between two resources, carrying the anchor text
// observed at discovery time. Repeated (referrer, target) pairs are kept.
type Link struct {
	ID         int64   `db:"id"`
	Text       *string `db:"text"`
	ReferrerID int64   `db:"referrer_id"`
	TargetID   int64   `db:"target_id"`
}
