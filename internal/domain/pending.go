package domain

import "time"

// PendingItem is a work ticket referencing exactly one resource.
// At most one pending item exists per resource at any moment.
// Priority is a nullable hint: higher pops first, nil sorts after all
// non-nil priorities.
type PendingItem struct {
	ID         int64     `db:"id"`
	Priority   *int      `db:"priority"`
	ResourceID int64     `db:"resource_id"`
	Depth      int       `db:"depth"`
	Retries    int       `db:"retries"`
	Timestamp  time.Time `db:"timestamp"`

	// Resource is the joined resource row, populated on load.
	Resource Resource `db:"resource"`
}
