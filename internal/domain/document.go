package domain

import "time"

// Document is a persisted artifact created exactly once per successfully
// fetched PDF. Immutable after creation.
type Document struct {
	ID        int64     `db:"id"`
	Name      *string   `db:"name"`
	Author    *string   `db:"author"`
	Type      string    `db:"type"`
	Filename  string    `db:"filename"`
	MetaData  string    `db:"meta_data"`
	Relevancy float64   `db:"relevancy"`
	NumPages  int       `db:"num_pages"`
	Accepted  bool      `db:"accepted"`
	Timestamp time.Time `db:"timestamp"`
	UUID      string    `db:"uuid"`
}
