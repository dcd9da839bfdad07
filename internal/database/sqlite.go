// Package database provides database connectivity and operations.
// The crawler keeps its state in a single embedded SQLite file; a second
// file holds operational telemetry.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const (
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second

	// driverName is the database/sql driver registered by modernc.org/sqlite.
	driverName = "sqlite"
)

// Open opens (creating if necessary) the SQLite database at path.
// The connection pool is limited to a single connection: the engine is a
// single-writer embedded file and the frontier serializes writes anyway.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database %q: %w", path, pingErr)
	}

	return db, nil
}

// OpenMemory opens a private in-memory database. Used by tests.
func OpenMemory() (*sqlx.DB, error) {
	db, err := sqlx.Connect(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	db.SetMaxOpenConns(1)

	return db, nil
}
