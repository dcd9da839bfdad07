package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// crawlSchema creates the crawl state tables.
var crawlSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT,
		author      TEXT,
		type        VARCHAR(60) NOT NULL,
		filename    VARCHAR(255) NOT NULL,
		meta_data   TEXT NOT NULL DEFAULT '{}',
		relevancy   REAL NOT NULL DEFAULT 0,
		num_pages   INTEGER NOT NULL DEFAULT 0,
		accepted    BOOLEAN NOT NULL DEFAULT 0,
		timestamp   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		uuid        VARCHAR(36) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS resources (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       VARCHAR(255),
		url         VARCHAR(255) NOT NULL UNIQUE,
		timestamp   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		fetched     TIMESTAMP,
		last_code   INTEGER,
		document_id INTEGER REFERENCES documents(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_url ON resources(url)`,
	`CREATE TABLE IF NOT EXISTS links (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		text        TEXT,
		referrer_id INTEGER NOT NULL REFERENCES resources(id),
		target_id   INTEGER NOT NULL REFERENCES resources(id)
	)`,
	`CREATE TABLE IF NOT EXISTS pending (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		priority    INTEGER,
		resource_id INTEGER NOT NULL UNIQUE REFERENCES resources(id),
		depth       INTEGER NOT NULL DEFAULT 0,
		retries     INTEGER NOT NULL DEFAULT 0,
		timestamp   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// logSchema creates the operational telemetry tables.
var logSchema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		label VARCHAR(25) PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS log_entries (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		type          VARCHAR(5) NOT NULL,
		message_label VARCHAR(25) NOT NULL,
		text          VARCHAR(250),
		thread        VARCHAR(64) NOT NULL,
		timestamp     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS thread_status (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		thread       VARCHAR(64) NOT NULL UNIQUE,
		status       VARCHAR(11) NOT NULL,
		running_time INTEGER NOT NULL DEFAULT 0,
		parsed       INTEGER NOT NULL DEFAULT 0,
		added        INTEGER NOT NULL DEFAULT 0,
		downloaded   INTEGER NOT NULL DEFAULT 0,
		timestamp    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var crawlTables = []string{"pending", "links", "resources", "documents"}

var logTables = []string{"thread_status", "log_entries", "messages"}

// Migrate creates the crawl state schema. When reset is true the existing
// tables are dropped first and all crawl data is lost.
func Migrate(ctx context.Context, db *sqlx.DB, reset bool) error {
	if reset {
		if err := dropTables(ctx, db, crawlTables); err != nil {
			return err
		}
	}
	return applySchema(ctx, db, crawlSchema)
}

// MigrateLogs creates the telemetry schema. The log database is always
// reset at process start.
func MigrateLogs(ctx context.Context, db *sqlx.DB) error {
	if err := dropTables(ctx, db, logTables); err != nil {
		return err
	}
	return applySchema(ctx, db, logSchema)
}

func applySchema(ctx context.Context, db *sqlx.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func dropTables(ctx context.Context, db *sqlx.DB, tables []string) error {
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
