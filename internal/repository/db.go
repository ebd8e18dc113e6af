// Package repository owns all mutable pipeline state: processing entries,
// the accepted-fingerprint set, and accepted invoice records. Everything
// lives in one sqlite store whose lifetime is the user session (":memory:")
// or a file when persistence across restarts is wanted.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

type Config struct {
	DSN string // sqlite file path or ":memory:"
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	source_path   TEXT NOT NULL,
	file_size     INTEGER NOT NULL DEFAULT 0,
	fingerprint   TEXT NOT NULL,
	status        TEXT NOT NULL,
	keep_anyway   INTEGER NOT NULL DEFAULT 0,
	confidence    INTEGER NOT NULL DEFAULT 0,
	used_fallback INTEGER NOT NULL DEFAULT 0,
	is_valid      INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	submitted_at  TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_fingerprint ON entries (fingerprint, status);

CREATE TABLE IF NOT EXISTS invoices (
	entry_id         TEXT PRIMARY KEY REFERENCES entries (id) ON DELETE CASCADE,
	invoice_date     TEXT NOT NULL,
	gstin            TEXT NOT NULL,
	bill_no          TEXT NOT NULL,
	tx_type          TEXT NOT NULL,
	vendor_name      TEXT NOT NULL DEFAULT '',
	hsn              TEXT NOT NULL,
	qty              INTEGER NOT NULL,
	taxable_value    TEXT NOT NULL,
	igst18           TEXT NOT NULL,
	igst28           TEXT NOT NULL,
	cgst_rate        TEXT NOT NULL,
	sgst_rate        TEXT NOT NULL,
	cgst             TEXT NOT NULL,
	sgst             TEXT NOT NULL,
	total_bill_value TEXT NOT NULL,
	is_valid         INTEGER NOT NULL,
	created_at       TEXT NOT NULL
);
`

// Open connects to the sqlite store and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening store", "dsn", cfg.DSN)

	// PRAGMA foreign_keys is connection-scoped; passing it through the DSN
	// makes the driver set it on every pooled connection, not just one.
	dsn := cfg.DSN
	if strings.Contains(dsn, "?") {
		dsn += "&_pragma=foreign_keys(1)"
	} else {
		dsn += "?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory sqlite database exists per connection; a second pooled
	// connection would see an empty schema.
	if strings.Contains(cfg.DSN, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("store ready")
	return db, nil
}

// Close closes the store gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close store", "error", err)
	}
}

// HealthCheck pings the store to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
