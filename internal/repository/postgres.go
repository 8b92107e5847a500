package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/config"
)

// PostgresStore persists communication records in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

var _ communication.Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS officers (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	rank          TEXT NOT NULL,
	jurisdiction  TEXT NOT NULL,
	badge_number  TEXT NOT NULL UNIQUE,
	phone         TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	id           UUID PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	assigned_to  UUID NOT NULL REFERENCES officers(id),
	assigned_by  UUID NOT NULL REFERENCES officers(id),
	jurisdiction TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL,
	status       TEXT NOT NULL,
	due_date     TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	removed      BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS messages (
	id         UUID PRIMARY KEY,
	sender_id  UUID NOT NULL REFERENCES officers(id),
	subject    TEXT NOT NULL,
	content    TEXT NOT NULL,
	type       TEXT NOT NULL,
	priority   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	removed    BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS message_recipients (
	message_id UUID NOT NULL REFERENCES messages(id),
	officer_id UUID NOT NULL REFERENCES officers(id),
	read_at    TIMESTAMPTZ,
	PRIMARY KEY (message_id, officer_id)
);
CREATE TABLE IF NOT EXISTS attachments (
	id           UUID PRIMARY KEY,
	uploaded_by  UUID NOT NULL REFERENCES officers(id),
	jurisdiction TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL,
	size         BIGINT NOT NULL,
	mime_type    TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	storage_key  TEXT NOT NULL,
	task_id      UUID REFERENCES tasks(id),
	message_id   UUID REFERENCES messages(id),
	created_at   TIMESTAMPTZ NOT NULL,
	removed      BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS tasks_assigned_to_idx ON tasks (assigned_to) WHERE NOT removed;
CREATE INDEX IF NOT EXISTS tasks_assigned_by_idx ON tasks (assigned_by) WHERE NOT removed;
CREATE INDEX IF NOT EXISTS message_recipients_officer_idx ON message_recipients (officer_id);
`

// NewPostgresStore opens the database and verifies the connection
func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates the schema if it does not exist
func (r *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *PostgresStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// PoolStats returns the current database connection pool statistics
func (r *PostgresStore) PoolStats() sql.DBStats {
	return r.db.Stats()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func execOne(ctx context.Context, db *sql.DB, kind string, id fmt.Stringer, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, communication.ErrNotFound)
	}
	return nil
}
