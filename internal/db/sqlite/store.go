// Package sqlite is the embedded storage backend. It shares the statement
// contract of the Postgres store and is what the test suites run against.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"

	"rollwise/attendance/internal/registrar"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	owner_hash TEXT NOT NULL,
	is_restricted INTEGER NOT NULL DEFAULT 0,
	is_public INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_owner_hash ON events(owner_hash);

CREATE TABLE IF NOT EXISTS marks (
	event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	attended INTEGER NOT NULL DEFAULT 0,
	owner_hash TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (event_id, email)
);

CREATE INDEX IF NOT EXISTS idx_marks_owner_event ON marks(owner_hash, event_id);
`

type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	return open(ctx, "file:"+path+"?"+pragmas())
}

// OpenMemory opens a private in-memory database identified by name.
func OpenMemory(ctx context.Context, name string) (*Store, error) {
	return open(ctx, "file:"+url.PathEscape(name)+"?mode=memory&cache=shared&"+pragmas())
}

func pragmas() string {
	return "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// single writer; keeps in-memory databases alive between calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) WithConn(ctx context.Context, fn func(registrar.Queries) error) error {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(New(conn))
}

func (s *Store) WithTx(ctx context.Context, fn func(registrar.Queries) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
