package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	owner_hash TEXT NOT NULL,
	is_restricted BOOLEAN NOT NULL DEFAULT FALSE,
	is_public BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_events_owner_hash ON events(owner_hash);

CREATE TABLE IF NOT EXISTS marks (
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	attended BOOLEAN NOT NULL DEFAULT FALSE,
	owner_hash TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (event_id, email)
);

CREATE INDEX IF NOT EXISTS idx_marks_owner_event ON marks(owner_hash, event_id);
`

func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ResetData empties both tables. Used by integration tests.
func ResetData(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "TRUNCATE TABLE marks, events")
	return err
}
