package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rollwise/attendance/internal/registrar"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

var _ registrar.Queries = (*Queries)(nil)

const eventColumns = "id, name, owner_hash, is_restricted, is_public, created_at"
const markColumns = "event_id, email, name, attended, owner_hash, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (registrar.Event, error) {
	var (
		ev      registrar.Event
		created string
	)
	if err := row.Scan(&ev.ID, &ev.Name, &ev.OwnerHash, &ev.Restricted, &ev.Public, &created); err != nil {
		return registrar.Event{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return registrar.Event{}, err
	}
	ev.CreatedAt = t
	return ev, nil
}

func scanMark(row scanner) (registrar.Mark, error) {
	var (
		m       registrar.Mark
		updated string
	)
	if err := row.Scan(&m.EventID, &m.Email, &m.Name, &m.Attended, &m.OwnerHash, &updated); err != nil {
		return registrar.Mark{}, err
	}
	t, err := parseTime(updated)
	if err != nil {
		return registrar.Mark{}, err
	}
	m.UpdatedAt = t
	return m, nil
}

func (q *Queries) InsertEvent(ctx context.Context, ev registrar.Event) (registrar.Event, error) {
	row := q.db.QueryRowContext(ctx, `INSERT INTO events (id, name, owner_hash, created_at)
VALUES (?, ?, ?, ?)
RETURNING `+eventColumns, ev.ID, ev.Name, ev.OwnerHash, formatTime(ev.CreatedAt))
	created, err := scanEvent(row)
	if err != nil {
		return registrar.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return created, nil
}

func (q *Queries) GetEvent(ctx context.Context, id string) (registrar.Event, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return registrar.Event{}, registrar.ErrEventNotFound
	}
	if err != nil {
		return registrar.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

func (q *Queries) ListEventsByOwner(ctx context.Context, ownerHash string) ([]registrar.Event, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events
WHERE owner_hash = ?
ORDER BY created_at DESC, id`, ownerHash)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []registrar.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (q *Queries) DeleteEvent(ctx context.Context, id, ownerHash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND owner_hash = ?`, id, ownerHash)
	if err != nil {
		return 0, fmt.Errorf("failed to delete event: %w", err)
	}
	return res.RowsAffected()
}

func (q *Queries) ToggleRestricted(ctx context.Context, id, ownerHash string) (bool, error) {
	return q.toggle(ctx, `UPDATE events SET is_restricted = NOT is_restricted
WHERE id = ? AND owner_hash = ?
RETURNING is_restricted`, id, ownerHash)
}

func (q *Queries) TogglePublic(ctx context.Context, id, ownerHash string) (bool, error) {
	return q.toggle(ctx, `UPDATE events SET is_public = NOT is_public
WHERE id = ? AND owner_hash = ?
RETURNING is_public`, id, ownerHash)
}

func (q *Queries) toggle(ctx context.Context, stmt, id, ownerHash string) (bool, error) {
	var value bool
	err := q.db.QueryRowContext(ctx, stmt, id, ownerHash).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, registrar.ErrEventNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle flag: %w", err)
	}
	return value, nil
}

func (q *Queries) MarkExists(ctx context.Context, eventID, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM marks WHERE event_id = ? AND email = ?)`, eventID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check mark: %w", err)
	}
	return exists, nil
}

func (q *Queries) UpsertRegistration(ctx context.Context, m registrar.Mark) (registrar.Mark, error) {
	return q.upsertMark(ctx, `INSERT INTO marks (event_id, email, name, attended, owner_hash, updated_at)
VALUES (?, ?, ?, 0, ?, ?)
ON CONFLICT (event_id, email)
DO UPDATE SET name = excluded.name, owner_hash = excluded.owner_hash, updated_at = excluded.updated_at
RETURNING `+markColumns, m)
}

func (q *Queries) UpsertAttendance(ctx context.Context, m registrar.Mark) (registrar.Mark, error) {
	return q.upsertMark(ctx, `INSERT INTO marks (event_id, email, name, attended, owner_hash, updated_at)
VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT (event_id, email)
DO UPDATE SET name = excluded.name, owner_hash = excluded.owner_hash, attended = 1, updated_at = excluded.updated_at
RETURNING `+markColumns, m)
}

func (q *Queries) upsertMark(ctx context.Context, stmt string, m registrar.Mark) (registrar.Mark, error) {
	row := q.db.QueryRowContext(ctx, stmt, m.EventID, m.Email, m.Name, m.OwnerHash, formatTime(m.UpdatedAt))
	mark, err := scanMark(row)
	if err != nil {
		return registrar.Mark{}, fmt.Errorf("failed to upsert mark: %w", err)
	}
	return mark, nil
}

func (q *Queries) ListMarksByOwner(ctx context.Context, eventID, ownerHash string) ([]registrar.Mark, error) {
	return q.listMarks(ctx, `SELECT `+markColumns+` FROM marks
WHERE event_id = ? AND owner_hash = ?
ORDER BY name, email`, eventID, ownerHash)
}

func (q *Queries) ListMarks(ctx context.Context, eventID string) ([]registrar.Mark, error) {
	return q.listMarks(ctx, `SELECT `+markColumns+` FROM marks
WHERE event_id = ?
ORDER BY name, email`, eventID)
}

func (q *Queries) listMarks(ctx context.Context, stmt string, args ...any) ([]registrar.Mark, error) {
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}
	defer rows.Close()

	marks := []registrar.Mark{}
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mark: %w", err)
		}
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}
	return marks, nil
}

func (q *Queries) DeleteMark(ctx context.Context, eventID, ownerHash, email string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM marks WHERE event_id = ? AND owner_hash = ? AND email = ?`, eventID, ownerHash, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mark: %w", err)
	}
	return res.RowsAffected()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}
