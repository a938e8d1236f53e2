package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"rollwise/attendance/internal/registrar"
)

// DBTX is satisfied by *pgxpool.Conn, *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

var _ registrar.Queries = (*Queries)(nil)

type eventRow struct {
	ID           pgtype.UUID `db:"id"`
	Name         string      `db:"name"`
	OwnerHash    string      `db:"owner_hash"`
	IsRestricted bool        `db:"is_restricted"`
	IsPublic     bool        `db:"is_public"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (r eventRow) event() registrar.Event {
	return registrar.Event{
		ID:         uuidString(r.ID),
		Name:       r.Name,
		OwnerHash:  r.OwnerHash,
		Restricted: r.IsRestricted,
		Public:     r.IsPublic,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type markRow struct {
	EventID   pgtype.UUID `db:"event_id"`
	Email     string      `db:"email"`
	Name      string      `db:"name"`
	Attended  bool        `db:"attended"`
	OwnerHash string      `db:"owner_hash"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r markRow) mark() registrar.Mark {
	return registrar.Mark{
		EventID:   uuidString(r.EventID),
		Email:     r.Email,
		Name:      r.Name,
		Attended:  r.Attended,
		OwnerHash: r.OwnerHash,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

const eventColumns = "id, name, owner_hash, is_restricted, is_public, created_at"
const markColumns = "event_id, email, name, attended, owner_hash, updated_at"

const insertEvent = `INSERT INTO events (id, name, owner_hash, created_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + eventColumns

func (q *Queries) InsertEvent(ctx context.Context, ev registrar.Event) (registrar.Event, error) {
	id, err := parseUUID(ev.ID)
	if err != nil {
		return registrar.Event{}, fmt.Errorf("invalid event id: %w", err)
	}
	rows, err := q.db.Query(ctx, insertEvent, id, ev.Name, ev.OwnerHash, pgTime(ev.CreatedAt))
	if err != nil {
		return registrar.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[eventRow])
	if err != nil {
		return registrar.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return row.event(), nil
}

const getEvent = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

func (q *Queries) GetEvent(ctx context.Context, id string) (registrar.Event, error) {
	pgID, err := parseUUID(id)
	if err != nil {
		return registrar.Event{}, registrar.ErrEventNotFound
	}
	rows, err := q.db.Query(ctx, getEvent, pgID)
	if err != nil {
		return registrar.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[eventRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return registrar.Event{}, registrar.ErrEventNotFound
	}
	if err != nil {
		return registrar.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	return row.event(), nil
}

const listEventsByOwner = `SELECT ` + eventColumns + ` FROM events
WHERE owner_hash = $1
ORDER BY created_at DESC, id`

func (q *Queries) ListEventsByOwner(ctx context.Context, ownerHash string) ([]registrar.Event, error) {
	rows, err := q.db.Query(ctx, listEventsByOwner, ownerHash)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[eventRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := make([]registrar.Event, 0, len(collected))
	for _, row := range collected {
		events = append(events, row.event())
	}
	return events, nil
}

func (q *Queries) DeleteEvent(ctx context.Context, id, ownerHash string) (int64, error) {
	pgID, err := parseUUID(id)
	if err != nil {
		return 0, nil
	}
	tag, err := q.db.Exec(ctx, `DELETE FROM events WHERE id = $1 AND owner_hash = $2`, pgID, ownerHash)
	if err != nil {
		return 0, fmt.Errorf("failed to delete event: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ToggleRestricted(ctx context.Context, id, ownerHash string) (bool, error) {
	return q.toggle(ctx, `UPDATE events SET is_restricted = NOT is_restricted
WHERE id = $1 AND owner_hash = $2
RETURNING is_restricted`, id, ownerHash)
}

func (q *Queries) TogglePublic(ctx context.Context, id, ownerHash string) (bool, error) {
	return q.toggle(ctx, `UPDATE events SET is_public = NOT is_public
WHERE id = $1 AND owner_hash = $2
RETURNING is_public`, id, ownerHash)
}

func (q *Queries) toggle(ctx context.Context, stmt, id, ownerHash string) (bool, error) {
	pgID, err := parseUUID(id)
	if err != nil {
		return false, registrar.ErrEventNotFound
	}
	var value bool
	err = q.db.QueryRow(ctx, stmt, pgID, ownerHash).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, registrar.ErrEventNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle flag: %w", err)
	}
	return value, nil
}

func (q *Queries) MarkExists(ctx context.Context, eventID, email string) (bool, error) {
	pgID, err := parseUUID(eventID)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM marks WHERE event_id = $1 AND email = $2)`, pgID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check mark: %w", err)
	}
	return exists, nil
}

const upsertRegistration = `INSERT INTO marks (event_id, email, name, attended, owner_hash, updated_at)
VALUES ($1, $2, $3, FALSE, $4, $5)
ON CONFLICT (event_id, email)
DO UPDATE SET name = EXCLUDED.name, owner_hash = EXCLUDED.owner_hash, updated_at = EXCLUDED.updated_at
RETURNING ` + markColumns

const upsertAttendance = `INSERT INTO marks (event_id, email, name, attended, owner_hash, updated_at)
VALUES ($1, $2, $3, TRUE, $4, $5)
ON CONFLICT (event_id, email)
DO UPDATE SET name = EXCLUDED.name, owner_hash = EXCLUDED.owner_hash, attended = TRUE, updated_at = EXCLUDED.updated_at
RETURNING ` + markColumns

func (q *Queries) UpsertRegistration(ctx context.Context, m registrar.Mark) (registrar.Mark, error) {
	return q.upsertMark(ctx, upsertRegistration, m)
}

func (q *Queries) UpsertAttendance(ctx context.Context, m registrar.Mark) (registrar.Mark, error) {
	return q.upsertMark(ctx, upsertAttendance, m)
}

func (q *Queries) upsertMark(ctx context.Context, stmt string, m registrar.Mark) (registrar.Mark, error) {
	pgID, err := parseUUID(m.EventID)
	if err != nil {
		return registrar.Mark{}, registrar.ErrEventNotFound
	}
	rows, err := q.db.Query(ctx, stmt, pgID, m.Email, m.Name, m.OwnerHash, pgTime(m.UpdatedAt))
	if err != nil {
		return registrar.Mark{}, fmt.Errorf("failed to upsert mark: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[markRow])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return registrar.Mark{}, registrar.ErrEventNotFound
		}
		return registrar.Mark{}, fmt.Errorf("failed to upsert mark: %w", err)
	}
	return row.mark(), nil
}

func (q *Queries) ListMarksByOwner(ctx context.Context, eventID, ownerHash string) ([]registrar.Mark, error) {
	return q.listMarks(ctx, `SELECT `+markColumns+` FROM marks
WHERE event_id = $1 AND owner_hash = $2
ORDER BY name, email`, eventID, ownerHash)
}

func (q *Queries) ListMarks(ctx context.Context, eventID string) ([]registrar.Mark, error) {
	return q.listMarks(ctx, `SELECT `+markColumns+` FROM marks
WHERE event_id = $1
ORDER BY name, email`, eventID)
}

func (q *Queries) listMarks(ctx context.Context, stmt, eventID string, args ...any) ([]registrar.Mark, error) {
	pgID, err := parseUUID(eventID)
	if err != nil {
		return []registrar.Mark{}, nil
	}
	rows, err := q.db.Query(ctx, stmt, append([]any{pgID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[markRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}
	marks := make([]registrar.Mark, 0, len(collected))
	for _, row := range collected {
		marks = append(marks, row.mark())
	}
	return marks, nil
}

func (q *Queries) DeleteMark(ctx context.Context, eventID, ownerHash, email string) (int64, error) {
	pgID, err := parseUUID(eventID)
	if err != nil {
		return 0, nil
	}
	tag, err := q.db.Exec(ctx, `DELETE FROM marks WHERE event_id = $1 AND owner_hash = $2 AND email = $3`, pgID, ownerHash, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mark: %w", err)
	}
	return tag.RowsAffected(), nil
}

func parseUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}
