package registrar

import "context"

// Queries is the statement set available on one acquired connection or
// transaction. Lookups by event id return ErrEventNotFound when no row
// matches.
type Queries interface {
	InsertEvent(ctx context.Context, ev Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEventsByOwner(ctx context.Context, ownerHash string) ([]Event, error)
	DeleteEvent(ctx context.Context, id, ownerHash string) (int64, error)
	ToggleRestricted(ctx context.Context, id, ownerHash string) (bool, error)
	TogglePublic(ctx context.Context, id, ownerHash string) (bool, error)

	MarkExists(ctx context.Context, eventID, email string) (bool, error)
	// UpsertRegistration inserts an unattended mark, or refreshes name and
	// owner hash of an existing one without touching attended.
	UpsertRegistration(ctx context.Context, m Mark) (Mark, error)
	// UpsertAttendance inserts or updates a mark with attended set.
	UpsertAttendance(ctx context.Context, m Mark) (Mark, error)
	ListMarksByOwner(ctx context.Context, eventID, ownerHash string) ([]Mark, error)
	ListMarks(ctx context.Context, eventID string) ([]Mark, error)
	DeleteMark(ctx context.Context, eventID, ownerHash, email string) (int64, error)
}

// Store hands out scoped access to storage. The connection or transaction is
// released before WithConn/WithTx return, whatever fn returns.
type Store interface {
	WithConn(ctx context.Context, fn func(Queries) error) error
	WithTx(ctx context.Context, fn func(Queries) error) error
}
