package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollwise/attendance/internal/registrar"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMemory(context.Background(), "sqlite_"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedEvent(t *testing.T, q registrar.Queries) registrar.Event {
	t.Helper()
	ev, err := q.InsertEvent(context.Background(), registrar.Event{
		ID:        uuid.NewString(),
		Name:      "Seed",
		OwnerHash: "owner-hash",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return ev
}

func TestUpsertRegistrationKeepsAttended(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.WithConn(ctx, func(q registrar.Queries) error {
		ev := seedEvent(t, q)
		mark := registrar.Mark{EventID: ev.ID, Email: "ada@example.com", Name: "Ada", OwnerHash: ev.OwnerHash, UpdatedAt: time.Now()}

		attended, err := q.UpsertAttendance(ctx, mark)
		require.NoError(t, err)
		assert.True(t, attended.Attended)

		mark.Name = "Ada L."
		registered, err := q.UpsertRegistration(ctx, mark)
		require.NoError(t, err)
		assert.True(t, registered.Attended)
		assert.Equal(t, "Ada L.", registered.Name)

		exists, err := q.MarkExists(ctx, ev.ID, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = q.MarkExists(ctx, ev.ID, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)
}

func TestToggleReturnsNewValue(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.WithConn(ctx, func(q registrar.Queries) error {
		ev := seedEvent(t, q)

		value, err := q.ToggleRestricted(ctx, ev.ID, ev.OwnerHash)
		require.NoError(t, err)
		assert.True(t, value)
		value, err = q.ToggleRestricted(ctx, ev.ID, ev.OwnerHash)
		require.NoError(t, err)
		assert.False(t, value)

		_, err = q.TogglePublic(ctx, ev.ID, "someone-else")
		assert.ErrorIs(t, err, registrar.ErrEventNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestTimestampsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	err := store.WithConn(ctx, func(q registrar.Queries) error {
		ev, err := q.InsertEvent(ctx, registrar.Event{ID: uuid.NewString(), Name: "T", OwnerHash: "h", CreatedAt: created})
		require.NoError(t, err)
		assert.True(t, created.Equal(ev.CreatedAt))
		return nil
	})
	require.NoError(t, err)
}

func TestWithTxRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var eventID string
	err := store.WithTx(ctx, func(q registrar.Queries) error {
		eventID = seedEvent(t, q).ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.WithConn(ctx, func(q registrar.Queries) error {
		_, err := q.GetEvent(ctx, eventID)
		return err
	})
	assert.ErrorIs(t, err, registrar.ErrEventNotFound)
}

func TestMarksRequireEvent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.WithConn(ctx, func(q registrar.Queries) error {
		_, err := q.UpsertAttendance(ctx, registrar.Mark{EventID: uuid.NewString(), Email: "a@example.com", Name: "A", OwnerHash: "h", UpdatedAt: time.Now()})
		return err
	})
	assert.Error(t, err, "foreign keys must be enforced")
}
