// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"rollwise/attendance/internal/db/sqlite"
	"rollwise/attendance/internal/registrar"
)

var dbSeq atomic.Int64

var (
	Owner    = registrar.Owner{UserID: "owner-1", Email: "owner@example.com"}
	Stranger = registrar.Owner{UserID: "owner-2", Email: "stranger@example.com"}
)

// SetupStore opens a fresh in-memory SQLite store closed at test cleanup.
func SetupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	name = name + "_" + strconv.FormatInt(dbSeq.Add(1), 10)
	store, err := sqlite.OpenMemory(context.Background(), name)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SetupRegistrar returns a registrar over a fresh in-memory store.
func SetupRegistrar(t *testing.T) (*registrar.Registrar, *sqlite.Store) {
	t.Helper()
	store := SetupStore(t)
	return registrar.New(store, zap.NewNop()), store
}

// SeedEvent creates an event for owner with the given flags.
func SeedEvent(t *testing.T, reg *registrar.Registrar, owner registrar.Owner, name string, restricted, public bool) registrar.Event {
	t.Helper()
	ctx := context.Background()
	ev, err := reg.CreateEvent(ctx, owner, name)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if restricted {
		if ev.Restricted, err = reg.ToggleRestricted(ctx, owner, ev.ID); err != nil {
			t.Fatalf("toggle restricted: %v", err)
		}
	}
	if public {
		if ev.Public, err = reg.TogglePublic(ctx, owner, ev.ID); err != nil {
			t.Fatalf("toggle public: %v", err)
		}
	}
	return ev
}
