package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence/memory"
	"github.com/example/classroom-scheduler/internal/persistence/sqlstore"
)

// NewSQLiteStore opens a migrated SQLite store in a temporary directory.
// Timestamps come from now when it is non-nil. The store is closed when the
// test finishes.
func NewSQLiteStore(tb testing.TB, now func() time.Time) *sqlstore.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlstore.Open(context.Background(), sqlstore.DefaultConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if _, err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	store.WithClock(now)
	return store
}

// NewMemoryStore returns an empty in-memory store stamped by now.
func NewMemoryStore(tb testing.TB, now func() time.Time) *memory.Storage {
	tb.Helper()
	store := memory.NewWithClock(now)
	tb.Cleanup(func() { _ = store.Close() })
	return store
}
