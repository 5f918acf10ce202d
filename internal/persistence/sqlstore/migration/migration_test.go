package migration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "migration.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestManager(db *sqlx.DB, fsys fstest.MapFS) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(NewScanner(fsys, "sql"), NewExecutor(db), logger)
}

func testFiles() fstest.MapFS {
	return fstest.MapFS{
		"sql/001_create_rooms.sql": {Data: []byte(`
-- rooms catalogue
CREATE TABLE rooms (id TEXT PRIMARY KEY);
CREATE INDEX idx_rooms_id ON rooms (id);
`)},
		"sql/002_add_room_name.sql": {Data: []byte(`ALTER TABLE rooms ADD COLUMN name TEXT NOT NULL DEFAULT '';`)},
		"sql/README.md":             {Data: []byte("ignored")},
	}
}

func TestManager_Run(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	manager := newTestManager(db, testFiles())

	applied, err := manager.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 migrations applied, got %d", applied)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO rooms (id, name) VALUES ('r1', 'Lab')`); err != nil {
		t.Fatalf("expected migrated schema to accept inserts: %v", err)
	}

	applied, err = manager.Run(ctx)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected no pending migrations on second run, got %d", applied)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != "002" || status.PendingCount() != 0 || len(status.Applied) != 2 {
		t.Fatalf("unexpected status: %#v", status)
	}
	if status.Applied[0].Checksum == "" {
		t.Fatalf("expected checksum to be recorded")
	}
}

func TestManager_Status_DetectsEditedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	files := testFiles()

	if _, err := newTestManager(db, files).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	files["sql/002_add_room_name.sql"] = &fstest.MapFile{Data: []byte(`ALTER TABLE rooms ADD COLUMN label TEXT;`)}
	_, err := newTestManager(db, files).Status(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestManager_Run_StopsOnFailure(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"sql/001_ok.sql":     {Data: []byte(`CREATE TABLE a (id TEXT);`)},
		"sql/002_broken.sql": {Data: []byte(`CREATE TABLE a (id TEXT);`)},
	}

	applied, err := newTestManager(db, files).Run(ctx)
	if err == nil {
		t.Fatalf("expected failure for duplicate table")
	}
	if applied != 1 {
		t.Fatalf("expected first migration to stay applied, got %d", applied)
	}

	var migErr *Error
	if !errors.As(err, &migErr) || migErr.Version != "002" {
		t.Fatalf("expected migration error for version 002, got %v", err)
	}
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("orders by numeric version", func(t *testing.T) {
		t.Parallel()
		files := fstest.MapFS{
			"sql/10_later.sql":  {Data: []byte("SELECT 1;")},
			"sql/9_earlier.sql": {Data: []byte("SELECT 1;")},
		}
		migrations, err := NewScanner(files, "sql").Scan()
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(migrations) != 2 || migrations[0].Version != "9" || migrations[1].Version != "10" {
			t.Fatalf("unexpected order: %#v", migrations)
		}
		if migrations[0].Description != "earlier" {
			t.Fatalf("unexpected description %q", migrations[0].Description)
		}
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		t.Parallel()
		files := fstest.MapFS{"sql/create.sql": {Data: []byte("SELECT 1;")}}
		if _, err := NewScanner(files, "sql").Scan(); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("expected ErrInvalidFileName, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		t.Parallel()
		files := fstest.MapFS{
			"sql/001_a.sql": {Data: []byte("SELECT 1;")},
			"sql/001_b.sql": {Data: []byte("SELECT 2;")},
		}
		if _, err := NewScanner(files, "sql").Scan(); !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})
}

func TestExecutor_RejectsEmptyMigration(t *testing.T) {
	db := openTestDB(t)
	executor := NewExecutor(db)
	if err := executor.InitializeVersionTable(context.Background()); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}

	_, err := executor.Execute(context.Background(), Migration{Version: "001", SQL: "-- nothing here\n"})
	if !errors.Is(err, ErrEmptyMigration) {
		t.Fatalf("expected ErrEmptyMigration, got %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	statements := splitStatements("-- header\nCREATE TABLE a (id TEXT);\n\n  -- note\nCREATE TABLE b (id TEXT);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %#v", statements)
	}
	if statements[0] != "CREATE TABLE a (id TEXT)" {
		t.Fatalf("unexpected first statement %q", statements[0])
	}
}
