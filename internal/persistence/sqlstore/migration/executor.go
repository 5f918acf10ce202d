package migration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const createVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		execution_time_ms INTEGER NOT NULL DEFAULT 0
	)
`

// Executor runs migrations against a database and tracks applied versions.
type Executor struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewExecutor creates an Executor for db.
func NewExecutor(db *sqlx.DB) *Executor {
	return &Executor{db: db, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, createVersionTable); err != nil {
		return &Error{Operation: "create schema_migrations table", Err: err}
	}
	return nil
}

// Execute runs the statements of m and records the version in one transaction.
func (e *Executor) Execute(ctx context.Context, m Migration) (time.Duration, error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return 0, newError(m, "parse SQL", ErrEmptyMigration)
	}

	started := e.now()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, newError(m, "begin transaction", err)
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return 0, newError(m, fmt.Sprintf("execute statement %d", i+1), err)
		}
	}

	elapsed := e.now().Sub(started)
	insert := e.db.Rebind(`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, m.Version, e.now().UTC().Format(time.RFC3339), m.Checksum, elapsed.Milliseconds()); err != nil {
		_ = tx.Rollback()
		return 0, newError(m, "record migration", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, newError(m, "commit transaction", err)
	}

	return elapsed, nil
}

// AppliedMigrations returns the recorded migrations ordered by version.
func (e *Executor) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	var rows []struct {
		Version         string `db:"version"`
		AppliedAt       string `db:"applied_at"`
		Checksum        string `db:"checksum"`
		ExecutionTimeMS int64  `db:"execution_time_ms"`
	}
	query := `SELECT version, applied_at, checksum, execution_time_ms FROM schema_migrations`
	if err := e.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, &Error{Operation: "list applied migrations", Err: err}
	}

	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		appliedAt, err := time.Parse(time.RFC3339, row.AppliedAt)
		if err != nil {
			return nil, &Error{Version: row.Version, Operation: "parse applied_at", Err: err}
		}
		applied = append(applied, AppliedMigration{
			Version:       row.Version,
			AppliedAt:     appliedAt,
			ExecutionTime: time.Duration(row.ExecutionTimeMS) * time.Millisecond,
			Checksum:      row.Checksum,
		})
	}

	sortApplied(applied)
	return applied, nil
}

// splitStatements splits SQL on semicolons and drops comment-only lines.
func splitStatements(sql string) []string {
	var statements []string
	for _, chunk := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
