// Package sqlstore persists schedules in a SQL database through sqlx. SQLite
// (modernc.org/sqlite) is the default; PostgreSQL is supported via lib/pq.
package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/classroom-scheduler/internal/persistence/sqlstore/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store bundles the connection pool with the schedule repository.
type Store struct {
	*ScheduleRepository
	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects to the database described by config. It does not migrate.
func Open(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Store{
		ScheduleRepository: NewScheduleRepository(pool),
		pool:               pool,
		logger:             logger.With("component", "sqlstore", "driver", config.Driver),
	}, nil
}

// Migrate applies the embedded schema migrations and returns how many ran.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.pool.DB()),
		s.logger,
	)
	applied, err := manager.Run(ctx)
	if err != nil {
		return applied, fmt.Errorf("migrate schema: %w", err)
	}
	return applied, nil
}

// MigrationStatus reports applied and pending schema versions.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.pool.DB()),
		s.logger,
	)
	return manager.Status(ctx)
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}
