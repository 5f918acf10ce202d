// Package migration applies versioned SQL schema changes.
//
// Migration files follow the naming convention {version}_{description}.sql
// (for example "001_create_schedules.sql") and are read from an fs.FS, which
// lets the schema ship embedded in the binary. Applied versions and their
// checksums are tracked in a schema_migrations table; each migration runs in
// its own transaction together with its bookkeeping row.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(fsys, "migrations"), migration.NewExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
