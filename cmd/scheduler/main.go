package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/config"
	"github.com/example/classroom-scheduler/internal/logging"
	"github.com/example/classroom-scheduler/internal/metrics"
	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/persistence/memory"
	"github.com/example/classroom-scheduler/internal/persistence/sqlstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(os.Stderr, "error:", err)
			printFieldErrors(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	ctx = logging.ContextWithLogger(ctx, logger)

	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if cfg.MigrateOnStart {
		if _, err := storage.Migrate(ctx); err != nil {
			return err
		}
	}

	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	manager := application.NewScheduleManager(storage, application.ManagerOptions{
		Location: cfg.Location,
		Logger:   logger,
		Metrics:  recorder,
	})

	cli := &commandLine{
		manager:  manager,
		storage:  storage,
		location: cfg.Location,
		stdout:   stdout,
		stderr:   stderr,
	}
	err = cli.run(ctx, args)

	snapshot := recorder.Snapshot()
	logger.Debug("command finished",
		"cache_lookups", snapshot.CacheLookups,
		"conflict_checks", snapshot.ConflictChecks,
		"storage_errors", snapshot.StorageErrors,
		"session_writes", snapshot.SessionWrites,
	)
	return err
}

func printFieldErrors(w io.Writer, err error) {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		return
	}
	fields := make([]string, 0, len(vErr.FieldErrors))
	for field := range vErr.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(w, "  %s: %s\n", field, vErr.FieldErrors[field])
	}
}

// storage is a schedule repository that can migrate its schema and be closed.
type storage interface {
	persistence.ScheduleRepository
	Migrate(ctx context.Context) (int, error)
	Close() error
}

// memoryStorage adapts the in-memory store; it has no schema to migrate.
type memoryStorage struct {
	*memory.Storage
}

func (memoryStorage) Migrate(context.Context) (int, error) {
	return 0, nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.Driver {
	case "memory":
		return memoryStorage{memory.New()}, nil
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		dbConfig := sqlstore.DefaultConfig(cfg.DSN)
		dbConfig.Driver = cfg.Driver
		dbConfig.BusyTimeout = cfg.SQLiteBusyTimeout
		if cfg.MaxOpenConns > 0 {
			dbConfig.MaxOpenConns = cfg.MaxOpenConns
		} else if cfg.Driver == sqlstore.DriverPostgres {
			dbConfig.MaxOpenConns = 10
			dbConfig.MaxIdleConns = 5
		}
		store, err := sqlstore.Open(ctx, dbConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}
