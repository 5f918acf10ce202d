package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/persistence/memory"
)

// ManagerFactory assists tests with constructing schedule managers using
// deterministic identifiers and clocks.
type ManagerFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ManagerFactoryOption configures a ManagerFactory instance.
type ManagerFactoryOption func(*ManagerFactory)

// NewManagerFactory constructs a ManagerFactory with defaults.
func NewManagerFactory(opts ...ManagerFactoryOption) *ManagerFactory {
	factory := &ManagerFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ManagerFactoryOption {
	return func(factory *ManagerFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ManagerFactoryOption {
	return func(factory *ManagerFactory) {
		factory.IDGenerator = generator
	}
}

// ManagerDeps captures dependencies for constructing a schedule manager.
type ManagerDeps struct {
	// Schedules defaults to an in-memory store stamped by the factory clock.
	Schedules persistence.ScheduleRepository
	Location  *time.Location
	// Logger defaults to a logger that discards output.
	Logger  *slog.Logger
	Metrics application.Metrics
}

// NewScheduleManager builds a schedule manager using the supplied
// dependencies combined with the factory defaults.
func (f *ManagerFactory) NewScheduleManager(deps ManagerDeps) *application.ScheduleManager {
	schedules := deps.Schedules
	if schedules == nil {
		schedules = memory.NewWithClock(f.Clock.NowFunc())
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return application.NewScheduleManager(schedules, application.ManagerOptions{
		IDGenerator: f.IDGenerator.NextFunc(),
		Location:    deps.Location,
		Logger:      logger,
		Metrics:     deps.Metrics,
	})
}
