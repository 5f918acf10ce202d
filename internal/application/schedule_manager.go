package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/recurrence"
	"github.com/example/classroom-scheduler/internal/scheduler"
	"github.com/example/classroom-scheduler/internal/timeslot"
)

const tracerName = "github.com/example/classroom-scheduler/internal/application"

// Metrics receives manager observations. *metrics.Recorder satisfies it.
type Metrics interface {
	CacheHit()
	CacheMiss()
	ConflictChecked(status string)
	StorageError(operation string)
	SessionWritten(operation string)
}

type noopMetrics struct{}

func (noopMetrics) CacheHit()              {}
func (noopMetrics) CacheMiss()             {}
func (noopMetrics) ConflictChecked(string) {}
func (noopMetrics) StorageError(string)    {}
func (noopMetrics) SessionWritten(string)  {}

// ManagerOptions configures a ScheduleManager. Zero values select defaults.
type ManagerOptions struct {
	// IDGenerator assigns ids to new sessions. Defaults to random UUIDs.
	IDGenerator func() string
	// Location interprets session dates and time slots. Defaults to UTC.
	Location *time.Location
	Logger   *slog.Logger
	Metrics  Metrics
	Tracer   trace.Tracer
}

// ScheduleManager answers session queries and writes through a schedule
// repository, keeping a cache of the sessions it has seen.
type ScheduleManager struct {
	store       persistence.ScheduleRepository
	cache       *SessionCache
	idGenerator func() string
	location    *time.Location
	logger      *slog.Logger
	metrics     Metrics
	tracer      trace.Tracer
	recurrence  *recurrence.Engine
}

// NewScheduleManager wires a manager around store.
func NewScheduleManager(store persistence.ScheduleRepository, opts ManagerOptions) *ScheduleManager {
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &ScheduleManager{
		store:       store,
		cache:       NewSessionCache(),
		idGenerator: opts.IDGenerator,
		location:    opts.Location,
		logger:      defaultLogger(opts.Logger),
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
		recurrence:  recurrence.NewEngine(opts.Location),
	}
}

// Cache exposes the session cache.
func (m *ScheduleManager) Cache() *SessionCache {
	return m.cache
}

// Location returns the zone used for dates and time slots.
func (m *ScheduleManager) Location() *time.Location {
	return m.location
}

func (m *ScheduleManager) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, m.logger, "ScheduleManager", operation, attrs...)
}

func (m *ScheduleManager) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "ScheduleManager."+operation, trace.WithAttributes(attrs...))
}

// finish ends the span and logs a failed operation. Storage and unexpected
// failures log at error level, rejected input at warning level.
func finish(ctx context.Context, span trace.Span, logger *slog.Logger, err error, message string) {
	defer span.End()
	if err == nil {
		return
	}
	kind := ErrorKind(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	switch kind {
	case "storage", "unexpected":
		logger.ErrorContext(ctx, message, "error", err, "error_kind", kind)
	default:
		logger.WarnContext(ctx, message, "error", err, "error_kind", kind)
	}
}

func (m *ScheduleManager) storageError(operation string, err error) error {
	m.metrics.StorageError(operation)
	return fmt.Errorf("%w: %s: %w", ErrStorage, operation, err)
}

// GetSchedule returns the sessions that overlap the calendar days from..to,
// both inclusive, optionally restricted to one teacher. Results are ordered by
// start time, then id.
func (m *ScheduleManager) GetSchedule(ctx context.Context, from, to time.Time, teacher string) (sessions []Session, err error) {
	teacher = strings.TrimSpace(teacher)
	ctx, span := m.startSpan(ctx, "GetSchedule", attribute.String("teacher", teacher))
	logger := m.loggerWith(ctx, "GetSchedule",
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
	)
	defer func() {
		finish(ctx, span, logger, err, "failed to get schedule")
		if err == nil {
			logger.DebugContext(ctx, "schedule listed", "result_count", len(sessions))
		}
	}()

	rangeStart := m.midnight(from)
	rangeEnd := m.midnight(to).AddDate(0, 0, 1)
	if !rangeStart.Before(rangeEnd) {
		logger.WarnContext(ctx, "empty date range")
		return nil, nil
	}

	records, err := m.store.FindByTimeRange(ctx, rangeStart, rangeEnd)
	if err != nil {
		return nil, m.storageError("find_by_time_range", err)
	}
	sortSchedules(records)

	for _, record := range m.toSessions(ctx, logger, records) {
		if teacher != "" && record.Teacher != teacher {
			continue
		}
		sessions = append(sessions, record)
	}
	m.cache.PutAll(sessions)
	return sessions, nil
}

// GetSessionByID returns a session, consulting the cache before storage.
// A blank id is reported as not found without touching storage.
func (m *ScheduleManager) GetSessionByID(ctx context.Context, id string) (session Session, err error) {
	id = strings.TrimSpace(id)
	ctx, span := m.startSpan(ctx, "GetSessionByID", attribute.String("session_id", id))
	logger := m.loggerWith(ctx, "GetSessionByID", "session_id", id)
	defer func() { finish(ctx, span, logger, err, "failed to get session") }()

	if id == "" {
		return Session{}, ErrNotFound
	}

	if cached, ok := m.cache.Get(id); ok {
		m.metrics.CacheHit()
		span.SetAttributes(attribute.Bool("cache_hit", true))
		logger.DebugContext(ctx, "session cache hit")
		return cached, nil
	}
	m.metrics.CacheMiss()

	record, err := m.store.FindByID(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, m.storageError("find_by_id", err)
	}

	session, ok := ToSession(record, m.location)
	if !ok {
		return Session{}, fmt.Errorf("%w: stored record has no id", ErrNotFound)
	}
	m.cache.Put(session)
	return session, nil
}

// AddSession persists a new session, assigning an id when it has none, and
// returns the session as it will be read back.
func (m *ScheduleManager) AddSession(ctx context.Context, input Session) (session Session, err error) {
	if strings.TrimSpace(input.ID) == "" {
		input.ID = m.idGenerator()
	}
	ctx, span := m.startSpan(ctx, "AddSession", attribute.String("session_id", input.ID))
	logger := m.loggerWith(ctx, "AddSession", "session_id", input.ID)
	defer func() {
		finish(ctx, span, logger, err, "failed to add session")
		if err == nil {
			logger.InfoContext(ctx, "session added", "room", session.Room, "time_slot", session.TimeSlot)
		}
	}()

	record, ok := ToSchedule(input, m.location, logger)
	if !ok {
		return Session{}, fmt.Errorf("%w: session requires an id and a date", ErrInvalidSession)
	}

	if err := m.store.Save(ctx, record); err != nil {
		return Session{}, m.storageError("save", err)
	}

	session, _ = ToSession(record, m.location)
	m.cache.Put(session)
	m.metrics.SessionWritten("add")
	return session, nil
}

// UpdateSession replaces every field of an existing session.
func (m *ScheduleManager) UpdateSession(ctx context.Context, input Session) (session Session, err error) {
	id := strings.TrimSpace(input.ID)
	ctx, span := m.startSpan(ctx, "UpdateSession", attribute.String("session_id", id))
	logger := m.loggerWith(ctx, "UpdateSession", "session_id", id)
	defer func() {
		finish(ctx, span, logger, err, "failed to update session")
		if err == nil {
			logger.InfoContext(ctx, "session updated")
		}
	}()

	if id == "" {
		return Session{}, fmt.Errorf("%w: id is required", ErrInvalidSession)
	}

	record, ok := ToSchedule(input, m.location, logger)
	if !ok {
		return Session{}, fmt.Errorf("%w: session requires a date", ErrInvalidSession)
	}

	err = m.store.Update(ctx, record)
	if errors.Is(err, persistence.ErrNotFound) {
		m.cache.Evict(id)
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, m.storageError("update", err)
	}

	session, _ = ToSession(record, m.location)
	m.cache.Put(session)
	m.metrics.SessionWritten("update")
	return session, nil
}

// DeleteSession removes a session and its cache entry.
func (m *ScheduleManager) DeleteSession(ctx context.Context, id string) (err error) {
	id = strings.TrimSpace(id)
	ctx, span := m.startSpan(ctx, "DeleteSession", attribute.String("session_id", id))
	logger := m.loggerWith(ctx, "DeleteSession", "session_id", id)
	defer func() {
		finish(ctx, span, logger, err, "failed to delete session")
		if err == nil {
			logger.InfoContext(ctx, "session deleted")
		}
	}()

	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSession)
	}

	err = m.store.Delete(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		m.cache.Evict(id)
		return ErrNotFound
	}
	if err != nil {
		return m.storageError("delete", err)
	}

	m.cache.Evict(id)
	m.metrics.SessionWritten("delete")
	return nil
}

// CheckConflict reports whether candidate collides with a stored session in
// the same room on the same day. A candidate without a decodable time slot,
// a date or a room, and any storage failure, give an Indeterminate result.
func (m *ScheduleManager) CheckConflict(ctx context.Context, candidate Session) (result ConflictResult) {
	ctx, span := m.startSpan(ctx, "CheckConflict",
		attribute.String("session_id", candidate.ID),
		attribute.String("room", candidate.Room),
	)
	logger := m.loggerWith(ctx, "CheckConflict",
		"session_id", candidate.ID,
		"room", candidate.Room,
		"time_slot", candidate.TimeSlot,
	)
	defer func() {
		m.metrics.ConflictChecked(result.Status.String())
		span.SetAttributes(attribute.String("conflict_status", result.Status.String()))
		finish(ctx, span, logger, result.Err, "conflict check failed")
	}()

	booking, reason := m.candidateBooking(candidate)
	if reason != "" {
		logger.WarnContext(ctx, "conflict check skipped", "reason", reason)
		return ConflictResult{Status: Indeterminate, Reason: reason}
	}

	dayStart := m.midnight(candidate.Date)
	records, err := m.store.FindByTimeRange(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return ConflictResult{
			Status: Indeterminate,
			Reason: "storage unavailable",
			Err:    m.storageError("find_by_time_range", err),
		}
	}

	sessions, bookings := m.toBookings(ctx, logger, records)
	for i, existing := range bookings {
		if scheduler.Conflicts(booking, existing) {
			with := sessions[i]
			logger.InfoContext(ctx, "conflict found", "with_session_id", with.ID)
			return ConflictResult{Status: Conflict, With: &with}
		}
	}
	return ConflictResult{Status: NoConflict}
}

// HasScheduleConflict reports true only when a conflict was positively found.
// Indeterminate checks report false so that callers are never blocked.
func (m *ScheduleManager) HasScheduleConflict(ctx context.Context, candidate Session) bool {
	return m.CheckConflict(ctx, candidate).Status == Conflict
}

// ListTeachers returns the distinct teachers across all stored sessions.
func (m *ScheduleManager) ListTeachers(ctx context.Context) ([]string, error) {
	return m.distinct(ctx, "ListTeachers", func(s Session) string { return s.Teacher })
}

// ListRooms returns the distinct rooms across all stored sessions.
func (m *ScheduleManager) ListRooms(ctx context.Context) ([]string, error) {
	return m.distinct(ctx, "ListRooms", func(s Session) string { return s.Room })
}

// ListCourses returns the distinct course names across all stored sessions.
func (m *ScheduleManager) ListCourses(ctx context.Context) ([]string, error) {
	return m.distinct(ctx, "ListCourses", func(s Session) string { return s.CourseName })
}

// distinct loads every record and projects one field. It scans the whole
// store on each call.
func (m *ScheduleManager) distinct(ctx context.Context, operation string, project func(Session) string) (values []string, err error) {
	ctx, span := m.startSpan(ctx, operation)
	logger := m.loggerWith(ctx, operation)
	defer func() { finish(ctx, span, logger, err, "failed to list values") }()

	records, err := m.store.FindAll(ctx)
	if err != nil {
		return nil, m.storageError("find_all", err)
	}

	seen := make(map[string]struct{})
	for _, session := range m.toSessions(ctx, logger, records) {
		value := strings.TrimSpace(project(session))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.Strings(values)
	return values, nil
}

// GetSessionsByClass returns every session of a class ordered by start time.
func (m *ScheduleManager) GetSessionsByClass(ctx context.Context, classID string) (sessions []Session, err error) {
	classID = strings.TrimSpace(classID)
	ctx, span := m.startSpan(ctx, "GetSessionsByClass", attribute.String("class_id", classID))
	logger := m.loggerWith(ctx, "GetSessionsByClass", "class_id", classID)
	defer func() { finish(ctx, span, logger, err, "failed to get class sessions") }()

	if classID == "" {
		return nil, fmt.Errorf("%w: class id is required", ErrInvalidSession)
	}

	records, err := m.store.FindByClassID(ctx, classID)
	if err != nil {
		return nil, m.storageError("find_by_class_id", err)
	}
	sortSchedules(records)

	sessions = m.toSessions(ctx, logger, records)
	m.cache.PutAll(sessions)
	return sessions, nil
}

// candidateBooking builds the booking checked for conflicts, or explains why
// the session cannot be checked.
func (m *ScheduleManager) candidateBooking(candidate Session) (scheduler.Booking, string) {
	start, end, ok := timeslot.Parse(candidate.TimeSlot)
	switch {
	case !ok:
		return scheduler.Booking{}, "time slot is not HH:MM - HH:MM"
	case !candidate.HasDate():
		return scheduler.Booking{}, "date is missing"
	case strings.TrimSpace(candidate.Room) == "":
		return scheduler.Booking{}, "room is missing"
	}
	day := m.midnight(candidate.Date)
	return scheduler.Booking{
		ID:   strings.TrimSpace(candidate.ID),
		Room: strings.TrimSpace(candidate.Room),
		Date: day,
		Interval: scheduler.Interval{
			Start: start.On(day, m.location),
			End:   end.On(day, m.location),
		},
	}, ""
}

// toSessions converts records, skipping those that cannot identify a session.
func (m *ScheduleManager) toSessions(ctx context.Context, logger *slog.Logger, records []persistence.Schedule) []Session {
	sessions := make([]Session, 0, len(records))
	for _, record := range records {
		session, ok := ToSession(record, m.location)
		if !ok {
			logger.WarnContext(ctx, "skipping record without id", "name", record.Name)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions
}

// toBookings converts records to sessions and the bookings derived from them.
// Both slices share indexes.
func (m *ScheduleManager) toBookings(ctx context.Context, logger *slog.Logger, records []persistence.Schedule) ([]Session, []scheduler.Booking) {
	sessions := make([]Session, 0, len(records))
	bookings := make([]scheduler.Booking, 0, len(records))
	for _, record := range records {
		session, ok := ToSession(record, m.location)
		if !ok {
			logger.WarnContext(ctx, "skipping record without id", "name", record.Name)
			continue
		}
		sessions = append(sessions, session)
		bookings = append(bookings, scheduler.Booking{
			ID:   session.ID,
			Room: session.Room,
			Date: session.Date,
			Interval: scheduler.Interval{
				Start: record.Start.In(m.location),
				End:   record.End.In(m.location),
			},
		})
	}
	return sessions, bookings
}

func (m *ScheduleManager) midnight(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, m.location)
}

func sortSchedules(records []persistence.Schedule) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Start.Equal(records[j].Start) {
			return records[i].Start.Before(records[j].Start)
		}
		return records[i].ID < records[j].ID
	})
}
