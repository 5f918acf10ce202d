package application

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/recurrence"
	"github.com/example/classroom-scheduler/internal/scheduler"
	"github.com/example/classroom-scheduler/internal/timeslot"
)

// ScheduleClass expands plan into one session per selected day and stores
// them all, or none. Sessions are checked against stored bookings and against
// each other; any collision returns ErrConflict with the conflicts listed in
// the result. A failed save removes the sessions already saved.
func (m *ScheduleManager) ScheduleClass(ctx context.Context, plan ClassPlan) (result ClassScheduleResult, err error) {
	if strings.TrimSpace(plan.ClassID) == "" {
		plan.ClassID = m.idGenerator()
	}
	ctx, span := m.startSpan(ctx, "ScheduleClass",
		attribute.String("class_id", plan.ClassID),
		attribute.String("room", plan.Room),
	)
	logger := m.loggerWith(ctx, "ScheduleClass", "class_id", plan.ClassID, "room", plan.Room)
	defer func() {
		finish(ctx, span, logger, err, "failed to schedule class")
		if err == nil {
			logger.InfoContext(ctx, "class scheduled", "session_count", len(result.Sessions))
		}
	}()

	if vErr := validateClassPlan(plan); vErr.HasErrors() {
		return ClassScheduleResult{}, vErr
	}

	dates, err := m.recurrence.Dates(recurrence.Rule{
		Frequency: recurrence.FrequencyWeekly,
		Weekdays:  plan.Weekdays,
		StartsOn:  plan.StartsOn,
		EndsOn:    plan.EndsOn,
	})
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("dates", err.Error())
		return ClassScheduleResult{}, vErr
	}
	if len(dates) == 0 {
		vErr := &ValidationError{}
		vErr.add("weekdays", "no selected weekday falls within the date range")
		return ClassScheduleResult{}, vErr
	}

	sessions := make([]Session, 0, len(dates))
	batch := make([]scheduler.Booking, 0, len(dates))
	for _, date := range dates {
		session := Session{
			ID:         m.idGenerator(),
			ClassID:    plan.ClassID,
			CourseName: strings.TrimSpace(plan.CourseName),
			Teacher:    strings.TrimSpace(plan.Teacher),
			Room:       strings.TrimSpace(plan.Room),
			Date:       date,
			TimeSlot:   plan.TimeSlot,
		}
		booking, _ := m.candidateBooking(session)
		sessions = append(sessions, session)
		batch = append(batch, booking)
	}

	first := dates[0]
	last := dates[len(dates)-1].AddDate(0, 0, 1)
	records, err := m.store.FindByTimeRange(ctx, first, last)
	if err != nil {
		return ClassScheduleResult{}, m.storageError("find_by_time_range", err)
	}
	_, existing := m.toBookings(ctx, logger, records)

	if conflicts := scheduler.DetectBatchConflicts(existing, batch); len(conflicts) > 0 {
		for _, c := range conflicts {
			m.metrics.ConflictChecked(Conflict.String())
			logger.InfoContext(ctx, "class session conflicts",
				"session_id", c.CandidateID,
				"with_session_id", c.WithBookingID,
				"date", c.Date.Format("2006-01-02"),
			)
		}
		return ClassScheduleResult{Sessions: sessions, Conflicts: conflicts},
			fmt.Errorf("%w: %d conflicting session(s)", ErrConflict, len(conflicts))
	}

	saved := make([]persistence.Schedule, 0, len(sessions))
	stored := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		record, _ := ToSchedule(session, m.location, logger)
		if err := m.store.Save(ctx, record); err != nil {
			m.rollback(ctx, saved)
			return ClassScheduleResult{}, m.storageError("save", err)
		}
		saved = append(saved, record)
		normalized, _ := ToSession(record, m.location)
		stored = append(stored, normalized)
	}

	m.cache.PutAll(stored)
	m.metrics.SessionWritten("schedule_class")
	return ClassScheduleResult{Sessions: stored}, nil
}

// rollback deletes records saved earlier in a failed batch. Delete failures
// are logged and otherwise ignored.
func (m *ScheduleManager) rollback(ctx context.Context, saved []persistence.Schedule) {
	logger := m.loggerWith(ctx, "ScheduleClass")
	for _, record := range saved {
		if err := m.store.Delete(ctx, record.ID); err != nil {
			m.metrics.StorageError("delete")
			logger.ErrorContext(ctx, "failed to roll back session", "session_id", record.ID, "error", err)
		}
	}
}

func validateClassPlan(plan ClassPlan) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(plan.CourseName) == "" {
		vErr.add("courseName", "course name is required")
	}
	if strings.TrimSpace(plan.Room) == "" {
		vErr.add("room", "room is required")
	}
	if _, _, ok := timeslot.Parse(plan.TimeSlot); !ok {
		vErr.add("timeSlot", "time slot must look like HH:MM - HH:MM")
	}
	if plan.StartsOn.IsZero() {
		vErr.add("startsOn", "start date is required")
	}
	if plan.EndsOn.IsZero() {
		vErr.add("endsOn", "end date is required")
	}
	return vErr
}
