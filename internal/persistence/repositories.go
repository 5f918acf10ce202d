package persistence

import (
	"context"
	"time"
)

// ScheduleRepository stores schedule records.
//
// FindByTimeRange returns records whose [Start, End) interval intersects
// [start, end). Zero-length records are returned when their Start lies inside
// the range so that rows with undecodable times stay visible.
type ScheduleRepository interface {
	FindByTimeRange(ctx context.Context, start, end time.Time) ([]Schedule, error)
	FindByID(ctx context.Context, id string) (Schedule, error)
	FindByClassID(ctx context.Context, classID string) ([]Schedule, error)
	FindAll(ctx context.Context) ([]Schedule, error)
	Save(ctx context.Context, schedule Schedule) error
	Update(ctx context.Context, schedule Schedule) error
	Delete(ctx context.Context, id string) error
}

// InTimeRange applies the FindByTimeRange predicate to a single record.
func InTimeRange(schedule Schedule, start, end time.Time) bool {
	if !schedule.Start.Before(end) {
		return false
	}
	if schedule.End.After(start) {
		return true
	}
	return schedule.End.Equal(schedule.Start) && !schedule.Start.Before(start)
}
