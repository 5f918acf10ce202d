package application

import (
	"time"

	"github.com/example/classroom-scheduler/internal/scheduler"
)

// Session is the caller-facing view of one class occurrence.
type Session struct {
	ID         string
	ClassID    string
	CourseName string
	Teacher    string
	Room       string
	// Date is the calendar day; its clock part is ignored. A zero Date means
	// the day is unknown.
	Date time.Time
	// TimeSlot has the shape "HH:MM - HH:MM".
	TimeSlot string
}

// HasDate reports whether the session carries a calendar day.
func (s Session) HasDate() bool {
	return !s.Date.IsZero()
}

// ConflictStatus is the outcome of a conflict check.
type ConflictStatus int

const (
	// NoConflict means every relevant booking was inspected and none collided.
	NoConflict ConflictStatus = iota
	// Conflict means at least one stored booking collides with the candidate.
	Conflict
	// Indeterminate means the check could not be completed.
	Indeterminate
)

// String returns the metrics and logging label of the status.
func (s ConflictStatus) String() string {
	switch s {
	case NoConflict:
		return "no_conflict"
	case Conflict:
		return "conflict"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// ConflictResult describes the outcome of CheckConflict.
type ConflictResult struct {
	Status ConflictStatus
	// With is the first colliding session when Status is Conflict.
	With *Session
	// Reason explains an Indeterminate result.
	Reason string
	// Err is the underlying failure, if any, behind an Indeterminate result.
	Err error
}

// ClassPlan describes a recurring class to be expanded into sessions.
type ClassPlan struct {
	ClassID    string
	CourseName string
	Teacher    string
	Room       string
	TimeSlot   string
	// StartsOn and EndsOn bound the calendar days, both inclusive.
	StartsOn time.Time
	EndsOn   time.Time
	// Weekdays selects the days of the week to schedule. Empty means the
	// weekday of StartsOn.
	Weekdays []time.Weekday
}

// ClassScheduleResult reports what ScheduleClass did.
type ClassScheduleResult struct {
	Sessions  []Session
	Conflicts []scheduler.Conflict
}
