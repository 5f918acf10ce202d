package application

import (
	"log/slog"
	"strings"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/timeslot"
)

const (
	// DefaultCapacity is stored on every room booking; sessions do not model capacity.
	DefaultCapacity = 30
	// DefaultRoomType is stored on every room booking.
	DefaultRoomType = "CLASSROOM"
	// UnknownValue replaces a missing teacher, course or room on write.
	UnknownValue = "Unknown"
	// NoRoom is reported for records without a room assignment.
	NoRoom = "N/A"

	teacherMarker = "Teacher:"
)

// ToSchedule converts a session to its storage record. Times are built from
// the session date and time slot in loc; an undecodable slot falls back to
// midnight and is logged. It reports false when the session has no id or no
// date.
func ToSchedule(session Session, loc *time.Location, logger *slog.Logger) (persistence.Schedule, bool) {
	id := strings.TrimSpace(session.ID)
	if id == "" || !session.HasDate() {
		return persistence.Schedule{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	start, end, ok := timeslot.Parse(session.TimeSlot)
	if !ok {
		defaultLogger(logger).Warn("invalid time slot, defaulting to midnight",
			"session_id", id,
			"time_slot", session.TimeSlot,
		)
		start, end = timeslot.Midnight, timeslot.Midnight
	}

	teacher := strings.TrimSpace(session.Teacher)
	if teacher == "" {
		teacher = UnknownValue
	}
	room := strings.TrimSpace(session.Room)
	if room == "" {
		room = UnknownValue
	}

	return persistence.Schedule{
		ID:          id,
		Name:        session.CourseName,
		Description: teacherMarker + " " + teacher,
		Teacher:     teacher,
		ClassID:     session.ClassID,
		Start:       start.On(session.Date, loc),
		End:         end.On(session.Date, loc),
		Room: &persistence.RoomAssignment{
			RoomID:   room,
			Capacity: DefaultCapacity,
			RoomType: DefaultRoomType,
		},
	}, true
}

// ToSession converts a storage record to a session in loc. It always returns
// a best-effort session and reports false when the record has no id.
func ToSession(schedule persistence.Schedule, loc *time.Location) (Session, bool) {
	if loc == nil {
		loc = time.UTC
	}

	session := Session{
		ID:         strings.TrimSpace(schedule.ID),
		ClassID:    schedule.ClassID,
		CourseName: schedule.Name,
		Teacher:    teacherOf(schedule),
		Room:       NoRoom,
	}
	if session.CourseName == "" {
		session.CourseName = UnknownValue
	}
	if room := strings.TrimSpace(schedule.RoomID()); room != "" {
		session.Room = room
	}

	var start, end *timeslot.TimeOfDay
	if !schedule.Start.IsZero() {
		local := schedule.Start.In(loc)
		tod := timeslot.Of(local)
		start = &tod
		session.Date = dateOf(local)
	}
	if !schedule.End.IsZero() {
		local := schedule.End.In(loc)
		tod := timeslot.Of(local)
		end = &tod
		if !session.HasDate() {
			session.Date = dateOf(local)
		}
	}
	session.TimeSlot = timeslot.Format(start, end)

	return session, session.ID != ""
}

// teacherOf prefers the structured column and falls back to the text after
// the last "Teacher:" marker in the description.
func teacherOf(schedule persistence.Schedule) string {
	if name := strings.TrimSpace(schedule.Teacher); name != "" {
		return name
	}
	idx := strings.LastIndex(schedule.Description, teacherMarker)
	if idx < 0 {
		return UnknownValue
	}
	name := strings.TrimSpace(schedule.Description[idx+len(teacherMarker):])
	if name == "" {
		return UnknownValue
	}
	return name
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
