package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/persistence"
)

var sessionCounter uint64

var referenceTime = time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar day of ReferenceTime at midnight UTC.
func ReferenceDate() time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SessionFixture represents a deterministic session that can be materialised
// for application or persistence tests.
type SessionFixture struct {
	ID         string
	ClassID    string
	CourseName string
	Teacher    string
	Room       string
	Date       time.Time
	TimeSlot   string
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides. Each call lands on its own room so fixtures never collide unless
// a test asks for it.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:         fmt.Sprintf("session-%03d", idx),
		CourseName: fmt.Sprintf("Course %03d", idx),
		Teacher:    fmt.Sprintf("Teacher %03d", idx),
		Room:       fmt.Sprintf("Room %03d", idx),
		Date:       ReferenceDate(),
		TimeSlot:   "09:00 - 10:00",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithClassID sets the class the session belongs to.
func WithClassID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ClassID = id
	}
}

// WithCourse overrides the course name.
func WithCourse(name string) SessionOption {
	return func(f *SessionFixture) {
		f.CourseName = name
	}
}

// WithTeacher overrides the teacher.
func WithTeacher(name string) SessionOption {
	return func(f *SessionFixture) {
		f.Teacher = name
	}
}

// WithRoom overrides the room.
func WithRoom(room string) SessionOption {
	return func(f *SessionFixture) {
		f.Room = room
	}
}

// WithDate overrides the calendar day.
func WithDate(date time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.Date = date
	}
}

// WithTimeSlot overrides the time slot text.
func WithTimeSlot(slot string) SessionOption {
	return func(f *SessionFixture) {
		f.TimeSlot = slot
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:         f.ID,
		ClassID:    f.ClassID,
		CourseName: f.CourseName,
		Teacher:    f.Teacher,
		Room:       f.Room,
		Date:       f.Date,
		TimeSlot:   f.TimeSlot,
	}
}

// Persistence returns the fixture as the record the mapper would store in UTC.
func (f SessionFixture) Persistence() persistence.Schedule {
	schedule, ok := application.ToSchedule(f.Application(), time.UTC, nil)
	if !ok {
		panic(fmt.Sprintf("testfixtures: session %q cannot be stored", f.ID))
	}
	return schedule
}
