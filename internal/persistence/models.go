package persistence

import "time"

// Schedule is the storage-facing record of one class session.
type Schedule struct {
	ID   string
	Name string
	// Description is free text. Writers store "Teacher: {name}" here for
	// readers that predate the Teacher column.
	Description string
	Teacher     string
	ClassID     string
	Start       time.Time
	End         time.Time
	// Room is set for room-bound bookings.
	Room      *RoomAssignment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomAssignment holds the room-specific attributes of a booking.
type RoomAssignment struct {
	RoomID   string
	Capacity int
	RoomType string
}

// RoomID returns the assigned room or an empty string.
func (s Schedule) RoomID() string {
	if s.Room == nil {
		return ""
	}
	return s.Room.RoomID
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	if s.Room != nil {
		room := *s.Room
		s.Room = &room
	}
	return s
}
