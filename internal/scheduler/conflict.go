package scheduler

import "time"

// Interval is a half-open span of time [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two intervals share any instant. Intervals that
// only touch (one ends exactly where the other starts) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Booking is a room reservation on a single calendar day.
type Booking struct {
	ID   string
	Room string
	// Date carries the calendar day; its clock part is ignored.
	Date time.Time
	Interval
}

// Conflict details an overlapping booking that callers can present to users.
type Conflict struct {
	CandidateID   string
	WithBookingID string
	Room          string
	Date          time.Time
	CandidateSlot Interval
	ExistingSlot  Interval
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Conflicts reports whether two bookings collide: same room string, same
// calendar date and overlapping intervals. A booking never conflicts with
// another carrying the same non-empty ID.
func Conflicts(candidate, existing Booking) bool {
	if candidate.ID != "" && candidate.ID == existing.ID {
		return false
	}
	return candidate.Room == existing.Room &&
		SameDay(candidate.Date, existing.Date) &&
		candidate.Overlaps(existing.Interval)
}

// FindConflict returns the first existing booking that collides with the
// candidate.
func FindConflict(existing []Booking, candidate Booking) (Booking, bool) {
	for _, booking := range existing {
		if Conflicts(candidate, booking) {
			return booking, true
		}
	}
	return Booking{}, false
}

// DetectConflicts identifies every conflict for the candidate against existing ones.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	var conflicts []Conflict
	for _, booking := range existing {
		if !Conflicts(candidate, booking) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			CandidateID:   candidate.ID,
			WithBookingID: booking.ID,
			Room:          booking.Room,
			Date:          booking.Date,
			CandidateSlot: candidate.Interval,
			ExistingSlot:  booking.Interval,
		})
	}
	return conflicts
}

// DetectBatchConflicts checks every booking in a batch against the existing
// set and against the bookings that precede it in the batch.
func DetectBatchConflicts(existing, batch []Booking) []Conflict {
	var conflicts []Conflict
	for i, candidate := range batch {
		conflicts = append(conflicts, DetectConflicts(existing, candidate)...)
		conflicts = append(conflicts, DetectConflicts(batch[:i], candidate)...)
	}
	return conflicts
}
