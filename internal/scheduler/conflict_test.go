package scheduler

import (
	"testing"
	"time"
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func booking(id, room string, day time.Time, startH, startM, endH, endM int) Booking {
	return Booking{
		ID:   id,
		Room: room,
		Date: day,
		Interval: Interval{
			Start: at(day, startH, startM),
			End:   at(day, endH, endM),
		},
	}
}

func TestIntervalOverlaps(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{at(day, 9, 0), at(day, 10, 0)}, Interval{at(day, 9, 0), at(day, 10, 0)}, true},
		{"partial", Interval{at(day, 9, 0), at(day, 10, 30)}, Interval{at(day, 10, 0), at(day, 11, 0)}, true},
		{"contained", Interval{at(day, 8, 0), at(day, 12, 0)}, Interval{at(day, 9, 0), at(day, 10, 0)}, true},
		{"back to back", Interval{at(day, 9, 0), at(day, 10, 0)}, Interval{at(day, 10, 0), at(day, 11, 0)}, false},
		{"disjoint", Interval{at(day, 7, 0), at(day, 8, 0)}, Interval{at(day, 9, 0), at(day, 10, 0)}, false},
		{"zero length inside", Interval{at(day, 9, 30), at(day, 9, 30)}, Interval{at(day, 9, 0), at(day, 10, 0)}, true},
		{"zero length at midnight", Interval{at(day, 0, 0), at(day, 0, 0)}, Interval{at(day, 0, 0), at(day, 0, 0)}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("overlap is not symmetric: b.Overlaps(a) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetectConflicts(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("room overlap produces conflict", func(t *testing.T) {
		existing := []Booking{booking("a", "Room A", day, 9, 0, 10, 30)}
		candidate := booking("b", "Room A", day, 10, 0, 11, 0)

		conflicts := DetectConflicts(existing, candidate)
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(conflicts))
		}
		if conflicts[0].WithBookingID != "a" || conflicts[0].CandidateID != "b" {
			t.Fatalf("unexpected conflict: %#v", conflicts[0])
		}
	})

	t.Run("back to back bookings do not conflict", func(t *testing.T) {
		existing := []Booking{booking("a", "Room A", day, 9, 0, 10, 0)}
		candidate := booking("b", "Room A", day, 10, 0, 11, 0)

		if conflicts := DetectConflicts(existing, candidate); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %#v", conflicts)
		}
	})

	t.Run("different room never conflicts", func(t *testing.T) {
		existing := []Booking{booking("a", "Room A", day, 9, 0, 10, 0)}
		candidate := booking("b", "Room B", day, 9, 0, 10, 0)

		if _, found := FindConflict(existing, candidate); found {
			t.Fatalf("expected no conflict across rooms")
		}
	})

	t.Run("room match is exact", func(t *testing.T) {
		existing := []Booking{booking("a", "room a", day, 9, 0, 10, 0)}
		candidate := booking("b", "Room A", day, 9, 0, 10, 0)

		if _, found := FindConflict(existing, candidate); found {
			t.Fatalf("expected room comparison to be case sensitive")
		}
	})

	t.Run("different day never conflicts", func(t *testing.T) {
		existing := []Booking{booking("a", "Room A", day.AddDate(0, 0, 1), 9, 0, 10, 0)}
		candidate := booking("b", "Room A", day, 9, 0, 10, 0)

		if _, found := FindConflict(existing, candidate); found {
			t.Fatalf("expected no conflict across days")
		}
	})

	t.Run("same id is skipped", func(t *testing.T) {
		existing := []Booking{booking("a", "Room A", day, 9, 0, 10, 0)}
		candidate := booking("a", "Room A", day, 9, 30, 10, 30)

		if _, found := FindConflict(existing, candidate); found {
			t.Fatalf("expected a booking not to conflict with itself")
		}
	})

	t.Run("first conflict is returned", func(t *testing.T) {
		existing := []Booking{
			booking("x", "Room B", day, 9, 0, 10, 0),
			booking("y", "Room A", day, 9, 0, 10, 0),
			booking("z", "Room A", day, 9, 30, 10, 0),
		}
		candidate := booking("c", "Room A", day, 9, 15, 9, 45)

		found, ok := FindConflict(existing, candidate)
		if !ok || found.ID != "y" {
			t.Fatalf("expected first conflict y, got %#v (ok=%v)", found, ok)
		}
	})
}

func TestDetectBatchConflicts(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	existing := []Booking{booking("stored", "R1", day, 8, 0, 9, 0)}
	batch := []Booking{
		booking("n1", "R1", day, 9, 0, 10, 0),
		booking("n2", "R1", day, 9, 30, 10, 30),
		booking("n3", "R1", day, 8, 30, 9, 0),
	}

	conflicts := DetectBatchConflicts(existing, batch)
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %#v", conflicts)
	}
	if conflicts[0].CandidateID != "n2" || conflicts[0].WithBookingID != "n1" {
		t.Fatalf("unexpected sibling conflict: %#v", conflicts[0])
	}
	if conflicts[1].CandidateID != "n3" || conflicts[1].WithBookingID != "stored" {
		t.Fatalf("unexpected stored conflict: %#v", conflicts[1])
	}
}
