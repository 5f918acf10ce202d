package persistence_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/testfixtures"
)

type repositoryFactory func(t *testing.T, now func() time.Time) persistence.ScheduleRepository

func backends() map[string]repositoryFactory {
	return map[string]repositoryFactory{
		"memory": func(t *testing.T, now func() time.Time) persistence.ScheduleRepository {
			return testfixtures.NewMemoryStore(t, now)
		},
		"sqlite": func(t *testing.T, now func() time.Time) persistence.ScheduleRepository {
			return testfixtures.NewSQLiteStore(t, now)
		},
	}
}

func newPersistenceSchedule(opts ...testfixtures.SessionOption) persistence.Schedule {
	return testfixtures.NewSessionFixture(opts...).Persistence()
}

func scheduleIDs(schedules []persistence.Schedule) []string {
	ids := make([]string, 0, len(schedules))
	for _, s := range schedules {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestScheduleRepository(t *testing.T) {
	t.Parallel()

	day := testfixtures.ReferenceDate()

	for name, newRepo := range backends() {
		newRepo := newRepo
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("creates, reads, updates, and deletes schedules", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				clock := testfixtures.NewClock(time.Time{})
				repo := newRepo(t, clock.NowFunc())

				schedule := newPersistenceSchedule(testfixtures.WithTeacher("Dr. Smith"), testfixtures.WithRoom("R101"))
				if err := repo.Save(ctx, schedule); err != nil {
					t.Fatalf("save: %v", err)
				}

				got, err := repo.FindByID(ctx, schedule.ID)
				if err != nil {
					t.Fatalf("find by id: %v", err)
				}
				if got.Name != schedule.Name || got.Teacher != "Dr. Smith" || got.Description != "Teacher: Dr. Smith" {
					t.Fatalf("unexpected schedule: %#v", got)
				}
				if got.RoomID() != "R101" || got.Room.Capacity != schedule.Room.Capacity || got.Room.RoomType != schedule.Room.RoomType {
					t.Fatalf("unexpected room: %#v", got.Room)
				}
				if !got.Start.Equal(schedule.Start) || !got.End.Equal(schedule.End) {
					t.Fatalf("expected %v-%v, got %v-%v", schedule.Start, schedule.End, got.Start, got.End)
				}
				if !got.CreatedAt.Equal(testfixtures.ReferenceTime()) {
					t.Fatalf("expected CreatedAt %v, got %v", testfixtures.ReferenceTime(), got.CreatedAt)
				}

				clock.Advance(time.Hour)
				got.Name = "Renamed"
				got.End = got.End.Add(30 * time.Minute)
				if err := repo.Update(ctx, got); err != nil {
					t.Fatalf("update: %v", err)
				}

				updated, err := repo.FindByID(ctx, schedule.ID)
				if err != nil {
					t.Fatalf("find updated: %v", err)
				}
				if updated.Name != "Renamed" || !updated.End.Equal(schedule.End.Add(30*time.Minute)) {
					t.Fatalf("update not persisted: %#v", updated)
				}
				if !updated.CreatedAt.Equal(testfixtures.ReferenceTime()) {
					t.Fatalf("expected CreatedAt to be preserved, got %v", updated.CreatedAt)
				}
				if !updated.UpdatedAt.Equal(testfixtures.ReferenceTime().Add(time.Hour)) {
					t.Fatalf("expected UpdatedAt to advance, got %v", updated.UpdatedAt)
				}

				if err := repo.Delete(ctx, schedule.ID); err != nil {
					t.Fatalf("delete: %v", err)
				}
				if _, err := repo.FindByID(ctx, schedule.ID); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound after delete, got %v", err)
				}
			})

			t.Run("reports duplicates and missing records", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := newRepo(t, nil)

				schedule := newPersistenceSchedule()
				if err := repo.Save(ctx, schedule); err != nil {
					t.Fatalf("save: %v", err)
				}
				if err := repo.Save(ctx, schedule); !errors.Is(err, persistence.ErrDuplicate) {
					t.Fatalf("expected ErrDuplicate, got %v", err)
				}

				missing := newPersistenceSchedule()
				if err := repo.Update(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound on update, got %v", err)
				}
				if err := repo.Delete(ctx, missing.ID); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound on delete, got %v", err)
				}
				if _, err := repo.FindByID(ctx, missing.ID); !errors.Is(err, persistence.ErrNotFound) {
					t.Fatalf("expected ErrNotFound on read, got %v", err)
				}
			})

			t.Run("round trips schedules without a room", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := newRepo(t, nil)

				schedule := newPersistenceSchedule()
				schedule.Room = nil
				if err := repo.Save(ctx, schedule); err != nil {
					t.Fatalf("save: %v", err)
				}
				got, err := repo.FindByID(ctx, schedule.ID)
				if err != nil {
					t.Fatalf("find by id: %v", err)
				}
				if got.Room != nil {
					t.Fatalf("expected no room, got %#v", got.Room)
				}
			})

			t.Run("filters by time range", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := newRepo(t, nil)

				fixtures := []persistence.Schedule{
					newPersistenceSchedule(testfixtures.WithSessionID("early"), testfixtures.WithTimeSlot("07:00 - 08:00")),
					newPersistenceSchedule(testfixtures.WithSessionID("morning"), testfixtures.WithTimeSlot("09:00 - 10:00")),
					newPersistenceSchedule(testfixtures.WithSessionID("spanning"), testfixtures.WithTimeSlot("07:30 - 12:00")),
					newPersistenceSchedule(testfixtures.WithSessionID("undecodable"), testfixtures.WithTimeSlot("sometime")),
					newPersistenceSchedule(testfixtures.WithSessionID("next-day"), testfixtures.WithDate(day.AddDate(0, 0, 1))),
				}
				for _, s := range fixtures {
					if err := repo.Save(ctx, s); err != nil {
						t.Fatalf("save %s: %v", s.ID, err)
					}
				}

				cases := []struct {
					name     string
					from, to time.Time
					want     []string
				}{
					{"whole day", day, day.AddDate(0, 0, 1), []string{"undecodable", "early", "spanning", "morning"}},
					{"touching end is excluded", day.Add(8 * time.Hour), day.Add(9 * time.Hour), []string{"spanning"}},
					{"touching start is excluded", day.Add(10 * time.Hour), day.Add(11 * time.Hour), []string{"spanning"}},
					{"zero length at range start", day, day.Add(time.Hour), []string{"undecodable"}},
					{"empty range", day.Add(9 * time.Hour), day.Add(9 * time.Hour), nil},
					{"reversed range", day.AddDate(0, 0, 1), day, nil},
				}

				for _, tc := range cases {
					got, err := repo.FindByTimeRange(ctx, tc.from, tc.to)
					if err != nil {
						t.Fatalf("%s: find by time range: %v", tc.name, err)
					}
					if ids := scheduleIDs(got); !slices.Equal(ids, tc.want) && !(len(ids) == 0 && len(tc.want) == 0) {
						t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, ids)
					}
				}
			})

			t.Run("lists by class and in deterministic order", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := newRepo(t, nil)

				fixtures := []persistence.Schedule{
					newPersistenceSchedule(testfixtures.WithSessionID("b"), testfixtures.WithClassID("algebra"), testfixtures.WithTimeSlot("09:00 - 10:00")),
					newPersistenceSchedule(testfixtures.WithSessionID("a"), testfixtures.WithClassID("algebra"), testfixtures.WithTimeSlot("09:00 - 10:00")),
					newPersistenceSchedule(testfixtures.WithSessionID("c"), testfixtures.WithClassID("algebra"), testfixtures.WithDate(day.AddDate(0, 0, -1))),
					newPersistenceSchedule(testfixtures.WithSessionID("d"), testfixtures.WithClassID("history")),
				}
				for _, s := range fixtures {
					if err := repo.Save(ctx, s); err != nil {
						t.Fatalf("save %s: %v", s.ID, err)
					}
				}

				byClass, err := repo.FindByClassID(ctx, "algebra")
				if err != nil {
					t.Fatalf("find by class: %v", err)
				}
				if ids := scheduleIDs(byClass); !slices.Equal(ids, []string{"c", "a", "b"}) {
					t.Fatalf("unexpected class order: %v", ids)
				}

				none, err := repo.FindByClassID(ctx, "missing")
				if err != nil {
					t.Fatalf("find by missing class: %v", err)
				}
				if len(none) != 0 {
					t.Fatalf("expected no schedules, got %v", scheduleIDs(none))
				}

				all, err := repo.FindAll(ctx)
				if err != nil {
					t.Fatalf("find all: %v", err)
				}
				if ids := scheduleIDs(all); !slices.Equal(ids, []string{"c", "a", "b", "d"}) {
					t.Fatalf("unexpected order: %v", ids)
				}
			})

			t.Run("returns copies", func(t *testing.T) {
				t.Parallel()

				ctx := context.Background()
				repo := newRepo(t, nil)

				schedule := newPersistenceSchedule(testfixtures.WithRoom("R1"))
				if err := repo.Save(ctx, schedule); err != nil {
					t.Fatalf("save: %v", err)
				}
				schedule.Room.RoomID = "mutated"

				got, err := repo.FindByID(ctx, schedule.ID)
				if err != nil {
					t.Fatalf("find by id: %v", err)
				}
				got.Room.RoomID = "mutated again"

				again, err := repo.FindByID(ctx, schedule.ID)
				if err != nil {
					t.Fatalf("find by id: %v", err)
				}
				if again.RoomID() != "R1" {
					t.Fatalf("stored schedule was mutated: %q", again.RoomID())
				}
			})
		})
	}
}

func TestInTimeRange(t *testing.T) {
	t.Parallel()

	day := testfixtures.ReferenceDate()
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", at(9), at(10), true},
		{"ends at range start", at(7), at(8), false},
		{"starts at range end", at(12), at(13), false},
		{"zero length at range start", at(8), at(8), true},
		{"zero length at range end", at(12), at(12), false},
		{"zero length before range", at(7), at(7), false},
	}

	for _, tc := range cases {
		schedule := persistence.Schedule{Start: tc.start, End: tc.end}
		if got := persistence.InTimeRange(schedule, at(8), at(12)); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
