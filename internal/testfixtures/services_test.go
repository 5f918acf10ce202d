package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
)

func TestManagerFactoryUsesDeterministicIDs(t *testing.T) {
	factory := NewManagerFactory(WithIDGenerator(NewIDGenerator("sess")))
	manager := factory.NewScheduleManager(ManagerDeps{})

	stored, err := manager.AddSession(context.Background(), NewSessionFixture(WithSessionID("")).Application())
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if stored.ID != "sess-1" {
		t.Fatalf("expected generated id sess-1, got %q", stored.ID)
	}
}

func TestManagerFactorySharesStore(t *testing.T) {
	ctx := context.Background()
	factory := NewManagerFactory()
	store := NewMemoryStore(t, factory.Clock.NowFunc())

	writer := factory.NewScheduleManager(ManagerDeps{Schedules: store})
	reader := factory.NewScheduleManager(ManagerDeps{Schedules: store})

	session := NewSessionFixture()
	if _, err := writer.AddSession(ctx, session.Application()); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	got, err := reader.GetSessionByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSessionByID failed: %v", err)
	}
	if got.Room != session.Room {
		t.Fatalf("expected room %q, got %q", session.Room, got.Room)
	}
}

func TestFailingRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFailingRepository(nil)
	manager := NewManagerFactory().NewScheduleManager(ManagerDeps{Schedules: repo})

	result := manager.CheckConflict(ctx, NewSessionFixture().Application())
	if result.Status != application.Indeterminate {
		t.Fatalf("expected indeterminate result, got %v", result.Status)
	}
	if !errors.Is(result.Err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", result.Err)
	}
	if repo.Calls("FindByTimeRange") != 1 || repo.TotalCalls() != 1 {
		t.Fatalf("unexpected calls: range=%d total=%d", repo.Calls("FindByTimeRange"), repo.TotalCalls())
	}
}

func TestSessionFixture(t *testing.T) {
	first := NewSessionFixture()
	second := NewSessionFixture()
	if first.ID == second.ID || first.Room == second.Room {
		t.Fatalf("expected distinct fixtures, got %+v and %+v", first, second)
	}

	record := NewSessionFixture(WithTimeSlot("13:00 - 14:30"), WithTeacher("Dr. Lee")).Persistence()
	wantStart := ReferenceDate().Add(13 * time.Hour)
	if !record.Start.Equal(wantStart) || record.End.Sub(record.Start).Minutes() != 90 {
		t.Fatalf("unexpected times %v-%v", record.Start, record.End)
	}
	if record.Description != "Teacher: Dr. Lee" {
		t.Fatalf("unexpected description %q", record.Description)
	}
}
