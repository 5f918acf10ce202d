package testfixtures

import (
	"testing"
	"time"
)

func TestClockStartsAtReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if !clock.Today(nil).Equal(ReferenceDate()) {
		t.Fatalf("expected ReferenceDate, got %v", clock.Today(nil))
	}
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2025, time.May, 1, 23, 30, 0, 0, time.UTC)
	clock := NewClock(start)
	stamp := clock.NowFunc()

	if got := clock.Advance(45 * time.Minute); !got.Equal(start.Add(45 * time.Minute)) {
		t.Fatalf("advance returned %v", got)
	}
	if got := stamp(); !got.Equal(start.Add(45 * time.Minute)) {
		t.Fatalf("NowFunc did not follow the clock, got %v", got)
	}

	want := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)
	if got := clock.Today(time.UTC); !got.Equal(want) {
		t.Fatalf("expected today %v, got %v", want, got)
	}

	if got := clock.AdvanceDays(7); !got.Equal(start.Add(45*time.Minute).AddDate(0, 0, 7)) {
		t.Fatalf("AdvanceDays returned %v", got)
	}
}

func TestClockTodayUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	clock := NewClock(time.Date(2025, time.May, 1, 20, 0, 0, 0, time.UTC))

	want := time.Date(2025, time.May, 2, 0, 0, 0, 0, tokyo)
	if got := clock.Today(tokyo); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNilClockFallsBackToWallTime(t *testing.T) {
	var clock *Clock
	before := time.Now()
	if got := clock.NowFunc()(); got.Before(before) {
		t.Fatalf("expected wall clock time, got %v", got)
	}
}
