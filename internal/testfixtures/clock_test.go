package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if !clock.Today().Equal(Day("2025-01-06")) {
		t.Fatalf("expected the first sprint day, got %v", clock.Today())
	}
}

func TestClockAdvanceAndSetDay(t *testing.T) {
	clock := NewClock(time.Time{})
	now := clock.NowFunc()

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(ReferenceTime().Add(90*time.Minute)) || !now().Equal(updated) {
		t.Fatalf("advance returned %v, NowFunc %v", updated, now())
	}

	clock.SetDay(Day("2025-01-09"))
	want := time.Date(2025, time.January, 9, 10, 30, 0, 0, time.UTC)
	if !now().Equal(want) {
		t.Fatalf("expected %v after SetDay, got %v", want, now())
	}

	clock.Set(want.Add(-24 * time.Hour))
	if !clock.Today().Equal(Day("2025-01-08")) {
		t.Fatalf("expected 2025-01-08 after Set, got %v", clock.Today())
	}
}

func TestNilClockFallsBackToWallTime(t *testing.T) {
	var clock *Clock
	before := time.Now()
	if got := clock.NowFunc()(); got.Before(before) {
		t.Fatalf("expected wall time, got %v", got)
	}
}
