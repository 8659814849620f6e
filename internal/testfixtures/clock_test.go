package testfixtures

import (
	"testing"
	"time"

	"github.com/example/equipment-rental/internal/calendar"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if !clock.Today().Equal(calendar.NewDate(2024, time.June, 15)) {
		t.Fatalf("unexpected today %v", clock.Today())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.AdvanceDays(3)
	if !updated.Equal(start.AddDate(0, 0, 3)) {
		t.Fatalf("advance returned %v", updated)
	}

	nowFn := clock.NowFunc()
	clock.Set(start.Add(2 * time.Hour))
	if got := nowFn(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected NowFunc to follow Set, got %v", got)
	}
}

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("")
	next := gen.NextFunc()
	if a, b := next(), next(); a != "id-1" || b != "id-2" {
		t.Fatalf("unexpected sequence %q %q", a, b)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued, got %d", gen.Issued())
	}
}
