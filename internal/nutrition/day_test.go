package nutrition

import (
	"testing"
	"time"
)

// TestClock_DayBoundary verifies that the last millisecond of a day and the
// first instant of the next day land in different buckets.
func TestClock_DayBoundary(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	c := NewClock(loc)

	late := time.Date(2025, 3, 10, 23, 59, 59, int(999*time.Millisecond), loc)
	early := time.Date(2025, 3, 11, 0, 0, 0, 0, loc)

	if c.SameDay(late, early) {
		t.Fatal("23:59:59.999 and 00:00:00.000 must be different days")
	}
	if !c.StartOfDay(late).Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("StartOfDay(late) = %v", c.StartOfDay(late))
	}
	if late.After(c.EndOfDay(late)) {
		t.Errorf("late %v is after EndOfDay %v", late, c.EndOfDay(late))
	}
	if !early.After(c.EndOfDay(late)) {
		t.Errorf("early %v should be after EndOfDay(late) %v", early, c.EndOfDay(late))
	}
}

// TestClock_ReferenceZone verifies the day is cut in the clock's zone, not
// in the zone the instant happens to carry.
func TestClock_ReferenceZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	c := NewClock(loc)

	// 23:30 UTC on the 10th is 01:30 on the 11th at UTC+2.
	instant := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	want := time.Date(2025, 3, 11, 0, 0, 0, 0, loc)
	if got := c.StartOfDay(instant); !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

func TestClock_ParseDateAndDaysAgo(t *testing.T) {
	c := NewClock(nil).WithNow(func() time.Time {
		return time.Date(2025, 1, 3, 15, 0, 0, 0, time.UTC)
	})

	d, err := c.ParseDate("2025-01-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := c.DaysAgo(2); !got.Equal(d) {
		t.Errorf("DaysAgo(2) = %v, want %v", got, d)
	}
	if _, err := c.ParseDate("01/01/2025"); err == nil {
		t.Error("expected an error for a non ISO date")
	}
}
