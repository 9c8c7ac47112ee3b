package nutrition

import (
	"time"
)

// DateLayout is the calendar-date format used on the wire (?date=2025-01-31).
const DateLayout = "2006-01-02"

// Clock fixes the reference time zone in which calendar days are cut.
// All day-bucketing in the service layer goes through one Clock so that meal
// queries and aggregate keys always agree.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a Clock for loc. A nil loc means UTC.
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// WithNow returns a copy of the clock that reads the current time from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	return &Clock{loc: c.loc, now: now}
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current instant in the reference zone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// StartOfDay returns local midnight of the day containing t.
func (c *Clock) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// EndOfDay returns the last representable instant of the day containing t.
// [StartOfDay, EndOfDay] is the inclusive day interval.
func (c *Clock) EndOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), c.loc)
}

// SameDay reports whether a and b fall on the same calendar day.
func (c *Clock) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}

// DaysAgo returns the start of the day n days before today.
func (c *Clock) DaysAgo(n int) time.Time {
	return c.StartOfDay(c.Now().AddDate(0, 0, -n))
}

// ParseDate parses a YYYY-MM-DD string as a day in the reference zone.
func (c *Clock) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, c.loc)
}
