package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now().UTC())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// Day is a calendar day key in YYYY-MM-DD form, used for daily bucketing.
type Day string

// DayOf returns the Day containing t (UTC).
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format("2006-01-02"))
}

// Day returns the calendar day of the timestamp.
func (t Timestamp) Day() Day {
	return DayOf(time.Time(t))
}

// Time parses the day back into a midnight-UTC time. Zero time on bad input.
func (d Day) Time() time.Time {
	t, err := time.Parse("2006-01-02", string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Weekday returns the day-of-week for bucketing.
func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// String returns RFC3339 form.
func (t Timestamp) String() string { return t.Time().Format(time.RFC3339) }
