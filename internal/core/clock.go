package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a naive time-of-day, expressed as an offset since midnight.
// It has no notion of a date or time zone; combine it with a civil date via
// atDate to get a concrete time.Time.
type ClockTime struct {
	offset time.Duration
}

// NewClockTime builds a ClockTime from an hour/minute pair.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime{offset: time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute}
}

func clockTimeOf(t time.Time) ClockTime {
	return ClockTime{offset: time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second}
}

// Before reports whether c occurs strictly before other within the same day.
func (c ClockTime) Before(other ClockTime) bool { return c.offset < other.offset }

// Sub returns the signed duration between two times of day.
func (c ClockTime) Sub(other ClockTime) time.Duration { return c.offset - other.offset }

func (c ClockTime) String() string {
	return civilDate(time.Time{}).Add(c.offset).Format("15:04")
}

// MarshalJSON implements json.Marshaler, serializing as "HH:MM".
func (c ClockTime) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// UnmarshalJSON implements json.Unmarshaler.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	c.offset = time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	return nil
}

// atDate combines this time-of-day with the civil date of day.
func (c ClockTime) atDate(day time.Time) time.Time {
	return civilDate(day).Add(c.offset)
}

// civilDate truncates t to midnight, local wall-clock, discarding any
// sub-day component. All dates in this package are naive civil dates: no
// time zone handling beyond whatever time.Local resolves to.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func sameDate(a, b time.Time) bool {
	return civilDate(a).Equal(civilDate(b))
}

func addDays(day time.Time, n int) time.Time {
	return civilDate(day).AddDate(0, 0, n)
}
