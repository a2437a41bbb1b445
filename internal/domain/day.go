package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format of a calendar day.
const DayLayout = "2006-01-02"

// Day is a calendar date without a time of day or a location.
// Internally it is midnight UTC, so day arithmetic never crosses a DST edge.
type Day struct {
	t time.Time
}

// DayOf returns the calendar day of t as observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return NewDay(y, m, d)
}

// NewDay builds a Day from its components. Out-of-range values normalize
// the same way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses "YYYY-MM-DD". Malformed input wraps ErrInvalidInput.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return Day{}, fmt.Errorf("%w: malformed day %q", ErrInvalidInput, s)
	}
	return Day{t: t}, nil
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool { return d.t.IsZero() }

// String renders the day as "YYYY-MM-DD".
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DayLayout)
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// DaysSince returns the whole number of days from o to d.
func (d Day) DaysSince(o Day) int {
	return int(d.t.Sub(o.t) / (24 * time.Hour))
}

// Equal reports whether both values name the same calendar day.
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

// Before reports whether d is strictly earlier than o.
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

// YearDay returns the day of the year, 1..366.
func (d Day) YearDay() int { return d.t.YearDay() }

// Start returns the instant the day begins in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, dd := d.t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the zero Day.
func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
