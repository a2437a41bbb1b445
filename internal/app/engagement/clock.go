package engagement

import (
	"fmt"
	"time"

	"github.com/questforge/questforge/internal/domain"
)

// SystemClock reads wall time and resolves calendar days in one timezone.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock for the given location (UTC when nil).
func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{loc: loc}
}

// LoadClock resolves an IANA timezone name. Empty means UTC.
func LoadClock(tz string) (*SystemClock, error) {
	if tz == "" {
		return NewSystemClock(time.UTC), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return NewSystemClock(loc), nil
}

func (c *SystemClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c *SystemClock) Today() domain.Day        { return domain.DayOf(time.Now(), c.loc) }
func (c *SystemClock) Location() *time.Location { return c.loc }

// FixedClock always reports the same instant. Used by tests and the CLI's --day flag.
type FixedClock struct {
	At  time.Time
	Loc *time.Location
}

func (c FixedClock) Now() time.Time { return c.At }

func (c FixedClock) Today() domain.Day { return domain.DayOf(c.At, c.Location()) }

func (c FixedClock) Location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}
