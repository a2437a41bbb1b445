// Package engagement implements the progression and rewards engine:
// levels, streaks, badges, quest scoring and the daily challenge generator,
// plus the service that applies them to persisted user records.
package engagement

import "github.com/questforge/questforge/internal/domain"

// StreakRule identifies which transition produced a streak value.
type StreakRule int

const (
	StreakFirstLogin StreakRule = iota + 1 // no usable last login
	StreakSameDay                          // already counted today
	StreakExtended                         // consecutive day
	StreakReset                            // gap of two or more days
)

// StreakUpdate is the outcome of one login.
type StreakUpdate struct {
	Streak int
	Rule   StreakRule
}

// ShouldPersist is false only for the same-day case; rewriting an
// unchanged streak is a redundant write.
func (u StreakUpdate) ShouldPersist() bool {
	return u.Rule != StreakSameDay
}

// NextStreak computes the streak after a login on today.
// lastLoginDay is the raw stored "YYYY-MM-DD"; empty or malformed values
// count as a first login. A last login after today (clock skew) resets.
func NextStreak(current int, lastLoginDay string, today domain.Day) StreakUpdate {
	if lastLoginDay == "" {
		return StreakUpdate{Streak: 1, Rule: StreakFirstLogin}
	}
	last, err := domain.ParseDay(lastLoginDay)
	if err != nil {
		return StreakUpdate{Streak: 1, Rule: StreakFirstLogin}
	}

	switch today.DaysSince(last) {
	case 0:
		return StreakUpdate{Streak: current, Rule: StreakSameDay}
	case 1:
		if current < 0 {
			current = 0
		}
		return StreakUpdate{Streak: current + 1, Rule: StreakExtended}
	default:
		return StreakUpdate{Streak: 1, Rule: StreakReset}
	}
}

// StreakAlive reports whether the streak is still running into today: the
// last qualifying day was today or yesterday. A first-ever or broken streak
// is not alive.
func StreakAlive(current int, lastLoginDay string, today domain.Day) bool {
	if current < 1 {
		return false
	}
	switch NextStreak(current, lastLoginDay, today).Rule {
	case StreakSameDay, StreakExtended:
		return true
	default:
		return false
	}
}
