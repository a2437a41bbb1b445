package engagement

import "github.com/questforge/questforge/internal/domain"

// DefaultLevels is the fixed, strictly increasing threshold table.
var DefaultLevels = []domain.LevelThreshold{
	{XP: 0, Label: "Novice"},
	{XP: 100, Label: "Intermediate"},
	{XP: 300, Label: "Expert"},
	{XP: 600, Label: "Master"},
}

// levelIndex returns the index of the highest threshold <= xp.
// Negative xp is the caller's bug; it lands on the first level.
func levelIndex(xp int) int {
	idx := 0
	for i, th := range DefaultLevels {
		if xp >= th.XP {
			idx = i
		}
	}
	return idx
}

// LevelForXP returns the label of the highest threshold <= xp.
func LevelForXP(xp int) string {
	return DefaultLevels[levelIndex(xp)].Label
}

// LevelRank returns the position of a level label in the threshold table,
// or -1 for an unknown label.
func LevelRank(label string) int {
	for i, th := range DefaultLevels {
		if th.Label == label {
			return i
		}
	}
	return -1
}

// ProgressToNext returns progress toward the next threshold (0–100).
// At the top threshold it reports 100% and IsMaxLevel.
func ProgressToNext(xp int) domain.LevelProgress {
	idx := levelIndex(xp)
	cur := DefaultLevels[idx]

	if idx == len(DefaultLevels)-1 {
		return domain.LevelProgress{
			Level:            cur.Label,
			Percentage:       100,
			CurrentThreshold: cur.XP,
			NextThreshold:    cur.XP,
			IsMaxLevel:       true,
		}
	}

	next := DefaultLevels[idx+1]
	span := next.XP - cur.XP
	pct := (xp - cur.XP) * 100 / span
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return domain.LevelProgress{
		Level:            cur.Label,
		Percentage:       pct,
		CurrentThreshold: cur.XP,
		NextThreshold:    next.XP,
	}
}

// ClampXP floors xp at zero. Callers clamp before calling the calculator.
func ClampXP(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp
}
