package domain

import "time"

// CompletedQuest records the latest scored submission of a quest.
type CompletedQuest struct {
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
	TimeBonus   int       `json:"timeBonus"`
}

// UserProgressionState is the persisted progression record of one user.
//
// Level is derived from XP and is recomputed on every read; it is never
// trusted from storage. LastLoginDay keeps the raw stored string so an
// unparsable value can be treated as a first login. LastChallengeDay is the
// day whose daily challenge reward was last granted, at most one per day.
type UserProgressionState struct {
	XP               int                       `json:"xp"`
	Level            string                    `json:"level,omitempty"`
	Streak           int                       `json:"streak"`
	LongestStreak    int                       `json:"longestStreak"`
	LastLoginDay     string                    `json:"lastLoginDay,omitempty"`
	LastChallengeDay string                    `json:"lastChallengeDay,omitempty"`
	Badges           []string                  `json:"badges"`
	CompletedQuests  map[string]CompletedQuest `json:"completedQuests"`

	ProfileComplete bool     `json:"profileComplete"`
	IsPremium       bool     `json:"isPremium"`
	PremiumMonths   int      `json:"premiumMonths"`
	SpecialFlags    []string `json:"specialFlags,omitempty"`
}

// HasBadge reports whether id was already earned.
func (s UserProgressionState) HasBadge(id string) bool {
	for _, b := range s.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// EarnedBadges returns the badge ids as a set.
func (s UserProgressionState) EarnedBadges() map[string]bool {
	set := make(map[string]bool, len(s.Badges))
	for _, b := range s.Badges {
		set[b] = true
	}
	return set
}

// MergeBadges set-unions ids into Badges, keeping insertion order.
// It returns only the ids that were actually added.
func (s *UserProgressionState) MergeBadges(ids []string) []string {
	seen := s.EarnedBadges()
	var added []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		s.Badges = append(s.Badges, id)
		added = append(added, id)
	}
	return added
}

// AddSpecialFlags set-unions flags into SpecialFlags.
func (s *UserProgressionState) AddSpecialFlags(flags ...string) {
	seen := make(map[string]bool, len(s.SpecialFlags))
	for _, f := range s.SpecialFlags {
		seen[f] = true
	}
	for _, f := range flags {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		s.SpecialFlags = append(s.SpecialFlags, f)
	}
}

// Clone returns a deep copy.
func (s UserProgressionState) Clone() UserProgressionState {
	out := s
	out.Badges = append([]string(nil), s.Badges...)
	out.SpecialFlags = append([]string(nil), s.SpecialFlags...)
	out.CompletedQuests = make(map[string]CompletedQuest, len(s.CompletedQuests))
	for k, v := range s.CompletedQuests {
		out.CompletedQuests[k] = v
	}
	return out
}

// ProfileUpdate carries entitlement and profile changes from outside the engine.
// Nil fields are left untouched; SpecialFlags are merged, never removed.
type ProfileUpdate struct {
	ProfileComplete *bool    `json:"profileComplete,omitempty"`
	IsPremium       *bool    `json:"isPremium,omitempty"`
	PremiumMonths   *int     `json:"premiumMonths,omitempty"`
	SpecialFlags    []string `json:"specialFlags,omitempty"`
}

// ─── Service Results ────────────────────────────────────────────────────────
// Degraded is set when the store could not be used and the result reflects
// in-memory state only.

// LoginResult is returned by a login event.
type LoginResult struct {
	UserID        string   `json:"userId"`
	Streak        int      `json:"streak"`
	LongestStreak int      `json:"longestStreak"`
	StreakChanged bool     `json:"streakChanged"`
	NewBadges     []string `json:"newBadges"`
	Level         string   `json:"level"`
	Degraded      bool     `json:"degraded,omitempty"`
}

// SubmitResult is returned by a quest submission.
type SubmitResult struct {
	UserID             string          `json:"userId"`
	QuestID            string          `json:"questId"`
	Score              ScoreResult     `json:"score"`
	XPAwarded          int             `json:"xpAwarded"`
	TotalXP            int             `json:"totalXp"`
	NewBadges          []string        `json:"newBadges"`
	NewLevel           string          `json:"newLevel"`
	LeveledUp          bool            `json:"leveledUp"`
	ChallengeCompleted *DailyChallenge `json:"challengeCompleted,omitempty"`
	Degraded           bool            `json:"degraded,omitempty"`
}

// ProfileResult is returned by a profile update.
type ProfileResult struct {
	UserID    string   `json:"userId"`
	NewBadges []string `json:"newBadges"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// ProgressionView is the read model of a user's progression.
type ProgressionView struct {
	UserID   string               `json:"userId"`
	State    UserProgressionState `json:"state"`
	Progress LevelProgress        `json:"progress"`
	Degraded bool                 `json:"degraded,omitempty"`
}
