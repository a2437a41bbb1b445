package engagement

import "github.com/questforge/questforge/internal/domain"

// EvaluateBadges returns the ids of catalog badges whose requirement holds
// for stats and that are not in earned, in catalog order.
//
// The result is a candidate list; callers merge it with set-union
// (UserProgressionState.MergeBadges), so repeated or out-of-order runs
// never duplicate a badge.
func EvaluateBadges(catalog []domain.BadgeDefinition, stats domain.BadgeStats, earned map[string]bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, def := range catalog {
		if earned[def.ID] || seen[def.ID] {
			continue
		}
		if RequirementMet(def.Requirement, stats) {
			seen[def.ID] = true
			out = append(out, def.ID)
		}
	}
	return out
}

// RequirementMet evaluates one requirement. Unknown types are false.
func RequirementMet(req domain.Requirement, stats domain.BadgeStats) bool {
	switch req.Type {
	case domain.ReqQuestsCompleted:
		return stats.QuestsCompleted >= req.Count
	case domain.ReqStreak:
		return max(stats.CurrentStreak, stats.LongestStreak) >= req.Count
	case domain.ReqXP:
		return stats.TotalXP >= req.Count
	case domain.ReqProfileComplete:
		return stats.ProfileComplete == req.Want
	case domain.ReqPremium:
		return stats.IsPremium == req.Want
	case domain.ReqPremiumMonths:
		return stats.PremiumMonths >= req.Count
	case domain.ReqCategoryComplete:
		return req.Key != "" && stats.CompletedCategories[req.Key]
	case domain.ReqSpecial:
		return req.Key != "" && stats.SpecialFlags[req.Key]
	default:
		return false
	}
}

// ─── Badge Catalog ──────────────────────────────────────────────────────────
// Catalog order is award order.

// DefaultBadges returns the built-in badge catalog.
func DefaultBadges() []domain.BadgeDefinition {
	return []domain.BadgeDefinition{
		// ── Quests ─────────────────────────────────────────────────────
		{ID: "first_quest", Rarity: domain.RarityCommon,
			Requirement: domain.Requirement{Type: domain.ReqQuestsCompleted, Count: 1}},
		{ID: "five_quests", Rarity: domain.RarityCommon,
			Requirement: domain.Requirement{Type: domain.ReqQuestsCompleted, Count: 5}},
		{ID: "ten_quests", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqQuestsCompleted, Count: 10}},
		{ID: "twenty_five_quests", Rarity: domain.RarityEpic,
			Requirement: domain.Requirement{Type: domain.ReqQuestsCompleted, Count: 25}},

		// ── Streaks ────────────────────────────────────────────────────
		{ID: "streak_3", Rarity: domain.RarityCommon,
			Requirement: domain.Requirement{Type: domain.ReqStreak, Count: 3}},
		{ID: "streak_7", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqStreak, Count: 7}},
		{ID: "streak_30", Rarity: domain.RarityEpic,
			Requirement: domain.Requirement{Type: domain.ReqStreak, Count: 30}},
		{ID: "streak_100", Rarity: domain.RarityLegendary,
			Requirement: domain.Requirement{Type: domain.ReqStreak, Count: 100}},

		// ── Experience ─────────────────────────────────────────────────
		{ID: "xp_100", Rarity: domain.RarityCommon,
			Requirement: domain.Requirement{Type: domain.ReqXP, Count: 100}},
		{ID: "xp_600", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqXP, Count: 600}},
		{ID: "xp_2000", Rarity: domain.RarityEpic,
			Requirement: domain.Requirement{Type: domain.ReqXP, Count: 2000}},

		// ── Profile & membership ───────────────────────────────────────
		{ID: "profile_complete", Rarity: domain.RarityCommon,
			Requirement: domain.Requirement{Type: domain.ReqProfileComplete, Want: true}},
		{ID: "premium_member", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqPremium, Want: true}},
		{ID: "premium_6_months", Rarity: domain.RarityEpic,
			Requirement: domain.Requirement{Type: domain.ReqPremiumMonths, Count: 6}},
		{ID: "premium_12_months", Rarity: domain.RarityLegendary,
			Requirement: domain.Requirement{Type: domain.ReqPremiumMonths, Count: 12}},

		// ── Categories ─────────────────────────────────────────────────
		{ID: "fundamentals_complete", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqCategoryComplete, Key: "fundamentals"}},
		{ID: "communication_complete", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqCategoryComplete, Key: "communication"}},
		{ID: "leadership_complete", Rarity: domain.RarityEpic,
			Requirement: domain.Requirement{Type: domain.ReqCategoryComplete, Key: "leadership"}},
		{ID: "wellbeing_complete", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqCategoryComplete, Key: "wellbeing"}},

		// ── Special ────────────────────────────────────────────────────
		{ID: "early_adopter", Rarity: domain.RarityLegendary,
			Requirement: domain.Requirement{Type: domain.ReqSpecial, Key: "early_adopter"}},
		{ID: "quiz_master", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqSpecial, Key: "daily_quiz_master"}},
		{ID: "speed_runner", Rarity: domain.RarityRare,
			Requirement: domain.Requirement{Type: domain.ReqSpecial, Key: "daily_speed_runner"}},
		{ID: "perfectionist", Rarity: domain.RarityEpic,
			Requirement: domain.Requirement{Type: domain.ReqSpecial, Key: "daily_perfectionist"}},
	}
}
