package catalog

import "github.com/questforge/questforge/internal/domain"

func quiz(options, correct int) domain.QuestStep {
	return domain.QuestStep{Type: domain.StepQuiz, OptionCount: options, CorrectIndex: correct}
}

func checklist(items int) domain.QuestStep {
	return domain.QuestStep{Type: domain.StepChecklist, ItemCount: items}
}

func challenge() domain.QuestStep {
	return domain.QuestStep{Type: domain.StepChallenge}
}

// Builtin is the quest set served when no catalog file is configured.
// Every category has at least one free quest.
var Builtin = []domain.QuestDefinition{
	// ── Fundamentals ───────────────────────────────────────────────
	{
		ID: "fundamentals-goal-setting", Category: "fundamentals",
		Difficulty: domain.DifficultyEasy, DurationMinutes: 10, XP: 50,
		Steps: []domain.QuestStep{quiz(4, 1), checklist(3), challenge()},
	},
	{
		ID: "fundamentals-time-blocking", Category: "fundamentals",
		Difficulty: domain.DifficultyEasy, DurationMinutes: 15, XP: 50,
		Steps: []domain.QuestStep{quiz(3, 0), quiz(4, 2), checklist(4)},
	},
	{
		ID: "fundamentals-deep-work", Category: "fundamentals",
		Difficulty: domain.DifficultyMedium, DurationMinutes: 20, XP: 100,
		Steps: []domain.QuestStep{quiz(4, 3), checklist(5), challenge()},
	},

	// ── Communication ──────────────────────────────────────────────
	{
		ID: "communication-active-listening", Category: "communication",
		Difficulty: domain.DifficultyEasy, DurationMinutes: 10, XP: 50,
		Steps: []domain.QuestStep{quiz(4, 0), challenge()},
	},
	{
		ID: "communication-feedback", Category: "communication",
		Difficulty: domain.DifficultyMedium, DurationMinutes: 20, XP: 100,
		Steps: []domain.QuestStep{quiz(4, 2), quiz(3, 1), checklist(3), challenge()},
	},
	{
		ID: "communication-negotiation", Category: "communication",
		Difficulty: domain.DifficultyHard, DurationMinutes: 30, XP: 150, IsPremium: true,
		Steps: []domain.QuestStep{quiz(5, 4), checklist(4), challenge(), challenge()},
	},

	// ── Leadership ─────────────────────────────────────────────────
	{
		ID: "leadership-delegation", Category: "leadership",
		Difficulty: domain.DifficultyMedium, DurationMinutes: 20, XP: 100,
		Steps: []domain.QuestStep{quiz(4, 1), checklist(4), challenge()},
	},
	{
		ID: "leadership-one-on-ones", Category: "leadership",
		Difficulty: domain.DifficultyMedium, DurationMinutes: 15, XP: 100, IsPremium: true,
		Steps: []domain.QuestStep{quiz(3, 2), checklist(5)},
	},
	{
		ID: "leadership-vision", Category: "leadership",
		Difficulty: domain.DifficultyHard, DurationMinutes: 30, XP: 150, IsPremium: true,
		Steps: []domain.QuestStep{quiz(4, 0), quiz(4, 3), challenge()},
	},

	// ── Wellbeing ──────────────────────────────────────────────────
	{
		ID: "wellbeing-breathing", Category: "wellbeing",
		Difficulty: domain.DifficultyEasy, DurationMinutes: 5, XP: 50,
		Steps: []domain.QuestStep{checklist(3)},
	},
	{
		ID: "wellbeing-sleep-hygiene", Category: "wellbeing",
		Difficulty: domain.DifficultyEasy, DurationMinutes: 10, XP: 50,
		Steps: []domain.QuestStep{quiz(4, 2), checklist(5)},
	},
	{
		ID: "wellbeing-stress-reset", Category: "wellbeing",
		Difficulty: domain.DifficultyMedium, DurationMinutes: 15, XP: 100, IsPremium: true,
		Steps: []domain.QuestStep{quiz(3, 1), checklist(3), challenge()},
	},
}
