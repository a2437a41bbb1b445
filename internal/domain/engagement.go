// Package domain holds the pure types of the progression and rewards engine.
// Quests, badges and daily challenges are referenced by id only; display
// text and translations live outside the engine.
package domain

import "time"

// ─── Quest Types ────────────────────────────────────────────────────────────

// Difficulty scales the base score of a quest attempt.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// StepType is the scoring rule a quest step uses.
type StepType string

const (
	StepQuiz      StepType = "quiz"
	StepChecklist StepType = "checklist"
	StepChallenge StepType = "challenge"
)

// QuestStep is one scored unit inside a quest. Only the fields of its Type are meaningful.
type QuestStep struct {
	Type         StepType `json:"type" toml:"type"`
	OptionCount  int      `json:"optionCount,omitempty" toml:"option_count"`
	CorrectIndex int      `json:"correctIndex,omitempty" toml:"correct_index"`
	ItemCount    int      `json:"itemCount,omitempty" toml:"item_count"`
}

// QuestDefinition is immutable quest metadata owned by the catalog.
type QuestDefinition struct {
	ID              string      `json:"id" toml:"id"`
	Category        string      `json:"category" toml:"category"`
	Difficulty      Difficulty  `json:"difficulty" toml:"difficulty"`
	DurationMinutes int         `json:"durationMinutes" toml:"duration_minutes"`
	XP              int         `json:"xp" toml:"xp"`
	IsPremium       bool        `json:"isPremium" toml:"is_premium"`
	Steps           []QuestStep `json:"steps" toml:"steps"`
}

// StepAnswer is the caller-resolved answer to one step, aligned by index with the quest's steps.
type StepAnswer struct {
	Completed     bool   `json:"completed"`
	SelectedIndex int    `json:"selectedIndex,omitempty"`
	CheckedItems  int    `json:"checkedItems,omitempty"`
	Text          string `json:"text,omitempty"`
}

// QuestAttempt is one submission of a quest.
type QuestAttempt struct {
	Answers        []StepAnswer `json:"answers"`
	ElapsedSeconds int64        `json:"elapsedSeconds"`
}

// ScoreResult is the outcome of scoring one attempt.
type ScoreResult struct {
	StepPoints       int `json:"stepPoints"`
	BaseScore        int `json:"baseScore"`
	TimeBonus        int `json:"timeBonus"`
	FinalScore       int `json:"finalScore"`
	MaxPossibleScore int `json:"maxPossibleScore"`
	CorrectSteps     int `json:"correctSteps"`
	TotalSteps       int `json:"totalSteps"`
}

// Perfect reports whether the base score reached the maximum.
func (r ScoreResult) Perfect() bool {
	return r.MaxPossibleScore > 0 && r.BaseScore == r.MaxPossibleScore
}

// ─── Badge Types ────────────────────────────────────────────────────────────

// RequirementType selects how a badge requirement is evaluated.
type RequirementType string

const (
	ReqQuestsCompleted  RequirementType = "quests_completed"
	ReqStreak           RequirementType = "streak"
	ReqXP               RequirementType = "xp"
	ReqProfileComplete  RequirementType = "profile_complete"
	ReqPremium          RequirementType = "premium"
	ReqPremiumMonths    RequirementType = "premium_months"
	ReqCategoryComplete RequirementType = "category_complete"
	ReqSpecial          RequirementType = "special"
)

// Known reports whether t is a requirement type the evaluator handles.
func (t RequirementType) Known() bool {
	switch t {
	case ReqQuestsCompleted, ReqStreak, ReqXP, ReqProfileComplete, ReqPremium,
		ReqPremiumMonths, ReqCategoryComplete, ReqSpecial:
		return true
	}
	return false
}

// Rarity is display metadata for a badge.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Requirement is the condition a badge needs. Count is used by the
// threshold types, Key by category_complete and special, Want by the
// boolean types.
type Requirement struct {
	Type  RequirementType `json:"type" toml:"type"`
	Count int             `json:"count,omitempty" toml:"count"`
	Key   string          `json:"key,omitempty" toml:"key"`
	Want  bool            `json:"want,omitempty" toml:"want"`
}

// BadgeDefinition is one entry of the static badge catalog.
type BadgeDefinition struct {
	ID          string      `json:"id" toml:"id"`
	Requirement Requirement `json:"requirement" toml:"requirement"`
	Rarity      Rarity      `json:"rarity" toml:"rarity"`
}

// BadgeStats is the snapshot badge requirements are evaluated against.
type BadgeStats struct {
	QuestsCompleted     int             `json:"questsCompleted"`
	CurrentStreak       int             `json:"currentStreak"`
	LongestStreak       int             `json:"longestStreak"`
	TotalXP             int             `json:"totalXp"`
	ProfileComplete     bool            `json:"profileComplete"`
	IsPremium           bool            `json:"isPremium"`
	PremiumMonths       int             `json:"premiumMonths"`
	CompletedCategories map[string]bool `json:"completedCategories"`
	SpecialFlags        map[string]bool `json:"specialFlags"`
}

// ─── Level Types ────────────────────────────────────────────────────────────

// LevelThreshold maps a minimum XP to a level label.
type LevelThreshold struct {
	XP    int    `json:"xp"`
	Label string `json:"label"`
}

// LevelProgress describes how far xp is between two thresholds.
type LevelProgress struct {
	Level            string `json:"level"`
	Percentage       int    `json:"percentage"`
	CurrentThreshold int    `json:"currentThreshold"`
	NextThreshold    int    `json:"nextThreshold"`
	IsMaxLevel       bool   `json:"isMaxLevel"`
}

// ─── Daily Challenge Types ──────────────────────────────────────────────────

// ChallengeType decides the requirement of a daily challenge.
type ChallengeType string

const (
	ChallengeQuizMaster       ChallengeType = "quiz_master"
	ChallengeSpeedRunner      ChallengeType = "speed_runner"
	ChallengePerfectionist    ChallengeType = "perfectionist"
	ChallengeStreakKeeper     ChallengeType = "streak_keeper"
	ChallengeCategoryExplorer ChallengeType = "category_explorer"
)

// ChallengeTypes is the selection order used by the generator.
var ChallengeTypes = []ChallengeType{
	ChallengeQuizMaster,
	ChallengeSpeedRunner,
	ChallengePerfectionist,
	ChallengeStreakKeeper,
	ChallengeCategoryExplorer,
}

// ChallengeStatus is the lifecycle state of a daily challenge.
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
)

// ChallengeRequirement is declarative: the engine interprets it, it never executes.
type ChallengeRequirement struct {
	Description string `json:"description"`
	Target      string `json:"target"`
	Value       int    `json:"value"`
	Category    string `json:"category,omitempty"`
}

// ChallengeRewards is what completing a daily challenge grants.
type ChallengeRewards struct {
	XP     int    `json:"xp"`
	Streak bool   `json:"streak"`
	Badge  string `json:"badge,omitempty"`
}

// DailyChallenge is the single record for one (user, day).
type DailyChallenge struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"userId"`
	Date         Day                    `json:"date"`
	Type         ChallengeType          `json:"type"`
	QuestID      string                 `json:"questId"`
	Seed         int64                  `json:"seed"`
	Requirements []ChallengeRequirement `json:"requirements"`
	Rewards      ChallengeRewards       `json:"rewards"`
	Status       ChallengeStatus        `json:"status"`
	ExpiresAt    time.Time              `json:"expiresAt"`
	CompletedAt  *time.Time             `json:"completedAt,omitempty"`

	// Transient marks a challenge that could not be persisted.
	Transient bool `json:"transient,omitempty"`
}
