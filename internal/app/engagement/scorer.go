package engagement

import (
	"fmt"
	"unicode/utf8"

	"github.com/questforge/questforge/internal/domain"
)

// Per-step points.
const (
	QuizPoints      = 50
	ChecklistPoints = 30
	ChallengePoints = 20

	// A challenge answer must be longer than this many characters,
	// counted as submitted, whitespace included.
	ChallengeMinChars = 10
)

// Time bonus tiers, added after multipliers.
const (
	FastTimeBonus   = 50 // elapsed <= 70% of expected duration
	OnTimeTimeBonus = 20 // elapsed <= 100% of expected duration
)

// Multipliers are kept in percent so scoring stays in integer arithmetic.
var difficultyPercent = map[domain.Difficulty]int{
	domain.DifficultyEasy:   100,
	domain.DifficultyMedium: 120,
	domain.DifficultyHard:   150,
}

const (
	premiumPercent = 150
	freePercent    = 100
)

// DifficultyMultiplier returns the multiplier for d; unknown difficulties count as Easy.
func DifficultyMultiplier(d domain.Difficulty) float64 {
	return float64(difficultyPercent[normalizeDifficulty(d)]) / 100
}

// PremiumMultiplier returns 1.5 for premium users, else 1.0.
func PremiumMultiplier(premium bool) float64 {
	if premium {
		return float64(premiumPercent) / 100
	}
	return float64(freePercent) / 100
}

func normalizeDifficulty(d domain.Difficulty) domain.Difficulty {
	if _, ok := difficultyPercent[d]; ok {
		return d
	}
	return domain.DifficultyEasy
}

// ScoreAttempt scores one attempt of quest. Only steps the caller marked
// completed earn points. Extra answers or a negative elapsed time are
// rejected with ErrInvalidInput.
func ScoreAttempt(quest domain.QuestDefinition, attempt domain.QuestAttempt, premium bool) (domain.ScoreResult, error) {
	if len(attempt.Answers) > len(quest.Steps) {
		return domain.ScoreResult{}, fmt.Errorf("%w: %d answers for %d steps",
			domain.ErrInvalidInput, len(attempt.Answers), len(quest.Steps))
	}
	if attempt.ElapsedSeconds < 0 {
		return domain.ScoreResult{}, fmt.Errorf("%w: negative elapsed time", domain.ErrInvalidInput)
	}

	res := domain.ScoreResult{TotalSteps: len(quest.Steps)}
	for i, ans := range attempt.Answers {
		pts := stepPoints(quest.Steps[i], ans)
		if pts > 0 {
			res.CorrectSteps++
		}
		res.StepPoints += pts
	}

	res.BaseScore = applyMultipliers(res.StepPoints, quest.Difficulty, premium)
	res.TimeBonus = TimeBonus(attempt.ElapsedSeconds, quest.DurationMinutes)
	res.FinalScore = res.BaseScore + res.TimeBonus
	res.MaxPossibleScore = MaxPossibleScore(quest, premium)
	return res, nil
}

// MaxPossibleScore scores a fully correct attempt with no time bonus.
func MaxPossibleScore(quest domain.QuestDefinition, premium bool) int {
	sum := 0
	for _, step := range quest.Steps {
		sum += maxStepPoints(step)
	}
	return applyMultipliers(sum, quest.Difficulty, premium)
}

// TimeBonus returns the flat bonus for finishing within the expected duration.
// Quests without a duration earn none.
func TimeBonus(elapsedSeconds int64, durationMinutes int) int {
	if durationMinutes <= 0 || elapsedSeconds < 0 {
		return 0
	}
	expected := int64(durationMinutes) * 60
	switch {
	case elapsedSeconds*10 <= expected*7:
		return FastTimeBonus
	case elapsedSeconds <= expected:
		return OnTimeTimeBonus
	default:
		return 0
	}
}

// FastThresholdSeconds is the elapsed time that still earns the fast bonus.
func FastThresholdSeconds(durationMinutes int) int {
	return durationMinutes * 60 * 7 / 10
}

func stepPoints(step domain.QuestStep, ans domain.StepAnswer) int {
	if !ans.Completed {
		return 0
	}
	switch step.Type {
	case domain.StepQuiz:
		if ans.SelectedIndex == step.CorrectIndex {
			return QuizPoints
		}
	case domain.StepChecklist:
		if ans.CheckedItems == step.ItemCount {
			return ChecklistPoints
		}
	case domain.StepChallenge:
		if utf8.RuneCountInString(ans.Text) > ChallengeMinChars {
			return ChallengePoints
		}
	}
	return 0
}

func maxStepPoints(step domain.QuestStep) int {
	switch step.Type {
	case domain.StepQuiz:
		return QuizPoints
	case domain.StepChecklist:
		return ChecklistPoints
	case domain.StepChallenge:
		return ChallengePoints
	default:
		return 0
	}
}

// applyMultipliers computes round(sum × difficulty × premium) with half-up rounding.
func applyMultipliers(sum int, d domain.Difficulty, premium bool) int {
	pm := freePercent
	if premium {
		pm = premiumPercent
	}
	product := sum * difficultyPercent[normalizeDifficulty(d)] * pm
	return (product + 5000) / 10000
}
