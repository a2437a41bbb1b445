package engagement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/domain"
)

// ChallengeGenerator selects one quest and challenge type per user per day.
// First-of-day selection is deterministic in the day; rerolls use a
// caller-supplied seed.
type ChallengeGenerator struct {
	catalog domain.QuestCatalog
	clock   domain.Clock
	newID   func() string
}

// NewChallengeGenerator creates a generator over the quest catalog.
func NewChallengeGenerator(catalog domain.QuestCatalog, clock domain.Clock) *ChallengeGenerator {
	return &ChallengeGenerator{
		catalog: catalog,
		clock:   clock,
		newID:   uuid.NewString,
	}
}

// GenerateRequest is the input to one selection.
type GenerateRequest struct {
	UserID string
	Day    domain.Day

	// Premium users may be offered premium quests.
	Premium bool

	// Taken holds quests already active or completed for the user.
	Taken map[string]bool

	// ExcludeQuestID is the quest just rejected by a reroll.
	ExcludeQuestID string

	// Seed drives index selection. Use DailySeed for the first-of-day case.
	Seed int64
}

// DailySeed is the deterministic seed for the first challenge of a day.
func DailySeed(day domain.Day) int64 {
	return int64(day.YearDay() % 365)
}

// Generate builds the challenge for req. It fails only with
// ErrNoChallengeAvailable (nothing selectable even after fallback) or a
// catalog error.
func (g *ChallengeGenerator) Generate(ctx context.Context, req GenerateRequest) (domain.DailyChallenge, error) {
	all, err := g.catalog.ListQuests(ctx, domain.QuestFilter{})
	if err != nil {
		return domain.DailyChallenge{}, fmt.Errorf("list quests: %w", err)
	}
	return g.Build(all, req)
}

// Build is Generate over an already-listed catalog. It does no I/O, so it
// is safe inside a store update callback.
func (g *ChallengeGenerator) Build(all []domain.QuestDefinition, req GenerateRequest) (domain.DailyChallenge, error) {
	quest, err := SelectQuest(all, req)
	if err != nil {
		return domain.DailyChallenge{}, err
	}

	ctype := domain.ChallengeTypes[pickIndex(req.Seed, len(domain.ChallengeTypes))]
	return domain.DailyChallenge{
		ID:           g.newID(),
		UserID:       req.UserID,
		Date:         req.Day,
		Type:         ctype,
		QuestID:      quest.ID,
		Seed:         req.Seed,
		Requirements: challengeRequirements(ctype, quest),
		Rewards:      challengeRewards(ctype, quest),
		Status:       domain.ChallengeActive,
		ExpiresAt:    req.Day.AddDays(1).Start(g.clock.Location()),
	}, nil
}

// SelectQuest applies the entitlement and exclusion filters and picks
// quests[seed mod n]. When the filtered set is empty it falls back to the
// non-premium quests other than ExcludeQuestID, and only then to every
// non-premium quest, so a rerolled quest comes back only when nothing else
// is left. When no non-premium quest exists it returns
// ErrNoChallengeAvailable wrapping ErrEmptyCatalog.
func SelectQuest(quests []domain.QuestDefinition, req GenerateRequest) (domain.QuestDefinition, error) {
	exclude := make(map[string]bool, len(req.Taken)+1)
	for id, taken := range req.Taken {
		if taken {
			exclude[id] = true
		}
	}
	if req.ExcludeQuestID != "" {
		exclude[req.ExcludeQuestID] = true
	}

	available := filterQuests(quests, domain.QuestFilter{FreeOnly: !req.Premium, ExcludeIDs: exclude})
	if len(available) == 0 && req.ExcludeQuestID != "" {
		available = filterQuests(quests, domain.QuestFilter{
			FreeOnly:   true,
			ExcludeIDs: map[string]bool{req.ExcludeQuestID: true},
		})
	}
	if len(available) == 0 {
		available = filterQuests(quests, domain.QuestFilter{FreeOnly: true})
	}
	if len(available) == 0 {
		return domain.QuestDefinition{}, fmt.Errorf("%w: %w", domain.ErrNoChallengeAvailable, domain.ErrEmptyCatalog)
	}
	return available[pickIndex(req.Seed, len(available))], nil
}

// filterQuests returns matching quests sorted by id, so selection does not
// depend on the order a catalog backend lists them in.
func filterQuests(quests []domain.QuestDefinition, f domain.QuestFilter) []domain.QuestDefinition {
	var out []domain.QuestDefinition
	for _, q := range quests {
		if f.Matches(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// pickIndex maps any seed, including negative ones, onto [0, n).
func pickIndex(seed int64, n int) int {
	m := seed % int64(n)
	if m < 0 {
		m += int64(n)
	}
	return int(m)
}

func challengeRequirements(t domain.ChallengeType, q domain.QuestDefinition) []domain.ChallengeRequirement {
	switch t {
	case domain.ChallengeQuizMaster:
		return []domain.ChallengeRequirement{{
			Description: "Score a perfect result", Target: "score_percent", Value: 100,
		}}
	case domain.ChallengeSpeedRunner:
		return []domain.ChallengeRequirement{{
			Description: "Finish within 70% of the expected time", Target: "elapsed_seconds_max",
			Value: FastThresholdSeconds(q.DurationMinutes),
		}}
	case domain.ChallengePerfectionist:
		return []domain.ChallengeRequirement{{
			Description: "Complete every step without a mistake", Target: "mistakes_max", Value: 0,
		}}
	case domain.ChallengeStreakKeeper:
		return []domain.ChallengeRequirement{{
			Description: "Keep your streak alive today", Target: "streak_days_min", Value: 1,
		}}
	case domain.ChallengeCategoryExplorer:
		return []domain.ChallengeRequirement{{
			Description: "Complete a quest from this category", Target: "category", Value: 1,
			Category: q.Category,
		}}
	default:
		return nil
	}
}

func challengeRewards(t domain.ChallengeType, q domain.QuestDefinition) domain.ChallengeRewards {
	r := domain.ChallengeRewards{XP: q.XP * 2}
	switch t {
	case domain.ChallengeStreakKeeper:
		r.Streak = true
	case domain.ChallengeQuizMaster, domain.ChallengeSpeedRunner, domain.ChallengePerfectionist:
		r.Badge = string(t)
	}
	return r
}

// ChallengeFlag is the special flag recorded when a challenge with a badge
// reward is completed. Badge catalog entries of type "special" key on it.
func ChallengeFlag(t domain.ChallengeType) string {
	return "daily_" + string(t)
}

// ChallengeOutcome is what a submission achieved, as seen by the requirement check.
type ChallengeOutcome struct {
	QuestID        string
	Category       string
	Score          domain.ScoreResult
	ElapsedSeconds int64
	StreakActive   bool
}

// ChallengeMet reports whether outcome satisfies every requirement of ch.
// Only an active challenge for the same quest can be met.
func ChallengeMet(ch domain.DailyChallenge, outcome ChallengeOutcome) bool {
	if ch.Status != domain.ChallengeActive || ch.QuestID != outcome.QuestID {
		return false
	}
	for _, req := range ch.Requirements {
		if !requirementMet(req, outcome) {
			return false
		}
	}
	return true
}

func requirementMet(req domain.ChallengeRequirement, o ChallengeOutcome) bool {
	switch req.Target {
	case "score_percent":
		if o.Score.MaxPossibleScore == 0 {
			return false
		}
		return o.Score.BaseScore*100/o.Score.MaxPossibleScore >= req.Value
	case "elapsed_seconds_max":
		return o.ElapsedSeconds <= int64(req.Value)
	case "mistakes_max":
		return o.Score.TotalSteps-o.Score.CorrectSteps <= req.Value
	case "streak_days_min":
		return o.StreakActive
	case "category":
		return o.Category == req.Category
	default:
		return false
	}
}

// Expired reports whether ch is past its expiry at now.
func Expired(ch domain.DailyChallenge, now time.Time) bool {
	return !ch.ExpiresAt.IsZero() && !now.Before(ch.ExpiresAt)
}
