package engagement_test

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/questforge/questforge/internal/app/engagement"
	"github.com/questforge/questforge/internal/domain"
)

func day(t *testing.T, s string) domain.Day {
	t.Helper()
	d, err := domain.ParseDay(s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return d
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want string
	}{
		{0, "Novice"},
		{99, "Novice"},
		{100, "Intermediate"},
		{299, "Intermediate"},
		{300, "Expert"},
		{599, "Expert"},
		{600, "Master"},
		{100000, "Master"},
	}
	for _, tt := range tests {
		if got := engagement.LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %q, want %q", tt.xp, got, tt.want)
		}
	}
}

func TestProgressToNext(t *testing.T) {
	tests := []struct {
		xp       int
		level    string
		pct      int
		next     int
		maxLevel bool
	}{
		{0, "Novice", 0, 100, false},
		{150, "Intermediate", 25, 300, false},
		{450, "Expert", 50, 600, false},
		{900, "Master", 100, 600, true},
	}
	for _, tt := range tests {
		p := engagement.ProgressToNext(tt.xp)
		if p.Level != tt.level || p.Percentage != tt.pct || p.NextThreshold != tt.next || p.IsMaxLevel != tt.maxLevel {
			t.Errorf("ProgressToNext(%d) = %+v, want level=%s pct=%d next=%d max=%v",
				tt.xp, p, tt.level, tt.pct, tt.next, tt.maxLevel)
		}
	}
}

func TestLevelRank(t *testing.T) {
	if engagement.LevelRank("Novice") >= engagement.LevelRank("Master") {
		t.Error("Novice should rank below Master")
	}
	if engagement.LevelRank("Grandmaster") != -1 {
		t.Error("unknown label should rank -1")
	}
}

func TestLevelForXP_MonotonicSweep(t *testing.T) {
	prev := engagement.LevelRank(engagement.LevelForXP(0))
	for xp := 0; xp <= 2000; xp++ {
		label := engagement.LevelForXP(xp)
		rank := engagement.LevelRank(label)
		if rank < 0 {
			t.Fatalf("LevelForXP(%d) = %q, not in the level table", xp, label)
		}
		if rank < prev {
			t.Fatalf("level rank dropped at xp=%d: %d -> %d", xp, prev, rank)
		}
		prev = rank

		p := engagement.ProgressToNext(xp)
		if p.Level != label || p.Percentage < 0 || p.Percentage > 100 {
			t.Fatalf("ProgressToNext(%d) = %+v", xp, p)
		}
	}
}

func TestClampXP(t *testing.T) {
	if engagement.ClampXP(-50) != 0 {
		t.Error("negative xp should clamp to 0")
	}
	if engagement.ClampXP(42) != 42 {
		t.Error("positive xp should pass through")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestNextStreak(t *testing.T) {
	today := day(t, "2024-03-10")
	tests := []struct {
		name    string
		current int
		last    string
		want    int
		rule    engagement.StreakRule
	}{
		{"first login", 0, "", 1, engagement.StreakFirstLogin},
		{"unparsable last login", 7, "last tuesday", 1, engagement.StreakFirstLogin},
		{"consecutive day", 4, "2024-03-09", 5, engagement.StreakExtended},
		{"same day", 3, "2024-03-10", 3, engagement.StreakSameDay},
		{"gap of two days", 10, "2024-03-08", 1, engagement.StreakReset},
		{"long gap", 10, "2023-03-10", 1, engagement.StreakReset},
		{"last login in the future", 5, "2024-03-11", 1, engagement.StreakReset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engagement.NextStreak(tt.current, tt.last, today)
			if got.Streak != tt.want || got.Rule != tt.rule {
				t.Errorf("NextStreak(%d, %q) = %+v, want streak=%d rule=%d",
					tt.current, tt.last, got, tt.want, tt.rule)
			}
		})
	}
}

func TestNextStreak_MonthAndLeapBoundary(t *testing.T) {
	got := engagement.NextStreak(2, "2024-02-29", day(t, "2024-03-01"))
	if got.Streak != 3 {
		t.Errorf("Feb 29 -> Mar 1 should extend, got %d", got.Streak)
	}
	got = engagement.NextStreak(2, "2023-12-31", day(t, "2024-01-01"))
	if got.Streak != 3 {
		t.Errorf("year boundary should extend, got %d", got.Streak)
	}
}

func TestNextStreak_SameDayNotPersisted(t *testing.T) {
	upd := engagement.NextStreak(3, "2024-03-10", day(t, "2024-03-10"))
	if upd.ShouldPersist() {
		t.Error("same-day login should not be persisted")
	}
	upd = engagement.NextStreak(3, "2024-03-08", day(t, "2024-03-10"))
	if !upd.ShouldPersist() {
		t.Error("reset should be persisted")
	}
}

func TestStreakAlive(t *testing.T) {
	today := day(t, "2024-03-10")
	tests := []struct {
		name    string
		current int
		last    string
		want    bool
	}{
		{"logged in today", 4, "2024-03-10", true},
		{"logged in yesterday", 4, "2024-03-09", true},
		{"gap of two days", 4, "2024-03-08", false},
		{"never logged in", 0, "", false},
		{"no streak recorded", 0, "2024-03-10", false},
		{"malformed day", 3, "yesterday", false},
		{"future day", 2, "2024-03-12", false},
	}
	for _, tt := range tests {
		if got := engagement.StreakAlive(tt.current, tt.last, today); got != tt.want {
			t.Errorf("%s: StreakAlive() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestEvaluateBadges_TenQuests(t *testing.T) {
	stats := domain.BadgeStats{QuestsCompleted: 10}
	earned := map[string]bool{"first_quest": true, "five_quests": true}

	got := engagement.EvaluateBadges(engagement.DefaultBadges(), stats, earned)
	if len(got) != 1 || got[0] != "ten_quests" {
		t.Errorf("EvaluateBadges() = %v, want [ten_quests]", got)
	}
}

func TestEvaluateBadges_CatalogOrder(t *testing.T) {
	stats := domain.BadgeStats{QuestsCompleted: 5}
	got := engagement.EvaluateBadges(engagement.DefaultBadges(), stats, nil)
	if len(got) != 2 || got[0] != "first_quest" || got[1] != "five_quests" {
		t.Errorf("EvaluateBadges() = %v, want [first_quest five_quests]", got)
	}
}

func TestEvaluateBadges_StreakUsesLongest(t *testing.T) {
	stats := domain.BadgeStats{CurrentStreak: 1, LongestStreak: 7}
	got := engagement.EvaluateBadges(engagement.DefaultBadges(), stats, nil)
	want := map[string]bool{"streak_3": true, "streak_7": true}
	if len(got) != len(want) {
		t.Fatalf("EvaluateBadges() = %v, want streak_3 and streak_7", got)
	}
	for _, id := range got {
		if !want[id] {
			t.Errorf("unexpected badge %q", id)
		}
	}
}

func TestEvaluateBadges_DuplicateCatalogEntries(t *testing.T) {
	def := domain.BadgeDefinition{ID: "dup", Requirement: domain.Requirement{Type: domain.ReqXP, Count: 1}}
	got := engagement.EvaluateBadges([]domain.BadgeDefinition{def, def}, domain.BadgeStats{TotalXP: 5}, nil)
	if len(got) != 1 {
		t.Errorf("EvaluateBadges() = %v, want one entry", got)
	}
}

func TestRequirementMet(t *testing.T) {
	stats := domain.BadgeStats{
		TotalXP:             600,
		ProfileComplete:     true,
		IsPremium:           true,
		PremiumMonths:       6,
		CompletedCategories: map[string]bool{"wellbeing": true},
		SpecialFlags:        map[string]bool{"early_adopter": true},
	}
	tests := []struct {
		req  domain.Requirement
		want bool
	}{
		{domain.Requirement{Type: domain.ReqXP, Count: 600}, true},
		{domain.Requirement{Type: domain.ReqXP, Count: 601}, false},
		{domain.Requirement{Type: domain.ReqProfileComplete, Want: true}, true},
		{domain.Requirement{Type: domain.ReqPremium, Want: true}, true},
		{domain.Requirement{Type: domain.ReqPremiumMonths, Count: 12}, false},
		{domain.Requirement{Type: domain.ReqCategoryComplete, Key: "wellbeing"}, true},
		{domain.Requirement{Type: domain.ReqCategoryComplete, Key: "leadership"}, false},
		{domain.Requirement{Type: domain.ReqCategoryComplete}, false},
		{domain.Requirement{Type: domain.ReqSpecial, Key: "early_adopter"}, true},
		{domain.Requirement{Type: "moon_phase", Count: 1}, false},
	}
	for _, tt := range tests {
		if got := engagement.RequirementMet(tt.req, stats); got != tt.want {
			t.Errorf("RequirementMet(%+v) = %v, want %v", tt.req, got, tt.want)
		}
	}
}

func TestDefaultBadges_UniqueAndKnown(t *testing.T) {
	seen := make(map[string]bool)
	for _, b := range engagement.DefaultBadges() {
		if seen[b.ID] {
			t.Errorf("duplicate badge %q", b.ID)
		}
		seen[b.ID] = true
		if !b.Requirement.Type.Known() {
			t.Errorf("badge %q has unknown requirement %q", b.ID, b.Requirement.Type)
		}
	}
}

func TestMergeBadges_SetUnion(t *testing.T) {
	st := domain.UserProgressionState{Badges: []string{"first_quest"}}
	added := st.MergeBadges([]string{"first_quest", "xp_100", "xp_100"})
	if len(added) != 1 || added[0] != "xp_100" {
		t.Errorf("added = %v, want [xp_100]", added)
	}
	if len(st.Badges) != 2 {
		t.Errorf("Badges = %v, want 2 entries", st.Badges)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Scorer Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestScoreAttempt_MediumPremiumQuiz(t *testing.T) {
	quest := domain.QuestDefinition{
		ID: "q", Difficulty: domain.DifficultyMedium,
		Steps: []domain.QuestStep{{Type: domain.StepQuiz, OptionCount: 4, CorrectIndex: 2}},
	}
	attempt := domain.QuestAttempt{Answers: []domain.StepAnswer{{Completed: true, SelectedIndex: 2}}}

	res, err := engagement.ScoreAttempt(quest, attempt, true)
	if err != nil {
		t.Fatalf("ScoreAttempt() error: %v", err)
	}
	if res.BaseScore != 90 || res.FinalScore != 90 {
		t.Errorf("score = %+v, want base 90 final 90", res)
	}
	if !res.Perfect() {
		t.Error("single correct quiz should be perfect")
	}
}

func TestScoreAttempt_StepRules(t *testing.T) {
	quest := domain.QuestDefinition{
		ID: "q", Difficulty: domain.DifficultyEasy,
		Steps: []domain.QuestStep{
			{Type: domain.StepQuiz, OptionCount: 4, CorrectIndex: 1},
			{Type: domain.StepChecklist, ItemCount: 3},
			{Type: domain.StepChallenge},
		},
	}
	tests := []struct {
		name    string
		answers []domain.StepAnswer
		points  int
		correct int
	}{
		{"all correct", []domain.StepAnswer{
			{Completed: true, SelectedIndex: 1},
			{Completed: true, CheckedItems: 3},
			{Completed: true, Text: "I will block two hours every morning."},
		}, 100, 3},
		{"wrong quiz", []domain.StepAnswer{
			{Completed: true, SelectedIndex: 0},
			{Completed: true, CheckedItems: 3},
		}, 30, 1},
		{"partial checklist", []domain.StepAnswer{
			{Completed: true, SelectedIndex: 1},
			{Completed: true, CheckedItems: 2},
		}, 50, 1},
		{"challenge exactly ten chars", []domain.StepAnswer{
			{}, {}, {Completed: true, Text: "0123456789"},
		}, 0, 0},
		{"challenge eleven chars", []domain.StepAnswer{
			{}, {}, {Completed: true, Text: "0123456789a"},
		}, 20, 1},
		{"challenge length counts whitespace", []domain.StepAnswer{
			{}, {}, {Completed: true, Text: "   short    "},
		}, 20, 1},
		{"challenge multibyte runes", []domain.StepAnswer{
			{}, {}, {Completed: true, Text: "éééééééééé"},
		}, 0, 0},
		{"not completed", []domain.StepAnswer{
			{Completed: false, SelectedIndex: 1},
		}, 0, 0},
		{"no answers", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engagement.ScoreAttempt(quest, domain.QuestAttempt{Answers: tt.answers}, false)
			if err != nil {
				t.Fatalf("ScoreAttempt() error: %v", err)
			}
			if res.StepPoints != tt.points || res.CorrectSteps != tt.correct {
				t.Errorf("points=%d correct=%d, want %d %d", res.StepPoints, res.CorrectSteps, tt.points, tt.correct)
			}
			if res.TotalSteps != 3 || res.MaxPossibleScore != 100 {
				t.Errorf("total=%d max=%d, want 3 100", res.TotalSteps, res.MaxPossibleScore)
			}
		})
	}
}

func TestScoreAttempt_Rounding(t *testing.T) {
	// 30 × 1.5 × 1.5 = 67.5 rounds half-up to 68.
	quest := domain.QuestDefinition{
		ID: "q", Difficulty: domain.DifficultyHard,
		Steps: []domain.QuestStep{{Type: domain.StepChecklist, ItemCount: 1}},
	}
	attempt := domain.QuestAttempt{Answers: []domain.StepAnswer{{Completed: true, CheckedItems: 1}}}
	res, _ := engagement.ScoreAttempt(quest, attempt, true)
	if res.BaseScore != 68 {
		t.Errorf("BaseScore = %d, want 68", res.BaseScore)
	}
}

func TestScoreAttempt_UnknownDifficultyIsEasy(t *testing.T) {
	quest := domain.QuestDefinition{
		ID: "q", Difficulty: "Nightmare",
		Steps: []domain.QuestStep{{Type: domain.StepQuiz, OptionCount: 2}},
	}
	attempt := domain.QuestAttempt{Answers: []domain.StepAnswer{{Completed: true}}}
	res, _ := engagement.ScoreAttempt(quest, attempt, false)
	if res.BaseScore != 50 {
		t.Errorf("BaseScore = %d, want 50", res.BaseScore)
	}
}

func TestScoreAttempt_NeverExceedsMax(t *testing.T) {
	steps := []domain.QuestStep{
		{Type: domain.StepQuiz, OptionCount: 4, CorrectIndex: 2},
		{Type: domain.StepChecklist, ItemCount: 3},
		{Type: domain.StepChallenge},
		{Type: domain.StepQuiz, OptionCount: 3, CorrectIndex: 0},
	}
	// Answer shapes per step: skipped, completed but empty, right, wrong,
	// partial or overfilled checklist, and very long text.
	variants := func(step domain.QuestStep) []domain.StepAnswer {
		return []domain.StepAnswer{
			{},
			{Completed: true},
			{Completed: false, SelectedIndex: step.CorrectIndex, CheckedItems: step.ItemCount, Text: "not submitted yet"},
			{Completed: true, SelectedIndex: step.CorrectIndex},
			{Completed: true, SelectedIndex: step.CorrectIndex + 1},
			{Completed: true, CheckedItems: step.ItemCount},
			{Completed: true, CheckedItems: step.ItemCount - 1},
			{Completed: true, CheckedItems: step.ItemCount + 5},
			{Completed: true, Text: strings.Repeat("reflection ", 5000)},
		}
	}
	difficulties := []domain.Difficulty{
		domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard, "Unrated",
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for _, d := range difficulties {
		quest := domain.QuestDefinition{ID: "q", Difficulty: d, DurationMinutes: 10, Steps: steps}
		for _, premium := range []bool{false, true} {
			for i := 0; i < 300; i++ {
				n := rng.IntN(len(steps) + 1)
				answers := make([]domain.StepAnswer, n)
				for j := range answers {
					vs := variants(steps[j])
					answers[j] = vs[rng.IntN(len(vs))]
				}
				attempt := domain.QuestAttempt{Answers: answers, ElapsedSeconds: rng.Int64N(1200)}

				res, err := engagement.ScoreAttempt(quest, attempt, premium)
				if err != nil {
					t.Fatalf("ScoreAttempt() error: %v", err)
				}
				if res.FinalScore-res.TimeBonus > res.MaxPossibleScore {
					t.Fatalf("%s premium=%v answers=%+v: final %d - bonus %d > max %d",
						d, premium, answers, res.FinalScore, res.TimeBonus, res.MaxPossibleScore)
				}
				if res.BaseScore < 0 || res.CorrectSteps > res.TotalSteps {
					t.Fatalf("%s premium=%v: result out of range %+v", d, premium, res)
				}
			}

			perfect := domain.QuestAttempt{Answers: []domain.StepAnswer{
				{Completed: true, SelectedIndex: 2},
				{Completed: true, CheckedItems: 3},
				{Completed: true, Text: "a full written answer"},
				{Completed: true, SelectedIndex: 0},
			}}
			res, _ := engagement.ScoreAttempt(quest, perfect, premium)
			if res.BaseScore != res.MaxPossibleScore {
				t.Errorf("%s premium=%v: perfect base %d, want max %d", d, premium, res.BaseScore, res.MaxPossibleScore)
			}
		}
	}
}

func TestScoreAttempt_InvalidInput(t *testing.T) {
	quest := domain.QuestDefinition{ID: "q", Difficulty: domain.DifficultyEasy,
		Steps: []domain.QuestStep{{Type: domain.StepChallenge}}}

	_, err := engagement.ScoreAttempt(quest, domain.QuestAttempt{Answers: make([]domain.StepAnswer, 2)}, false)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("extra answers error = %v, want ErrInvalidInput", err)
	}
	_, err = engagement.ScoreAttempt(quest, domain.QuestAttempt{ElapsedSeconds: -1}, false)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("negative elapsed error = %v, want ErrInvalidInput", err)
	}
}

func TestTimeBonus(t *testing.T) {
	tests := []struct {
		elapsed  int64
		duration int
		want     int
	}{
		{0, 10, engagement.FastTimeBonus},
		{420, 10, engagement.FastTimeBonus},
		{421, 10, engagement.OnTimeTimeBonus},
		{600, 10, engagement.OnTimeTimeBonus},
		{601, 10, 0},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := engagement.TimeBonus(tt.elapsed, tt.duration); got != tt.want {
			t.Errorf("TimeBonus(%d, %d) = %d, want %d", tt.elapsed, tt.duration, got, tt.want)
		}
	}
	if engagement.FastThresholdSeconds(10) != 420 {
		t.Errorf("FastThresholdSeconds(10) = %d, want 420", engagement.FastThresholdSeconds(10))
	}
}

func TestMultipliers(t *testing.T) {
	if engagement.DifficultyMultiplier(domain.DifficultyHard) != 1.5 {
		t.Error("Hard multiplier should be 1.5")
	}
	if engagement.DifficultyMultiplier(domain.DifficultyMedium) != 1.2 {
		t.Error("Medium multiplier should be 1.2")
	}
	if engagement.PremiumMultiplier(true) != 1.5 || engagement.PremiumMultiplier(false) != 1.0 {
		t.Error("premium multipliers should be 1.5 and 1.0")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Challenge Generator Tests
// ═══════════════════════════════════════════════════════════════════════════

func freeQuest(id, category string) domain.QuestDefinition {
	return domain.QuestDefinition{ID: id, Category: category, Difficulty: domain.DifficultyEasy,
		DurationMinutes: 10, XP: 50, Steps: []domain.QuestStep{{Type: domain.StepChallenge}}}
}

func TestSelectQuest_SortedBySeed(t *testing.T) {
	quests := []domain.QuestDefinition{freeQuest("c", "x"), freeQuest("a", "x"), freeQuest("b", "x")}
	tests := []struct {
		seed int64
		want string
	}{
		{0, "a"},
		{4, "b"},
		{-1, "c"},
	}
	for _, tt := range tests {
		q, err := engagement.SelectQuest(quests, engagement.GenerateRequest{Seed: tt.seed})
		if err != nil {
			t.Fatalf("SelectQuest() error: %v", err)
		}
		if q.ID != tt.want {
			t.Errorf("seed %d picked %q, want %q", tt.seed, q.ID, tt.want)
		}
	}
}

func TestSelectQuest_Exclusions(t *testing.T) {
	quests := []domain.QuestDefinition{freeQuest("a", "x"), freeQuest("b", "x"), freeQuest("c", "x")}

	q, _ := engagement.SelectQuest(quests, engagement.GenerateRequest{
		Seed: 1, Taken: map[string]bool{"b": true},
	})
	if q.ID != "c" {
		t.Errorf("picked %q, want c", q.ID)
	}

	for seed := int64(0); seed < 6; seed++ {
		q, _ := engagement.SelectQuest(quests, engagement.GenerateRequest{Seed: seed, ExcludeQuestID: "a"})
		if q.ID == "a" {
			t.Errorf("seed %d picked the excluded quest", seed)
		}
	}
}

func TestSelectQuest_Entitlement(t *testing.T) {
	premium := freeQuest("p", "x")
	premium.IsPremium = true
	quests := []domain.QuestDefinition{freeQuest("a", "x"), premium}

	for seed := int64(0); seed < 4; seed++ {
		q, _ := engagement.SelectQuest(quests, engagement.GenerateRequest{Seed: seed})
		if q.IsPremium {
			t.Errorf("free user got premium quest at seed %d", seed)
		}
	}
	q, _ := engagement.SelectQuest(quests, engagement.GenerateRequest{Seed: 1, Premium: true})
	if q.ID != "p" {
		t.Errorf("premium user seed 1 picked %q, want p", q.ID)
	}
}

func TestSelectQuest_FallbackToFree(t *testing.T) {
	quests := []domain.QuestDefinition{freeQuest("a", "x"), freeQuest("b", "x")}
	q, err := engagement.SelectQuest(quests, engagement.GenerateRequest{
		Taken: map[string]bool{"a": true, "b": true},
	})
	if err != nil {
		t.Fatalf("SelectQuest() error: %v", err)
	}
	if q.ID != "a" {
		t.Errorf("fallback picked %q, want a", q.ID)
	}
}

func TestSelectQuest_FallbackStillExcludesRejected(t *testing.T) {
	quests := []domain.QuestDefinition{freeQuest("a", "x"), freeQuest("b", "x")}
	for seed := int64(-3); seed <= 8; seed++ {
		q, err := engagement.SelectQuest(quests, engagement.GenerateRequest{
			Taken:          map[string]bool{"a": true},
			ExcludeQuestID: "b",
			Seed:           seed,
		})
		if err != nil {
			t.Fatalf("seed %d: SelectQuest() error: %v", seed, err)
		}
		if q.ID != "a" {
			t.Errorf("seed %d: picked %q, want a (b was just rejected)", seed, q.ID)
		}
	}
}

func TestSelectQuest_RejectedQuestIsLastResort(t *testing.T) {
	quests := []domain.QuestDefinition{freeQuest("only", "x")}
	q, err := engagement.SelectQuest(quests, engagement.GenerateRequest{ExcludeQuestID: "only", Seed: 5})
	if err != nil {
		t.Fatalf("SelectQuest() error: %v", err)
	}
	if q.ID != "only" {
		t.Errorf("picked %q, want the single remaining quest", q.ID)
	}
}

func TestSelectQuest_NoneAvailable(t *testing.T) {
	premium := freeQuest("p", "x")
	premium.IsPremium = true

	for name, quests := range map[string][]domain.QuestDefinition{
		"empty catalog":     nil,
		"only premium free": {premium},
	} {
		_, err := engagement.SelectQuest(quests, engagement.GenerateRequest{})
		if !errors.Is(err, domain.ErrNoChallengeAvailable) || !errors.Is(err, domain.ErrEmptyCatalog) {
			t.Errorf("%s: error = %v, want ErrNoChallengeAvailable wrapping ErrEmptyCatalog", name, err)
		}
	}
}

func TestDailySeed(t *testing.T) {
	if engagement.DailySeed(day(t, "2024-01-01")) != 1 {
		t.Error("Jan 1 seed should be 1")
	}
	if engagement.DailySeed(day(t, "2024-12-31")) != 1 {
		t.Error("day 366 wraps to seed 1")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	clock := engagement.FixedClock{At: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	gen := engagement.NewChallengeGenerator(nil, clock)
	quests := []domain.QuestDefinition{freeQuest("a", "x"), freeQuest("b", "y"), freeQuest("c", "z")}
	d := day(t, "2024-03-10")
	req := engagement.GenerateRequest{UserID: "u1", Day: d, Seed: engagement.DailySeed(d)}

	first, err := gen.Build(quests, req)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	second, _ := gen.Build(quests, req)
	if first.QuestID != second.QuestID || first.Type != second.Type {
		t.Errorf("same day produced %s/%s then %s/%s", first.QuestID, first.Type, second.QuestID, second.Type)
	}
	if first.Status != domain.ChallengeActive {
		t.Errorf("Status = %s, want active", first.Status)
	}
	wantExpiry := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if !first.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", first.ExpiresAt, wantExpiry)
	}
	if first.Rewards.XP != 100 {
		t.Errorf("Rewards.XP = %d, want 2x quest xp", first.Rewards.XP)
	}
}

func TestBuild_TypeRequirementsAndRewards(t *testing.T) {
	gen := engagement.NewChallengeGenerator(nil, engagement.FixedClock{})
	quests := []domain.QuestDefinition{freeQuest("a", "wellbeing")}

	for i, ctype := range domain.ChallengeTypes {
		ch, err := gen.Build(quests, engagement.GenerateRequest{Seed: int64(i)})
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		if ch.Type != ctype {
			t.Errorf("seed %d type = %s, want %s", i, ch.Type, ctype)
		}
		if len(ch.Requirements) != 1 {
			t.Errorf("%s: requirements = %v", ctype, ch.Requirements)
		}
		switch ctype {
		case domain.ChallengeSpeedRunner:
			if ch.Requirements[0].Value != 420 {
				t.Errorf("speed runner limit = %d, want 420", ch.Requirements[0].Value)
			}
		case domain.ChallengeStreakKeeper:
			if !ch.Rewards.Streak {
				t.Error("streak keeper should reward streak")
			}
		case domain.ChallengeCategoryExplorer:
			if ch.Requirements[0].Category != "wellbeing" {
				t.Errorf("category = %q", ch.Requirements[0].Category)
			}
		case domain.ChallengeQuizMaster, domain.ChallengePerfectionist:
			if ch.Rewards.Badge != string(ctype) {
				t.Errorf("%s badge reward = %q", ctype, ch.Rewards.Badge)
			}
		}
	}
}

func TestChallengeMet(t *testing.T) {
	gen := engagement.NewChallengeGenerator(nil, engagement.FixedClock{})
	quests := []domain.QuestDefinition{freeQuest("a", "x")}
	perfect := domain.ScoreResult{BaseScore: 20, MaxPossibleScore: 20, CorrectSteps: 1, TotalSteps: 1}
	sloppy := domain.ScoreResult{BaseScore: 0, MaxPossibleScore: 20, CorrectSteps: 0, TotalSteps: 1}

	quiz, _ := gen.Build(quests, engagement.GenerateRequest{Seed: 0})
	if !engagement.ChallengeMet(quiz, engagement.ChallengeOutcome{QuestID: "a", Score: perfect}) {
		t.Error("perfect score should meet quiz master")
	}
	if engagement.ChallengeMet(quiz, engagement.ChallengeOutcome{QuestID: "a", Score: sloppy}) {
		t.Error("zero score should not meet quiz master")
	}
	if engagement.ChallengeMet(quiz, engagement.ChallengeOutcome{QuestID: "other", Score: perfect}) {
		t.Error("different quest should not meet the challenge")
	}

	speed, _ := gen.Build(quests, engagement.GenerateRequest{Seed: 1})
	if !engagement.ChallengeMet(speed, engagement.ChallengeOutcome{QuestID: "a", ElapsedSeconds: 420}) {
		t.Error("420s should meet a 10 minute speed run")
	}
	if engagement.ChallengeMet(speed, engagement.ChallengeOutcome{QuestID: "a", ElapsedSeconds: 421}) {
		t.Error("421s should miss a 10 minute speed run")
	}

	done := quiz
	done.Status = domain.ChallengeCompleted
	if engagement.ChallengeMet(done, engagement.ChallengeOutcome{QuestID: "a", Score: perfect}) {
		t.Error("completed challenge cannot be met again")
	}
}

func TestExpired(t *testing.T) {
	ch := domain.DailyChallenge{ExpiresAt: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)}
	if engagement.Expired(ch, time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)) {
		t.Error("should not be expired before midnight")
	}
	if !engagement.Expired(ch, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Error("should be expired at midnight")
	}
}
