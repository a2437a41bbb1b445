package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// ─── Day ────────────────────────────────────────────────────────────────────

func TestDayOf_Timezone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	instant := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	if got := DayOf(instant, time.UTC).String(); got != "2026-03-10" {
		t.Errorf("UTC day = %s, want 2026-03-10", got)
	}
	if got := DayOf(instant, tokyo).String(); got != "2026-03-11" {
		t.Errorf("JST day = %s, want 2026-03-11", got)
	}
	if got := DayOf(instant, nil).String(); got != "2026-03-10" {
		t.Errorf("nil location day = %s, want UTC", got)
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay(" 2026-02-28 ")
	if err != nil {
		t.Fatalf("ParseDay() error: %v", err)
	}
	if got := d.AddDays(1).String(); got != "2026-03-01" {
		t.Errorf("AddDays(1) = %s, want 2026-03-01", got)
	}

	for _, bad := range []string{"", "2026-13-01", "10/03/2026", "yesterday"} {
		if _, err := ParseDay(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseDay(%q) error = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestDay_Arithmetic(t *testing.T) {
	a := NewDay(2026, time.March, 28)
	b := NewDay(2026, time.April, 2)

	if got := b.DaysSince(a); got != 5 {
		t.Errorf("DaysSince = %d, want 5", got)
	}
	if got := a.DaysSince(b); got != -5 {
		t.Errorf("DaysSince reversed = %d, want -5", got)
	}
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Error("Before ordering wrong")
	}
	if !a.AddDays(5).Equal(b) {
		t.Error("AddDays(5) should equal b")
	}
	if NewDay(2026, time.January, 32).String() != "2026-02-01" {
		t.Error("NewDay should normalize overflow like time.Date")
	}
}

func TestDay_StartInLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// DST begins 2026-03-29 in Berlin; the day still starts at local midnight.
	start := NewDay(2026, time.March, 29).Start(berlin)
	if start.Hour() != 0 || start.Day() != 29 {
		t.Errorf("Start = %v", start)
	}
	if DayOf(start, berlin).String() != "2026-03-29" {
		t.Errorf("DayOf(Start) = %s", DayOf(start, berlin))
	}
}

func TestDay_JSON(t *testing.T) {
	type wrapper struct {
		D Day `json:"d"`
	}
	data, err := json.Marshal(wrapper{D: NewDay(2026, time.March, 10)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"d":"2026-03-10"}` {
		t.Errorf("Marshal = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"d":""}`), &w); err != nil || !w.D.IsZero() {
		t.Errorf("empty day: %v, zero=%v", err, w.D.IsZero())
	}
	if err := json.Unmarshal([]byte(`{"d":"soon"}`), &w); err == nil {
		t.Error("malformed day should fail to unmarshal")
	}
}

// ─── Progression State ──────────────────────────────────────────────────────

func TestMergeBadges_SetUnion(t *testing.T) {
	s := UserProgressionState{Badges: []string{"first_quest"}}
	added := s.MergeBadges([]string{"first_quest", "streak_3", "", "streak_3", "xp_100"})

	if len(added) != 2 || added[0] != "streak_3" || added[1] != "xp_100" {
		t.Errorf("added = %v, want [streak_3 xp_100]", added)
	}
	want := []string{"first_quest", "streak_3", "xp_100"}
	if len(s.Badges) != len(want) {
		t.Fatalf("Badges = %v, want %v", s.Badges, want)
	}
	for i := range want {
		if s.Badges[i] != want[i] {
			t.Errorf("Badges[%d] = %q, want %q", i, s.Badges[i], want[i])
		}
	}
	if !s.HasBadge("xp_100") || s.HasBadge("nope") {
		t.Error("HasBadge mismatch")
	}
}

func TestAddSpecialFlags(t *testing.T) {
	s := UserProgressionState{SpecialFlags: []string{"early_adopter"}}
	s.AddSpecialFlags("early_adopter", "daily_quiz_master", "")
	if len(s.SpecialFlags) != 2 || s.SpecialFlags[1] != "daily_quiz_master" {
		t.Errorf("SpecialFlags = %v", s.SpecialFlags)
	}
}

func TestClone_Independent(t *testing.T) {
	orig := UserProgressionState{
		Badges:          []string{"a"},
		SpecialFlags:    []string{"f"},
		CompletedQuests: map[string]CompletedQuest{"q": {Score: 10}},
	}
	c := orig.Clone()
	c.Badges[0] = "changed"
	c.SpecialFlags = append(c.SpecialFlags, "g")
	c.CompletedQuests["q2"] = CompletedQuest{}

	if orig.Badges[0] != "a" || len(orig.SpecialFlags) != 1 || len(orig.CompletedQuests) != 1 {
		t.Errorf("Clone shares state with original: %+v", orig)
	}
}

// ─── Quest Metadata ─────────────────────────────────────────────────────────

func TestQuestFilter_Matches(t *testing.T) {
	free := QuestDefinition{ID: "a", Category: "lead"}
	paid := QuestDefinition{ID: "b", Category: "lead", IsPremium: true}
	other := QuestDefinition{ID: "c", Category: "well"}

	tests := []struct {
		name   string
		filter QuestFilter
		q      QuestDefinition
		want   bool
	}{
		{"zero matches all", QuestFilter{}, paid, true},
		{"free only drops premium", QuestFilter{FreeOnly: true}, paid, false},
		{"free only keeps free", QuestFilter{FreeOnly: true}, free, true},
		{"category mismatch", QuestFilter{Category: "lead"}, other, false},
		{"excluded id", QuestFilter{ExcludeIDs: map[string]bool{"a": true}}, free, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.q); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnumValidity(t *testing.T) {
	if !DifficultyHard.Valid() || Difficulty("Legendary").Valid() {
		t.Error("Difficulty.Valid mismatch")
	}
	if !ReqCategoryComplete.Known() || RequirementType("moon_phase").Known() {
		t.Error("RequirementType.Known mismatch")
	}
	r := ScoreResult{BaseScore: 60, MaxPossibleScore: 60}
	if !r.Perfect() || (ScoreResult{}).Perfect() {
		t.Error("ScoreResult.Perfect mismatch")
	}
}
