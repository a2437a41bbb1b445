// Package catalog provides the quest catalog: the built-in quest set and
// an optional TOML file that replaces it and can carry a custom badge list.
// Display text lives outside the engine, so entries are ids and rules only.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/questforge/questforge/internal/domain"
)

// Catalog is an immutable, in-memory quest catalog.
// It implements domain.QuestCatalog.
type Catalog struct {
	quests []domain.QuestDefinition
	byID   map[string]domain.QuestDefinition
}

// New validates quests and builds a catalog.
func New(quests []domain.QuestDefinition) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]domain.QuestDefinition, len(quests))}
	for i, q := range quests {
		if err := validateQuest(q); err != nil {
			return nil, fmt.Errorf("quest %d (%q): %w", i, q.ID, err)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate quest id %q", domain.ErrInvalidInput, q.ID)
		}
		c.byID[q.ID] = q
		c.quests = append(c.quests, q)
	}
	return c, nil
}

// Default returns the catalog of built-in quests.
func Default() *Catalog {
	c, err := New(Builtin)
	if err != nil {
		panic("catalog: invalid built-in quests: " + err.Error())
	}
	return c
}

// ListQuests returns the quests matching filter, in catalog order.
func (c *Catalog) ListQuests(_ context.Context, filter domain.QuestFilter) ([]domain.QuestDefinition, error) {
	var out []domain.QuestDefinition
	for _, q := range c.quests {
		if filter.Matches(q) {
			out = append(out, q)
		}
	}
	return out, nil
}

// Quest looks up one quest by id.
func (c *Catalog) Quest(_ context.Context, id string) (domain.QuestDefinition, error) {
	q, ok := c.byID[id]
	if !ok {
		return domain.QuestDefinition{}, fmt.Errorf("%w: %s", domain.ErrQuestNotFound, id)
	}
	return q, nil
}

// Len returns the number of quests.
func (c *Catalog) Len() int { return len(c.quests) }

// Categories returns the distinct quest categories, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range c.quests {
		if q.Category != "" && !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	sort.Strings(out)
	return out
}

// ─── File Loading ───────────────────────────────────────────────────────────

// File is the on-disk catalog format:
//
//	[[quest]]
//	id = "fundamentals-goal-setting"
//	category = "fundamentals"
//	difficulty = "Easy"
//	duration_minutes = 10
//	xp = 50
//	  [[quest.steps]]
//	  type = "quiz"
//	  option_count = 4
//	  correct_index = 2
//
//	[[badge]]
//	id = "first_quest"
//	rarity = "common"
//	  [badge.requirement]
//	  type = "quests_completed"
//	  count = 1
type File struct {
	Quests []domain.QuestDefinition `toml:"quest"`
	Badges []domain.BadgeDefinition `toml:"badge"`
}

// LoadFile reads a catalog file. A file without quests keeps the built-in
// quests; a file without badges returns nil badges so the caller keeps its
// default badge catalog.
func LoadFile(path string) (*Catalog, []domain.BadgeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog TOML. See LoadFile.
func Parse(data []byte) (*Catalog, []domain.BadgeDefinition, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}

	quests := f.Quests
	if len(quests) == 0 {
		quests = Builtin
	}
	c, err := New(quests)
	if err != nil {
		return nil, nil, err
	}

	if err := ValidateBadges(f.Badges); err != nil {
		return nil, nil, err
	}
	return c, f.Badges, nil
}

// ValidateBadges checks ids are unique and every requirement type is known.
func ValidateBadges(badges []domain.BadgeDefinition) error {
	seen := make(map[string]bool, len(badges))
	for i, b := range badges {
		if b.ID == "" {
			return fmt.Errorf("%w: badge %d has no id", domain.ErrInvalidInput, i)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate badge id %q", domain.ErrInvalidInput, b.ID)
		}
		seen[b.ID] = true
		if !b.Requirement.Type.Known() {
			return fmt.Errorf("%w: badge %q has unknown requirement type %q",
				domain.ErrInvalidInput, b.ID, b.Requirement.Type)
		}
	}
	return nil
}

func validateQuest(q domain.QuestDefinition) error {
	switch {
	case q.ID == "":
		return fmt.Errorf("%w: missing id", domain.ErrInvalidInput)
	case !q.Difficulty.Valid():
		return fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidInput, q.Difficulty)
	case q.XP < 0:
		return fmt.Errorf("%w: negative xp", domain.ErrInvalidInput)
	case q.DurationMinutes < 0:
		return fmt.Errorf("%w: negative duration", domain.ErrInvalidInput)
	}
	for i, s := range q.Steps {
		switch s.Type {
		case domain.StepQuiz:
			if s.OptionCount > 0 && (s.CorrectIndex < 0 || s.CorrectIndex >= s.OptionCount) {
				return fmt.Errorf("%w: step %d correct index out of range", domain.ErrInvalidInput, i)
			}
		case domain.StepChecklist:
			if s.ItemCount <= 0 {
				return fmt.Errorf("%w: step %d checklist without items", domain.ErrInvalidInput, i)
			}
		case domain.StepChallenge:
		default:
			return fmt.Errorf("%w: step %d unknown type %q", domain.ErrInvalidInput, i, s.Type)
		}
	}
	return nil
}
