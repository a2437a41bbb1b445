package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/infra/metrics"
)

// ─── Document Keys ──────────────────────────────────────────────────────────

const (
	userPrefix      = "users/"
	challengePrefix = "challenges/"
)

// UserKey is the document key of a user's progression record.
func UserKey(userID string) string { return userPrefix + userID }

// ChallengeKey is the document key of the daily challenge for (user, day).
func ChallengeKey(userID string, day domain.Day) string {
	return challengePrefix + userID + "/" + day.String()
}

// ChallengeKeyPrefix lists every challenge document of one user.
func ChallengeKeyPrefix(userID string) string { return challengePrefix + userID + "/" }

// ─── Service ────────────────────────────────────────────────────────────────

// Service applies the engine rules to persisted progression records.
//
// Every read-modify-write goes through DocumentStore.UpdateAtomic. When the
// store fails the operation is applied to the last state this process saw
// for the user and the result is marked Degraded; store errors never reach
// the caller. Last-seen states live in a bounded LRU, so a user evicted
// from it degrades from a fresh record.
type Service struct {
	store   domain.DocumentStore
	catalog domain.QuestCatalog
	badges  []domain.BadgeDefinition
	clock   domain.Clock
	gen     *ChallengeGenerator
	logger  *zap.Logger

	sessions *lru.Cache

	mu         sync.Mutex
	transients map[string]domain.DailyChallenge
}

// DefaultSessionCacheSize is how many users' last-seen states are kept for
// degraded operation.
const DefaultSessionCacheSize = 10000

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	sessionCacheSize int
}

// WithSessionCacheSize bounds the last-seen state cache. Values <= 0 keep
// DefaultSessionCacheSize.
func WithSessionCacheSize(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.sessionCacheSize = n
		}
	}
}

// NewService wires the engine. A nil badge catalog means DefaultBadges.
func NewService(store domain.DocumentStore, catalog domain.QuestCatalog, badges []domain.BadgeDefinition,
	clock domain.Clock, logger *zap.Logger, opts ...Option) *Service {
	if badges == nil {
		badges = DefaultBadges()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := serviceOptions{sessionCacheSize: DefaultSessionCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	// lru.New only fails for a non-positive size.
	sessions, _ := lru.New(o.sessionCacheSize)

	return &Service{
		store:      store,
		catalog:    catalog,
		badges:     badges,
		clock:      clock,
		gen:        NewChallengeGenerator(catalog, clock),
		logger:     logger,
		sessions:   sessions,
		transients: make(map[string]domain.DailyChallenge),
	}
}

// Badges returns the badge catalog in award order.
func (s *Service) Badges() []domain.BadgeDefinition { return s.badges }

// Clock returns the clock that decides "today".
func (s *Service) Clock() domain.Clock { return s.clock }

// ─── Login ──────────────────────────────────────────────────────────────────

// OnLogin applies the streak rules for today and awards any badges that
// became eligible. A second login on the same day changes nothing.
func (s *Service) OnLogin(ctx context.Context, userID string) (domain.LoginResult, error) {
	if err := validateUserID(userID); err != nil {
		return domain.LoginResult{}, err
	}
	today := s.clock.Today()
	quests := s.listQuests(ctx)

	var (
		res  domain.LoginResult
		upd  StreakUpdate
		next domain.UserProgressionState
	)
	apply := func(state domain.UserProgressionState) {
		res, upd, next = s.applyLogin(userID, state, today, quests)
	}

	err := s.store.UpdateAtomic(ctx, UserKey(userID), func(cur []byte, exists bool) ([]byte, error) {
		state, err := decodeState(cur, exists)
		if err != nil {
			return nil, err
		}
		apply(state)
		if !upd.ShouldPersist() && len(res.NewBadges) == 0 {
			return nil, domain.ErrNoChange
		}
		return encodeState(next)
	})
	if err != nil {
		s.degrade("login", userID, err)
		apply(s.cached(userID))
		res.Degraded = true
	}
	s.remember(userID, next)

	metrics.Logins.WithLabelValues(ruleLabel(upd.Rule)).Inc()
	s.recordBadges(userID, res.NewBadges)
	if upd.Rule == StreakReset {
		s.logger.Info("streak reset", zap.String("user_id", userID))
	}
	return res, nil
}

func (s *Service) applyLogin(userID string, state domain.UserProgressionState, today domain.Day,
	quests []domain.QuestDefinition) (domain.LoginResult, StreakUpdate, domain.UserProgressionState) {
	next := state.Clone()
	upd := NextStreak(next.Streak, next.LastLoginDay, today)
	if upd.ShouldPersist() {
		next.Streak = upd.Streak
		next.LastLoginDay = today.String()
		next.LongestStreak = max(next.LongestStreak, next.Streak)
	}
	added := s.awardBadges(&next, quests)
	return domain.LoginResult{
		UserID:        userID,
		Streak:        next.Streak,
		LongestStreak: next.LongestStreak,
		StreakChanged: upd.ShouldPersist() && upd.Streak != state.Streak,
		NewBadges:     nonNil(added),
		Level:         LevelForXP(next.XP),
	}, upd, next
}

// ─── Quest Submission ───────────────────────────────────────────────────────

// OnQuestSubmit scores an attempt, records it, and applies XP, level, badge
// and daily-challenge effects. XP is granted only on a quest's first
// completion; re-submissions overwrite the recorded score.
//
// The daily challenge reward is written with the user record, which also
// stamps LastChallengeDay so the reward is granted at most once per day.
// The challenge document is marked completed only after that write
// succeeds; if the user write degrades, the stored challenge stays active
// and can be earned again once the store is back.
func (s *Service) OnQuestSubmit(ctx context.Context, userID, questID string, attempt domain.QuestAttempt) (domain.SubmitResult, error) {
	if err := validateUserID(userID); err != nil {
		return domain.SubmitResult{}, err
	}
	if questID == "" {
		return domain.SubmitResult{}, fmt.Errorf("%w: empty quest id", domain.ErrInvalidInput)
	}
	quest, err := s.catalog.Quest(ctx, questID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if _, err := ScoreAttempt(quest, attempt, false); err != nil {
		return domain.SubmitResult{}, err
	}

	now := s.clock.Now()
	today := s.clock.Today()
	quests := s.listQuests(ctx)
	key := ChallengeKey(userID, today)
	pending, stored, chDegraded := s.activeChallenge(ctx, userID, key, now)

	var (
		res  domain.SubmitResult
		next domain.UserProgressionState
	)
	apply := func(state domain.UserProgressionState) error {
		var err error
		res, next, err = s.applySubmit(userID, quest, attempt, state, pending, now, today, quests)
		return err
	}

	degraded := false
	err = s.store.UpdateAtomic(ctx, UserKey(userID), func(cur []byte, exists bool) ([]byte, error) {
		state, err := decodeState(cur, exists)
		if err != nil {
			return nil, err
		}
		if err := apply(state); err != nil {
			return nil, err
		}
		return encodeState(next)
	})
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return domain.SubmitResult{}, err
	case err != nil:
		s.degrade("submit", userID, err)
		if err := apply(s.cached(userID)); err != nil {
			return domain.SubmitResult{}, err
		}
		degraded = true
	}
	s.remember(userID, next)

	if pending != nil {
		switch {
		case !stored:
			if res.ChallengeCompleted != nil {
				s.markTransient(key, *res.ChallengeCompleted)
			}
		case !degraded && next.LastChallengeDay == today.String():
			// Also repairs a challenge a failed write left active after
			// its reward was persisted.
			if err := s.markCompleted(ctx, userID, key, pending.ID, now); err != nil {
				chDegraded = true
			}
		}
	}
	res.Degraded = degraded || chDegraded

	metrics.QuestSubmissions.WithLabelValues(string(normalizeDifficulty(quest.Difficulty))).Inc()
	metrics.QuestScore.Observe(float64(res.Score.FinalScore))
	metrics.XPAwarded.Add(float64(res.XPAwarded))
	if res.ChallengeCompleted != nil {
		metrics.Challenges.WithLabelValues("completed").Inc()
	}
	if res.LeveledUp {
		metrics.LevelUps.WithLabelValues(res.NewLevel).Inc()
		s.logger.Info("level up", zap.String("user_id", userID), zap.String("level", res.NewLevel))
	}
	s.recordBadges(userID, res.NewBadges)
	return res, nil
}

func (s *Service) applySubmit(userID string, quest domain.QuestDefinition, attempt domain.QuestAttempt,
	state domain.UserProgressionState, pending *domain.DailyChallenge, now time.Time, today domain.Day,
	quests []domain.QuestDefinition) (domain.SubmitResult, domain.UserProgressionState, error) {
	next := state.Clone()
	score, err := ScoreAttempt(quest, attempt, next.IsPremium)
	if err != nil {
		return domain.SubmitResult{}, next, err
	}

	var challenge *domain.DailyChallenge
	if pending != nil && next.LastChallengeDay != today.String() {
		outcome := ChallengeOutcome{
			QuestID:        quest.ID,
			Category:       quest.Category,
			Score:          score,
			ElapsedSeconds: attempt.ElapsedSeconds,
			StreakActive:   StreakAlive(next.Streak, next.LastLoginDay, today),
		}
		if ChallengeMet(*pending, outcome) {
			done := *pending
			done.Status = domain.ChallengeCompleted
			done.CompletedAt = &now
			challenge = &done
		}
	}

	oldLevel := LevelForXP(next.XP)
	_, repeat := next.CompletedQuests[quest.ID]
	next.CompletedQuests[quest.ID] = domain.CompletedQuest{
		Score:       score.FinalScore,
		CompletedAt: now,
		TimeBonus:   score.TimeBonus,
	}

	awarded := 0
	if !repeat {
		awarded += quest.XP
	}
	if challenge != nil {
		next.LastChallengeDay = today.String()
		awarded += challenge.Rewards.XP
		if challenge.Rewards.Streak {
			upd := NextStreak(next.Streak, next.LastLoginDay, today)
			if upd.ShouldPersist() {
				next.Streak = upd.Streak
				next.LastLoginDay = today.String()
				next.LongestStreak = max(next.LongestStreak, next.Streak)
			}
		}
		if challenge.Rewards.Badge != "" {
			next.AddSpecialFlags(ChallengeFlag(challenge.Type))
		}
	}
	next.XP = ClampXP(next.XP + awarded)

	added := s.awardBadges(&next, quests)
	newLevel := LevelForXP(next.XP)
	return domain.SubmitResult{
		UserID:             userID,
		QuestID:            quest.ID,
		Score:              score,
		XPAwarded:          awarded,
		TotalXP:            next.XP,
		NewBadges:          nonNil(added),
		NewLevel:           newLevel,
		LeveledUp:          LevelRank(newLevel) > LevelRank(oldLevel),
		ChallengeCompleted: challenge,
	}, next, nil
}

// activeChallenge returns today's challenge while it can still be completed,
// and whether it is the stored document rather than an in-process transient.
func (s *Service) activeChallenge(ctx context.Context, userID, key string,
	now time.Time) (ch *domain.DailyChallenge, stored, degraded bool) {
	raw, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		c, err := decodeChallenge(raw)
		if err != nil {
			s.logger.Warn("unreadable daily challenge", zap.String("key", key), zap.Error(err))
			return nil, true, false
		}
		if c.Status != domain.ChallengeActive || Expired(c, now) {
			return nil, true, false
		}
		return &c, true, false
	case errors.Is(err, domain.ErrNotFound):
	default:
		s.degrade("challenge_read", userID, err)
		degraded = true
	}

	if c, ok := s.transient(key); ok && c.Status == domain.ChallengeActive && !Expired(c, now) {
		return &c, false, degraded
	}
	return nil, false, degraded
}

// markCompleted moves the stored challenge id from active to completed.
// A record that was rerolled or already completed is left alone.
func (s *Service) markCompleted(ctx context.Context, userID, key, id string, now time.Time) error {
	err := s.store.UpdateAtomic(ctx, key, func(cur []byte, exists bool) ([]byte, error) {
		if !exists {
			return nil, domain.ErrNoChange
		}
		ch, err := decodeChallenge(cur)
		if err != nil {
			return nil, err
		}
		if ch.ID != id || ch.Status != domain.ChallengeActive {
			return nil, domain.ErrNoChange
		}
		ch.Status = domain.ChallengeCompleted
		ch.CompletedAt = &now
		return json.Marshal(ch)
	})
	if err != nil {
		s.degrade("challenge_complete", userID, err)
	}
	return err
}

func (s *Service) markTransient(key string, done domain.DailyChallenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.transients[key]; ok && ch.ID == done.ID {
		s.transients[key] = done
	}
}

// ─── Profile ────────────────────────────────────────────────────────────────

// UpdateProfile merges entitlement and profile changes and re-evaluates badges.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.ProfileResult, error) {
	if err := validateUserID(userID); err != nil {
		return domain.ProfileResult{}, err
	}
	if upd.PremiumMonths != nil && *upd.PremiumMonths < 0 {
		return domain.ProfileResult{}, fmt.Errorf("%w: negative premium months", domain.ErrInvalidInput)
	}
	quests := s.listQuests(ctx)

	var (
		res  domain.ProfileResult
		next domain.UserProgressionState
	)
	apply := func(state domain.UserProgressionState) {
		next = state.Clone()
		if upd.ProfileComplete != nil {
			next.ProfileComplete = *upd.ProfileComplete
		}
		if upd.IsPremium != nil {
			next.IsPremium = *upd.IsPremium
		}
		if upd.PremiumMonths != nil {
			next.PremiumMonths = *upd.PremiumMonths
		}
		next.AddSpecialFlags(upd.SpecialFlags...)
		res = domain.ProfileResult{UserID: userID, NewBadges: nonNil(s.awardBadges(&next, quests))}
	}

	err := s.store.UpdateAtomic(ctx, UserKey(userID), func(cur []byte, exists bool) ([]byte, error) {
		state, err := decodeState(cur, exists)
		if err != nil {
			return nil, err
		}
		apply(state)
		return encodeState(next)
	})
	if err != nil {
		s.degrade("profile", userID, err)
		apply(s.cached(userID))
		res.Degraded = true
	}
	s.remember(userID, next)
	s.recordBadges(userID, res.NewBadges)
	return res, nil
}

// ─── Read Model ─────────────────────────────────────────────────────────────

// GetProgression returns the user's state with the level recomputed from XP.
// Unknown users read as a fresh record.
func (s *Service) GetProgression(ctx context.Context, userID string) (domain.ProgressionView, error) {
	if err := validateUserID(userID); err != nil {
		return domain.ProgressionView{}, err
	}
	state, degraded := s.loadState(ctx, userID)
	state.Level = LevelForXP(state.XP)
	return domain.ProgressionView{
		UserID:   userID,
		State:    state,
		Progress: ProgressToNext(state.XP),
		Degraded: degraded,
	}, nil
}

// ─── Daily Challenges ───────────────────────────────────────────────────────

// GetOrCreateDailyChallenge returns the challenge for (user, day), creating
// it with the day's deterministic seed on first request. A zero day means
// today. When the store is unreachable a transient challenge is returned.
// A record still active although the user's reward for that day was
// granted is marked completed on the way out.
func (s *Service) GetOrCreateDailyChallenge(ctx context.Context, userID string, day domain.Day) (domain.DailyChallenge, error) {
	if err := validateUserID(userID); err != nil {
		return domain.DailyChallenge{}, err
	}
	if day.IsZero() {
		day = s.clock.Today()
	}
	state, _ := s.loadState(ctx, userID)
	quests, err := s.catalog.ListQuests(ctx, domain.QuestFilter{})
	if err != nil {
		return domain.DailyChallenge{}, fmt.Errorf("list quests: %w", err)
	}
	req := GenerateRequest{
		UserID:  userID,
		Day:     day,
		Premium: state.IsPremium,
		Taken:   completedSet(state),
		Seed:    DailySeed(day),
	}

	key := ChallengeKey(userID, day)
	now := s.clock.Now()
	var (
		out     domain.DailyChallenge
		created bool
	)
	err = s.store.UpdateAtomic(ctx, key, func(cur []byte, exists bool) ([]byte, error) {
		created = false
		if exists {
			ch, err := decodeChallenge(cur)
			if err != nil {
				return nil, err
			}
			out = ch
			if ch.Status != domain.ChallengeActive || state.LastChallengeDay != day.String() {
				return nil, domain.ErrNoChange
			}
			// The reward was granted but marking the record failed.
			out.Status = domain.ChallengeCompleted
			out.CompletedAt = &now
			return json.Marshal(out)
		}
		ch, err := s.gen.Build(quests, req)
		if err != nil {
			return nil, err
		}
		out, created = ch, true
		return json.Marshal(ch)
	})
	switch {
	case err == nil:
		if created {
			metrics.Challenges.WithLabelValues("created").Inc()
			s.logger.Debug("daily challenge created", zap.String("user_id", userID),
				zap.String("day", day.String()), zap.String("quest_id", out.QuestID))
		}
		return out, nil
	case errors.Is(err, domain.ErrNoChallengeAvailable):
		return domain.DailyChallenge{}, err
	}

	s.degrade("challenge_get", userID, err)
	if ch, ok := s.transient(key); ok {
		return ch, nil
	}
	ch, err := s.gen.Build(quests, req)
	if err != nil {
		return domain.DailyChallenge{}, err
	}
	return s.storeTransient(key, ch), nil
}

// Reroll replaces an active challenge for (user, day) with a new selection
// that excludes the current quest, overwriting the record in place.
// Completed challenges, and days whose challenge reward was already
// granted, cannot be rerolled.
func (s *Service) Reroll(ctx context.Context, userID string, day domain.Day, seed int64) (domain.DailyChallenge, error) {
	if err := validateUserID(userID); err != nil {
		return domain.DailyChallenge{}, err
	}
	if day.IsZero() {
		day = s.clock.Today()
	}
	state, _ := s.loadState(ctx, userID)
	if state.LastChallengeDay == day.String() {
		return domain.DailyChallenge{}, domain.ErrChallengeCompleted
	}
	quests, err := s.catalog.ListQuests(ctx, domain.QuestFilter{})
	if err != nil {
		return domain.DailyChallenge{}, fmt.Errorf("list quests: %w", err)
	}
	req := GenerateRequest{
		UserID:  userID,
		Day:     day,
		Premium: state.IsPremium,
		Taken:   completedSet(state),
		Seed:    seed,
	}

	key := ChallengeKey(userID, day)
	var out domain.DailyChallenge
	err = s.store.UpdateAtomic(ctx, key, func(cur []byte, exists bool) ([]byte, error) {
		r := req
		if exists {
			prev, err := decodeChallenge(cur)
			if err != nil {
				return nil, err
			}
			if prev.Status == domain.ChallengeCompleted {
				return nil, domain.ErrChallengeCompleted
			}
			r.ExcludeQuestID = prev.QuestID
		}
		ch, err := s.gen.Build(quests, r)
		if err != nil {
			return nil, err
		}
		out = ch
		return json.Marshal(ch)
	})
	switch {
	case err == nil:
		metrics.Challenges.WithLabelValues("rerolled").Inc()
		return out, nil
	case errors.Is(err, domain.ErrChallengeCompleted), errors.Is(err, domain.ErrNoChallengeAvailable):
		return domain.DailyChallenge{}, err
	}

	s.degrade("challenge_reroll", userID, err)
	if prev, ok := s.transient(key); ok {
		if prev.Status == domain.ChallengeCompleted {
			return domain.DailyChallenge{}, domain.ErrChallengeCompleted
		}
		req.ExcludeQuestID = prev.QuestID
	}
	ch, err := s.gen.Build(quests, req)
	if err != nil {
		return domain.DailyChallenge{}, err
	}
	return s.storeTransient(key, ch), nil
}

// PruneChallenges deletes challenge documents dated before cutoff and
// returns how many were removed.
func (s *Service) PruneChallenges(ctx context.Context, cutoff domain.Day) (int, error) {
	keys, err := s.store.Keys(ctx, challengePrefix)
	if err != nil {
		return 0, fmt.Errorf("list challenges: %w", err)
	}
	removed := 0
	for _, key := range keys {
		i := strings.LastIndexByte(key, '/')
		if i < 0 {
			continue
		}
		day, err := domain.ParseDay(key[i+1:])
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("delete %s: %w", key, err)
		}
		removed++
	}

	s.mu.Lock()
	for key, ch := range s.transients {
		if ch.Date.Before(cutoff) {
			delete(s.transients, key)
		}
	}
	s.mu.Unlock()

	metrics.Challenges.WithLabelValues("pruned").Add(float64(removed))
	return removed, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Service) awardBadges(state *domain.UserProgressionState, quests []domain.QuestDefinition) []string {
	stats := BuildStats(*state, quests)
	return state.MergeBadges(EvaluateBadges(s.badges, stats, state.EarnedBadges()))
}

// BuildStats derives badge statistics from a state. A category counts as
// complete when every quest of it the user is entitled to is completed.
func BuildStats(state domain.UserProgressionState, quests []domain.QuestDefinition) domain.BadgeStats {
	stats := domain.BadgeStats{
		QuestsCompleted:     len(state.CompletedQuests),
		CurrentStreak:       state.Streak,
		LongestStreak:       state.LongestStreak,
		TotalXP:             state.XP,
		ProfileComplete:     state.ProfileComplete,
		IsPremium:           state.IsPremium,
		PremiumMonths:       state.PremiumMonths,
		CompletedCategories: make(map[string]bool),
		SpecialFlags:        make(map[string]bool, len(state.SpecialFlags)),
	}
	for _, f := range state.SpecialFlags {
		stats.SpecialFlags[f] = true
	}

	total := make(map[string]int)
	done := make(map[string]int)
	for _, q := range quests {
		if q.Category == "" || (q.IsPremium && !state.IsPremium) {
			continue
		}
		total[q.Category]++
		if _, ok := state.CompletedQuests[q.ID]; ok {
			done[q.Category]++
		}
	}
	for cat, n := range total {
		if done[cat] == n {
			stats.CompletedCategories[cat] = true
		}
	}
	return stats
}

func (s *Service) listQuests(ctx context.Context) []domain.QuestDefinition {
	quests, err := s.catalog.ListQuests(ctx, domain.QuestFilter{})
	if err != nil {
		s.logger.Warn("quest catalog unavailable", zap.Error(err))
		return nil
	}
	return quests
}

// loadState reads the user record, falling back to the cached state.
func (s *Service) loadState(ctx context.Context, userID string) (domain.UserProgressionState, bool) {
	raw, err := s.store.Get(ctx, UserKey(userID))
	if errors.Is(err, domain.ErrNotFound) {
		state, _ := decodeState(nil, false)
		return state, false
	}
	if err == nil {
		state, err := decodeState(raw, true)
		if err == nil {
			s.remember(userID, state)
			return state, false
		}
	}
	s.degrade("read", userID, err)
	return s.cached(userID), true
}

func (s *Service) cached(userID string) domain.UserProgressionState {
	if v, ok := s.sessions.Get(userID); ok {
		return v.(domain.UserProgressionState).Clone()
	}
	st, _ := decodeState(nil, false)
	return st
}

func (s *Service) remember(userID string, state domain.UserProgressionState) {
	s.sessions.Add(userID, state.Clone())
}

// SessionCount is the number of users whose last-seen state is cached.
func (s *Service) SessionCount() int { return s.sessions.Len() }

func (s *Service) transient(key string) (domain.DailyChallenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.transients[key]
	return ch, ok
}

func (s *Service) storeTransient(key string, ch domain.DailyChallenge) domain.DailyChallenge {
	ch.Transient = true
	s.mu.Lock()
	s.transients[key] = ch
	s.mu.Unlock()
	metrics.Challenges.WithLabelValues("transient").Inc()
	return ch
}

func (s *Service) degrade(op, userID string, err error) {
	metrics.StoreDegraded.WithLabelValues(op).Inc()
	s.logger.Warn("store unavailable, serving from memory",
		zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
}

func (s *Service) recordBadges(userID string, ids []string) {
	for _, id := range ids {
		metrics.BadgesAwarded.WithLabelValues(id).Inc()
		s.logger.Info("badge awarded", zap.String("user_id", userID), zap.String("badge", id))
	}
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" || strings.Contains(userID, "/") {
		return fmt.Errorf("%w: user id %q", domain.ErrInvalidInput, userID)
	}
	return nil
}

func completedSet(state domain.UserProgressionState) map[string]bool {
	set := make(map[string]bool, len(state.CompletedQuests))
	for id := range state.CompletedQuests {
		set[id] = true
	}
	return set
}

func decodeState(raw []byte, exists bool) (domain.UserProgressionState, error) {
	var st domain.UserProgressionState
	if exists && len(raw) > 0 {
		if err := json.Unmarshal(raw, &st); err != nil {
			return st, fmt.Errorf("decode user state: %w", err)
		}
	}
	if st.CompletedQuests == nil {
		st.CompletedQuests = make(map[string]domain.CompletedQuest)
	}
	if st.Badges == nil {
		st.Badges = []string{}
	}
	st.XP = ClampXP(st.XP)
	st.Level = LevelForXP(st.XP)
	return st, nil
}

func encodeState(st domain.UserProgressionState) ([]byte, error) {
	st.Level = LevelForXP(st.XP)
	return json.Marshal(st)
}

func decodeChallenge(raw []byte) (domain.DailyChallenge, error) {
	var ch domain.DailyChallenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return ch, fmt.Errorf("decode daily challenge: %w", err)
	}
	return ch, nil
}

func ruleLabel(r StreakRule) string {
	switch r {
	case StreakFirstLogin:
		return "first"
	case StreakSameDay:
		return "same_day"
	case StreakExtended:
		return "extended"
	case StreakReset:
		return "reset"
	default:
		return "unknown"
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
