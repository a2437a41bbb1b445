package api

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/questforge/questforge/internal/app/engagement"
	"github.com/questforge/questforge/internal/domain"
)

// ─── Users ──────────────────────────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.OnLogin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var attempt domain.QuestAttempt
	if err := decodeBody(w, r, &attempt, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engine.OnQuestSubmit(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "questID"), attempt)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.GetProgression(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProfileUpdate
	if err := decodeBody(w, r, &upd, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engine.UpdateProfile(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// challengeResponse wraps a challenge so "none available" serializes as null.
type challengeResponse struct {
	Challenge *domain.DailyChallenge `json:"challenge"`
}

func (s *Server) handleDailyChallenge(w http.ResponseWriter, r *http.Request) {
	day, err := parseDayParam(r.URL.Query().Get("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ch, err := s.engine.GetOrCreateDailyChallenge(r.Context(), chi.URLParam(r, "id"), day)
	s.writeChallenge(w, ch, err)
}

// rerollRequest is the optional body of a reroll. A missing seed is drawn
// at random; a missing day means today.
type rerollRequest struct {
	Day  string `json:"day,omitempty"`
	Seed *int64 `json:"seed,omitempty"`
}

func (s *Server) handleReroll(w http.ResponseWriter, r *http.Request) {
	var req rerollRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDayParam(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	seed := rand.Int64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	ch, err := s.engine.Reroll(r.Context(), chi.URLParam(r, "id"), day, seed)
	s.writeChallenge(w, ch, err)
}

func (s *Server) writeChallenge(w http.ResponseWriter, ch domain.DailyChallenge, err error) {
	switch {
	case errors.Is(err, domain.ErrNoChallengeAvailable):
		writeJSON(w, http.StatusOK, challengeResponse{})
	case err != nil:
		s.writeServiceError(w, err)
	default:
		writeJSON(w, http.StatusOK, challengeResponse{Challenge: &ch})
	}
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.QuestFilter{Category: q.Get("category")}
	if v := q.Get("free"); v != "" {
		free, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "free must be a boolean")
			return
		}
		filter.FreeOnly = free
	}
	quests, err := s.catalog.ListQuests(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if quests == nil {
		quests = []domain.QuestDefinition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": quests})
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"badges": s.engine.Badges()})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"levels": engagement.DefaultLevels}
	if v := r.URL.Query().Get("xp"); v != "" {
		xp, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "xp must be an integer")
			return
		}
		resp["progress"] = engagement.ProgressToNext(engagement.ClampXP(xp))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

func parseDayParam(v string) (domain.Day, error) {
	if v == "" {
		return domain.Day{}, nil
	}
	return domain.ParseDay(v)
}
