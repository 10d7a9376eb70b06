package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/app/evolution"
	"github.com/lingopal/lingopal/internal/app/progress"
	"github.com/lingopal/lingopal/internal/domain"
)

// ─── Read endpoints ─────────────────────────────────────────────────────────

type progressResponse struct {
	domain.UserProgress
	LevelPct    float64 `json:"level_pct"`
	StreakAlive bool    `json:"streak_alive"`
	Combo       int     `json:"combo"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	writeJSON(w, http.StatusOK, progressResponse{
		UserProgress: snap.Progress,
		LevelPct:     engagement.LevelPct(snap.Progress),
		StreakAlive:  engagement.StreakAlive(snap.Progress, s.svc.Now()),
		Combo:        snap.Combo,
	})
}

type petResponse struct {
	domain.PetState
	StageName string                `json:"stage_name"`
	MaxStage  int                   `json:"max_stage"`
	NextStage *evolution.Stage      `json:"next_stage,omitempty"`
	CanEvolve bool                  `json:"can_evolve"`
	Phase     string                `json:"evolution_phase"`
	Pending   *evolution.Transition `json:"pending_evolution,omitempty"`
}

func (s *Server) handlePet(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	pet := snap.Pet
	track, err := evolution.LookupTrack(pet.Track)
	if err != nil {
		s.fail(w, err)
		return
	}
	name, err := track.StageName(pet.Stage)
	if err != nil {
		s.fail(w, err)
		return
	}

	can, err := evolution.CanEvolve(pet.Track, pet.Stage, snap.Progress.Level)
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := petResponse{
		PetState:  pet,
		StageName: name,
		MaxStage:  track.MaxStage(),
		CanEvolve: can,
		Phase:     s.svc.EvolutionPhase().String(),
	}
	if next, ok := track.NextRequirement(pet.Stage); ok {
		resp.NextStage = &next
	}
	if tr, ok := s.svc.PendingEvolution(); ok {
		resp.Pending = &tr
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	var out []evolution.Track
	for _, id := range evolution.Tracks() {
		t, err := evolution.LookupTrack(id)
		if err != nil {
			s.fail(w, err)
			return
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": out})
}

type achievementView struct {
	domain.Achievement
	Percent int `json:"percent"`
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, category, err := progress.ParseFilter(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sortKey, err := progress.ParseSort(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list := s.svc.Achievements(progress.Query{
		Filter:   filter,
		Category: category,
		Sort:     sortKey,
		Search:   q.Get("search"),
	})
	out := make([]achievementView, len(list))
	unlocked := 0
	for i, a := range list {
		out[i] = achievementView{Achievement: a, Percent: progress.AchievementPercent(a)}
		if a.Unlocked {
			unlocked++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"achievements": out,
		"unlocked":     unlocked,
		"total":        len(out),
	})
}

func (s *Server) handleMilestone(w http.ResponseWriter, r *http.Request) {
	m, ok := s.svc.NextMilestone()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, achievementView{Achievement: m, Percent: progress.AchievementPercent(m)})
}

type questView struct {
	domain.Quest
	Percent int `json:"percent"`
}

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	quests := s.svc.Snapshot().Quests
	out := make([]questView, len(quests))
	for i, q := range quests {
		out[i] = questView{Quest: q, Percent: progress.QuestPercent(q)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": out})
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items": engagement.ShopItems(),
		"coins": s.svc.Snapshot().Progress.Coins,
	})
}

func (s *Server) handleNoticePolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.NoticePolicy())
}

func (s *Server) handleStreakPreview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.StreakPreview())
}

// ─── Events ─────────────────────────────────────────────────────────────────

// decodeBody decodes an optional JSON body into v. An empty body is fine.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	var req engagement.Reading
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.reply(w)(s.svc.CompleteReading(r.Context(), req))
}

type answerRequest struct {
	Correct bool `json:"correct"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.reply(w)(s.svc.AnswerQuestion(r.Context(), req.Correct))
}

func (s *Server) handleQuizEnd(w http.ResponseWriter, r *http.Request) {
	s.reply(w)(s.svc.EndQuiz(r.Context()))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.reply(w)(s.svc.DailyLogin(r.Context()))
}

func (s *Server) handleEvolutionAck(w http.ResponseWriter, r *http.Request) {
	s.reply(w)(s.svc.AcknowledgeEvolution(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleEvolutionCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": s.svc.CancelEvolution()})
}

func (s *Server) handleQuestClaim(w http.ResponseWriter, r *http.Request) {
	s.reply(w)(s.svc.ClaimQuest(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.reply(w)(s.svc.Purchase(r.Context(), chi.URLParam(r, "item")))
}

// reply returns a writer for a (Result, error) pair.
func (s *Server) reply(w http.ResponseWriter) func(engagement.Result, error) {
	return func(res engagement.Result, err error) {
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
