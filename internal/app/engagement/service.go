package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lingopal/lingopal/internal/app/evolution"
	"github.com/lingopal/lingopal/internal/app/progress"
	"github.com/lingopal/lingopal/internal/app/reward"
	"github.com/lingopal/lingopal/internal/domain"
	"github.com/lingopal/lingopal/internal/infra/metrics"
)

// Config tunes reward sizes and the evolution hand-off.
type Config struct {
	ReadingXP       int64          // Flat XP per finished story
	ReadingCoins    int64          // Flat coins per finished story
	XPPerWord       int64          // Extra XP per new word learned
	QuestionXP      int64          // Base XP per correct answer
	QuestionCoins   int64          // Coins per correct answer (never combo-boosted)
	StreakBaseXP    int64          // Daily streak base, paid ×10
	StreakBaseCoins int64          // Daily streak base, paid ×10
	EvolutionDelay  time.Duration  // Auto-confirm after this long; 0 waits for an explicit ack
	PetTrack        domain.TrackID // Track for a freshly adopted pet
	PetName         string
	Notices         NoticePolicy
}

// DefaultConfig returns the reward table the app ships with.
func DefaultConfig() Config {
	return Config{
		ReadingXP:       20,
		ReadingCoins:    5,
		XPPerWord:       2,
		QuestionXP:      10,
		QuestionCoins:   2,
		StreakBaseXP:    5,
		StreakBaseCoins: 2,
		PetTrack:        domain.TrackKnowledge,
		PetName:         "Pip",
		Notices:         DefaultNoticePolicy(),
	}
}

// Reading describes one finished story.
type Reading struct {
	WordsLearned int `json:"words_learned"`
}

// Result is the reward delta produced by one event. The presentation layer
// animates it; Evolution, when set, waits for AcknowledgeEvolution.
type Result struct {
	XP           int64                 `json:"xp"`
	Coins        int64                 `json:"coins"`
	Gems         int64                 `json:"gems"`
	ComboBonus   int64                 `json:"combo_bonus,omitempty"`
	Combo        int                   `json:"combo,omitempty"`
	Level        int                   `json:"level"`
	LevelsGained int                   `json:"levels_gained,omitempty"`
	Unlocks      []string              `json:"unlocks,omitempty"`
	Streak       *reward.StreakReward  `json:"streak,omitempty"`
	Evolution    *evolution.Transition `json:"evolution,omitempty"`
	Achievements []domain.Achievement  `json:"achievements,omitempty"`
	Quests       []domain.Quest        `json:"quests,omitempty"`
	Notices      []Notice              `json:"notices,omitempty"`
	Warnings     []string              `json:"warnings,omitempty"`
}

// Service owns the authoritative in-memory snapshot for one reader.
// All mutations go through the service mutex, so there is exactly one
// writer; readers get deep copies.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	store   domain.SnapshotStore
	clock   domain.Clock
	log     *zap.Logger
	catalog *progress.Catalog
	seq     *evolution.Sequencer
	notify  *Notifier
	snap    domain.Snapshot

	// detached is set when the stored snapshot could not be read. The
	// service then runs on a fresh snapshot and never saves, so the
	// reader's stored progress survives until a restart loads it.
	detached bool
}

// New loads the reader's snapshot from store, adopting a pet when none
// exists yet. A failed load is logged and the service starts fresh in
// memory without saving.
func New(ctx context.Context, store domain.SnapshotStore, clock domain.Clock, log *zap.Logger, cfg Config) (*Service, error) {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		cfg:     cfg,
		store:   store,
		clock:   clock,
		log:     log.Named("engagement"),
		catalog: progress.DefaultCatalog(),
		seq:     evolution.NewSequencer(clock),
		notify:  NewNotifier(cfg.Notices),
	}

	now := clock.Now()
	loaded, err := store.Load(ctx)
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues("load").Inc()
		s.log.Warn("load snapshot failed, starting fresh without saving", zap.Error(err))
		loaded = nil
		s.detached = true
	}

	var snap domain.Snapshot
	if loaded != nil {
		snap = loaded.Clone()
	} else {
		pet, err := evolution.NewPet(cfg.PetTrack, cfg.PetName, now)
		if err != nil {
			return nil, fmt.Errorf("adopt pet: %w", err)
		}
		snap = domain.Snapshot{Pet: pet}
		snap.Progress, _ = ApplyXP(domain.UserProgress{Level: 1}, 0)
		s.log.Info("adopted pet", zap.String("pet", pet.Name), zap.String("track", string(pet.Track)))
	}
	if _, err := evolution.LookupTrack(snap.Pet.Track); err != nil {
		return nil, err
	}
	snap.Progress = snap.Progress.Normalize()
	snap.Pet.Happiness = domain.ClampHappiness(snap.Pet.Happiness)
	s.snap = snap

	var res Result
	if err := s.commit(ctx, s.snap.Clone(), "load", &res); err != nil {
		return nil, err
	}
	return s, nil
}

// Close drops any pending evolution. A scheduled confirmation never fires
// after Close.
func (s *Service) Close() {
	s.seq.Close()
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Persisting reports whether changes reach the store. It is false after a
// failed load.
func (s *Service) Persisting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.detached
}

// PendingEvolution returns the transition awaiting acknowledgement.
func (s *Service) PendingEvolution() (evolution.Transition, bool) {
	return s.seq.Pending()
}

// EvolutionPhase reports where the evolution protocol stands.
func (s *Service) EvolutionPhase() evolution.Phase {
	return s.seq.Phase()
}

// NoticePolicy returns the active parent-notice policy.
func (s *Service) NoticePolicy() NoticePolicy {
	return s.notify.Policy()
}

// Achievements lists achievements per q.
func (s *Service) Achievements(q progress.Query) []domain.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progress.List(s.snap.Achievements, q)
}

// NextMilestone returns the locked achievement closest to completion.
func (s *Service) NextMilestone() (domain.Achievement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progress.NextMilestone(s.snap.Achievements)
}

// StreakPreview returns today's streak reward and tomorrow's forecast.
func (s *Service) StreakPreview() reward.StreakReward {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reward.Streak(s.snap.Progress.Streak, s.cfg.StreakBaseXP, s.cfg.StreakBaseCoins)
}

// ─── Events ─────────────────────────────────────────────────────────────────

// CompleteReading records a finished story.
func (s *Service) CompleteReading(ctx context.Context, r Reading) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	words := max(r.WordsLearned, 0)
	now := s.clock.Now()
	next := s.snap.Clone()
	var res Result

	s.touchDay(&next, now, &res)

	next.Progress.BooksRead++
	next.Progress.WordsLearned += words
	s.grant(&next, "reading", s.cfg.ReadingXP+int64(words)*s.cfg.XPPerWord, s.cfg.ReadingCoins, 0, &res)

	s.advanceQuests(&next, domain.MetricBooksRead, 1, now, &res)
	s.advanceQuests(&next, domain.MetricWordsLearned, int64(words), now, &res)

	return res, s.commit(ctx, next, "reading", &res)
}

// AnswerQuestion records one quiz answer. Correct answers extend the combo
// and earn base XP plus the combo bonus; a wrong answer resets the combo.
func (s *Service) AnswerQuestion(ctx context.Context, correct bool) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	next := s.snap.Clone()
	var res Result

	next.Progress.QuizAnswered++
	combo := reward.Combo{Current: next.Combo, Best: next.Progress.BestCombo}
	res.Combo = combo.Record(correct)
	next.Combo = combo.Current
	next.Progress.BestCombo = combo.Best

	if correct {
		s.touchDay(&next, now, &res)
		next.Progress.QuizCorrect++
		res.ComboBonus = reward.ComboBonus(combo.Current, s.cfg.QuestionXP)
		s.grant(&next, "quiz", s.cfg.QuestionXP, s.cfg.QuestionCoins, 0, &res)
		if res.ComboBonus > 0 {
			s.grant(&next, "combo", res.ComboBonus, 0, 0, &res)
		}
		s.advanceQuests(&next, domain.MetricQuizCorrect, 1, now, &res)
		s.raiseQuests(&next, domain.MetricBestCombo, int64(next.Progress.BestCombo), now, &res)
	}

	return res, s.commit(ctx, next, "quiz", &res)
}

// EndQuiz closes a quiz session and resets the running combo.
func (s *Service) EndQuiz(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	next.Combo = 0
	var res Result
	return res, s.commit(ctx, next, "quiz_end", &res)
}

// DailyLogin counts today toward the streak and pays the streak reward the
// first time it is called on a new day.
func (s *Service) DailyLogin(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	var res Result
	s.touchDay(&next, s.clock.Now(), &res)
	return res, s.commit(ctx, next, "login", &res)
}

// AcknowledgeEvolution is phase 2 of the evolution protocol: the
// presentation layer finished animating transition id, so it is applied.
func (s *Service) AcknowledgeEvolution(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, tr, err := s.seq.Confirm(s.snap.Pet, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNoPendingTransition) {
			metrics.EvolutionTransitions.WithLabelValues("cancelled").Inc()
		}
		return Result{}, err
	}
	metrics.EvolutionTransitions.WithLabelValues("applied").Inc()
	s.log.Info("pet evolved",
		zap.String("pet", pet.Name),
		zap.Int("stage", tr.NextStage),
		zap.String("stage_name", tr.StageName),
		zap.Int("level", tr.Level))

	next := s.snap.Clone()
	next.Pet = pet
	var res Result
	return res, s.commit(ctx, next, "evolution", &res)
}

// CancelEvolution drops the pending transition, if any.
func (s *Service) CancelEvolution() bool {
	if !s.seq.Cancel() {
		return false
	}
	metrics.EvolutionTransitions.WithLabelValues("cancelled").Inc()
	s.log.Debug("pending evolution cancelled")
	return true
}

// ClaimQuest pays out a completed quest.
func (s *Service) ClaimQuest(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	quests, q, err := progress.ClaimQuest(next.Quests, id)
	if err != nil {
		return Result{}, err
	}
	next.Quests = quests
	metrics.QuestsCompleted.WithLabelValues(string(domain.QuestClaimed)).Inc()

	var res Result
	res.Quests = []domain.Quest{q}
	s.grant(&next, "quest", q.RewardXP, q.RewardCoins, 0, &res)
	return res, s.commit(ctx, next, "quest_claim", &res)
}

// Purchase buys a shop item for the pet.
func (s *Service) Purchase(ctx context.Context, itemID string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := LookupItem(itemID)
	if err != nil {
		return Result{}, err
	}
	next, err := Buy(s.snap.Clone(), item)
	if err != nil {
		return Result{}, err
	}
	metrics.CoinsSpent.WithLabelValues(item.ID).Add(float64(item.Price))

	res := Result{Coins: -item.Price}
	return res, s.commit(ctx, next, "purchase", &res)
}

// ─── Internals ──────────────────────────────────────────────────────────────

// touchDay counts now toward the streak and pays the streak reward on a
// new day.
func (s *Service) touchDay(next *domain.Snapshot, now time.Time, res *Result) {
	p, fresh := RecordActiveDay(next.Progress, now)
	next.Progress = p
	if !fresh {
		return
	}
	sr := reward.Streak(p.Streak, s.cfg.StreakBaseXP, s.cfg.StreakBaseCoins)
	res.Streak = &sr
	s.grant(next, "streak", sr.TodayXP, sr.TodayCoins, 0, res)
}

// grant applies XP, coins and gems to next and records the delta.
func (s *Service) grant(next *domain.Snapshot, source string, xp, coins, gems int64, res *Result) {
	xp, coins, gems = max(xp, 0), max(coins, 0), max(gems, 0)

	p, gained := ApplyXP(next.Progress, xp)
	p.Coins += coins
	p.Gems += gems
	next.Progress = p

	res.XP += xp
	res.Coins += coins
	res.Gems += gems
	if gained > 0 {
		for l := p.Level - gained + 1; l <= p.Level; l++ {
			res.Unlocks = append(res.Unlocks, UnlocksForLevel(l)...)
		}
		res.LevelsGained += gained
		metrics.LevelUps.Add(float64(gained))
		s.log.Info("level up", zap.Int("level", p.Level), zap.Int("gained", gained), zap.String("source", source))
	}
	if xp > 0 {
		metrics.XPAwarded.WithLabelValues(source).Add(float64(xp))
	}
	if coins > 0 {
		metrics.CoinsAwarded.WithLabelValues(source).Add(float64(coins))
	}
}

func (s *Service) advanceQuests(next *domain.Snapshot, m domain.Metric, delta int64, now time.Time, res *Result) {
	quests, done := progress.AdvanceQuests(next.Quests, m, delta, now)
	next.Quests = quests
	s.noteQuests(done, res)
}

func (s *Service) raiseQuests(next *domain.Snapshot, m domain.Metric, value int64, now time.Time, res *Result) {
	quests, done := progress.RaiseQuests(next.Quests, m, value, now)
	next.Quests = quests
	s.noteQuests(done, res)
}

func (s *Service) noteQuests(done []domain.Quest, res *Result) {
	for _, q := range done {
		metrics.QuestsCompleted.WithLabelValues(string(domain.QuestCompleted)).Inc()
		s.log.Info("quest completed", zap.String("quest", q.ID))
	}
	res.Quests = append(res.Quests, done...)
}

// commit finishes a mutation batch: achievements are re-evaluated and paid
// (an achievement's XP can unlock level achievements, so this repeats until
// nothing new unlocks), quests are refreshed, the pet is checked for
// evolution, and the snapshot replaces the old one before being saved.
// Only configuration errors abort; a failed save becomes a warning. The save
// ignores cancellation of ctx so a dropped request still persists.
func (s *Service) commit(ctx context.Context, next domain.Snapshot, op string, res *Result) error {
	now := s.clock.Now()

	for i := 0; i <= s.catalog.Len(); i++ {
		list, unlocked := s.catalog.Evaluate(next.Achievements, next.Progress.Stats(next.Pet), now)
		next.Achievements = list
		if len(unlocked) == 0 {
			break
		}
		for _, a := range unlocked {
			metrics.AchievementsUnlocked.WithLabelValues(string(a.Rarity)).Inc()
			s.log.Info("achievement unlocked", zap.String("id", a.ID), zap.String("rarity", string(a.Rarity)))
			s.grant(&next, "achievement", a.RewardXP, a.RewardCoins, a.RewardGems, res)
		}
		res.Achievements = append(res.Achievements, unlocked...)
	}

	next.Quests = progress.RefreshQuests(next.Quests, now)

	var notices []Notice
	before, hadPending := s.seq.Pending()
	tr, pending, err := s.seq.Begin(next.Pet, next.Progress.Level)
	if err != nil {
		return fmt.Errorf("evolution check: %w", err)
	}
	if pending {
		res.Evolution = &tr
		if !hadPending || before.ID != tr.ID {
			metrics.EvolutionTransitions.WithLabelValues("pending").Inc()
			s.log.Info("evolution ready",
				zap.String("transition", tr.ID),
				zap.Int("next_stage", tr.NextStage),
				zap.String("stage_name", tr.StageName))
			if s.cfg.EvolutionDelay > 0 {
				s.seq.ConfirmAfter(s.cfg.EvolutionDelay, s.autoConfirm)
			}
			notices = append(notices, Notice{Kind: NoticeEvolution, Title: next.Pet.Name + " is becoming a " + tr.StageName + "!"})
		}
	}
	for _, a := range res.Achievements {
		notices = append(notices, Notice{Kind: NoticeAchievement, Title: "Unlocked " + a.Title})
	}
	if res.LevelsGained > 0 {
		notices = append(notices, Notice{Kind: NoticeLevelUp, Title: fmt.Sprintf("Reached level %d", next.Progress.Level)})
	}
	res.Notices = s.notify.Offer(now, notices...)

	res.Level = next.Progress.Level
	s.snap = next
	metrics.CurrentLevel.Set(float64(next.Progress.Level))
	metrics.CurrentStreak.Set(float64(next.Progress.Streak))

	if s.detached {
		res.Warnings = append(res.Warnings, "progress not saved: stored state could not be loaded")
		return nil
	}

	start := time.Now()
	if err := s.store.Save(context.WithoutCancel(ctx), next.Clone()); err != nil {
		metrics.PersistenceFailures.WithLabelValues("save").Inc()
		s.log.Warn("save snapshot failed, keeping in-memory state", zap.String("op", op), zap.Error(err))
		res.Warnings = append(res.Warnings, "progress not saved: "+err.Error())
		return nil
	}
	metrics.SaveLatency.Observe(time.Since(start).Seconds())
	return nil
}

// autoConfirm runs on the sequencer's timer.
func (s *Service) autoConfirm(id string) {
	if _, err := s.AcknowledgeEvolution(context.Background(), id); err != nil {
		s.log.Debug("scheduled evolution dropped", zap.String("transition", id), zap.Error(err))
	}
}
