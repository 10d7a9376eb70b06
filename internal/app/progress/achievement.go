package progress

import (
	"time"

	"github.com/lingopal/lingopal/internal/domain"
)

// Catalog is the fixed achievement table. Each entry measures one metric
// against a target.
type Catalog struct {
	defs []domain.Achievement
	byID map[string]int
}

// NewCatalog builds a catalog from defs. Duplicate IDs keep the first entry.
func NewCatalog(defs []domain.Achievement) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(defs))}
	for _, d := range defs {
		if _, dup := c.byID[d.ID]; dup {
			continue
		}
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c
}

// DefaultCatalog returns the built-in achievements.
func DefaultCatalog() *Catalog {
	return NewCatalog(AllAchievements())
}

// Len returns the number of defined achievements.
func (c *Catalog) Len() int { return len(c.defs) }

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id string) (domain.Achievement, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Achievement{}, &domain.ConfigurationError{Kind: "achievement", Key: id}
	}
	return c.defs[i], nil
}

// Evaluate recomputes progress for every catalog entry from stats and
// unlocks those that reached their target.
//
// Unlock state is carried over from current by ID and never reverts.
// Entries in current that the catalog no longer defines are kept as they
// are. Returns the full list and the achievements unlocked by this call.
func (c *Catalog) Evaluate(current []domain.Achievement, stats domain.Stats, now time.Time) ([]domain.Achievement, []domain.Achievement) {
	prev := make(map[string]domain.Achievement, len(current))
	for _, a := range current {
		prev[a.ID] = a
	}

	out := make([]domain.Achievement, 0, len(c.defs))
	var unlocked []domain.Achievement
	for _, def := range c.defs {
		a := def
		if p, ok := prev[def.ID]; ok {
			a.Unlocked, a.UnlockedAt = p.Unlocked, p.UnlockedAt
			a.CurrentProgress = p.CurrentProgress
			delete(prev, def.ID)
		}
		if v := stats[def.Metric]; v > a.CurrentProgress {
			a.CurrentProgress = v
		}
		if !a.Unlocked && a.CurrentProgress >= a.TargetValue {
			a = a.Unlock(now)
			unlocked = append(unlocked, a)
		}
		out = append(out, a)
	}
	for _, a := range current {
		if _, orphan := prev[a.ID]; orphan {
			out = append(out, a)
		}
	}
	return out, unlocked
}

// ─── Achievement Definitions ────────────────────────────────────────────────

// AllAchievements returns the full achievement catalog.
func AllAchievements() []domain.Achievement {
	return []domain.Achievement{
		// ── Reading ────────────────────────────────────────────────────
		{
			ID: "first_book", Title: "First Chapter", Description: "Finish your first story",
			Category: domain.CatReading, Rarity: domain.RarityCommon, Icon: "📖",
			Metric: domain.MetricBooksRead, TargetValue: 1, RewardXP: 50, RewardCoins: 10,
		},
		{
			ID: "books_10", Title: "Bookworm", Description: "Finish 10 stories",
			Category: domain.CatReading, Rarity: domain.RarityRare, Icon: "🐛",
			Metric: domain.MetricBooksRead, TargetValue: 10, RewardXP: 200, RewardCoins: 50,
		},
		{
			ID: "books_50", Title: "Library Explorer", Description: "Finish 50 stories",
			Category: domain.CatReading, Rarity: domain.RarityEpic, Icon: "🏛️",
			Metric: domain.MetricBooksRead, TargetValue: 50, RewardXP: 1000, RewardCoins: 200, RewardGems: 5,
		},
		{
			ID: "books_200", Title: "Story Keeper", Description: "Finish 200 stories",
			Category: domain.CatReading, Rarity: domain.RarityLegendary, Icon: "👑",
			Metric: domain.MetricBooksRead, TargetValue: 200, RewardXP: 5000, RewardCoins: 1000, RewardGems: 25,
		},

		// ── Vocabulary ─────────────────────────────────────────────────
		{
			ID: "words_25", Title: "Word Collector", Description: "Learn 25 new words",
			Category: domain.CatVocabulary, Rarity: domain.RarityCommon, Icon: "🔤",
			Metric: domain.MetricWordsLearned, TargetValue: 25, RewardXP: 80, RewardCoins: 20,
		},
		{
			ID: "words_100", Title: "Word Wizard", Description: "Learn 100 new words",
			Category: domain.CatVocabulary, Rarity: domain.RarityRare, Icon: "🪄",
			Metric: domain.MetricWordsLearned, TargetValue: 100, RewardXP: 300, RewardCoins: 75,
		},
		{
			ID: "words_500", Title: "Two-Language Talker", Description: "Learn 500 new words",
			Category: domain.CatVocabulary, Rarity: domain.RarityEpic, Icon: "🗣️",
			Metric: domain.MetricWordsLearned, TargetValue: 500, RewardXP: 1500, RewardCoins: 300, RewardGems: 10,
		},

		// ── Quiz ───────────────────────────────────────────────────────
		{
			ID: "quiz_10", Title: "Quick Thinker", Description: "Answer 10 quiz questions correctly",
			Category: domain.CatQuiz, Rarity: domain.RarityCommon, Icon: "💡",
			Metric: domain.MetricQuizCorrect, TargetValue: 10, RewardXP: 60, RewardCoins: 15,
		},
		{
			ID: "quiz_100", Title: "Quiz Champion", Description: "Answer 100 quiz questions correctly",
			Category: domain.CatQuiz, Rarity: domain.RarityRare, Icon: "🏆",
			Metric: domain.MetricQuizCorrect, TargetValue: 100, RewardXP: 400, RewardCoins: 100,
		},
		{
			ID: "combo_5", Title: "On Fire", Description: "Get 5 answers right in a row",
			Category: domain.CatQuiz, Rarity: domain.RarityRare, Icon: "🔥",
			Metric: domain.MetricBestCombo, TargetValue: 5, RewardXP: 150, RewardCoins: 30,
		},
		{
			ID: "combo_15", Title: "Unstoppable", Description: "Get 15 answers right in a row",
			Category: domain.CatQuiz, Rarity: domain.RarityEpic, Icon: "⚡",
			Metric: domain.MetricBestCombo, TargetValue: 15, RewardXP: 600, RewardCoins: 120, RewardGems: 3,
		},

		// ── Streak ─────────────────────────────────────────────────────
		{
			ID: "streak_3", Title: "Getting Started", Description: "Read three days in a row",
			Category: domain.CatStreak, Rarity: domain.RarityCommon, Icon: "🌱",
			Metric: domain.MetricStreakDays, TargetValue: 3, RewardXP: 60, RewardCoins: 15,
		},
		{
			ID: "streak_7", Title: "Week Warrior", Description: "Read seven days in a row",
			Category: domain.CatStreak, Rarity: domain.RarityRare, Icon: "📅",
			Metric: domain.MetricStreakDays, TargetValue: 7, RewardXP: 200, RewardCoins: 50,
		},
		{
			ID: "streak_30", Title: "Monthly Marvel", Description: "Read thirty days in a row",
			Category: domain.CatStreak, Rarity: domain.RarityEpic, Icon: "🌙",
			Metric: domain.MetricStreakDays, TargetValue: 30, RewardXP: 1000, RewardCoins: 200, RewardGems: 5,
		},
		{
			ID: "streak_100", Title: "Centurion Reader", Description: "Read one hundred days in a row",
			Category: domain.CatStreak, Rarity: domain.RarityLegendary, Icon: "🏅",
			Metric: domain.MetricStreakDays, TargetValue: 100, RewardXP: 5000, RewardCoins: 1000, RewardGems: 20,
		},

		// ── Pet ────────────────────────────────────────────────────────
		{
			ID: "pet_hatch", Title: "It's Hatching!", Description: "Help your pet hatch",
			Category: domain.CatPet, Rarity: domain.RarityCommon, Icon: "🐣",
			Metric: domain.MetricPetStage, TargetValue: 1, RewardXP: 50, RewardCoins: 20,
		},
		{
			ID: "pet_stage_3", Title: "Growing Up", Description: "Evolve your pet three times",
			Category: domain.CatPet, Rarity: domain.RarityRare, Icon: "🌿",
			Metric: domain.MetricPetStage, TargetValue: 3, RewardXP: 300, RewardCoins: 60,
		},
		{
			ID: "pet_final", Title: "Fully Grown", Description: "Reach your pet's final form",
			Category: domain.CatPet, Rarity: domain.RarityLegendary, Icon: "🐉",
			Metric: domain.MetricPetStage, TargetValue: 5, RewardXP: 3000, RewardCoins: 500, RewardGems: 15,
		},

		// ── Level ──────────────────────────────────────────────────────
		{
			ID: "level_5", Title: "Rising Star", Description: "Reach level 5",
			Category: domain.CatLevel, Rarity: domain.RarityCommon, Icon: "⭐",
			Metric: domain.MetricLevel, TargetValue: 5, RewardXP: 100, RewardCoins: 25,
		},
		{
			ID: "level_20", Title: "Super Reader", Description: "Reach level 20",
			Category: domain.CatLevel, Rarity: domain.RarityEpic, Icon: "🌟",
			Metric: domain.MetricLevel, TargetValue: 20, RewardXP: 800, RewardCoins: 200, RewardGems: 5,
		},
	}
}
