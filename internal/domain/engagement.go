package domain

import (
	"fmt"
	"time"
)

// ─── Achievement Types ──────────────────────────────────────────────────────

// Category groups achievements by theme.
type Category string

const (
	CatReading    Category = "reading"
	CatVocabulary Category = "vocabulary"
	CatQuiz       Category = "quiz"
	CatStreak     Category = "streak"
	CatPet        Category = "pet"
	CatLevel      Category = "level"
)

// ParseCategory maps a query string onto a known category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CatReading, CatVocabulary, CatQuiz, CatStreak, CatPet, CatLevel:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Rarity is the difficulty tier of an achievement.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rank orders rarities: common < rare < epic < legendary.
// Unknown rarities rank below common.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	default:
		return 0
	}
}

// Achievement is a goal-tracked progress unit with a one-time payout.
// Unlocked never reverts once set.
type Achievement struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        Category  `json:"category"`
	Rarity          Rarity    `json:"rarity"`
	Icon            string    `json:"icon"`
	Metric          Metric    `json:"metric"`
	CurrentProgress int64     `json:"current_progress"`
	TargetValue     int64     `json:"target_value"`
	Unlocked        bool      `json:"unlocked"`
	UnlockedAt      time.Time `json:"unlocked_at,omitzero"`
	RewardXP        int64     `json:"reward_xp"`
	RewardCoins     int64     `json:"reward_coins"`
	RewardGems      int64     `json:"reward_gems"`
}

// Ratio returns progress toward the target in [0, 1].
func (a Achievement) Ratio() float64 {
	if a.TargetValue <= 0 {
		return 1
	}
	r := float64(a.CurrentProgress) / float64(a.TargetValue)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Unlock marks the achievement earned at t. Already-unlocked achievements
// keep their original timestamp.
func (a Achievement) Unlock(t time.Time) Achievement {
	if a.Unlocked {
		return a
	}
	a.Unlocked = true
	a.UnlockedAt = t
	return a
}

// ─── Quest Types ────────────────────────────────────────────────────────────

// QuestStatus moves forward only: active → completed → claimed.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestClaimed   QuestStatus = "claimed"
)

// rank orders statuses so transitions can be checked for direction.
func (s QuestStatus) rank() int {
	switch s {
	case QuestActive:
		return 0
	case QuestCompleted:
		return 1
	case QuestClaimed:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether moving from s to next goes strictly forward.
func (s QuestStatus) CanAdvanceTo(next QuestStatus) bool {
	return s.rank() >= 0 && next.rank() > s.rank()
}

// Quest is a daily challenge with progress tracking.
type Quest struct {
	ID              string      `json:"id"`
	Metric          Metric      `json:"metric"`
	Description     string      `json:"description"`
	CurrentProgress int64       `json:"current_progress"`
	TargetProgress  int64       `json:"target_progress"`
	Status          QuestStatus `json:"status"`
	RewardXP        int64       `json:"reward_xp"`
	RewardCoins     int64       `json:"reward_coins"`
	ExpiresAt       time.Time   `json:"expires_at"`
}

// IsExpired returns true if the quest deadline has passed at now.
func (q Quest) IsExpired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// QuestTemplate defines the pool of possible quests.
type QuestTemplate struct {
	Metric      Metric `json:"metric"`
	Target      int64  `json:"target"`
	Description string `json:"description"`
	RewardXP    int64  `json:"reward_xp"`
	RewardCoins int64  `json:"reward_coins"`
}

// ─── Shop ───────────────────────────────────────────────────────────────────

// ShopItem is something the reader can buy for their pet.
type ShopItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Price     int64   `json:"price"`
	Happiness int     `json:"happiness"`
	Emotion   Emotion `json:"emotion"`
}
