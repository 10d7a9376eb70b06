// Package domain holds the pure engagement types shared by every layer.
// Domain types carry no infrastructure dependency; storage and transport
// live under internal/infra and internal/api.
package domain

import "time"

// ─── User Progress ──────────────────────────────────────────────────────────

// UserProgress is the reader's level, XP, streak and wallet.
// Owned by the session layer and passed by value into the engine.
type UserProgress struct {
	Level         int       `json:"level"`
	XP            int64     `json:"xp"`               // XP earned inside the current level
	XPToNextLevel int64     `json:"xp_to_next_level"` // Span of the current level
	Streak        int       `json:"streak"`
	LongestStreak int       `json:"longest_streak"`
	LastActiveDay time.Time `json:"last_active_day"` // UTC midnight of the last qualifying day
	Coins         int64     `json:"coins"`
	Gems          int64     `json:"gems"`

	BooksRead    int `json:"books_read"`
	WordsLearned int `json:"words_learned"`
	QuizAnswered int `json:"quiz_answered"`
	QuizCorrect  int `json:"quiz_correct"`
	BestCombo    int `json:"best_combo"`
}

// Normalize clamps every field into its valid range.
// Invalid input is repaired, never rejected.
func (p UserProgress) Normalize() UserProgress {
	if p.Level < 1 {
		p.Level = 1
	}
	if p.XP < 0 {
		p.XP = 0
	}
	if p.XPToNextLevel <= 0 {
		p.XPToNextLevel = 100
	}
	if p.Streak < 0 {
		p.Streak = 0
	}
	if p.LongestStreak < p.Streak {
		p.LongestStreak = p.Streak
	}
	if p.Coins < 0 {
		p.Coins = 0
	}
	if p.Gems < 0 {
		p.Gems = 0
	}
	p.BooksRead = max(p.BooksRead, 0)
	p.WordsLearned = max(p.WordsLearned, 0)
	p.QuizAnswered = max(p.QuizAnswered, 0)
	p.QuizCorrect = max(p.QuizCorrect, 0)
	p.BestCombo = max(p.BestCombo, 0)
	return p
}

// Stats projects the progress counters onto the metric space used by
// achievements and quests.
func (p UserProgress) Stats(pet PetState) Stats {
	return Stats{
		MetricBooksRead:    int64(p.BooksRead),
		MetricWordsLearned: int64(p.WordsLearned),
		MetricQuizCorrect:  int64(p.QuizCorrect),
		MetricStreakDays:   int64(p.LongestStreak),
		MetricLevel:        int64(p.Level),
		MetricPetStage:     int64(pet.Stage),
		MetricBestCombo:    int64(p.BestCombo),
	}
}

// Metric names a counter that achievements and quests measure against.
type Metric string

const (
	MetricBooksRead    Metric = "books_read"
	MetricWordsLearned Metric = "words_learned"
	MetricQuizCorrect  Metric = "quiz_correct"
	MetricStreakDays   Metric = "streak_days"
	MetricLevel        Metric = "level"
	MetricPetStage     Metric = "pet_stage"
	MetricBestCombo    Metric = "best_combo"
)

// Stats is a metric snapshot fed to achievement evaluation.
type Stats map[Metric]int64

// ─── Snapshot ───────────────────────────────────────────────────────────────

// Snapshot is the unit handed to and from the persistence collaborator.
// A mutation produces a new Snapshot that replaces the old one whole.
type Snapshot struct {
	Progress     UserProgress  `json:"progress"`
	Pet          PetState      `json:"pet"`
	Achievements []Achievement `json:"achievements"`
	Quests       []Quest       `json:"quests"`
	Combo        int           `json:"combo"` // Running quiz combo
}

// Clone returns a deep copy so callers never share slices with the engine.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Pet = s.Pet.WithHistory(s.Pet.History)
	out.Achievements = append([]Achievement(nil), s.Achievements...)
	out.Quests = append([]Quest(nil), s.Quests...)
	return out
}
