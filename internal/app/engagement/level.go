package engagement

import (
	"math"

	"github.com/lingopal/lingopal/internal/domain"
)

// MaxLevel caps the level curve.
const MaxLevel = 100

// XPToNext returns the XP span of level: 100 * 1.2^(level-1).
// Each level needs more than the last.
func XPToNext(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(100 * math.Pow(1.2, float64(level-1)))
}

// ApplyXP adds amount to p and carries any overflow across as many levels
// as it covers. Returns the new progress and the number of levels gained.
func ApplyXP(p domain.UserProgress, amount int64) (domain.UserProgress, int) {
	p = p.Normalize()
	p.XPToNextLevel = XPToNext(p.Level)
	if amount <= 0 {
		return p, 0
	}

	p.XP += amount
	gained := 0
	for p.Level < MaxLevel && p.XP >= p.XPToNextLevel {
		p.XP -= p.XPToNextLevel
		p.Level++
		p.XPToNextLevel = XPToNext(p.Level)
		gained++
	}
	return p, gained
}

// LevelPct returns progress toward the next level (0–100).
func LevelPct(p domain.UserProgress) float64 {
	if p.Level >= MaxLevel {
		return 100
	}
	if p.XPToNextLevel <= 0 {
		return 0
	}
	pct := float64(p.XP) / float64(p.XPToNextLevel) * 100
	return math.Min(math.Max(pct, 0), 100)
}

// UnlocksForLevel returns the features unlocked at a specific level.
func UnlocksForLevel(level int) []string {
	unlocks := map[int][]string{
		1:  {"Picture books", "Daily quests"},
		3:  {"Pet hatching"},
		5:  {"Bilingual stories"},
		8:  {"Word match quiz"},
		10: {"Shop: hats"},
		15: {"Chapter books"},
		20: {"Read-aloud challenges"},
		30: {"Story writing"},
	}
	if u, ok := unlocks[level]; ok {
		return u
	}
	return nil
}
