// Package progress aggregates achievement and quest progress: completion
// percentages, the next milestone to chase, and the achievement listing.
package progress

import (
	"math"

	"github.com/lingopal/lingopal/internal/domain"
)

// Percent returns round(100*current/target) clamped to [0, 100].
// A non-positive target counts as complete; NaN input counts as zero.
func Percent(current, target float64) int {
	if math.IsNaN(current) || math.IsNaN(target) {
		return 0
	}
	if target <= 0 {
		return 100
	}
	if current <= 0 {
		return 0
	}
	p := math.Round(100 * current / target)
	if p > 100 {
		return 100
	}
	return int(p)
}

// AchievementPercent is Percent for an achievement. Unlocked achievements
// always read 100.
func AchievementPercent(a domain.Achievement) int {
	if a.Unlocked {
		return 100
	}
	return Percent(float64(a.CurrentProgress), float64(a.TargetValue))
}

// QuestPercent is Percent for a quest.
func QuestPercent(q domain.Quest) int {
	if q.Status != domain.QuestActive {
		return 100
	}
	return Percent(float64(q.CurrentProgress), float64(q.TargetProgress))
}

// NextMilestone returns the locked achievement closest to completion.
// Ties go to the lowest target. Returns false when everything is unlocked.
func NextMilestone(achievements []domain.Achievement) (domain.Achievement, bool) {
	var (
		best  domain.Achievement
		found bool
	)
	for _, a := range achievements {
		if a.Unlocked {
			continue
		}
		if !found {
			best, found = a, true
			continue
		}
		r, br := a.Ratio(), best.Ratio()
		if r > br || (r == br && a.TargetValue < best.TargetValue) {
			best = a
		}
	}
	return best, found
}
