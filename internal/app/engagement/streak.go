// Package engagement runs the reader's engagement loop: it turns reading,
// quiz and login events into rewards, levels, pet evolutions, achievements
// and quest progress, then hands the new snapshot to the store.
package engagement

import (
	"time"

	"github.com/lingopal/lingopal/internal/domain"
)

const day = 24 * time.Hour

// RecordActiveDay marks t as a qualifying day.
// Same UTC day: no-op. Next day: extend. Any gap: the streak restarts at 1
// silently. Returns the updated progress and whether t was a new day.
func RecordActiveDay(p domain.UserProgress, t time.Time) (domain.UserProgress, bool) {
	p = p.Normalize()
	today := t.UTC().Truncate(day)

	if !p.LastActiveDay.IsZero() {
		last := p.LastActiveDay.UTC().Truncate(day)
		switch gap := today.Sub(last); {
		case gap <= 0:
			// Same day, or a clock that went backwards.
			return p, false
		case gap <= day:
			p.Streak++
		default:
			p.Streak = 1
		}
	} else {
		p.Streak = 1
	}

	p.LastActiveDay = today
	if p.Streak > p.LongestStreak {
		p.LongestStreak = p.Streak
	}
	return p, true
}

// StreakAlive reports whether the streak still counts at now, i.e. the
// last active day was today or yesterday.
func StreakAlive(p domain.UserProgress, now time.Time) bool {
	if p.LastActiveDay.IsZero() || p.Streak == 0 {
		return false
	}
	gap := now.UTC().Truncate(day).Sub(p.LastActiveDay.UTC().Truncate(day))
	return gap <= day
}
