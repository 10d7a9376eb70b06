// Package reward computes XP and coin payouts for daily streaks and quiz
// combos. Every function is total: out-of-range input is clamped, never
// rejected.
package reward

// Daily streak bonus: today pays a flat 10× the base, tomorrow grows by
// +10% per streak day, capped at 3×.
const (
	TodayBonusFactor = 10
	maxTenths        = 30 // 3.0× expressed in tenths
)

// StreakReward is today's payout and a preview of tomorrow's.
type StreakReward struct {
	Streak             int     `json:"streak"`
	TodayXP            int64   `json:"today_xp"`
	TodayCoins         int64   `json:"today_coins"`
	TomorrowMultiplier float64 `json:"tomorrow_multiplier"`
	TomorrowXP         int64   `json:"tomorrow_xp"`
	TomorrowCoins      int64   `json:"tomorrow_coins"`
}

// multiplierTenths returns min(1 + 0.1*streak, 3.0) in integer tenths so
// that floor() below never suffers float drift.
func multiplierTenths(streak int) int64 {
	if streak < 0 {
		streak = 0
	}
	if streak >= maxTenths-10 {
		return maxTenths
	}
	return int64(10 + streak)
}

// TomorrowMultiplier returns min(1 + 0.1*streak, 3.0).
// Non-decreasing in streak; negative streak counts as zero.
func TomorrowMultiplier(streak int) float64 {
	return float64(multiplierTenths(streak)) / 10
}

// Streak computes the reward for a reader on a currentStreak-day streak.
// Tomorrow's amounts are truncated, not rounded.
func Streak(currentStreak int, baseXP, baseCoins int64) StreakReward {
	currentStreak = max(currentStreak, 0)
	baseXP = max(baseXP, 0)
	baseCoins = max(baseCoins, 0)

	todayXP := baseXP * TodayBonusFactor
	todayCoins := baseCoins * TodayBonusFactor
	m := multiplierTenths(currentStreak)

	return StreakReward{
		Streak:             currentStreak,
		TodayXP:            todayXP,
		TodayCoins:         todayCoins,
		TomorrowMultiplier: float64(m) / 10,
		TomorrowXP:         todayXP * m / 10,
		TomorrowCoins:      todayCoins * m / 10,
	}
}
