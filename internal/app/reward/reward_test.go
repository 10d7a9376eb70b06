package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTomorrowMultiplier_CappedAndMonotonic(t *testing.T) {
	prev := 0.0
	for s := 0; s <= 100; s++ {
		m := TomorrowMultiplier(s)
		assert.LessOrEqual(t, m, 3.0, "streak %d", s)
		assert.GreaterOrEqual(t, m, prev, "streak %d", s)
		prev = m
	}
	assert.Equal(t, 3.0, TomorrowMultiplier(20))
	assert.Equal(t, 3.0, TomorrowMultiplier(365))
}

func TestTomorrowMultiplier_NegativeClamped(t *testing.T) {
	assert.Equal(t, 1.0, TomorrowMultiplier(-3))
}

func TestStreak_SevenDays(t *testing.T) {
	r := Streak(7, 50, 25)

	assert.Equal(t, int64(500), r.TodayXP)
	assert.Equal(t, int64(250), r.TodayCoins)
	assert.InDelta(t, 1.7, r.TomorrowMultiplier, 1e-9)
	assert.Equal(t, int64(850), r.TomorrowXP)
	assert.Equal(t, int64(425), r.TomorrowCoins)
}

func TestStreak_TruncatesNotRounds(t *testing.T) {
	// 15 * 10 = 150 today; 150 * 1.3 = 195; 7*10=70 coins * 1.3 = 91
	r := Streak(3, 15, 7)
	assert.Equal(t, int64(195), r.TomorrowXP)
	assert.Equal(t, int64(91), r.TomorrowCoins)

	// 3 coins * 10 = 30 * 1.1 = 33; 1 xp * 10 * 1.9 = 19
	r = Streak(1, 1, 3)
	assert.Equal(t, int64(33), r.TomorrowCoins)
	r = Streak(9, 1, 0)
	assert.Equal(t, int64(19), r.TomorrowXP)
}

func TestStreak_NegativeInputs(t *testing.T) {
	r := Streak(-5, -10, -1)
	assert.Equal(t, StreakReward{TomorrowMultiplier: 1}, r)
}

func TestComboMultiplier(t *testing.T) {
	tests := []struct {
		streak int
		want   float64
	}{
		{-1, 1.0}, {0, 1.0}, {1, 1.0}, {2, 1.5}, {3, 2.0}, {4, 2.0}, {5, 3.0}, {12, 3.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComboMultiplier(tt.streak), "streak %d", tt.streak)
	}
}

func TestComboBonus(t *testing.T) {
	assert.Equal(t, int64(10), ComboBonus(4, 10))
	assert.Equal(t, int64(0), ComboBonus(1, 10))
	assert.Equal(t, int64(5), ComboBonus(2, 10))
	assert.Equal(t, int64(3), ComboBonus(2, 7), "floor(7*0.5)")
	assert.Equal(t, int64(20), ComboBonus(5, 10))
	assert.Equal(t, int64(0), ComboBonus(5, -10))

	for s := -2; s < 10; s++ {
		for xp := int64(0); xp < 30; xp++ {
			assert.GreaterOrEqual(t, ComboBonus(s, xp), int64(0))
		}
	}
}

func TestCombo_Record(t *testing.T) {
	var c Combo
	for _, ok := range []bool{true, true, true, false, true} {
		c.Record(ok)
	}
	assert.Equal(t, 1, c.Current)
	assert.Equal(t, 3, c.Best)
}
