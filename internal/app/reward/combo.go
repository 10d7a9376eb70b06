package reward

// comboHalves maps a quiz answer streak to its multiplier in halves:
// ≥5 → 3.0, 3–4 → 2.0, 2 → 1.5, otherwise 1.0.
func comboHalves(streak int) int64 {
	switch {
	case streak >= 5:
		return 6
	case streak >= 3:
		return 4
	case streak == 2:
		return 3
	default:
		return 2
	}
}

// ComboMultiplier returns the multiplier for a run of streak correct answers.
func ComboMultiplier(streak int) float64 {
	return float64(comboHalves(streak)) / 2
}

// ComboBonus returns the extra XP on top of questionXP for a combo of
// streak answers: floor(questionXP * (multiplier-1)). Coins never get a bonus.
func ComboBonus(streak int, questionXP int64) int64 {
	if questionXP <= 0 {
		return 0
	}
	h := comboHalves(streak)
	if h == 2 {
		return 0
	}
	return questionXP * (h - 2) / 2
}

// Combo tracks consecutive correct answers inside one quiz session.
type Combo struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// Record registers one answer and returns the combo length it produced.
// A wrong answer resets the run to zero.
func (c *Combo) Record(correct bool) int {
	if c.Current < 0 {
		c.Current = 0
	}
	if !correct {
		c.Current = 0
		return 0
	}
	c.Current++
	if c.Current > c.Best {
		c.Best = c.Current
	}
	return c.Current
}
