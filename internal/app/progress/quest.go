package progress

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/lingopal/lingopal/internal/domain"
)

// QuestsPerDay is how many quests a fresh day offers.
const QuestsPerDay = 3

// questPool is the set of possible quest templates.
var questPool = []domain.QuestTemplate{
	{Metric: domain.MetricBooksRead, Target: 1, Description: "Finish 1 story", RewardXP: 40, RewardCoins: 10},
	{Metric: domain.MetricBooksRead, Target: 3, Description: "Finish 3 stories", RewardXP: 120, RewardCoins: 30},
	{Metric: domain.MetricWordsLearned, Target: 5, Description: "Learn 5 new words", RewardXP: 50, RewardCoins: 15},
	{Metric: domain.MetricWordsLearned, Target: 15, Description: "Learn 15 new words", RewardXP: 120, RewardCoins: 30},
	{Metric: domain.MetricQuizCorrect, Target: 5, Description: "Answer 5 quiz questions correctly", RewardXP: 60, RewardCoins: 15},
	{Metric: domain.MetricQuizCorrect, Target: 10, Description: "Answer 10 quiz questions correctly", RewardXP: 100, RewardCoins: 25},
	{Metric: domain.MetricBestCombo, Target: 3, Description: "Get a 3-answer combo", RewardXP: 70, RewardCoins: 20},
}

// QuestPool returns a copy of the quest templates.
func QuestPool() []domain.QuestTemplate {
	return append([]domain.QuestTemplate(nil), questPool...)
}

// GenerateDaily builds the quests for the UTC day containing now.
// The selection is seeded by the day, so the same day always yields the
// same quests. Quests expire at the next UTC midnight.
func GenerateDaily(now time.Time) []domain.Quest {
	day := now.UTC().Truncate(24 * time.Hour)
	expiry := day.AddDate(0, 0, 1)

	selected := pickUniqueQuests(questPool, QuestsPerDay, day.Unix())

	quests := make([]domain.Quest, 0, len(selected))
	for i, tmpl := range selected {
		quests = append(quests, domain.Quest{
			ID:             fmt.Sprintf("quest-%s-%s-%d", day.Format("20060102"), tmpl.Metric, i),
			Metric:         tmpl.Metric,
			Description:    tmpl.Description,
			TargetProgress: tmpl.Target,
			Status:         domain.QuestActive,
			RewardXP:       tmpl.RewardXP,
			RewardCoins:    tmpl.RewardCoins,
			ExpiresAt:      expiry,
		})
	}
	return quests
}

// RefreshQuests drops expired quests and, when none are left, generates
// today's set. Completed-but-unclaimed quests survive until they expire.
func RefreshQuests(quests []domain.Quest, now time.Time) []domain.Quest {
	var live []domain.Quest
	for _, q := range quests {
		if !q.IsExpired(now) {
			live = append(live, q)
		}
	}
	if len(live) == 0 {
		return GenerateDaily(now)
	}
	return live
}

// AdvanceQuests adds delta to every active quest measuring metric and
// completes those that reached their target. Returns the updated list and
// the quests completed by this call.
func AdvanceQuests(quests []domain.Quest, metric domain.Metric, delta int64, now time.Time) ([]domain.Quest, []domain.Quest) {
	if delta <= 0 {
		return quests, nil
	}
	out := make([]domain.Quest, len(quests))
	var completed []domain.Quest
	for i, q := range quests {
		if q.Metric == metric && q.Status == domain.QuestActive && !q.IsExpired(now) {
			q.CurrentProgress += delta
			if q.CurrentProgress >= q.TargetProgress {
				q.Status = domain.QuestCompleted
				completed = append(completed, q)
			}
		}
		out[i] = q
	}
	return out, completed
}

// RaiseQuests lifts progress on active quests measuring metric to at least
// value. Used for high-water metrics such as best combo.
func RaiseQuests(quests []domain.Quest, metric domain.Metric, value int64, now time.Time) ([]domain.Quest, []domain.Quest) {
	out := make([]domain.Quest, len(quests))
	var completed []domain.Quest
	for i, q := range quests {
		if q.Metric == metric && q.Status == domain.QuestActive && !q.IsExpired(now) && value > q.CurrentProgress {
			q.CurrentProgress = value
			if q.CurrentProgress >= q.TargetProgress {
				q.Status = domain.QuestCompleted
				completed = append(completed, q)
			}
		}
		out[i] = q
	}
	return out, completed
}

// ClaimQuest moves quest id from completed to claimed.
func ClaimQuest(quests []domain.Quest, id string) ([]domain.Quest, domain.Quest, error) {
	for i, q := range quests {
		if q.ID != id {
			continue
		}
		switch q.Status {
		case domain.QuestClaimed:
			return quests, q, domain.ErrQuestAlreadyClaimed
		case domain.QuestActive:
			return quests, q, domain.ErrQuestNotCompleted
		}
		if !q.Status.CanAdvanceTo(domain.QuestClaimed) {
			return quests, q, fmt.Errorf("quest %s: bad status %q", id, q.Status)
		}
		out := append([]domain.Quest(nil), quests...)
		q.Status = domain.QuestClaimed
		out[i] = q
		return out, q, nil
	}
	return quests, domain.Quest{}, domain.ErrQuestNotFound
}

// pickUniqueQuests selects n random templates, preferring unique metrics.
func pickUniqueQuests(pool []domain.QuestTemplate, n int, seed int64) []domain.QuestTemplate {
	r := rand.New(rand.NewSource(seed))

	shuffled := make([]domain.QuestTemplate, len(pool))
	copy(shuffled, pool)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seen := make(map[domain.Metric]bool)
	var result []domain.QuestTemplate
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !seen[tmpl.Metric] {
			seen[tmpl.Metric] = true
			result = append(result, tmpl)
		}
	}

	// Not enough distinct metrics: fill with whatever is left.
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		dup := false
		for _, r := range result {
			if r.Metric == tmpl.Metric && r.Target == tmpl.Target {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, tmpl)
		}
	}

	return result
}
