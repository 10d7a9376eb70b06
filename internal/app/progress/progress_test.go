package progress_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingopal/lingopal/internal/app/progress"
	"github.com/lingopal/lingopal/internal/domain"
)

var now = time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC)

// ═══════════════════════════════════════════════════════════════════════════
// Percent / NextMilestone
// ═══════════════════════════════════════════════════════════════════════════

func TestPercent(t *testing.T) {
	tests := []struct {
		current, target float64
		want            int
	}{
		{15, 10, 100},
		{10, 10, 100},
		{5, 10, 50},
		{1, 3, 33},
		{2, 3, 67},
		{0, 10, 0},
		{-4, 10, 0},
		{3, 0, 100},
		{math.NaN(), 10, 0},
		{5, math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progress.Percent(tt.current, tt.target), "Percent(%v, %v)", tt.current, tt.target)
	}
}

func TestNextMilestone(t *testing.T) {
	list := []domain.Achievement{
		{ID: "done", Unlocked: true, CurrentProgress: 10, TargetValue: 10},
		{ID: "half-big", CurrentProgress: 50, TargetValue: 100},
		{ID: "half-small", CurrentProgress: 5, TargetValue: 10},
		{ID: "far", CurrentProgress: 1, TargetValue: 10},
	}
	got, ok := progress.NextMilestone(list)
	require.True(t, ok)
	assert.Equal(t, "half-small", got.ID, "tie goes to the lower target")

	list = append(list, domain.Achievement{ID: "close", CurrentProgress: 9, TargetValue: 10})
	got, _ = progress.NextMilestone(list)
	assert.Equal(t, "close", got.ID)
}

func TestNextMilestone_AllUnlocked(t *testing.T) {
	_, ok := progress.NextMilestone([]domain.Achievement{{ID: "a", Unlocked: true}})
	assert.False(t, ok)
	_, ok = progress.NextMilestone(nil)
	assert.False(t, ok)
}

// ═══════════════════════════════════════════════════════════════════════════
// Listing
// ═══════════════════════════════════════════════════════════════════════════

func sample() []domain.Achievement {
	t1 := now.Add(-time.Hour)
	t2 := now.Add(-2 * time.Hour)
	return []domain.Achievement{
		{ID: "a", Title: "Bookworm", Description: "Finish 10 stories", Category: domain.CatReading, Rarity: domain.RarityRare, CurrentProgress: 8, TargetValue: 10},
		{ID: "b", Title: "First Chapter", Description: "Finish your first story", Category: domain.CatReading, Rarity: domain.RarityCommon, Unlocked: true, UnlockedAt: t2, CurrentProgress: 1, TargetValue: 1},
		{ID: "c", Title: "On Fire", Description: "Five answers in a row", Category: domain.CatQuiz, Rarity: domain.RarityEpic, CurrentProgress: 1, TargetValue: 5},
		{ID: "d", Title: "Story Keeper", Description: "Finish 200 STORIES", Category: domain.CatReading, Rarity: domain.RarityLegendary, CurrentProgress: 2, TargetValue: 200},
		{ID: "e", Title: "Week Warrior", Description: "Seven days", Category: domain.CatStreak, Rarity: domain.RarityRare, Unlocked: true, UnlockedAt: t1, CurrentProgress: 7, TargetValue: 7},
	}
}

func ids(list []domain.Achievement) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestList_RecentUnlockedFirst(t *testing.T) {
	got := progress.List(sample(), progress.Query{Sort: progress.SortRecent})
	assert.Equal(t, []string{"e", "b", "a", "c", "d"}, ids(got))
}

func TestList_RecentScenario(t *testing.T) {
	list := []domain.Achievement{
		{ID: "locked", Title: "Almost", CurrentProgress: 8, TargetValue: 10},
		{ID: "unlocked", Title: "Done", Unlocked: true, UnlockedAt: now, CurrentProgress: 1, TargetValue: 100},
	}
	got := progress.List(list, progress.Query{Sort: progress.SortRecent})
	assert.Equal(t, []string{"unlocked", "locked"}, ids(got))
}

func TestList_Filters(t *testing.T) {
	tests := []struct {
		name string
		q    progress.Query
		want []string
	}{
		{"unlocked", progress.Query{Filter: progress.FilterUnlocked, Sort: progress.SortAlphabetical}, []string{"b", "e"}},
		{"locked", progress.Query{Filter: progress.FilterLocked, Sort: progress.SortAlphabetical}, []string{"a", "c", "d"}},
		{"category", progress.Query{Filter: progress.FilterCategory, Category: domain.CatReading, Sort: progress.SortAlphabetical}, []string{"a", "b", "d"}},
		{"all", progress.Query{Sort: progress.SortAlphabetical}, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(progress.List(sample(), tt.q)))
		})
	}
}

func TestList_SearchBeforeSort(t *testing.T) {
	got := progress.List(sample(), progress.Query{Search: "stories", Sort: progress.SortRarity})
	assert.Equal(t, []string{"d", "a"}, ids(got), "case-insensitive over description, rarest first")

	got = progress.List(sample(), progress.Query{Search: "WARRIOR"})
	assert.Equal(t, []string{"e"}, ids(got))
}

func TestList_SortProgressAndRarity(t *testing.T) {
	got := progress.List(sample(), progress.Query{Sort: progress.SortProgress})
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, ids(got))

	got = progress.List(sample(), progress.Query{Sort: progress.SortRarity})
	assert.Equal(t, []string{"d", "c", "a", "e", "b"}, ids(got))
}

func TestList_DoesNotReorderInput(t *testing.T) {
	in := sample()
	_ = progress.List(in, progress.Query{Sort: progress.SortRarity})
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(in))
}

func TestParseFilterAndSort(t *testing.T) {
	f, c, err := progress.ParseFilter("Quiz")
	require.NoError(t, err)
	assert.Equal(t, progress.FilterCategory, f)
	assert.Equal(t, domain.CatQuiz, c)

	f, _, err = progress.ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, progress.FilterAll, f)

	_, _, err = progress.ParseFilter("dragons")
	assert.Error(t, err)

	s, err := progress.ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, progress.SortRecent, s)
	_, err = progress.ParseSort("random")
	assert.Error(t, err)
}

// ═══════════════════════════════════════════════════════════════════════════
// Catalog
// ═══════════════════════════════════════════════════════════════════════════

func TestCatalog_EvaluateUnlocksOnce(t *testing.T) {
	cat := progress.DefaultCatalog()
	stats := domain.Stats{domain.MetricBooksRead: 1}

	list, unlocked := cat.Evaluate(nil, stats, now)
	require.Len(t, list, cat.Len())
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_book", unlocked[0].ID)
	assert.Equal(t, now, unlocked[0].UnlockedAt)

	later := now.Add(time.Hour)
	list, unlocked = cat.Evaluate(list, stats, later)
	assert.Empty(t, unlocked)
	for _, a := range list {
		if a.ID == "first_book" {
			assert.True(t, a.Unlocked)
			assert.Equal(t, now, a.UnlockedAt, "unlock time is kept")
		}
	}
}

func TestCatalog_UnlockNeverReverts(t *testing.T) {
	cat := progress.DefaultCatalog()
	list, _ := cat.Evaluate(nil, domain.Stats{domain.MetricStreakDays: 3}, now)

	// A broken streak must not relock.
	list, _ = cat.Evaluate(list, domain.Stats{domain.MetricStreakDays: 0}, now)
	a, _ := findAchievement(list, "streak_3")
	assert.True(t, a.Unlocked)
}

func TestCatalog_Lookup(t *testing.T) {
	cat := progress.DefaultCatalog()
	_, err := cat.Lookup("nope")
	assert.True(t, domain.IsConfigurationError(err))
	a, err := cat.Lookup("words_25")
	require.NoError(t, err)
	assert.Equal(t, domain.MetricWordsLearned, a.Metric)
}

func findAchievement(list []domain.Achievement, id string) (domain.Achievement, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Achievement{}, false
}

// ═══════════════════════════════════════════════════════════════════════════
// Quests
// ═══════════════════════════════════════════════════════════════════════════

func TestGenerateDaily_Deterministic(t *testing.T) {
	a := progress.GenerateDaily(now)
	b := progress.GenerateDaily(now.Add(3 * time.Hour))
	require.Len(t, a, progress.QuestsPerDay)
	assert.Equal(t, a, b, "same UTC day yields same quests")

	seen := map[domain.Metric]bool{}
	for _, q := range a {
		assert.False(t, seen[q.Metric], "metrics are distinct")
		seen[q.Metric] = true
		assert.Equal(t, domain.QuestActive, q.Status)
		assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), q.ExpiresAt)
	}
}

func TestQuestLifecycle_ForwardOnly(t *testing.T) {
	quests := []domain.Quest{{
		ID: "q1", Metric: domain.MetricBooksRead, TargetProgress: 2,
		Status: domain.QuestActive, ExpiresAt: now.Add(time.Hour),
	}}

	_, _, err := progress.ClaimQuest(quests, "q1")
	assert.ErrorIs(t, err, domain.ErrQuestNotCompleted)

	quests, done := progress.AdvanceQuests(quests, domain.MetricBooksRead, 1, now)
	assert.Empty(t, done)
	quests, done = progress.AdvanceQuests(quests, domain.MetricBooksRead, 5, now)
	require.Len(t, done, 1)
	assert.Equal(t, domain.QuestCompleted, quests[0].Status)

	quests, claimed, err := progress.ClaimQuest(quests, "q1")
	require.NoError(t, err)
	assert.Equal(t, domain.QuestClaimed, claimed.Status)

	// Further progress never reopens a claimed quest.
	quests, done = progress.AdvanceQuests(quests, domain.MetricBooksRead, 5, now)
	assert.Empty(t, done)
	assert.Equal(t, domain.QuestClaimed, quests[0].Status)

	_, _, err = progress.ClaimQuest(quests, "q1")
	assert.ErrorIs(t, err, domain.ErrQuestAlreadyClaimed)
	_, _, err = progress.ClaimQuest(quests, "missing")
	assert.ErrorIs(t, err, domain.ErrQuestNotFound)
}

func TestRaiseQuests(t *testing.T) {
	quests := []domain.Quest{{ID: "c", Metric: domain.MetricBestCombo, TargetProgress: 3, Status: domain.QuestActive, ExpiresAt: now.Add(time.Hour)}}
	quests, done := progress.RaiseQuests(quests, domain.MetricBestCombo, 2, now)
	assert.Empty(t, done)
	assert.Equal(t, int64(2), quests[0].CurrentProgress)
	quests, done = progress.RaiseQuests(quests, domain.MetricBestCombo, 1, now)
	assert.Empty(t, done)
	assert.Equal(t, int64(2), quests[0].CurrentProgress, "never lowered")
	_, done = progress.RaiseQuests(quests, domain.MetricBestCombo, 3, now)
	assert.Len(t, done, 1)
}

func TestRefreshQuests(t *testing.T) {
	old := []domain.Quest{{ID: "old", Status: domain.QuestActive, ExpiresAt: now.Add(-time.Minute)}}
	fresh := progress.RefreshQuests(old, now)
	assert.Len(t, fresh, progress.QuestsPerDay)

	kept := progress.RefreshQuests(fresh, now)
	assert.Equal(t, fresh, kept)
}
