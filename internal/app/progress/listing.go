package progress

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lingopal/lingopal/internal/domain"
)

// FilterKind selects which achievements a listing shows.
type FilterKind string

const (
	FilterAll      FilterKind = "all"
	FilterUnlocked FilterKind = "unlocked"
	FilterLocked   FilterKind = "locked"
	FilterCategory FilterKind = "category"
)

// SortKey orders an achievement listing.
type SortKey string

const (
	SortRecent       SortKey = "recent"
	SortProgress     SortKey = "progress"
	SortAlphabetical SortKey = "alphabetical"
	SortRarity       SortKey = "rarity"
)

// Query describes one achievement listing request.
type Query struct {
	Filter   FilterKind
	Category domain.Category // Only with FilterCategory
	Sort     SortKey
	Search   string
}

// ParseFilter accepts "all", "unlocked", "locked" or a category name.
// Empty input means all.
func ParseFilter(s string) (FilterKind, domain.Category, error) {
	switch FilterKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, "", nil
	case FilterUnlocked:
		return FilterUnlocked, "", nil
	case FilterLocked:
		return FilterLocked, "", nil
	}
	c, err := domain.ParseCategory(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", "", fmt.Errorf("filter: %w", err)
	}
	return FilterCategory, c, nil
}

// ParseSort accepts a SortKey name. Empty input means recent.
func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortRecent, nil
	case SortRecent, SortProgress, SortAlphabetical, SortRarity:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// List filters, searches and sorts achievements. The input slice is left
// untouched.
func List(achievements []domain.Achievement, q Query) []domain.Achievement {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]domain.Achievement, 0, len(achievements))
	for _, a := range achievements {
		if !matchFilter(a, q) {
			continue
		}
		if needle != "" && !matchSearch(a, needle) {
			continue
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, comparator(q.Sort))
	return out
}

func matchFilter(a domain.Achievement, q Query) bool {
	switch q.Filter {
	case "", FilterAll:
		return true
	case FilterUnlocked:
		return a.Unlocked
	case FilterLocked:
		return !a.Unlocked
	case FilterCategory:
		return a.Category == q.Category
	default:
		return false
	}
}

func matchSearch(a domain.Achievement, needle string) bool {
	return strings.Contains(strings.ToLower(a.Title), needle) ||
		strings.Contains(strings.ToLower(a.Description), needle)
}

func byTitle(a, b domain.Achievement) int {
	return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}

func comparator(key SortKey) func(a, b domain.Achievement) int {
	switch key {
	case SortProgress:
		return func(a, b domain.Achievement) int {
			return cmp.Or(cmp.Compare(AchievementPercent(b), AchievementPercent(a)), byTitle(a, b))
		}
	case SortAlphabetical:
		return byTitle
	case SortRarity:
		return func(a, b domain.Achievement) int {
			return cmp.Or(cmp.Compare(b.Rarity.Rank(), a.Rarity.Rank()), byTitle(a, b))
		}
	default: // SortRecent
		return func(a, b domain.Achievement) int {
			switch {
			case a.Unlocked && !b.Unlocked:
				return -1
			case !a.Unlocked && b.Unlocked:
				return 1
			case a.Unlocked:
				return cmp.Or(b.UnlockedAt.Compare(a.UnlockedAt), byTitle(a, b))
			default:
				return cmp.Or(cmp.Compare(AchievementPercent(b), AchievementPercent(a)), byTitle(a, b))
			}
		}
	}
}
