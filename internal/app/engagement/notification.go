package engagement

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// NoticeKind names what a notice celebrates.
type NoticeKind string

const (
	NoticeLevelUp     NoticeKind = "level_up"
	NoticeAchievement NoticeKind = "achievement"
	NoticeEvolution   NoticeKind = "evolution"
)

// Notice is a parent-facing nudge surfaced alongside a reward.
type Notice struct {
	Kind  NoticeKind `json:"kind"`
	Title string     `json:"title"`
	At    time.Time  `json:"at"`
}

// NoticePolicy limits how often the app may nudge a child.
//   - At most MaxPerDay notices per UTC day
//   - Nothing between QuietStart and QuietEnd ("HH:MM" in the clock's zone, may wrap midnight)
//   - Only good news: level ups, achievements, evolutions. Never "streak at risk".
type NoticePolicy struct {
	MaxPerDay  int    `toml:"max_per_day" json:"max_per_day"`
	QuietStart string `toml:"quiet_start" json:"quiet_start"`
	QuietEnd   string `toml:"quiet_end" json:"quiet_end"`
}

// DefaultNoticePolicy allows one notice a day outside 20:00–08:00.
func DefaultNoticePolicy() NoticePolicy {
	return NoticePolicy{MaxPerDay: 1, QuietStart: "20:00", QuietEnd: "08:00"}
}

// Notifier applies a NoticePolicy. The daily count lives in memory, so a
// restart may allow one extra notice that day.
type Notifier struct {
	mu     sync.Mutex
	policy NoticePolicy
	day    time.Time
	count  int
}

// NewNotifier creates a notifier for policy.
func NewNotifier(policy NoticePolicy) *Notifier {
	return &Notifier{policy: policy}
}

// Policy returns the active policy.
func (n *Notifier) Policy() NoticePolicy {
	return n.policy
}

// Offer returns the notices from candidates that policy lets through at now.
// Earlier candidates win when the daily cap is hit.
func (n *Notifier) Offer(now time.Time, candidates ...Notice) []Notice {
	if len(candidates) == 0 || n.isQuietHour(now) {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	today := now.UTC().Truncate(day)
	if !today.Equal(n.day) {
		n.day, n.count = today, 0
	}

	var out []Notice
	for _, c := range candidates {
		if n.count >= n.policy.MaxPerDay {
			break
		}
		c.At = now
		out = append(out, c)
		n.count++
	}
	return out
}

// isQuietHour reports whether t falls within quiet hours.
func (n *Notifier) isQuietHour(t time.Time) bool {
	startHour, startMin := parseHHMM(n.policy.QuietStart)
	endHour, endMin := parseHHMM(n.policy.QuietEnd)

	at := t.Hour()*60 + t.Minute()
	start := startHour*60 + startMin
	end := endHour*60 + endMin

	if start == end {
		return false
	}
	if start > end {
		// Wraps midnight: e.g., 20:00 – 08:00
		return at >= start || at < end
	}
	return at >= start && at < end
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
