// Package metrics provides Prometheus metrics for lingopal.
// Counters cover rewards, pet evolutions, achievements, quests and the
// persistence collaborator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Rewards ────────────────────────────────────────────────────────────────

// XPAwarded tracks XP granted by source (reading, quiz, combo, streak, ...).
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded.",
}, []string{"source"})

// CoinsAwarded tracks coins granted by source.
var CoinsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "coins_awarded_total",
	Help:      "Total coins awarded.",
}, []string{"source"})

// CoinsSpent tracks coins spent in the shop by item.
var CoinsSpent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "coins_spent_total",
	Help:      "Total coins spent in the shop.",
}, []string{"item"})

// LevelUps counts level gains.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "level_ups_total",
	Help:      "Total levels gained.",
})

// CurrentLevel is the reader's level.
var CurrentLevel = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lingopal",
	Name:      "level_current",
	Help:      "Current reader level.",
})

// CurrentStreak is the reader's daily streak.
var CurrentStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lingopal",
	Name:      "streak_days_current",
	Help:      "Current daily streak in days.",
})

// ─── Pet ────────────────────────────────────────────────────────────────────

// EvolutionTransitions counts evolution protocol steps by phase
// (pending, applied, cancelled).
var EvolutionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "pet_evolution_transitions_total",
	Help:      "Pet evolution protocol transitions by phase.",
}, []string{"phase"})

// ─── Progress ───────────────────────────────────────────────────────────────

// AchievementsUnlocked counts unlocks by rarity.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"rarity"})

// QuestsCompleted counts quests by final status (completed, claimed).
var QuestsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "quests_total",
	Help:      "Quest status transitions.",
}, []string{"status"})

// ─── Persistence ────────────────────────────────────────────────────────────

// PersistenceFailures counts failed snapshot saves by operation.
var PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lingopal",
	Name:      "persistence_failures_total",
	Help:      "Snapshot store failures. In-memory state stays authoritative.",
}, []string{"op"})

// SaveLatency tracks snapshot save duration in seconds.
var SaveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "lingopal",
	Name:      "snapshot_save_seconds",
	Help:      "Snapshot save duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
})
