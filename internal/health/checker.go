// Package health runs periodic self-checks over the daemon's state store
// and the reader's pet.
package health

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lingopal/lingopal/internal/app/evolution"
	"github.com/lingopal/lingopal/internal/domain"
)

// Pinger is the slice of the state store the checker needs.
type Pinger interface {
	Ping() error
}

// checkTimeout bounds a single check so a wedged store cannot stall the loop.
const checkTimeout = 5 * time.Second

// Check is one named probe. RecoverFn, when set, runs after a failure.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status is the latest outcome of one check.
type Status struct {
	Name      string        `json:"name"`
	Healthy   bool          `json:"healthy"`
	Error     string        `json:"error,omitempty"`
	Took      time.Duration `json:"took_ns"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Checker probes the daemon on an interval and keeps the last results.
type Checker struct {
	checks   []Check
	interval time.Duration
	log      *zap.Logger

	mu       sync.RWMutex
	statuses []Status
	healthy  bool
}

// NewChecker creates a checker for the store, the state directory and the
// pet returned by pet.
func NewChecker(db Pinger, dataDir string, pet func() domain.PetState, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		interval: time.Minute,
		log:      log.Named("health"),
		healthy:  true,
		checks: []Check{
			{Name: "sqlite", CheckFn: func(context.Context) error { return db.Ping() }},
			{
				Name:      "state_dir",
				CheckFn:   func(context.Context) error { return checkStateDir(dataDir) },
				RecoverFn: func(context.Context) error { return os.MkdirAll(dataDir, 0o755) },
			},
			{Name: "pet", CheckFn: func(context.Context) error { return checkPet(pet()) }},
		},
	}
}

// Add registers another check. Call it before Run.
func (c *Checker) Add(check Check) {
	c.checks = append(c.checks, check)
}

// Run probes immediately, then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.runAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce probes every check a single time and returns the results.
func (c *Checker) RunOnce(ctx context.Context) []Status {
	c.runAll(ctx)
	return c.Statuses()
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, 0, len(c.checks))
	healthy := true
	for _, check := range c.checks {
		st := c.probe(ctx, check)
		healthy = healthy && st.Healthy
		statuses = append(statuses, st)
	}

	c.mu.Lock()
	c.statuses, c.healthy = statuses, healthy
	c.mu.Unlock()
}

func (c *Checker) probe(ctx context.Context, check Check) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check.CheckFn(ctx)
	st := Status{
		Name:      check.Name,
		Healthy:   err == nil,
		Took:      time.Since(start),
		CheckedAt: start.UTC(),
	}
	if err == nil {
		return st
	}

	st.Error = err.Error()
	c.log.Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
	if check.RecoverFn != nil {
		if rerr := check.RecoverFn(ctx); rerr != nil {
			c.log.Warn("recovery failed", zap.String("check", check.Name), zap.Error(rerr))
		}
	}
	return st
}

// Statuses returns a copy of the latest results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.statuses)
}

// IsHealthy reports whether the last run passed every check. It is true
// before the first run.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkStateDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check state dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// checkPet verifies the pet invariants: a known track, a stage inside it,
// and exactly one history record per stage above zero.
func checkPet(pet domain.PetState) error {
	track, err := evolution.LookupTrack(pet.Track)
	if err != nil {
		return err
	}
	if pet.Stage < 0 || pet.Stage > track.MaxStage() {
		return fmt.Errorf("pet stage %d outside track %s", pet.Stage, pet.Track)
	}
	seen := make(map[int]bool, len(pet.History))
	for _, r := range pet.History {
		if r.Stage < 1 || r.Stage > pet.Stage {
			return fmt.Errorf("history record for stage %d beyond current stage %d", r.Stage, pet.Stage)
		}
		if seen[r.Stage] {
			return fmt.Errorf("duplicate history record for stage %d", r.Stage)
		}
		seen[r.Stage] = true
	}
	if len(seen) != pet.Stage {
		return fmt.Errorf("pet at stage %d has %d history records", pet.Stage, len(seen))
	}
	return nil
}
