package domain

import (
	"context"
	"time"
)

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// SnapshotStore is the persistence collaborator. The engine never calls it
// mid-computation: the caller loads, runs pure rules, then saves the result.
type SnapshotStore interface {
	// Load returns the stored snapshot, or nil with no error when none exists.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snap Snapshot) error
}

// Clock supplies timestamps. Injected so rule functions stay pure.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T. Handy for tests and replays.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
