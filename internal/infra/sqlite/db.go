// Package sqlite provides SQLite-based persistent storage for lingopal.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB is the reader's state store: one SQLite file in WAL mode.
type DB struct {
	db *sql.DB
}

// pragmas applied to every connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

func dsn(path string) string {
	q := make([]string, len(pragmas))
	for i, p := range pragmas {
		q[i] = "_pragma=" + p
	}
	return path + "?" + strings.Join(q, "&")
}

// Open opens dir/state.db, creating dir and the schema as needed.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dsn(filepath.Join(dir, "state.db")))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite has a single writer and Save runs in one tx.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	d := &DB{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// schemaVersion is stamped into PRAGMA user_version after migrating.
// Version 2 stores created_at, evolved_at and unlocked_at as Unix nanoseconds.
const schemaVersion = 2

// nanosUpgrade rescales version 1 second timestamps.
var nanosUpgrade = []string{
	`UPDATE pets SET created_at = created_at * 1000000000`,
	`UPDATE pet_evolutions SET evolved_at = evolved_at * 1000000000`,
	`UPDATE achievements SET unlocked_at = unlocked_at * 1000000000 WHERE unlocked_at IS NOT NULL`,
}

// migrate creates the schema in one transaction. Every statement is
// idempotent, so reopening an existing file is safe.
func (d *DB) migrate() error {
	migrations := []string{
		// Key-value store for reader progress (level, xp, streak, wallet, counters)
		`CREATE TABLE IF NOT EXISTS engagement (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// The reader's pet. Track never changes after adoption.
		`CREATE TABLE IF NOT EXISTS pets (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			track      TEXT NOT NULL,
			stage      INTEGER NOT NULL DEFAULT 0,
			happiness  INTEGER NOT NULL DEFAULT 50,
			emotion    TEXT NOT NULL DEFAULT 'happy',
			created_at INTEGER NOT NULL
		)`,

		// Append-only evolution history; one row per reached stage.
		`CREATE TABLE IF NOT EXISTS pet_evolutions (
			pet_id     TEXT NOT NULL REFERENCES pets(id) ON DELETE CASCADE,
			stage      INTEGER NOT NULL,
			stage_name TEXT NOT NULL,
			user_level INTEGER NOT NULL,
			evolved_at INTEGER NOT NULL,
			UNIQUE (pet_id, stage)
		)`,

		// Achievement progress. Definitions live in code; rows keep state only.
		`CREATE TABLE IF NOT EXISTS achievements (
			id          TEXT PRIMARY KEY,
			progress    INTEGER NOT NULL DEFAULT 0,
			unlocked    BOOLEAN NOT NULL DEFAULT 0,
			unlocked_at INTEGER
		)`,

		// Daily quests with progress tracking
		`CREATE TABLE IF NOT EXISTS quests (
			id           TEXT PRIMARY KEY,
			metric       TEXT NOT NULL,
			description  TEXT NOT NULL,
			target       INTEGER NOT NULL,
			progress     INTEGER NOT NULL DEFAULT 0,
			status       TEXT NOT NULL DEFAULT 'active',
			reward_xp    INTEGER NOT NULL,
			reward_coins INTEGER NOT NULL,
			expires_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_expires ON quests(expires_at)`,
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i, m := range migrations {
		if _, err := tx.Exec(m); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	if version == 1 {
		for _, m := range nanosUpgrade {
			if _, err := tx.Exec(m); err != nil {
				return fmt.Errorf("upgrade timestamps: %w", err)
			}
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}

// ─── Engagement Key-Value ───────────────────────────────────────────────────

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// setEngagement upserts one engagement key-value pair.
func setEngagement(ctx context.Context, e execer, key, value string) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO engagement (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
