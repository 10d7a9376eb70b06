package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/lingopal/lingopal/internal/domain"
)

// progressKeys maps engagement KV keys to UserProgress fields.
var progressKeys = []string{
	"level", "xp", "xp_to_next", "streak", "longest_streak", "last_active_day",
	"coins", "gems", "books_read", "words_learned", "quiz_answered", "quiz_correct",
	"best_combo", "combo",
}

// Load reads the reader's snapshot. Returns nil, nil when no pet has been
// adopted yet.
func (d *DB) Load(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot

	pet, err := d.loadPet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pet: %w", err)
	}
	if pet == nil {
		return nil, nil
	}
	snap.Pet = *pet

	if snap.Progress, snap.Combo, err = d.loadProgress(ctx); err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if snap.Achievements, err = d.listAchievements(ctx); err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	if snap.Quests, err = d.listQuests(ctx); err != nil {
		return nil, fmt.Errorf("load quests: %w", err)
	}
	return &snap, nil
}

// Save writes snap in a single transaction. Evolution history is append
// only: rows already stored are never rewritten.
func (d *DB) Save(ctx context.Context, snap domain.Snapshot) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := saveProgress(ctx, tx, snap.Progress, snap.Combo); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	if err := savePet(ctx, tx, snap.Pet); err != nil {
		return fmt.Errorf("save pet: %w", err)
	}
	if err := saveAchievements(ctx, tx, snap.Achievements); err != nil {
		return fmt.Errorf("save achievements: %w", err)
	}
	if err := saveQuests(ctx, tx, snap.Quests); err != nil {
		return fmt.Errorf("save quests: %w", err)
	}
	return tx.Commit()
}

// ─── Progress ───────────────────────────────────────────────────────────────

func saveProgress(ctx context.Context, tx *sql.Tx, p domain.UserProgress, combo int) error {
	lastActive := ""
	if !p.LastActiveDay.IsZero() {
		lastActive = strconv.FormatInt(p.LastActiveDay.Unix(), 10)
	}
	values := []string{
		strconv.Itoa(p.Level),
		strconv.FormatInt(p.XP, 10),
		strconv.FormatInt(p.XPToNextLevel, 10),
		strconv.Itoa(p.Streak),
		strconv.Itoa(p.LongestStreak),
		lastActive,
		strconv.FormatInt(p.Coins, 10),
		strconv.FormatInt(p.Gems, 10),
		strconv.Itoa(p.BooksRead),
		strconv.Itoa(p.WordsLearned),
		strconv.Itoa(p.QuizAnswered),
		strconv.Itoa(p.QuizCorrect),
		strconv.Itoa(p.BestCombo),
		strconv.Itoa(combo),
	}
	for i, key := range progressKeys {
		if err := setEngagement(ctx, tx, key, values[i]); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (d *DB) loadProgress(ctx context.Context) (domain.UserProgress, int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key, value FROM engagement`)
	if err != nil {
		return domain.UserProgress{}, 0, err
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return domain.UserProgress{}, 0, err
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return domain.UserProgress{}, 0, err
	}

	// Unparseable values read as zero; Normalize repairs them upstream.
	i64 := func(k string) int64 { n, _ := strconv.ParseInt(kv[k], 10, 64); return n }
	num := func(k string) int { return int(i64(k)) }

	p := domain.UserProgress{
		Level:         num("level"),
		XP:            i64("xp"),
		XPToNextLevel: i64("xp_to_next"),
		Streak:        num("streak"),
		LongestStreak: num("longest_streak"),
		Coins:         i64("coins"),
		Gems:          i64("gems"),
		BooksRead:     num("books_read"),
		WordsLearned:  num("words_learned"),
		QuizAnswered:  num("quiz_answered"),
		QuizCorrect:   num("quiz_correct"),
		BestCombo:     num("best_combo"),
	}
	if kv["last_active_day"] != "" {
		p.LastActiveDay = time.Unix(i64("last_active_day"), 0).UTC()
	}
	return p, num("combo"), nil
}

// ─── Pet ────────────────────────────────────────────────────────────────────

func savePet(ctx context.Context, tx *sql.Tx, pet domain.PetState) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO pets (id, name, track, stage, happiness, emotion, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			stage=excluded.stage,
			happiness=excluded.happiness,
			emotion=excluded.emotion`,
		pet.ID, pet.Name, string(pet.Track), pet.Stage, pet.Happiness,
		string(pet.Emotion), pet.CreatedAt.UnixNano(),
	)
	if err != nil {
		return err
	}
	// A new pet replaces any earlier one.
	if _, err := tx.ExecContext(ctx, `DELETE FROM pets WHERE id <> ?`, pet.ID); err != nil {
		return err
	}

	for _, r := range pet.History {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO pet_evolutions (pet_id, stage, stage_name, user_level, evolved_at)
			 VALUES (?, ?, ?, ?, ?)`,
			pet.ID, r.Stage, r.StageName, r.UserLevel, r.EvolvedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("evolution %d: %w", r.Stage, err)
		}
	}
	return nil
}

func (d *DB) loadPet(ctx context.Context) (*domain.PetState, error) {
	var pet domain.PetState
	var track, emotion string
	var createdAt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, track, stage, happiness, emotion, created_at FROM pets LIMIT 1`,
	).Scan(&pet.ID, &pet.Name, &track, &pet.Stage, &pet.Happiness, &emotion, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pet.Track = domain.TrackID(track)
	pet.Emotion = domain.Emotion(emotion)
	pet.CreatedAt = time.Unix(0, createdAt).UTC()

	history, err := d.listEvolutions(ctx, pet.ID)
	if err != nil {
		return nil, err
	}
	pet.History = history
	return &pet, nil
}

// ListEvolutions returns the evolution history of pet id, oldest first.
func (d *DB) ListEvolutions(id string) ([]domain.EvolutionRecord, error) {
	return d.listEvolutions(context.Background(), id)
}

func (d *DB) listEvolutions(ctx context.Context, petID string) ([]domain.EvolutionRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT stage, stage_name, user_level, evolved_at
		 FROM pet_evolutions WHERE pet_id = ? ORDER BY stage ASC`, petID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []domain.EvolutionRecord{}
	for rows.Next() {
		var r domain.EvolutionRecord
		var evolvedAt int64
		if err := rows.Scan(&r.Stage, &r.StageName, &r.UserLevel, &evolvedAt); err != nil {
			return nil, err
		}
		r.EvolvedAt = time.Unix(0, evolvedAt).UTC()
		history = append(history, r)
	}
	return history, rows.Err()
}

// ─── Achievements ───────────────────────────────────────────────────────────

func saveAchievements(ctx context.Context, tx *sql.Tx, list []domain.Achievement) error {
	for _, a := range list {
		var unlockedAt sql.NullInt64
		if a.Unlocked && !a.UnlockedAt.IsZero() {
			unlockedAt = sql.NullInt64{Int64: a.UnlockedAt.UnixNano(), Valid: true}
		}
		// Unlock state never reverts, even if a stale snapshot says otherwise.
		_, err := tx.ExecContext(ctx,
			`INSERT INTO achievements (id, progress, unlocked, unlocked_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				progress=MAX(achievements.progress, excluded.progress),
				unlocked=MAX(achievements.unlocked, excluded.unlocked),
				unlocked_at=COALESCE(achievements.unlocked_at, excluded.unlocked_at)`,
			a.ID, a.CurrentProgress, a.Unlocked, unlockedAt,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", a.ID, err)
		}
	}
	return nil
}

// listAchievements returns stored achievement state. Titles, targets and
// rewards are filled in from the catalog on the next evaluation.
func (d *DB) listAchievements(ctx context.Context) ([]domain.Achievement, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, progress, unlocked, unlocked_at FROM achievements ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		var unlockedAt sql.NullInt64
		if err := rows.Scan(&a.ID, &a.CurrentProgress, &a.Unlocked, &unlockedAt); err != nil {
			return nil, err
		}
		if unlockedAt.Valid {
			a.UnlockedAt = time.Unix(0, unlockedAt.Int64).UTC()
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// UnlockedAchievementCount returns the total number of unlocked achievements.
func (d *DB) UnlockedAchievementCount() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM achievements WHERE unlocked = 1`).Scan(&count)
	return count, err
}

// ─── Quests ─────────────────────────────────────────────────────────────────

// saveQuests replaces the stored quest set with quests.
func saveQuests(ctx context.Context, tx *sql.Tx, quests []domain.Quest) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM quests`); err != nil {
		return err
	}
	for _, q := range quests {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quests (id, metric, description, target, progress, status, reward_xp, reward_coins, expires_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, string(q.Metric), q.Description, q.TargetProgress, q.CurrentProgress,
			string(q.Status), q.RewardXP, q.RewardCoins, q.ExpiresAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", q.ID, err)
		}
	}
	return nil
}

func (d *DB) listQuests(ctx context.Context) ([]domain.Quest, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, metric, description, target, progress, status, reward_xp, reward_coins, expires_at
		 FROM quests ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

func scanQuest(s scanner) (*domain.Quest, error) {
	var q domain.Quest
	var metric, status string
	var expiresAt int64
	err := s.Scan(&q.ID, &metric, &q.Description, &q.TargetProgress, &q.CurrentProgress,
		&status, &q.RewardXP, &q.RewardCoins, &expiresAt)
	if err != nil {
		return nil, err
	}
	q.Metric = domain.Metric(metric)
	q.Status = domain.QuestStatus(status)
	q.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &q, nil
}
