/*
Package sqlite provides a SQLite-backed snapshot.Source with the write path.

PURPOSE:
  Persists users, habits, completions, time blocks and share codes, and
  loads them back as one snapshot.Snapshot per user for the engines.

INTERFACES IMPLEMENTED:
  snapshot.Source: LoadSnapshot / ShareByCode / Revision

KEY TABLES:
  users:             Owner records (display name)
  habits:            Habit definitions, keyed by (user_id, id)
  habit_completions: One row per completed (habit, day)
  time_blocks:       Planner blocks; recurrence stored as JSON
  tasks:             One-off to-dos pinned to a day
  shares:            Accountability share codes (globally unique)
  revisions:         Per-user write counter

COMPLETIONS:
  Only completed days are stored. A false value in an import is the same
  as no row, and toggling a completed day deletes its row. The
  UNIQUE(user_id, habit_id, date) constraint keeps at most one row per
  (habit, day).

REVISIONS:
  Every write bumps the owner's revision inside the same statement batch.
  The revisions table has no foreign key so counters survive re-imports.
  Only Reset clears them.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, as with the WAL file database a
  single writer is allowed at a time anyway.

USAGE:
  store, err := sqlite.New(config.DefaultDBPath())
  if err != nil {
      return err
  }
  defer store.Close()

SEE ALSO:
  - snapshot/snapshot.go: Source interface
  - store/memory:         In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/stride/habit-engine/calendar"
	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/planner"
	"github.com/stride/habit-engine/snapshot"
)

// shareCodeAttempts bounds retries when a generated code collides.
const shareCodeAttempts = 5

// ErrShareCodeExhausted is returned when no free share code was found.
var ErrShareCodeExhausted = errors.New("could not allocate a unique share code")

// Store implements snapshot.Source using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var _ snapshot.Source = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS habits (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		emoji TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		frequency TEXT NOT NULL DEFAULT 'daily',
		days_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, id)
	);

	CREATE TABLE IF NOT EXISTS habit_completions (
		user_id TEXT NOT NULL,
		habit_id TEXT NOT NULL,
		date TEXT NOT NULL,
		UNIQUE (user_id, habit_id, date),
		FOREIGN KEY (user_id, habit_id) REFERENCES habits(user_id, id) ON DELETE CASCADE
	);

	-- Streaks and range progress read one habit's dates at a time
	CREATE INDEX IF NOT EXISTS idx_completions_habit_date
		ON habit_completions(user_id, habit_id, date);

	CREATE TABLE IF NOT EXISTS time_blocks (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		start_hour REAL NOT NULL,
		end_hour REAL NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		recurrence_json TEXT,
		PRIMARY KEY (user_id, id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user_date ON tasks(user_id, date);

	CREATE TABLE IF NOT EXISTS shares (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shares_user ON shares(user_id);

	CREATE TABLE IF NOT EXISTS revisions (
		user_id TEXT PRIMARY KEY,
		revision INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction and bumps userID's revision before commit.
func (s *Store) withTx(ctx context.Context, userID string, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	if err := bumpRevision(ctx, sqlTx, userID); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func bumpRevision(ctx context.Context, db execer, userID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO revisions (user_id, revision) VALUES (?, 1)
		ON CONFLICT(user_id) DO UPDATE SET revision = revision + 1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to bump revision: %w", err)
	}
	return nil
}

func userExists(ctx context.Context, db execer, userID string) error {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user %q: %w", userID, snapshot.ErrNotFound)
	}
	return err
}

// =============================================================================
// USERS
// =============================================================================

// SaveUser creates or renames a user.
func (s *Store) SaveUser(ctx context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		return saveUser(ctx, tx, userID, name, s.now())
	})
}

func saveUser(ctx context.Context, db execer, userID, name string, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, userID, name, now.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// =============================================================================
// HABITS
// =============================================================================

// SaveHabit creates or updates a habit. Existing completions are kept.
func (s *Store) SaveHabit(ctx context.Context, userID string, h habits.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		return saveHabit(ctx, tx, userID, h)
	})
}

func saveHabit(ctx context.Context, db execer, userID string, h habits.Habit) error {
	days, err := json.Marshal(nonNil(h.Days))
	if err != nil {
		return err
	}
	freq := h.Frequency
	if freq == "" {
		freq = habits.FrequencyDaily
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO habits (user_id, id, name, emoji, color, description, frequency, days_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			name = excluded.name,
			emoji = excluded.emoji,
			color = excluded.color,
			description = excluded.description,
			frequency = excluded.frequency,
			days_json = excluded.days_json
	`, userID, string(h.ID), h.Name, h.Emoji, h.Color, h.Description, string(freq), string(days), formatTime(h.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save habit %q: %w", h.ID, err)
	}
	return nil
}

// DeleteHabit removes a habit and its completion history.
func (s *Store) DeleteHabit(ctx context.Context, userID string, id habits.HabitID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM habits WHERE user_id = ? AND id = ?", userID, string(id))
		if err != nil {
			return fmt.Errorf("failed to delete habit: %w", err)
		}
		return requireAffected(res, "habit", string(id))
	})
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// SetCompletion marks or clears a (habit, day) completion. Idempotent.
func (s *Store) SetCompletion(ctx context.Context, userID string, id habits.HabitID, date calendar.Date, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		if err := habitExists(ctx, tx, userID, id); err != nil {
			return err
		}
		return setCompletion(ctx, tx, userID, id, date.Key(), done)
	})
}

// ToggleCompletion flips a (habit, day) completion and returns the new state.
func (s *Store) ToggleCompletion(ctx context.Context, userID string, id habits.HabitID, date calendar.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var done bool
	err := s.withTx(ctx, userID, func(tx *sql.Tx) error {
		if err := habitExists(ctx, tx, userID, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ? AND date = ?",
			userID, string(id), date.Key(),
		)
		if err != nil {
			return fmt.Errorf("failed to toggle completion: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			done = false
			return nil
		}
		done = true
		return setCompletion(ctx, tx, userID, id, date.Key(), true)
	})
	return done, err
}

func setCompletion(ctx context.Context, db execer, userID string, id habits.HabitID, dateKey string, done bool) error {
	var err error
	if done {
		_, err = db.ExecContext(ctx,
			"INSERT INTO habit_completions (user_id, habit_id, date) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
			userID, string(id), dateKey,
		)
	} else {
		_, err = db.ExecContext(ctx,
			"DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ? AND date = ?",
			userID, string(id), dateKey,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to set completion: %w", err)
	}
	return nil
}

func habitExists(ctx context.Context, db execer, userID string, id habits.HabitID) error {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM habits WHERE user_id = ? AND id = ?", userID, string(id)).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("habit %q: %w", id, snapshot.ErrNotFound)
	}
	return err
}

// =============================================================================
// TIME BLOCKS
// =============================================================================

// SaveTimeBlock validates and upserts a block.
func (s *Store) SaveTimeBlock(ctx context.Context, userID string, b planner.TimeBlock) error {
	if err := planner.Validate(b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		return saveTimeBlock(ctx, tx, userID, b)
	})
}

func saveTimeBlock(ctx context.Context, db execer, userID string, b planner.TimeBlock) error {
	var recurrence sql.NullString
	if b.Recurrence != nil {
		raw, err := json.Marshal(b.Recurrence)
		if err != nil {
			return err
		}
		recurrence = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO time_blocks (user_id, id, title, date, start_hour, end_hour, color, recurrence_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			start_hour = excluded.start_hour,
			end_hour = excluded.end_hour,
			color = excluded.color,
			recurrence_json = excluded.recurrence_json
	`, userID, string(b.ID), b.Title, b.Date.Key(), b.StartHour, b.EndHour, b.Color, recurrence)
	if err != nil {
		return fmt.Errorf("failed to save time block %q: %w", b.ID, err)
	}
	return nil
}

// DeleteTimeBlock removes a block and all of its occurrences.
func (s *Store) DeleteTimeBlock(ctx context.Context, userID string, id planner.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM time_blocks WHERE user_id = ? AND id = ?", userID, string(id))
		if err != nil {
			return fmt.Errorf("failed to delete time block: %w", err)
		}
		return requireAffected(res, "time block", string(id))
	})
}

// =============================================================================
// TASKS
// =============================================================================

// SaveTask validates and upserts a task. A task without an id gets one.
func (s *Store) SaveTask(ctx context.Context, userID string, t planner.Task) (planner.Task, error) {
	if t.ID == "" {
		t.ID = planner.TaskID(uuid.NewString())
	}
	if err := planner.ValidateTask(t); err != nil {
		return planner.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, userID, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		return saveTask(ctx, tx, userID, t)
	})
	if err != nil {
		return planner.Task{}, err
	}
	return t, nil
}

func saveTask(ctx context.Context, db execer, userID string, t planner.Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, id, title, date, completed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			completed = excluded.completed
	`, userID, string(t.ID), t.Title, t.Date.Key(), t.Completed)
	if err != nil {
		return fmt.Errorf("failed to save task %q: %w", t.ID, err)
	}
	return nil
}

// ToggleTask flips a task's completed flag and returns the new state.
func (s *Store) ToggleTask(ctx context.Context, userID string, id planner.TaskID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var done bool
	err := s.withTx(ctx, userID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE tasks SET completed = 1 - completed WHERE user_id = ? AND id = ?",
			userID, string(id),
		)
		if err != nil {
			return fmt.Errorf("failed to toggle task: %w", err)
		}
		if err := requireAffected(res, "task", string(id)); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			"SELECT completed FROM tasks WHERE user_id = ? AND id = ?", userID, string(id),
		).Scan(&done)
	})
	return done, err
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, userID string, id planner.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = ? AND id = ?", userID, string(id))
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return requireAffected(res, "task", string(id))
	})
}

// =============================================================================
// SHARES
// =============================================================================

// SaveShare allocates a new share code for userID.
func (s *Store) SaveShare(ctx context.Context, userID, name string) (snapshot.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	share := snapshot.Share{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	for attempt := 0; attempt < shareCodeAttempts; attempt++ {
		share.Code = snapshot.NewShareCode()
		err := s.withTx(ctx, userID, func(tx *sql.Tx) error {
			if err := userExists(ctx, tx, userID); err != nil {
				return err
			}
			return saveShare(ctx, tx, share)
		})
		if err == nil {
			return share, nil
		}
		if !isUniqueConstraintError(err) {
			return snapshot.Share{}, err
		}
	}
	return snapshot.Share{}, ErrShareCodeExhausted
}

func saveShare(ctx context.Context, db execer, sh snapshot.Share) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO shares (id, user_id, code, name, created_at) VALUES (?, ?, ?, ?, ?)",
		sh.ID, sh.UserID, sh.Code, sh.Name, formatTime(sh.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save share: %w", err)
	}
	return nil
}

// DeleteShare revokes a share code owned by userID.
func (s *Store) DeleteShare(ctx context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = snapshot.NormalizeShareCode(code)
	return s.withTx(ctx, userID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM shares WHERE user_id = ? AND code = ?", userID, code)
		if err != nil {
			return fmt.Errorf("failed to delete share: %w", err)
		}
		return requireAffected(res, "share", code)
	})
}

// ShareByCode resolves a share code, case-insensitively.
func (s *Store) ShareByCode(ctx context.Context, code string) (snapshot.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sh snapshot.Share
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, code, name, created_at FROM shares WHERE code = ?",
		snapshot.NormalizeShareCode(code),
	).Scan(&sh.ID, &sh.UserID, &sh.Code, &sh.Name, &createdAt)
	if err == sql.ErrNoRows {
		return snapshot.Share{}, fmt.Errorf("share %q: %w", code, snapshot.ErrNotFound)
	}
	if err != nil {
		return snapshot.Share{}, err
	}
	sh.CreatedAt = parseTime(createdAt)
	return sh, nil
}

// =============================================================================
// SNAPSHOT SOURCE
// =============================================================================

// Revision returns the user's write counter.
func (s *Store) Revision(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rev int64
	err := s.db.QueryRowContext(ctx, "SELECT revision FROM revisions WHERE user_id = ?", userID).Scan(&rev)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("user %q: %w", userID, snapshot.ErrNotFound)
	}
	return rev, err
}

// LoadSnapshot reads everything userID owns. Habits and blocks come back in
// creation order.
func (s *Store) LoadSnapshot(ctx context.Context, userID string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot.Snapshot{UserID: userID, Completions: make(habits.Completions)}
	err := s.db.QueryRowContext(ctx, "SELECT name FROM users WHERE id = ?", userID).Scan(&snap.UserName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", userID, snapshot.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if snap.Habits, err = s.loadHabits(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.loadCompletions(ctx, userID, snap.Completions); err != nil {
		return nil, err
	}
	if snap.TimeBlocks, err = s.loadTimeBlocks(ctx, userID); err != nil {
		return nil, err
	}
	if snap.Tasks, err = s.loadTasks(ctx, userID); err != nil {
		return nil, err
	}
	if snap.Shares, err = s.loadShares(ctx, userID); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) loadHabits(ctx context.Context, userID string) ([]habits.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, emoji, color, description, frequency, days_json, created_at
		FROM habits WHERE user_id = ? ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	defer rows.Close()

	var out []habits.Habit
	for rows.Next() {
		var h habits.Habit
		var id, freq, days, createdAt string
		if err := rows.Scan(&id, &h.Name, &h.Emoji, &h.Color, &h.Description, &freq, &days, &createdAt); err != nil {
			return nil, err
		}
		h.ID = habits.HabitID(id)
		h.Frequency = habits.Frequency(freq)
		h.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal([]byte(days), &h.Days); err != nil {
			return nil, fmt.Errorf("habit %q days: %w", id, err)
		}
		if len(h.Days) == 0 {
			h.Days = nil
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) loadCompletions(ctx context.Context, userID string, into habits.Completions) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT habit_id, date FROM habit_completions WHERE user_id = ? ORDER BY habit_id, date",
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to load completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, date string
		if err := rows.Scan(&id, &date); err != nil {
			return err
		}
		days := into[habits.HabitID(id)]
		if days == nil {
			days = make(map[string]bool)
			into[habits.HabitID(id)] = days
		}
		days[date] = true
	}
	return rows.Err()
}

func (s *Store) loadTimeBlocks(ctx context.Context, userID string) ([]planner.TimeBlock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, date, start_hour, end_hour, color, recurrence_json
		FROM time_blocks WHERE user_id = ? ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load time blocks: %w", err)
	}
	defer rows.Close()

	var out []planner.TimeBlock
	for rows.Next() {
		var b planner.TimeBlock
		var id, date string
		var recurrence sql.NullString
		if err := rows.Scan(&id, &b.Title, &date, &b.StartHour, &b.EndHour, &b.Color, &recurrence); err != nil {
			return nil, err
		}
		b.ID = planner.BlockID(id)
		if b.Date, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("time block %q: %w", id, err)
		}
		if recurrence.Valid {
			b.Recurrence = &planner.Recurrence{}
			if err := json.Unmarshal([]byte(recurrence.String), b.Recurrence); err != nil {
				return nil, fmt.Errorf("time block %q recurrence: %w", id, err)
			}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) loadTasks(ctx context.Context, userID string) ([]planner.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, date, completed FROM tasks WHERE user_id = ? ORDER BY date, rowid",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	var out []planner.Task
	for rows.Next() {
		var t planner.Task
		var id, date string
		if err := rows.Scan(&id, &t.Title, &date, &t.Completed); err != nil {
			return nil, err
		}
		t.ID = planner.TaskID(id)
		if t.Date, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("task %q: %w", id, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) loadShares(ctx context.Context, userID string) ([]snapshot.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, created_at FROM shares WHERE user_id = ? ORDER BY created_at, code",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	defer rows.Close()

	var out []snapshot.Share
	for rows.Next() {
		sh := snapshot.Share{UserID: userID}
		var createdAt string
		if err := rows.Scan(&sh.ID, &sh.Code, &sh.Name, &createdAt); err != nil {
			return nil, err
		}
		sh.CreatedAt = parseTime(createdAt)
		out = append(out, sh)
	}
	return out, rows.Err()
}

// =============================================================================
// IMPORT / RESET
// =============================================================================

// ImportSnapshot replaces everything snap.UserID owns in one transaction.
// Every block and task is validated first; on any error nothing is written.
func (s *Store) ImportSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap.UserID == "" {
		return fmt.Errorf("%w: missing user id", snapshot.ErrInvalidSnapshot)
	}
	for _, b := range snap.TimeBlocks {
		if err := planner.Validate(b); err != nil {
			return err
		}
	}
	for _, t := range snap.Tasks {
		if err := planner.ValidateTask(t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, snap.UserID, func(tx *sql.Tx) error {
		// Cascades to habits, completions, blocks, tasks and shares
		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", snap.UserID); err != nil {
			return fmt.Errorf("failed to clear user: %w", err)
		}
		if err := saveUser(ctx, tx, snap.UserID, snap.UserName, s.now()); err != nil {
			return err
		}

		known := make(map[habits.HabitID]bool, len(snap.Habits))
		for _, h := range snap.Habits {
			if err := saveHabit(ctx, tx, snap.UserID, h); err != nil {
				return err
			}
			known[h.ID] = true
		}

		for id, days := range snap.Completions {
			if !known[id] {
				continue // orphaned history of a deleted habit
			}
			for key, done := range days {
				if !done {
					continue
				}
				if _, err := calendar.ParseDate(key); err != nil {
					continue
				}
				if err := setCompletion(ctx, tx, snap.UserID, id, key, true); err != nil {
					return err
				}
			}
		}

		for _, b := range snap.TimeBlocks {
			if err := saveTimeBlock(ctx, tx, snap.UserID, b); err != nil {
				return err
			}
		}

		for _, t := range snap.Tasks {
			if t.ID == "" {
				t.ID = planner.TaskID(uuid.NewString())
			}
			if err := saveTask(ctx, tx, snap.UserID, t); err != nil {
				return err
			}
		}

		for _, sh := range snap.Shares {
			sh.UserID = snap.UserID
			if sh.ID == "" {
				sh.ID = uuid.NewString()
			}
			if sh.CreatedAt.IsZero() {
				sh.CreatedAt = s.now().UTC().Truncate(time.Second)
			}
			if err := saveShare(ctx, tx, sh); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"habit_completions", "habits", "time_blocks", "tasks", "shares", "users", "revisions"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, snapshot.ErrNotFound)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nonNil(days []string) []string {
	if days == nil {
		return []string{}
	}
	return days
}
