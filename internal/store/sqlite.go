package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/dreamdiary/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		chat_binding TEXT,
		streak INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		entry_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		no_dream_recall INTEGER NOT NULL DEFAULT 0,
		dream_types TEXT NOT NULL DEFAULT '[]',
		sleep_quality TEXT NOT NULL DEFAULT '[]',
		wake_feeling TEXT NOT NULL DEFAULT '[]',
		title TEXT,
		key_event TEXT,
		location_time TEXT,
		characters TEXT,
		symbols TEXT,
		atmosphere TEXT,
		mood TEXT,
		senses TEXT,
		narrative TEXT,
		self_interpretation TEXT,
		feelings_in_dream TEXT,
		thoughts_after TEXT,
		sleep_notes TEXT,
		lucidity_score INTEGER,
		reality_checks INTEGER,
		rem_minutes INTEGER,
		deep_sleep_minutes INTEGER,
		total_sleep_minutes INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_entries_user_created ON entries(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS exercises (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		source_pages TEXT NOT NULL DEFAULT '[]',
		lines TEXT NOT NULL DEFAULT '[]'
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, chat_binding, streak, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var chatBinding sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Username, &chatBinding, &user.Streak, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.ChatBinding = chatBinding.String
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// EnsureUser creates the user row if absent and refreshes the username.
func (s *SQLiteStore) EnsureUser(ctx context.Context, userID, username string) error {
	now := time.Now().Unix()
	query := `
	INSERT INTO users (user_id, username, streak, created_at, updated_at)
	VALUES (?, ?, 0, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, userID, username, now, now); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// UpdateStreak writes a recomputed streak value for the user.
func (s *SQLiteStore) UpdateStreak(ctx context.Context, userID string, streak int) error {
	query := `UPDATE users SET streak = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, streak, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateStreak affected 0 rows", "user_id", userID)
	}

	return nil
}

// BindChat stores an opaque delivery-channel handle for the user.
func (s *SQLiteStore) BindChat(ctx context.Context, userID, binding string) error {
	query := `UPDATE users SET chat_binding = ?, updated_at = ? WHERE user_id = ?`

	var value interface{}
	if binding != "" {
		value = binding
	}

	result, err := s.db.ExecContext(ctx, query, value, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("bind chat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// SaveEntry persists a completed entry and returns its ID.
// Retries with exponential backoff on SQLITE_BUSY, which can occur
// while the WAL is being checkpointed by another connection.
func (s *SQLiteStore) SaveEntry(ctx context.Context, entry *domain.Entry) (string, error) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}

	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = s.insertEntry(ctx, entry)
		if err == nil {
			return entry.EntryID, nil
		}

		if isSQLiteConflict(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms, 400ms
			slog.Debug("SaveEntry hit SQLITE_BUSY, retrying",
				"user_id", entry.UserID,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}
		break
	}

	return "", fmt.Errorf("save entry for %s: %w", entry.UserID, err)
}

func (s *SQLiteStore) insertEntry(ctx context.Context, entry *domain.Entry) error {
	dreamTypes, err := encodeLabels(entry.DreamTypes)
	if err != nil {
		return err
	}
	sleepQuality, err := encodeLabels(entry.SleepQuality)
	if err != nil {
		return err
	}
	wakeFeeling, err := encodeLabels(entry.WakeFeeling)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO entries (
		entry_id, user_id, entry_date, created_at, no_dream_recall,
		dream_types, sleep_quality, wake_feeling,
		title, key_event, location_time, characters, symbols, atmosphere,
		mood, senses, narrative, self_interpretation, feelings_in_dream,
		thoughts_after, sleep_notes,
		lucidity_score, reality_checks, rem_minutes, deep_sleep_minutes, total_sleep_minutes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		entry.EntryID, entry.UserID, entry.EntryDate, entry.CreatedAt.Unix(), entry.NoDreamRecall,
		dreamTypes, sleepQuality, wakeFeeling,
		nullString(entry.Title), nullString(entry.KeyEvent), nullString(entry.LocationTime),
		nullString(entry.Characters), nullString(entry.Symbols), nullString(entry.Atmosphere),
		nullString(entry.Mood), nullString(entry.Senses), nullString(entry.Narrative),
		nullString(entry.SelfInterpretation), nullString(entry.FeelingsInDream),
		nullString(entry.ThoughtsAfter), nullString(entry.SleepNotes),
		nullInt(entry.LucidityScore), nullInt(entry.RealityChecks), nullInt(entry.RemMinutes),
		nullInt(entry.DeepSleepMinutes), nullInt(entry.TotalSleepMinutes),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

const entryColumns = `
	entry_id, user_id, entry_date, created_at, no_dream_recall,
	dream_types, sleep_quality, wake_feeling,
	title, key_event, location_time, characters, symbols, atmosphere,
	mood, senses, narrative, self_interpretation, feelings_in_dream,
	thoughts_after, sleep_notes,
	lucidity_score, reality_checks, rem_minutes, deep_sleep_minutes, total_sleep_minutes`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var entry domain.Entry
	var createdAt int64
	var dreamTypes, sleepQuality, wakeFeeling string
	var title, keyEvent, locationTime, characters, symbols, atmosphere sql.NullString
	var mood, senses, narrative, selfInterpretation, feelingsInDream sql.NullString
	var thoughtsAfter, sleepNotes sql.NullString
	var lucidityScore, realityChecks, remMinutes, deepSleepMinutes, totalSleepMinutes sql.NullInt64

	err := row.Scan(
		&entry.EntryID, &entry.UserID, &entry.EntryDate, &createdAt, &entry.NoDreamRecall,
		&dreamTypes, &sleepQuality, &wakeFeeling,
		&title, &keyEvent, &locationTime, &characters, &symbols, &atmosphere,
		&mood, &senses, &narrative, &selfInterpretation, &feelingsInDream,
		&thoughtsAfter, &sleepNotes,
		&lucidityScore, &realityChecks, &remMinutes, &deepSleepMinutes, &totalSleepMinutes,
	)
	if err != nil {
		return nil, err
	}

	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	if entry.DreamTypes, err = decodeLabels(dreamTypes); err != nil {
		return nil, fmt.Errorf("decode dream_types: %w", err)
	}
	if entry.SleepQuality, err = decodeLabels(sleepQuality); err != nil {
		return nil, fmt.Errorf("decode sleep_quality: %w", err)
	}
	if entry.WakeFeeling, err = decodeLabels(wakeFeeling); err != nil {
		return nil, fmt.Errorf("decode wake_feeling: %w", err)
	}

	entry.Title = title.String
	entry.KeyEvent = keyEvent.String
	entry.LocationTime = locationTime.String
	entry.Characters = characters.String
	entry.Symbols = symbols.String
	entry.Atmosphere = atmosphere.String
	entry.Mood = mood.String
	entry.Senses = senses.String
	entry.Narrative = narrative.String
	entry.SelfInterpretation = selfInterpretation.String
	entry.FeelingsInDream = feelingsInDream.String
	entry.ThoughtsAfter = thoughtsAfter.String
	entry.SleepNotes = sleepNotes.String

	entry.LucidityScore = intPtr(lucidityScore)
	entry.RealityChecks = intPtr(realityChecks)
	entry.RemMinutes = intPtr(remMinutes)
	entry.DeepSleepMinutes = intPtr(deepSleepMinutes)
	entry.TotalSleepMinutes = intPtr(totalSleepMinutes)

	return &entry, nil
}

// GetRecentEntries returns up to limit entries, newest first.
func (s *SQLiteStore) GetRecentEntries(ctx context.Context, userID string, limit int) ([]domain.Entry, error) {
	query := `SELECT` + entryColumns + `
		FROM entries WHERE user_id = ?
		ORDER BY created_at DESC, entry_id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close recent entries rows", "error", closeErr)
		}
	}()

	var entries []domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent entries: %w", err)
	}

	return entries, nil
}

// GetLastEntry returns the most recent entry for the user.
func (s *SQLiteStore) GetLastEntry(ctx context.Context, userID string) (*domain.Entry, error) {
	query := `SELECT` + entryColumns + `
		FROM entries WHERE user_id = ?
		ORDER BY created_at DESC, entry_id DESC
		LIMIT 1`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan last entry: %w", err)
	}
	return entry, nil
}

// GetEntryDays returns distinct UTC calendar days with entries, newest first.
func (s *SQLiteStore) GetEntryDays(ctx context.Context, userID string, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT date(created_at, 'unixepoch') AS day
		FROM entries
		WHERE user_id = ? AND created_at >= ?
		ORDER BY day DESC`

	rows, err := s.db.QueryContext(ctx, query, userID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query entry days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close entry days rows", "error", closeErr)
		}
	}()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan entry day: %w", err)
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry days: %w", err)
	}

	return days, nil
}

// SeedExercises inserts exercises that are not yet stored.
func (s *SQLiteStore) SeedExercises(ctx context.Context, exercises []domain.Exercise) error {
	query := `
	INSERT INTO exercises (id, title, source_pages, lines)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`

	for _, ex := range exercises {
		pages, err := json.Marshal(ex.SourcePages)
		if err != nil {
			return fmt.Errorf("encode source pages for %q: %w", ex.ID, err)
		}
		lines, err := json.Marshal(ex.Lines)
		if err != nil {
			return fmt.Errorf("encode lines for %q: %w", ex.ID, err)
		}
		if _, err := s.db.ExecContext(ctx, query, ex.ID, ex.Title, string(pages), string(lines)); err != nil {
			return fmt.Errorf("seed exercise %q: %w", ex.ID, err)
		}
	}
	return nil
}

// GetRandomExercise returns a random seeded exercise.
func (s *SQLiteStore) GetRandomExercise(ctx context.Context) (*domain.Exercise, error) {
	query := `SELECT id, title, source_pages, lines FROM exercises ORDER BY RANDOM() LIMIT 1`

	var ex domain.Exercise
	var pages, lines string
	err := s.db.QueryRowContext(ctx, query).Scan(&ex.ID, &ex.Title, &pages, &lines)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan exercise: %w", err)
	}

	if err := json.Unmarshal([]byte(pages), &ex.SourcePages); err != nil {
		return nil, fmt.Errorf("decode source pages: %w", err)
	}
	if err := json.Unmarshal([]byte(lines), &ex.Lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}

	return &ex, nil
}

func encodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	return string(data), nil
}

func decodeLabels(raw string) ([]string, error) {
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// isSQLiteConflict checks for SQLITE_BUSY and "database is locked"
// errors, which both warrant retry.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
