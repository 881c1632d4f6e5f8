// Package leaderboard persists finished quiz runs in SQLite.
package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

const (
	DefaultLimit  = 10
	MaxLimit      = 100
	AnonymousName = "Anónimo"
	maxNameLength = 40

	timeLayout = "2006-01-02T15:04:05.000Z"
)

// Entry is one finished run.
type Entry struct {
	ID          string              `json:"id"`
	PlayerName  string              `json:"playerName"`
	Score       int                 `json:"score"`
	GamesPlayed int                 `json:"gamesPlayed"`
	GamesWon    int                 `json:"gamesWon"`
	BestStreak  int                 `json:"bestStreak"`
	Difficulty  roadrisk.Difficulty `json:"difficulty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type Store interface {
	Submit(ctx context.Context, e Entry) (Entry, error)
	Top(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
}

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore expects the migrations to have been applied to db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// ClampLimit maps a requested page size into [1, MaxLimit]; zero or
// negative means DefaultLimit.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// NormalizeName trims the name, falls back to AnonymousName and truncates
// overly long names.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return AnonymousName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}

// Submit stores e with a fresh ID and timestamp and returns the stored entry.
func (s *SQLiteStore) Submit(ctx context.Context, e Entry) (Entry, error) {
	if !e.Difficulty.Valid() {
		return Entry{}, fmt.Errorf("submitting entry: %w: %q", roadrisk.ErrInvalidDifficulty, e.Difficulty)
	}
	if e.Score < 0 || e.GamesWon < 0 || e.GamesWon > e.GamesPlayed || e.BestStreak < 0 {
		return Entry{}, fmt.Errorf("submitting entry: inconsistent counters %+v", e)
	}

	e.ID = uuid.NewString()
	e.PlayerName = NormalizeName(e.PlayerName)
	e.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard_entries
			(id, player_name, score, games_played, games_won, best_streak, difficulty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.PlayerName, e.Score, e.GamesPlayed, e.GamesWon, e.BestStreak, string(e.Difficulty), e.CreatedAt.Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("inserting entry: %w", err)
	}
	return e, nil
}

// Top lists the best runs by score, earliest first on ties.
func (s *SQLiteStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_name, score, games_played, games_won, best_streak, difficulty, created_at
		FROM leaderboard_entries
		ORDER BY score DESC, created_at ASC, rowid ASC
		LIMIT ?
	`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, player_name, score, games_played, games_won, best_streak, difficulty, created_at
		FROM leaderboard_entries
		WHERE id = ?
	`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("entry %s: %w", id, roadrisk.ErrNotFound)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	var difficulty, createdAt string
	if err := sc.Scan(&e.ID, &e.PlayerName, &e.Score, &e.GamesPlayed, &e.GamesWon, &e.BestStreak, &difficulty, &createdAt); err != nil {
		return Entry{}, err
	}
	e.Difficulty = roadrisk.Difficulty(difficulty)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}
