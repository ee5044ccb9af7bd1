package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"trivia-quiz/internal/domain"
)

const (
	// LeaderboardKey is the slot name the ranked list is stored under.
	LeaderboardKey = "quizHighScores"
	// LeaderboardCapacity is how many entries survive a save.
	LeaderboardCapacity = 10
)

// SlotStore abstracts a single named key-value slot that is read and
// overwritten as a unit (file, in-memory, Redis, Postgres).
// Read returns a nil slice and no error when the slot is absent.
type SlotStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
}

// Leaderboard ranks and persists the top results.
type Leaderboard struct {
	store SlotStore
	key   string
}

func NewLeaderboard(store SlotStore, key string) *Leaderboard {
	if key == "" {
		key = LeaderboardKey
	}
	return &Leaderboard{store: store, key: key}
}

// Load returns the persisted entries for display. Missing, unreadable or
// malformed data yields an empty list.
func (l *Leaderboard) Load(ctx context.Context) []domain.LeaderboardEntry {
	entries, err := l.read(ctx)
	if err != nil {
		slog.WarnContext(ctx, "leaderboard: read failed, treating as empty", "key", l.key, "error", err)
		return []domain.LeaderboardEntry{}
	}
	return entries
}

// read decodes the slot. Only absent or malformed data counts as empty; store
// failures are returned.
func (l *Leaderboard) read(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	raw, err := l.store.Read(ctx, l.key)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(raw) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		slog.WarnContext(ctx, "leaderboard: malformed data, treating as empty", "key", l.key, "error", err)
		return []domain.LeaderboardEntry{}, nil
	}
	if entries == nil {
		return []domain.LeaderboardEntry{}, nil
	}
	return entries, nil
}

// IsNewHighScore reports whether a result with the given percentage would
// enter the board. It reports false when the board cannot be read.
func (l *Leaderboard) IsNewHighScore(ctx context.Context, percentage int) bool {
	entries, err := l.read(ctx)
	if err != nil {
		slog.WarnContext(ctx, "leaderboard: cannot rank result", "key", l.key, "error", err)
		return false
	}
	if len(entries) < LeaderboardCapacity {
		return true
	}
	lowest := entries[0].Percentage
	for _, e := range entries[1:] {
		if e.Percentage < lowest {
			lowest = e.Percentage
		}
	}
	return percentage > lowest
}

// Save inserts entry, re-ranks, keeps the top LeaderboardCapacity and
// overwrites the slot. The persisted list is returned. A failed read leaves
// the slot untouched.
func (l *Leaderboard) Save(ctx context.Context, entry domain.LeaderboardEntry) ([]domain.LeaderboardEntry, error) {
	entries, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)
	Rank(entries)
	if len(entries) > LeaderboardCapacity {
		entries = entries[:LeaderboardCapacity]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal leaderboard: %w", err)
	}
	if err := l.store.Write(ctx, l.key, raw); err != nil {
		return nil, fmt.Errorf("write leaderboard: %w", err)
	}
	return entries, nil
}

// Rank orders entries by percentage desc, then score desc, then timestamp desc.
func Rank(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Timestamp > b.Timestamp
	})
}
