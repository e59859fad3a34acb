package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quiz-arena-service/internal/domain"

	_ "modernc.org/sqlite"
)

const createProgressTable = `CREATE TABLE IF NOT EXISTS player_progress (
	name TEXT PRIMARY KEY,
	duel_played INTEGER NOT NULL DEFAULT 0,
	duel_won INTEGER NOT NULL DEFAULT 0,
	race_played INTEGER NOT NULL DEFAULT 0,
	race_won INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL DEFAULT ''
);`

// ProgressStore is a single-file progress store for deployments without
// Postgres or Redis.
type ProgressStore struct {
	db *sql.DB
}

// Open creates the database file and its schema if needed.
func Open(ctx context.Context, path string) (*ProgressStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one writer; WAL lets readers proceed alongside it
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		createProgressTable,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init %s: %w", path, err)
		}
	}
	return &ProgressStore{db: db}, nil
}

func (s *ProgressStore) Close() error {
	return s.db.Close()
}

func (s *ProgressStore) RecordGame(ctx context.Context, result domain.GameResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	at := result.FinishedAt.UTC().Format(time.RFC3339Nano)
	for _, p := range result.Players {
		key := domain.ProgressKey(p.Name)
		if key == "" {
			continue
		}
		var delta domain.Progress
		delta.Apply(result.Mode, p, result.FinishedAt)
		_, err := tx.ExecContext(ctx, `
INSERT INTO player_progress (name, duel_played, duel_won, race_played, race_won, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	duel_played = duel_played + excluded.duel_played,
	duel_won = duel_won + excluded.duel_won,
	race_played = race_played + excluded.race_played,
	race_won = race_won + excluded.race_won,
	updated_at = excluded.updated_at`,
			key, delta.DuelPlayed, delta.DuelWon, delta.RacePlayed, delta.RaceWon, at)
		if err != nil {
			return fmt.Errorf("record progress %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *ProgressStore) GetProgress(ctx context.Context, name string) (domain.Progress, error) {
	key := domain.ProgressKey(name)
	progress := domain.Progress{Name: key}
	var updated string
	err := s.db.QueryRowContext(ctx, `
SELECT duel_played, duel_won, race_played, race_won, updated_at
FROM player_progress WHERE name = ?`, key).
		Scan(&progress.DuelPlayed, &progress.DuelWon, &progress.RacePlayed, &progress.RaceWon, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return progress, nil
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("get progress: %w", err)
	}
	if at, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		progress.UpdatedAt = at
	}
	return progress, nil
}
