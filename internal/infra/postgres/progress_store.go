package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/uptrace/bun"
)

type progressRow struct {
	bun.BaseModel `bun:"table:player_progress"`

	Name       string    `bun:"name,pk"`
	DuelPlayed int       `bun:"duel_played"`
	DuelWon    int       `bun:"duel_won"`
	RacePlayed int       `bun:"race_played"`
	RaceWon    int       `bun:"race_won"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

// ProgressStore persists player statistics in player_progress via bun.
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// RecordGame adds one game per player in a single transaction. Counters are
// incremented in SQL so concurrent writers never lose an update.
func (s *ProgressStore) RecordGame(ctx context.Context, result domain.GameResult) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, p := range result.Players {
			key := domain.ProgressKey(p.Name)
			if key == "" {
				continue
			}
			var row progressRow
			row.Name = key
			row.Apply(result.Mode, p.Won, result.FinishedAt)

			_, err := tx.NewInsert().
				Model(&row).
				On("CONFLICT (name) DO UPDATE").
				Set("duel_played = player_progress.duel_played + EXCLUDED.duel_played").
				Set("duel_won = player_progress.duel_won + EXCLUDED.duel_won").
				Set("race_played = player_progress.race_played + EXCLUDED.race_played").
				Set("race_won = player_progress.race_won + EXCLUDED.race_won").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("record progress %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *ProgressStore) GetProgress(ctx context.Context, name string) (domain.Progress, error) {
	key := domain.ProgressKey(name)
	row := progressRow{}
	err := s.db.NewSelect().Model(&row).Where("name = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Progress{Name: key}, nil
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("get progress: %w", err)
	}
	return domain.Progress{
		Name:       row.Name,
		DuelPlayed: row.DuelPlayed,
		DuelWon:    row.DuelWon,
		RacePlayed: row.RacePlayed,
		RaceWon:    row.RaceWon,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

// Apply fills the row with the deltas of one game.
func (r *progressRow) Apply(mode domain.Mode, won bool, at time.Time) {
	p := domain.Progress{}
	p.Apply(mode, domain.PlayerResult{Won: won}, at)
	r.DuelPlayed, r.DuelWon = p.DuelPlayed, p.DuelWon
	r.RacePlayed, r.RaceWon = p.RacePlayed, p.RaceWon
	r.UpdatedAt = at
}
