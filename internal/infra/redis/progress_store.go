package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ProgressStore keeps statistics as one hash per player:
//
//	HINCRBY arena:progress:{name} duelPlayed|duelWon|racePlayed|raceWon
//
// and accumulates total score per mode in arena:leaderboard:{mode}.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) RecordGame(ctx context.Context, result domain.GameResult) error {
	played, won := "duelPlayed", "duelWon"
	if result.Mode == domain.ModeRace {
		played, won = "racePlayed", "raceWon"
	}

	pipe := s.client.TxPipeline()
	for _, p := range result.Players {
		key := domain.ProgressKey(p.Name)
		if key == "" {
			continue
		}
		hash := s.key(key)
		pipe.HIncrBy(ctx, hash, played, 1)
		if p.Won {
			pipe.HIncrBy(ctx, hash, won, 1)
		}
		pipe.HSet(ctx, hash, "updatedAt", result.FinishedAt.UTC().Format(time.RFC3339Nano))
		pipe.ZIncrBy(ctx, s.leaderboardKey(result.Mode), float64(p.Score), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record game %s: %w", result.RoomCode, err)
	}
	return nil
}

func (s *ProgressStore) GetProgress(ctx context.Context, name string) (domain.Progress, error) {
	key := domain.ProgressKey(name)
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil && !isNil(err) {
		return domain.Progress{}, fmt.Errorf("get progress: %w", err)
	}
	progress := domain.Progress{
		Name:       key,
		DuelPlayed: atoi(fields["duelPlayed"]),
		DuelWon:    atoi(fields["duelWon"]),
		RacePlayed: atoi(fields["racePlayed"]),
		RaceWon:    atoi(fields["raceWon"]),
	}
	if at, err := time.Parse(time.RFC3339Nano, fields["updatedAt"]); err == nil {
		progress.UpdatedAt = at
	}
	return progress, nil
}

// Leaderboard returns the top n names by accumulated score in a mode.
func (s *ProgressStore) Leaderboard(ctx context.Context, mode domain.Mode, n int) ([]domain.PlayerResult, error) {
	if n <= 0 {
		n = 10
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, s.leaderboardKey(mode), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	out := make([]domain.PlayerResult, 0, len(entries))
	for _, e := range entries {
		name, _ := e.Member.(string)
		out = append(out, domain.PlayerResult{Name: name, Score: int(e.Score)})
	}
	return out, nil
}

func (s *ProgressStore) key(name string) string {
	return "arena:progress:" + name
}

func (s *ProgressStore) leaderboardKey(mode domain.Mode) string {
	return "arena:leaderboard:" + string(mode)
}

func atoi(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}
