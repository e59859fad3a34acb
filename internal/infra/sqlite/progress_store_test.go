package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "progress.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	at := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordGame(ctx, domain.GameResult{
		Mode:       domain.ModeDuel,
		FinishedAt: at,
		Players: []domain.PlayerResult{
			{Name: "Zoë", Score: 150, Won: true},
			{Name: "Max", Score: 120},
		},
	}))
	require.NoError(t, store.RecordGame(ctx, domain.GameResult{
		Mode:       domain.ModeRace,
		FinishedAt: at.Add(time.Hour),
		Players:    []domain.PlayerResult{{Name: "zoë", Score: 300, Won: true}},
	}))

	got, err := store.GetProgress(ctx, "ZOË")
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressKey("Zoë"), got.Name)
	assert.Equal(t, 1, got.DuelPlayed)
	assert.Equal(t, 1, got.DuelWon)
	assert.Equal(t, 1, got.RacePlayed)
	assert.Equal(t, 1, got.RaceWon)
	assert.True(t, got.UpdatedAt.Equal(at.Add(time.Hour)))

	max, err := store.GetProgress(ctx, "max")
	require.NoError(t, err)
	assert.Equal(t, 1, max.DuelPlayed)
	assert.Zero(t, max.DuelWon)
}

func TestProgressStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.RecordGame(ctx, domain.GameResult{
		Mode:    domain.ModeRace,
		Players: []domain.PlayerResult{{Name: "Ann"}},
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetProgress(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 1, got.RacePlayed)

	none, err := reopened.GetProgress(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, none.RacePlayed)
}
