package app

import (
	"context"
	"testing"

	"quiz-arena-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonHostCannotStart(t *testing.T) {
	h := newHarness(t, nil)
	code := h.room(t, domain.ModeDuel, "p1", "p2")
	h.notifier.reset()

	outcome, err := h.engine.StartGame(h.ctx, code, "p2", sampleQuestions(3), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.IgnoredNotHost, outcome)
	assert.Equal(t, domain.StatusWaiting, h.snapshot(t, code).Status)
	assert.Empty(t, h.notifier.received("p1"))
	assert.Empty(t, h.notifier.received("p2"))
}

func TestStartGameBroadcastsPerMode(t *testing.T) {
	h := newHarness(t, nil)
	duel := h.room(t, domain.ModeDuel, "d1", "d2")
	race := h.room(t, domain.ModeRace, "r1", "r2")

	h.start(t, duel, "d1", 2)
	h.start(t, race, "r1", 2)

	assert.Contains(t, h.notifier.types("d2"), domain.EventGameStarted)
	assert.Contains(t, h.notifier.types("r2"), domain.EventRaceGameStarted)

	snap := h.snapshot(t, duel)
	assert.Equal(t, domain.StatusPlaying, snap.Status)
	assert.Equal(t, 2, snap.QuestionCount)
	assert.Equal(t, 0, snap.CurrentQuestion)
}

func TestStartGameErrors(t *testing.T) {
	h := newHarness(t, nil)
	code := h.room(t, domain.ModeDuel, "p1")

	_, err := h.engine.StartGame(h.ctx, "NONE", "p1", sampleQuestions(1), 0)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = h.engine.StartGame(h.ctx, code, "p1", nil, 0)
	assert.ErrorIs(t, err, domain.ErrNoQuestions)

	h.start(t, code, "p1", 1)
	_, err = h.engine.StartGame(h.ctx, code, "p1", sampleQuestions(1), 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyStarted)
}

type topicMap map[string]domain.Topic

func (m topicMap) GetTopic(_ context.Context, id string) (domain.Topic, error) {
	topic, ok := m[id]
	if !ok {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	return topic, nil
}

func TestStartGameDrawsFromCatalog(t *testing.T) {
	topics := topicMap{"science": {ID: "science", Questions: sampleQuestions(8)}}
	h := newHarness(t, func(o *Options) { o.Catalog = NewCatalog(topics, 5) })
	code := h.room(t, domain.ModeDuel, "p1", "p2")

	_, err := h.engine.StartGame(h.ctx, code, "p1", nil, 0)
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)

	_, err = h.engine.SelectTopic(h.ctx, code, "p1", "science")
	require.NoError(t, err)

	outcome, err := h.engine.StartGame(h.ctx, code, "p2", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.IgnoredNotHost, outcome)

	outcome, err = h.engine.StartGame(h.ctx, code, "p1", nil, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.Applied, outcome)
	assert.Equal(t, 3, h.snapshot(t, code).QuestionCount)
}
