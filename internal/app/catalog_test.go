package app

import (
	"context"
	"testing"

	"quiz-arena-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogQuestions(t *testing.T) {
	topics := topicMap{
		"big":   {ID: "big", Questions: sampleQuestions(10)},
		"small": {ID: "small", Questions: sampleQuestions(2)},
		"empty": {ID: "empty"},
	}
	catalog := NewCatalog(topics, 0)
	ctx := context.Background()

	got, err := catalog.Questions(ctx, "big", 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	got, err = catalog.Questions(ctx, "big", 7)
	require.NoError(t, err)
	assert.Len(t, got, 7)
	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "duplicate question %s", q.ID)
		seen[q.ID] = true
	}

	got, err = catalog.Questions(ctx, "small", 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = catalog.Questions(ctx, "empty", 5)
	assert.ErrorIs(t, err, domain.ErrNoQuestions)

	_, err = catalog.Questions(ctx, "missing", 5)
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
}

func TestCatalogDoesNotReorderSource(t *testing.T) {
	questions := sampleQuestions(6)
	topics := topicMap{"t": {ID: "t", Questions: questions}}
	catalog := NewCatalog(topics, 6)

	for i := 0; i < 5; i++ {
		_, err := catalog.Questions(context.Background(), "t", 0)
		require.NoError(t, err)
	}
	for i, q := range topics["t"].Questions {
		assert.Equal(t, string(rune('a'+i)), q.ID)
	}
}
