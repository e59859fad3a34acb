package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-arena-service/internal/domain"
)

func TestTopicRepositoryCaches(t *testing.T) {
	loader := &countingLoader{TopicLoader: NewStaticTopicLoader(SampleTopics())}
	repo := NewTopicRepository(loader, time.Minute)

	if _, err := repo.GetTopic(context.Background(), "science"); err != nil {
		t.Fatalf("get topic: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := repo.GetTopic(context.Background(), "science"); err != nil {
		t.Fatalf("get topic 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestTopicRepositoryExpires(t *testing.T) {
	loader := &countingLoader{TopicLoader: NewStaticTopicLoader(SampleTopics())}
	repo := NewTopicRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetTopic(context.Background(), "general"); err != nil {
		t.Fatalf("get topic: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetTopic(context.Background(), "general"); err != nil {
		t.Fatalf("get topic after expiry: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}
}

func TestTopicRepositoryDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{TopicLoader: NewStaticTopicLoader(SampleTopics())}
	repo := NewTopicRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := repo.GetTopic(context.Background(), "nope")
		if !errors.Is(err, domain.ErrTopicNotFound) {
			t.Fatalf("expected ErrTopicNotFound, got %v", err)
		}
	}
	if loader.count() != 2 {
		t.Fatalf("expected misses to reach loader, calls %d", loader.count())
	}
}

func TestTopicRepositoryListsThroughLoader(t *testing.T) {
	repo := NewTopicRepository(NewStaticTopicLoader(SampleTopics()), time.Minute)
	topics, err := repo.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("list topics: %v", err)
	}
	if len(topics) != 2 || topics[0].ID != "general" || topics[1].ID != "science" {
		t.Fatalf("unexpected topics %+v", topics)
	}
}

type countingLoader struct {
	TopicLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.TopicLoader.LoadTopic(ctx, topicID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
