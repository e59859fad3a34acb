package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"
)

// TopicRepository loads topic content (from cache/backing store).
type TopicRepository interface {
	GetTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// TopicLister enumerates the topics a client may pick from.
type TopicLister interface {
	ListTopics(ctx context.Context) ([]domain.Topic, error)
}

// Catalog draws question sets for rooms that start without their own.
type Catalog struct {
	topics       TopicRepository
	defaultCount int

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCatalog(topics TopicRepository, defaultCount int) *Catalog {
	if defaultCount <= 0 {
		defaultCount = 5
	}
	return &Catalog{
		topics:       topics,
		defaultCount: defaultCount,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions returns up to count shuffled questions of a topic. A count of
// zero or less means the catalog default.
func (c *Catalog) Questions(ctx context.Context, topicID string, count int) ([]domain.Question, error) {
	topic, err := c.topics.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(topic.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if count <= 0 {
		count = c.defaultCount
	}

	out := append([]domain.Question(nil), topic.Questions...)
	c.mu.Lock()
	c.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	c.mu.Unlock()
	if count < len(out) {
		out = out[:count]
	}
	return out, nil
}
