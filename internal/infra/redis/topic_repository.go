package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// TopicLoader fetches topic content from a backing store (file, Postgres).
type TopicLoader interface {
	LoadTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// TopicRepository caches whole topics as JSON in Redis and falls back to a
// loader on cache miss. Key layout: arena:topic:{topicID}
type TopicRepository struct {
	client *redis.Client
	loader TopicLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewTopicRepository(client *redis.Client, loader TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	if topic, ok := r.cached(ctx, topicID); ok {
		return topic, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if topic, ok := r.cached(ctx, topicID); ok {
			return topic, nil
		}

		topic, err := r.loader.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}
		if raw, err := json.Marshal(topic); err == nil {
			// best effort: a failed write only costs another load
			_ = r.client.Set(ctx, r.key(topicID), raw, r.ttlWithJitter()).Err()
		}
		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

// ListTopics passes through to the loader when it can enumerate topics.
func (r *TopicRepository) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	lister, ok := r.loader.(interface {
		ListTopics(ctx context.Context) ([]domain.Topic, error)
	})
	if !ok {
		return nil, nil
	}
	return lister.ListTopics(ctx)
}

func (r *TopicRepository) cached(ctx context.Context, topicID string) (domain.Topic, bool) {
	raw, err := r.client.Get(ctx, r.key(topicID)).Bytes()
	if err != nil {
		return domain.Topic{}, false
	}
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return domain.Topic{}, false
	}
	return topic, true
}

func (r *TopicRepository) key(topicID string) string {
	return "arena:topic:" + topicID
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
