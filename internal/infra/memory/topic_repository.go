package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quiz-arena-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// TopicLoader fetches topic content from a backing store (file, Postgres).
type TopicLoader interface {
	LoadTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// TopicRepository caches topics with TTL to avoid repeated loads.
type TopicRepository struct {
	loader TopicLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedTopic
}

type cachedTopic struct {
	topic     domain.Topic
	expiresAt time.Time
}

func NewTopicRepository(loader TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedTopic),
	}
}

func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	if topic, ok := r.cached(topicID); ok {
		return topic, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		if topic, ok := r.cached(topicID); ok {
			return topic, nil
		}

		topic, err := r.loader.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}

		r.mu.Lock()
		r.cache[topicID] = cachedTopic{
			topic:     topic,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
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

func (r *TopicRepository) cached(topicID string) (domain.Topic, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[topicID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Topic{}, false
	}
	return entry.topic, true
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticTopicLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticTopicLoader struct {
	topics map[string]domain.Topic
}

func NewStaticTopicLoader(topics map[string]domain.Topic) *StaticTopicLoader {
	return &StaticTopicLoader{topics: topics}
}

func (l *StaticTopicLoader) LoadTopic(_ context.Context, topicID string) (domain.Topic, error) {
	if topic, ok := l.topics[topicID]; ok {
		return topic, nil
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}

func (l *StaticTopicLoader) ListTopics(context.Context) ([]domain.Topic, error) {
	return sortedTopics(l.topics), nil
}

func sortedTopics(topics map[string]domain.Topic) []domain.Topic {
	out := make([]domain.Topic, 0, len(topics))
	for _, t := range topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SampleTopics is the built-in content used when no other source is configured.
func SampleTopics() map[string]domain.Topic {
	return map[string]domain.Topic{
		"general": {
			ID:          "general",
			Name:        "General Knowledge",
			Description: "A little bit of everything.",
			Questions: []domain.Question{
				{ID: "g1", Question: "What is 2 + 2?", Options: []string{"3", "4", "5", "22"}, CorrectIndex: 1},
				{ID: "g2", Question: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Jupiter", "Mars", "Mercury"}, CorrectIndex: 2},
				{ID: "g3", Question: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 2},
				{ID: "g4", Question: "What is the largest ocean on Earth?", Options: []string{"Atlantic", "Pacific", "Indian", "Arctic"}, CorrectIndex: 1},
				{ID: "g5", Question: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 1},
				{ID: "g6", Question: "What gas do plants absorb from the air?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, CorrectIndex: 2},
			},
		},
		"science": {
			ID:          "science",
			Name:        "Science",
			Description: "Physics, chemistry and biology basics.",
			Questions: []domain.Question{
				{ID: "s1", Question: "What is the chemical symbol for water?", Options: []string{"H2O", "O2", "CO2", "NaCl"}, CorrectIndex: 0, Explanation: "Two hydrogen atoms and one oxygen atom."},
				{ID: "s2", Question: "What is the speed of light, roughly?", Options: []string{"300 km/s", "3,000 km/s", "300,000 km/s", "3,000,000 km/s"}, CorrectIndex: 2},
				{ID: "s3", Question: "Which organelle produces energy in a cell?", Options: []string{"Nucleus", "Mitochondria", "Ribosome", "Golgi body"}, CorrectIndex: 1},
				{ID: "s4", Question: "What is the atomic number of carbon?", Options: []string{"4", "6", "8", "12"}, CorrectIndex: 1},
				{ID: "s5", Question: "Which force keeps planets in orbit?", Options: []string{"Magnetism", "Friction", "Gravity", "Tension"}, CorrectIndex: 2},
			},
		},
	}
}
