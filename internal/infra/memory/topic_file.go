package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"quiz-arena-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// FileTopicLoader reads topics from YAML. path is either a single file with
// a list of topics or a directory of *.yaml / *.yml files, one topic each.
type FileTopicLoader struct {
	path string

	once   sync.Once
	topics map[string]domain.Topic
	err    error
}

func NewFileTopicLoader(path string) *FileTopicLoader {
	return &FileTopicLoader{path: path}
}

func (l *FileTopicLoader) LoadTopic(_ context.Context, topicID string) (domain.Topic, error) {
	if err := l.load(); err != nil {
		return domain.Topic{}, err
	}
	topic, ok := l.topics[topicID]
	if !ok {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	return topic, nil
}

func (l *FileTopicLoader) ListTopics(context.Context) ([]domain.Topic, error) {
	if err := l.load(); err != nil {
		return nil, err
	}
	return sortedTopics(l.topics), nil
}

func (l *FileTopicLoader) load() error {
	l.once.Do(func() {
		l.topics, l.err = readTopics(l.path)
	})
	return l.err
}

func readTopics(path string) (map[string]domain.Topic, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}

	topics := make(map[string]domain.Topic)
	if !info.IsDir() {
		var list []domain.Topic
		if err := decodeFile(path, &list); err != nil {
			return nil, err
		}
		for _, t := range list {
			if err := addTopic(topics, t, path); err != nil {
				return nil, err
			}
		}
		return topics, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		file := filepath.Join(path, entry.Name())
		var t domain.Topic
		if err := decodeFile(file, &t); err != nil {
			return nil, err
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		if err := addTopic(topics, t, file); err != nil {
			return nil, err
		}
	}
	return topics, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("topics: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("topics: parse %s: %w", path, err)
	}
	return nil
}

func addTopic(topics map[string]domain.Topic, t domain.Topic, source string) error {
	if t.ID == "" {
		return fmt.Errorf("topics: %s: topic without id", source)
	}
	if _, dup := topics[t.ID]; dup {
		return fmt.Errorf("topics: %s: duplicate topic %q", source, t.ID)
	}
	for i, q := range t.Questions {
		if len(q.Options) < 2 || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("topics: %s: topic %q question %d has an invalid correctIndex", source, t.ID, i)
		}
	}
	topics[t.ID] = t
	return nil
}
