package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quiz-arena-service/internal/domain"
)

const historyTopic = `
name: History
questions:
  - id: h1
    question: In which year did the Berlin Wall fall?
    options: ["1987", "1989", "1991", "1993"]
    correctIndex: 1
`

func TestFileTopicLoaderDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "history.yaml"), historyTopic)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	loader := NewFileTopicLoader(dir)
	topic, err := loader.LoadTopic(context.Background(), "history")
	if err != nil {
		t.Fatalf("load topic: %v", err)
	}
	if topic.Name != "History" || len(topic.Questions) != 1 || topic.Questions[0].CorrectIndex != 1 {
		t.Fatalf("unexpected topic %+v", topic)
	}

	_, err = loader.LoadTopic(context.Background(), "geography")
	if !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
}

func TestFileTopicLoaderSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	writeFile(t, path, `
- id: a
  name: A
  questions: []
- id: b
  name: B
  questions: []
`)
	topics, err := NewFileTopicLoader(path).ListTopics(context.Background())
	if err != nil {
		t.Fatalf("list topics: %v", err)
	}
	if len(topics) != 2 || topics[0].ID != "a" {
		t.Fatalf("unexpected topics %+v", topics)
	}
}

func TestFileTopicLoaderRejectsBadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	writeFile(t, path, `
- id: broken
  questions:
    - question: pick
      options: ["x", "y"]
      correctIndex: 4
`)
	if _, err := NewFileTopicLoader(path).LoadTopic(context.Background(), "broken"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
