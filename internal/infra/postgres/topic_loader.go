package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-arena-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// TopicLoader loads topic JSONB from Postgres.
type TopicLoader struct {
	pool *pgxpool.Pool
}

func NewTopicLoader(pool *pgxpool.Pool) *TopicLoader {
	return &TopicLoader{pool: pool}
}

func (l *TopicLoader) LoadTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM topics WHERE id=$1`, topicID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("load topic: %w", err)
	}
	return decodeTopic(topicID, raw)
}

func (l *TopicLoader) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM topics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topic, err := decodeTopic(id, raw)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// SaveTopic upserts a topic document. Used by seeding and tests.
func (l *TopicLoader) SaveTopic(ctx context.Context, topic domain.Topic) error {
	raw, err := json.Marshal(topic)
	if err != nil {
		return fmt.Errorf("marshal topic: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
INSERT INTO topics (id, data) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, topic.ID, raw)
	if err != nil {
		return fmt.Errorf("save topic: %w", err)
	}
	return nil
}

func decodeTopic(id string, raw []byte) (domain.Topic, error) {
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return domain.Topic{}, fmt.Errorf("unmarshal topic: %w", err)
	}
	if topic.ID == "" {
		topic.ID = id
	}
	return topic, nil
}
