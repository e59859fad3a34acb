package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const roomSetKey = "arena:rooms"

// RoomIndex mirrors room snapshots into Redis so other processes (or an
// operator) can see which rooms are live. Each room is a JSON value under
// arena:room:{code} with a TTL refreshed on every change; arena:rooms holds
// the codes and is pruned lazily when a room key has expired.
type RoomIndex struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomIndex(client *redis.Client, ttl time.Duration) *RoomIndex {
	return &RoomIndex{client: client, ttl: ttl}
}

func (i *RoomIndex) RoomChanged(ctx context.Context, room domain.RoomSnapshot) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	pipe := i.client.TxPipeline()
	pipe.Set(ctx, i.key(room.Code), raw, i.ttl)
	pipe.SAdd(ctx, roomSetKey, room.Code)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror room %s: %w", room.Code, err)
	}
	return nil
}

func (i *RoomIndex) RoomClosed(ctx context.Context, code string) error {
	pipe := i.client.TxPipeline()
	pipe.Del(ctx, i.key(code))
	pipe.SRem(ctx, roomSetKey, code)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove room %s: %w", code, err)
	}
	return nil
}

// ListRooms returns mirrored rooms that still accept players.
func (i *RoomIndex) ListRooms(ctx context.Context) ([]domain.RoomSnapshot, error) {
	codes, err := i.client.SMembers(ctx, roomSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if len(codes) == 0 {
		return nil, nil
	}
	keys := make([]string, len(codes))
	for n, code := range codes {
		keys[n] = i.key(code)
	}
	values, err := i.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	var (
		out   []domain.RoomSnapshot
		stale []interface{}
	)
	for n, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, codes[n])
			continue
		}
		var room domain.RoomSnapshot
		if err := json.Unmarshal([]byte(s), &room); err != nil {
			continue
		}
		if room.Open() {
			out = append(out, room)
		}
	}
	if len(stale) > 0 {
		_ = i.client.SRem(ctx, roomSetKey, stale...).Err()
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Code < out[b].Code })
	return out, nil
}

func (i *RoomIndex) key(code string) string {
	return "arena:room:" + code
}
