package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-arena-service/internal/domain"
)

// RoomIndex keeps the latest snapshot of every live room for listing.
type RoomIndex struct {
	mu    sync.RWMutex
	rooms map[string]domain.RoomSnapshot
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{rooms: make(map[string]domain.RoomSnapshot)}
}

func (i *RoomIndex) RoomChanged(_ context.Context, room domain.RoomSnapshot) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.rooms[room.Code] = room
	return nil
}

func (i *RoomIndex) RoomClosed(_ context.Context, code string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.rooms, code)
	return nil
}

// ListRooms returns rooms that still accept players, oldest update first.
func (i *RoomIndex) ListRooms(context.Context) ([]domain.RoomSnapshot, error) {
	i.mu.RLock()
	out := make([]domain.RoomSnapshot, 0, len(i.rooms))
	for _, room := range i.rooms {
		if room.Open() {
			out = append(out, room)
		}
	}
	i.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool {
		if out[a].UpdatedAt.Equal(out[b].UpdatedAt) {
			return out[a].Code < out[b].Code
		}
		return out[a].UpdatedAt.Before(out[b].UpdatedAt)
	})
	return out, nil
}
