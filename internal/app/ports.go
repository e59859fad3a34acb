package app

import (
	"context"
	"time"

	"quiz-arena-service/internal/domain"
)

// Notifier delivers events to connections. Implementations must not block:
// the engine calls it from inside the event loop.
type Notifier interface {
	Send(connID string, event domain.Event)
	Broadcast(connIDs []string, event domain.Event)
}

// RoomObserver mirrors room state somewhere outside the process memory.
type RoomObserver interface {
	RoomChanged(ctx context.Context, room domain.RoomSnapshot) error
	RoomClosed(ctx context.Context, code string) error
}

// RoomLister lists mirrored rooms.
type RoomLister interface {
	ListRooms(ctx context.Context) ([]domain.RoomSnapshot, error)
}

// ProgressRecorder consumes finished games for long-term statistics.
type ProgressRecorder interface {
	RecordGame(ctx context.Context, result domain.GameResult) error
}

// ProgressReader returns the statistics of one display name.
type ProgressReader interface {
	GetProgress(ctx context.Context, name string) (domain.Progress, error)
}

// Scheduler runs fn once after d. The engine wraps fn so it executes on the loop.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

type timerScheduler struct{}

func (timerScheduler) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

type nopNotifier struct{}

func (nopNotifier) Send(string, domain.Event)        {}
func (nopNotifier) Broadcast([]string, domain.Event) {}
