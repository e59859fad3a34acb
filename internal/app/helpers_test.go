package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	to    string
	event domain.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Send(connID string, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{to: connID, event: event})
}

func (n *recordingNotifier) Broadcast(connIDs []string, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range connIDs {
		n.events = append(n.events, sentEvent{to: id, event: event})
	}
}

// received returns the events delivered to connID, in order.
func (n *recordingNotifier) received(connID string) []domain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Event
	for _, e := range n.events {
		if e.to == connID {
			out = append(out, e.event)
		}
	}
	return out
}

func (n *recordingNotifier) types(connID string) []string {
	var out []string
	for _, e := range n.received(connID) {
		out = append(out, e.Type)
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

type sequenceCodes struct {
	codes []string
	next  int
}

func (s *sequenceCodes) Generate() string {
	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code
}

type pendingAction struct {
	after time.Duration
	fn    func()
}

// manualScheduler holds delayed actions until the test fires them.
type manualScheduler struct {
	mu      sync.Mutex
	pending []pendingAction
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingAction{after: d, fn: fn})
}

func (s *manualScheduler) fireAll() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, p := range pending {
		p.fn()
	}
	return len(pending)
}

type recordingProgress struct {
	mu      sync.Mutex
	results []domain.GameResult
}

func (p *recordingProgress) RecordGame(_ context.Context, result domain.GameResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
	return nil
}

func (p *recordingProgress) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results)
}

type harness struct {
	engine   *Engine
	notifier *recordingNotifier
	sched    *manualScheduler
	progress *recordingProgress
	ctx      context.Context
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		notifier: &recordingNotifier{},
		sched:    &manualScheduler{},
		progress: &recordingProgress{},
	}
	opts := Options{
		Notifier:  h.notifier,
		Progress:  h.progress,
		Scheduler: h.sched,
		Logger:    zerolog.Nop(),
		Clock:     func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.engine = NewEngine(opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.engine.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	h.ctx = ctx
	return h
}

// room creates a room hosted by the first id and joins the rest, in order.
func (h *harness) room(t *testing.T, mode domain.Mode, ids ...string) string {
	t.Helper()
	snap, err := h.engine.CreateRoom(h.ctx, ids[0], "name-"+ids[0], mode)
	require.NoError(t, err)
	for _, id := range ids[1:] {
		_, err := h.engine.JoinRoom(h.ctx, snap.Code, id, "name-"+id)
		require.NoError(t, err)
	}
	return snap.Code
}

func (h *harness) start(t *testing.T, code, host string, n int) {
	t.Helper()
	outcome, err := h.engine.StartGame(h.ctx, code, host, sampleQuestions(n), 0)
	require.NoError(t, err)
	require.Equal(t, domain.Applied, outcome)
}

func (h *harness) snapshot(t *testing.T, code string) domain.RoomSnapshot {
	t.Helper()
	snap, err := h.engine.Room(h.ctx, code)
	require.NoError(t, err)
	return snap
}

func sampleQuestions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			ID:           string(rune('a' + i)),
			Question:     "question",
			Options:      []string{"w", "x", "y", "z"},
			CorrectIndex: 1,
		}
	}
	return out
}

func filterTypes(types []string, keep ...string) []string {
	set := make(map[string]bool, len(keep))
	for _, k := range keep {
		set[k] = true
	}
	var out []string
	for _, t := range types {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}
