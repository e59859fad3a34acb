package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"quiz-arena-service/internal/domain"

	"github.com/rs/zerolog"
)

const (
	commandBuffer = 256
	asyncBuffer   = 256
	asyncTimeout  = 5 * time.Second
	// asyncWait bounds how long the loop blocks on a full async queue.
	asyncWait = time.Second
)

// Command states for exec. A queued command runs only if it moves from
// pending to running before its caller gives up.
const (
	cmdPending int32 = iota
	cmdRunning
	cmdAbandoned
)

// Options wires the engine to its collaborators. Nil fields get no-op defaults.
type Options struct {
	Notifier  Notifier
	Observer  RoomObserver
	Progress  ProgressRecorder
	Catalog   *Catalog
	Codes     CodeGenerator
	Scheduler Scheduler
	Clock     func() time.Time
	Logger    zerolog.Logger

	// RaceAutoAdvance, when positive, makes the server advance a race round
	// this long after its winner or no-winner event.
	RaceAutoAdvance time.Duration
}

// Engine is the authoritative game server. Every room mutation runs as a
// command on a single goroutine, one at a time, in arrival order.
type Engine struct {
	registry    *Registry
	notifier    Notifier
	observer    RoomObserver
	progress    ProgressRecorder
	catalog     *Catalog
	scheduler   Scheduler
	now         func() time.Time
	log         zerolog.Logger
	autoAdvance time.Duration

	commands chan func()
	async    chan func(context.Context)

	runOnce sync.Once
	stopped chan struct{}
}

func NewEngine(opts Options) *Engine {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timerScheduler{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		registry:    NewRegistry(opts.Codes),
		notifier:    opts.Notifier,
		observer:    opts.Observer,
		progress:    opts.Progress,
		catalog:     opts.Catalog,
		scheduler:   opts.Scheduler,
		now:         opts.Clock,
		log:         opts.Logger,
		autoAdvance: opts.RaceAutoAdvance,
		commands:    make(chan func(), commandBuffer),
		async:       make(chan func(context.Context), asyncBuffer),
		stopped:     make(chan struct{}),
	}
}

// Run processes commands until ctx is canceled. It must be called once.
func (e *Engine) Run(ctx context.Context) error {
	started := false
	e.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("engine already running")
	}
	defer close(e.stopped)

	asyncDone := make(chan struct{})
	quit := make(chan struct{})
	go e.asyncWorker(ctx, quit, asyncDone)
	defer func() {
		close(quit)
		<-asyncDone
	}()

	e.log.Info().Msg("engine started")
	for {
		select {
		case cmd := <-e.commands:
			cmd()
		case <-ctx.Done():
			e.log.Info().Int("rooms", e.registry.Len()).Msg("engine stopped")
			return nil
		}
	}
}

// asyncWorker runs observer and progress I/O in order, off the loop. Once
// the loop has stopped it drains whatever is still queued.
func (e *Engine) asyncWorker(ctx context.Context, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	base := context.WithoutCancel(ctx)
	run := func(job func(context.Context)) {
		jobCtx, cancel := context.WithTimeout(base, asyncTimeout)
		defer cancel()
		job(jobCtx)
	}
	for {
		select {
		case job := <-e.async:
			run(job)
		case <-quit:
			for {
				select {
				case job := <-e.async:
					run(job)
				default:
					return
				}
			}
		}
	}
}

// exec runs fn on the loop and waits for it to finish. An error means fn
// did not run: a command that has started always completes and returns nil.
func (e *Engine) exec(ctx context.Context, fn func()) error {
	var state atomic.Int32
	done := make(chan struct{})
	wrapped := func() {
		if !state.CompareAndSwap(cmdPending, cmdRunning) {
			return
		}
		defer close(done)
		fn()
	}
	select {
	case e.commands <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return domain.ErrEngineStopped
	}

	var err error
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		err = ctx.Err()
	case <-e.stopped:
		err = domain.ErrEngineStopped
	}
	if state.CompareAndSwap(cmdPending, cmdAbandoned) {
		return err
	}
	<-done
	return nil
}

// post queues fn on the loop without waiting. Used by delayed actions.
func (e *Engine) post(fn func()) {
	select {
	case e.commands <- fn:
	case <-e.stopped:
	}
}

// enqueueAsync hands job to the async worker. A full queue stalls the loop
// for up to asyncWait before the job is dropped.
func (e *Engine) enqueueAsync(job func(context.Context)) {
	select {
	case e.async <- job:
		return
	default:
	}
	timer := time.NewTimer(asyncWait)
	defer timer.Stop()
	select {
	case e.async <- job:
	case <-timer.C:
		e.log.Error().Int("queued", len(e.async)).Msg("async queue full, dropping job")
	}
}

// schedule runs fn on the loop after d.
func (e *Engine) schedule(d time.Duration, fn func()) {
	e.scheduler.Schedule(d, func() { e.post(fn) })
}

func (e *Engine) send(connID, eventType string, payload any) {
	e.notifier.Send(connID, domain.Event{Type: eventType, Payload: payload})
}

func (e *Engine) broadcast(room *Room, eventType string, payload any) {
	e.notifier.Broadcast(room.memberIDs(), domain.Event{Type: eventType, Payload: payload})
}

// touch stamps the room and mirrors it to the observer.
func (e *Engine) touch(room *Room) {
	room.updated = e.now()
	if e.observer == nil {
		return
	}
	snap := room.snapshot()
	e.enqueueAsync(func(ctx context.Context) {
		if err := e.observer.RoomChanged(ctx, snap); err != nil {
			e.log.Warn().Err(err).Str("room", snap.Code).Msg("mirror room")
		}
	})
}

func (e *Engine) closed(code string) {
	if e.observer == nil {
		return
	}
	e.enqueueAsync(func(ctx context.Context) {
		if err := e.observer.RoomClosed(ctx, code); err != nil {
			e.log.Warn().Err(err).Str("room", code).Msg("remove mirrored room")
		}
	})
}

func (e *Engine) recordGame(room *Room) {
	if e.progress == nil {
		return
	}
	result := room.result(e.now())
	e.enqueueAsync(func(ctx context.Context) {
		if err := e.progress.RecordGame(ctx, result); err != nil {
			e.log.Warn().Err(err).Str("room", result.RoomCode).Msg("record game")
		}
	})
}

func (e *Engine) ignored(outcome domain.Outcome, op, code, connID string) domain.Outcome {
	e.log.Debug().Str("op", op).Str("room", code).Str("conn", connID).Stringer("outcome", outcome).Msg("request ignored")
	return outcome
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxNameLength {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

// CreateRoom opens a new waiting room with connID as host.
func (e *Engine) CreateRoom(ctx context.Context, connID, displayName string, mode domain.Mode) (domain.RoomSnapshot, error) {
	name, err := normalizeName(displayName)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	if mode != domain.ModeDuel && mode != domain.ModeRace {
		return domain.RoomSnapshot{}, domain.ErrInvalidMode
	}
	var snap domain.RoomSnapshot
	err = e.exec(ctx, func() { snap = e.handleCreate(connID, name, mode) })
	return snap, err
}

// JoinRoom admits connID into the room with the given code.
func (e *Engine) JoinRoom(ctx context.Context, code, connID, displayName string) (domain.RoomSnapshot, error) {
	name, err := normalizeName(displayName)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	var (
		snap    domain.RoomSnapshot
		joinErr error
	)
	if err := e.exec(ctx, func() { snap, joinErr = e.handleJoin(normalizeCode(code), connID, name) }); err != nil {
		return domain.RoomSnapshot{}, err
	}
	return snap, joinErr
}

// Leave removes connID from its room, if any. Disconnects call this too.
func (e *Engine) Leave(ctx context.Context, connID string) (domain.Outcome, error) {
	var outcome domain.Outcome
	err := e.exec(ctx, func() { outcome = e.handleLeave(connID) })
	return outcome, err
}

func (e *Engine) SelectTopic(ctx context.Context, code, connID, topicID string) (domain.Outcome, error) {
	return e.execOutcome(ctx, func() (domain.Outcome, error) {
		return e.handleSelectTopic(normalizeCode(code), connID, topicID)
	})
}

// StartGame starts the room's game. With no questions given, count questions
// are drawn from the catalog for the room's selected topic.
func (e *Engine) StartGame(ctx context.Context, code, connID string, questions []domain.Question, count int) (domain.Outcome, error) {
	code = normalizeCode(code)
	if len(questions) == 0 && e.catalog != nil {
		snap, err := e.Room(ctx, code)
		if err != nil {
			return domain.Applied, err
		}
		if snap.HostID != connID {
			return e.ignored(domain.IgnoredNotHost, "start-game", code, connID), nil
		}
		if snap.TopicID == "" {
			return domain.Applied, domain.ErrTopicNotFound
		}
		questions, err = e.catalog.Questions(ctx, snap.TopicID, count)
		if err != nil {
			return domain.Applied, err
		}
	}
	return e.execOutcome(ctx, func() (domain.Outcome, error) {
		return e.handleStart(code, connID, questions)
	})
}

func (e *Engine) SubmitAnswer(ctx context.Context, connID string, sub domain.DuelSubmission) (domain.Outcome, error) {
	sub.Code = normalizeCode(sub.Code)
	return e.execOutcome(ctx, func() (domain.Outcome, error) {
		return e.handleDuelAnswer(connID, sub)
	})
}

func (e *Engine) SubmitRaceAnswer(ctx context.Context, connID string, sub domain.RaceSubmission) (domain.Outcome, error) {
	sub.Code = normalizeCode(sub.Code)
	return e.execOutcome(ctx, func() (domain.Outcome, error) {
		return e.handleRaceAnswer(connID, sub)
	})
}

// AdvanceRaceQuestion moves a race room to its next question. When expected
// is set the request only applies if it still matches the current index.
func (e *Engine) AdvanceRaceQuestion(ctx context.Context, code, connID string, expected *int) (domain.Outcome, error) {
	return e.execOutcome(ctx, func() (domain.Outcome, error) {
		return e.handleRaceAdvance(normalizeCode(code), connID, expected)
	})
}

func (e *Engine) RequestRematch(ctx context.Context, code, connID string) (domain.Outcome, error) {
	return e.execOutcome(ctx, func() (domain.Outcome, error) {
		return e.handleRematch(normalizeCode(code), connID)
	})
}

// Room returns a snapshot of an active room.
func (e *Engine) Room(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	var (
		snap  domain.RoomSnapshot
		found bool
	)
	if err := e.exec(ctx, func() {
		if room, ok := e.registry.FindRoom(normalizeCode(code)); ok {
			snap, found = room.snapshot(), true
		}
	}); err != nil {
		return domain.RoomSnapshot{}, err
	}
	if !found {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return snap, nil
}

func (e *Engine) execOutcome(ctx context.Context, fn func() (domain.Outcome, error)) (domain.Outcome, error) {
	var (
		outcome domain.Outcome
		opErr   error
	)
	if err := e.exec(ctx, func() { outcome, opErr = fn() }); err != nil {
		return domain.Applied, err
	}
	return outcome, opErr
}
