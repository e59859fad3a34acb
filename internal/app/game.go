package app

import (
	"quiz-arena-service/internal/domain"
)

func (e *Engine) handleStart(code, connID string, questions []domain.Question) (domain.Outcome, error) {
	room, ok := e.registry.FindRoom(code)
	if !ok {
		return domain.Applied, domain.ErrRoomNotFound
	}
	if !room.isHost(connID) {
		return e.ignored(domain.IgnoredNotHost, "start-game", code, connID), nil
	}
	if room.status != domain.StatusWaiting {
		return domain.Applied, domain.ErrAlreadyStarted
	}
	if len(questions) == 0 {
		return domain.Applied, domain.ErrNoQuestions
	}

	room.status = domain.StatusPlaying
	room.questions = append([]domain.Question(nil), questions...)
	room.currentIndex = 0
	room.clearRound()
	room.resetScores()
	room.generation++
	e.touch(room)

	event := domain.EventGameStarted
	if room.mode == domain.ModeRace {
		event = domain.EventRaceGameStarted
	}
	e.broadcast(room, event, domain.GameStartedPayload{Room: room.snapshot(), Questions: room.questions})
	e.log.Info().Str("room", code).Str("mode", string(room.mode)).Int("questions", len(questions)).Msg("game started")
	return domain.Applied, nil
}

// finish ends the game and reports it to the progress store.
func (e *Engine) finish(room *Room) {
	room.status = domain.StatusFinished
	e.recordGame(room)
	e.log.Info().Str("room", room.code).Str("mode", string(room.mode)).Msg("game over")
}
