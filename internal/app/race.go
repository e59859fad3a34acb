package app

import (
	"quiz-arena-service/internal/domain"
)

// handleRaceAnswer resolves submissions in arrival order: the first correct
// one wins the round, a wrong one locks that player out until the next round.
func (e *Engine) handleRaceAnswer(connID string, sub domain.RaceSubmission) (domain.Outcome, error) {
	room, ok := e.registry.FindRoom(sub.Code)
	if !ok {
		return domain.Applied, domain.ErrRoomNotFound
	}
	if room.mode != domain.ModeRace {
		return e.ignored(domain.IgnoredWrongMode, "race-answer", sub.Code, connID), nil
	}
	player := room.player(connID)
	if player == nil {
		return e.ignored(domain.IgnoredNotMember, "race-answer", sub.Code, connID), nil
	}
	if room.status != domain.StatusPlaying || room.roundResolved || sub.QuestionIndex != room.currentIndex {
		return e.ignored(domain.IgnoredStale, "race-answer", sub.Code, connID), nil
	}
	if _, failed := room.failed[connID]; failed {
		return e.ignored(domain.IgnoredAlreadyFailed, "race-answer", sub.Code, connID), nil
	}

	if sub.SelectedIndex == sub.CorrectIndex {
		points := RacePoints(sub.ElapsedMs)
		player.Score += points
		room.failed = make(map[string]struct{})
		room.roundResolved = true
		e.broadcast(room, domain.EventRaceRoundWinner, domain.RaceRoundWinnerPayload{
			WinnerID:      connID,
			WinnerName:    player.DisplayName,
			QuestionIndex: room.currentIndex,
			CorrectIndex:  sub.CorrectIndex,
			SelectedIndex: sub.SelectedIndex,
			ElapsedMs:     sub.ElapsedMs,
			Points:        points,
			Players:       room.playersCopy(),
		})
		e.log.Info().Str("room", room.code).Str("winner", connID).Int("question", room.currentIndex).Msg("race round won")
		e.scheduleAdvance(room)
		e.touch(room)
		return domain.Applied, nil
	}

	room.failed[connID] = struct{}{}
	room.correctIndex = sub.CorrectIndex
	e.broadcast(room, domain.EventRaceWrongAnswer, domain.RaceWrongAnswerPayload{
		PlayerID:      connID,
		PlayerName:    player.DisplayName,
		QuestionIndex: room.currentIndex,
		SelectedIndex: sub.SelectedIndex,
	})
	if len(room.failed) == len(room.players) {
		e.resolveNoWinner(room)
	}
	e.touch(room)
	return domain.Applied, nil
}

// resolveNoWinner closes a race round in which every member answered wrong.
func (e *Engine) resolveNoWinner(room *Room) {
	e.broadcast(room, domain.EventRaceRoundNoWinner, domain.RaceNoWinnerPayload{
		QuestionIndex: room.currentIndex,
		CorrectIndex:  room.correctIndex,
	})
	room.failed = make(map[string]struct{})
	room.roundResolved = true
	e.log.Info().Str("room", room.code).Int("question", room.currentIndex).Msg("race round without winner")
	e.scheduleAdvance(room)
}

func (e *Engine) handleRaceAdvance(code, connID string, expected *int) (domain.Outcome, error) {
	room, ok := e.registry.FindRoom(code)
	if !ok {
		return domain.Applied, domain.ErrRoomNotFound
	}
	if !room.isHost(connID) {
		return e.ignored(domain.IgnoredNotHost, "race-next-question", code, connID), nil
	}
	if room.mode != domain.ModeRace {
		return e.ignored(domain.IgnoredWrongMode, "race-next-question", code, connID), nil
	}
	if room.status != domain.StatusPlaying || (expected != nil && *expected != room.currentIndex) {
		return e.ignored(domain.IgnoredStale, "race-next-question", code, connID), nil
	}
	e.advanceRace(room)
	e.touch(room)
	return domain.Applied, nil
}

// scheduleAdvance arms the server-side auto advance, if enabled. The action
// re-validates the room when it fires since the room may have moved on.
func (e *Engine) scheduleAdvance(room *Room) {
	if e.autoAdvance <= 0 {
		return
	}
	code, generation, index := room.code, room.generation, room.currentIndex
	e.schedule(e.autoAdvance, func() {
		e.handleAutoAdvance(code, generation, index)
	})
}

func (e *Engine) handleAutoAdvance(code string, generation, index int) domain.Outcome {
	room, ok := e.registry.FindRoom(code)
	if !ok || room.status != domain.StatusPlaying || room.generation != generation || room.currentIndex != index {
		return e.ignored(domain.IgnoredStale, "auto-advance", code, "")
	}
	e.advanceRace(room)
	e.touch(room)
	return domain.Applied
}

func (e *Engine) advanceRace(room *Room) {
	room.currentIndex++
	room.clearRound()
	if room.currentIndex >= len(room.questions) {
		e.finish(room)
		e.broadcast(room, domain.EventRaceGameOver, domain.RaceGameOverPayload{Players: room.playersCopy()})
		return
	}
	e.broadcast(room, domain.EventRaceQuestionStart, domain.RaceQuestionStartPayload{QuestionIndex: room.currentIndex})
	e.log.Debug().Str("room", room.code).Int("question", room.currentIndex).Msg("race question start")
}
