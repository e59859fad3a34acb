package app

import (
	"quiz-arena-service/internal/domain"
)

// handleDuelAnswer records one private answer. The round closes once every
// current member has answered; points are taken as submitted.
func (e *Engine) handleDuelAnswer(connID string, sub domain.DuelSubmission) (domain.Outcome, error) {
	room, ok := e.registry.FindRoom(sub.Code)
	if !ok {
		return domain.Applied, domain.ErrRoomNotFound
	}
	if room.mode != domain.ModeDuel {
		return e.ignored(domain.IgnoredWrongMode, "submit-answer", sub.Code, connID), nil
	}
	player := room.player(connID)
	if player == nil {
		return e.ignored(domain.IgnoredNotMember, "submit-answer", sub.Code, connID), nil
	}
	if room.status != domain.StatusPlaying || sub.QuestionIndex != room.currentIndex {
		return e.ignored(domain.IgnoredStale, "submit-answer", sub.Code, connID), nil
	}

	points := sub.Points
	if points < 0 {
		points = 0
	}
	outcome := domain.Applied
	if _, dup := room.roundAnswers[connID]; dup {
		outcome = domain.Overwritten
	}
	room.roundAnswers[connID] = domain.PlayerAnswer{
		ConnectionID:  connID,
		DisplayName:   player.DisplayName,
		SelectedIndex: sub.SelectedIndex,
		IsCorrect:     sub.IsCorrect,
		ElapsedMs:     sub.ElapsedMs,
		Points:        points,
	}
	room.correctIndex = sub.CorrectIndex
	player.Score += points

	e.broadcast(room, domain.EventAnswerSubmitted, domain.AnswerSubmittedPayload{PlayerID: connID})
	e.log.Debug().Str("room", room.code).Str("conn", connID).
		Int("answered", len(room.roundAnswers)).Int("players", len(room.players)).Msg("duel answer")

	if len(room.roundAnswers) == len(room.players) {
		e.closeDuelRound(room)
	}
	e.touch(room)
	return outcome, nil
}

// closeDuelRound reveals every answer, advances by one question and ends the
// game after the last one.
func (e *Engine) closeDuelRound(room *Room) {
	answers := make([]domain.PlayerAnswer, 0, len(room.roundAnswers))
	for _, p := range room.players {
		if answer, ok := room.roundAnswers[p.ConnectionID]; ok {
			answers = append(answers, answer)
		}
	}
	e.broadcast(room, domain.EventRoundResults, domain.RoundResultsPayload{
		Result: domain.RoundResult{
			QuestionIndex: room.currentIndex,
			CorrectIndex:  room.correctIndex,
			PlayerAnswers: answers,
		},
		Players: room.scores(),
	})

	room.clearRound()
	room.currentIndex++
	if room.currentIndex >= len(room.questions) {
		e.finish(room)
		e.broadcast(room, domain.EventGameOver, domain.GameOverPayload{Players: room.scores()})
	}
}
