package app

import (
	"time"

	"quiz-arena-service/internal/domain"
)

// Room is the mutable session state. It is only touched from the engine loop.
type Room struct {
	code    string
	hostID  string
	players []*domain.Player
	mode    domain.Mode
	status  domain.RoomStatus
	topicID string
	updated time.Time

	questions    []domain.Question
	currentIndex int

	// duel round state
	roundAnswers map[string]domain.PlayerAnswer
	correctIndex int

	// race round state
	failed        map[string]struct{}
	roundResolved bool

	// generation changes on every start and rematch so delayed actions
	// scheduled for an earlier game can tell they are stale.
	generation int
}

func newRoom(code string, host *domain.Player, mode domain.Mode, now time.Time) *Room {
	room := &Room{
		code:         code,
		hostID:       host.ConnectionID,
		players:      make([]*domain.Player, 0, domain.MaxPlayers),
		mode:         mode,
		status:       domain.StatusWaiting,
		updated:      now,
		roundAnswers: make(map[string]domain.PlayerAnswer),
		correctIndex: -1,
		failed:       make(map[string]struct{}),
	}
	room.players = append(room.players, host)
	return room
}

func (r *Room) player(connID string) *domain.Player {
	for _, p := range r.players {
		if p.ConnectionID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) isHost(connID string) bool {
	return r.hostID == connID
}

func (r *Room) full() bool {
	return len(r.players) >= domain.MaxPlayers
}

// removePlayer drops a member and keeps join order for the rest.
func (r *Room) removePlayer(connID string) *domain.Player {
	for i, p := range r.players {
		if p.ConnectionID == connID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return p
		}
	}
	return nil
}

func (r *Room) memberIDs() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.ConnectionID)
	}
	return ids
}

func (r *Room) resetScores() {
	for _, p := range r.players {
		p.Score = 0
	}
}

func (r *Room) clearRound() {
	r.roundAnswers = make(map[string]domain.PlayerAnswer)
	r.failed = make(map[string]struct{})
	r.roundResolved = false
	r.correctIndex = -1
}

func (r *Room) scores() []domain.PlayerScore {
	out := make([]domain.PlayerScore, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, domain.PlayerScore{ID: p.ConnectionID, Name: p.DisplayName, Score: p.Score})
	}
	return out
}

func (r *Room) playersCopy() []domain.Player {
	out := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	return out
}

func (r *Room) snapshot() domain.RoomSnapshot {
	return domain.RoomSnapshot{
		Code:            r.code,
		HostID:          r.hostID,
		Players:         r.playersCopy(),
		TopicID:         r.topicID,
		Status:          r.status,
		Mode:            r.mode,
		CurrentQuestion: r.currentIndex,
		QuestionCount:   len(r.questions),
		UpdatedAt:       r.updated,
	}
}

// result summarizes a finished game. A player wins when they hold the top score and it is above zero.
func (r *Room) result(now time.Time) domain.GameResult {
	top := 0
	for _, p := range r.players {
		if p.Score > top {
			top = p.Score
		}
	}
	res := domain.GameResult{RoomCode: r.code, Mode: r.mode, FinishedAt: now}
	for _, p := range r.players {
		res.Players = append(res.Players, domain.PlayerResult{
			Name:  p.DisplayName,
			Score: p.Score,
			Won:   top > 0 && p.Score == top,
		})
	}
	return res
}
