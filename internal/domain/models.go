package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the competitive rule a room plays under. It is fixed at creation.
type Mode string

const (
	ModeDuel Mode = "duel"
	ModeRace Mode = "race"
)

// ParseMode maps the wire value to a Mode. An empty value means duel.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeDuel:
		return ModeDuel, nil
	case ModeRace:
		return ModeRace, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
}

// RoomStatus is the lifecycle phase of a room.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

const (
	// MaxPlayers is the room capacity.
	MaxPlayers = 4
	// CodeLength is the number of characters in a room code.
	CodeLength = 4
	// CodeAlphabet leaves out I, O, 0 and 1.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// NoAnswer is the selected index a client submits when its countdown expired.
	NoAnswer = -1
	// MaxNameLength bounds display names, in runes.
	MaxNameLength = 32
)

// Player is a room member. Score never decreases within a game.
type Player struct {
	ConnectionID string `json:"id"`
	DisplayName  string `json:"name"`
	Score        int    `json:"score"`
	Ready        bool   `json:"ready"`
}

// PlayerAnswer is one duel submission for the current round.
type PlayerAnswer struct {
	ConnectionID  string `json:"playerId"`
	DisplayName   string `json:"playerName"`
	SelectedIndex int    `json:"selectedIndex"`
	IsCorrect     bool   `json:"isCorrect"`
	ElapsedMs     int    `json:"timeMs"`
	Points        int    `json:"points"`
}

// PlayerScore is the score view sent with round results and game over.
type PlayerScore struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Question is one multiple-choice record from the content catalog.
type Question struct {
	ID           string   `json:"id" yaml:"id"`
	Question     string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Topic groups the questions of one subject.
type Topic struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// RoomSnapshot is an immutable copy of a room, safe to hand to other goroutines.
type RoomSnapshot struct {
	Code            string     `json:"code"`
	HostID          string     `json:"hostId"`
	Players         []Player   `json:"players"`
	TopicID         string     `json:"topicId,omitempty"`
	Status          RoomStatus `json:"status"`
	Mode            Mode       `json:"gameMode"`
	CurrentQuestion int        `json:"currentQuestion"`
	QuestionCount   int        `json:"questionCount"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Open reports whether the room still accepts joins.
func (s RoomSnapshot) Open() bool {
	return s.Status == StatusWaiting && len(s.Players) < MaxPlayers
}

// DuelSubmission is the submit-answer payload.
type DuelSubmission struct {
	Code          string
	QuestionIndex int
	SelectedIndex int
	CorrectIndex  int
	ElapsedMs     int
	IsCorrect     bool
	Points        int
}

// RaceSubmission is the race-answer payload.
type RaceSubmission struct {
	Code          string
	QuestionIndex int
	SelectedIndex int
	CorrectIndex  int
	ElapsedMs     int
}

// PlayerResult is one line of a finished game.
type PlayerResult struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Won   bool   `json:"won"`
}

// GameResult is handed to the progress store when a game finishes.
type GameResult struct {
	RoomCode   string         `json:"roomCode"`
	Mode       Mode           `json:"mode"`
	Players    []PlayerResult `json:"players"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Progress holds the long-term multiplayer statistics of one display name.
type Progress struct {
	Name       string    `json:"name"`
	DuelPlayed int       `json:"duelPlayed"`
	DuelWon    int       `json:"duelWon"`
	RacePlayed int       `json:"racePlayed"`
	RaceWon    int       `json:"raceWon"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Apply counts one finished game for this player.
func (p *Progress) Apply(mode Mode, result PlayerResult, at time.Time) {
	won := 0
	if result.Won {
		won = 1
	}
	switch mode {
	case ModeRace:
		p.RacePlayed++
		p.RaceWon += won
	default:
		p.DuelPlayed++
		p.DuelWon += won
	}
	p.UpdatedAt = at
}

// ProgressKey normalizes a display name into a storage key:
// lower case, anything outside [a-z0-9-_] replaced by '_', at most 50 bytes.
func ProgressKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 50 {
			break
		}
	}
	return b.String()
}
