package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no active room has the requested code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would exceed MaxPlayers.
	ErrRoomFull = errors.New("room is full")
	// ErrAlreadyStarted is returned when a join or start hits a room that is not waiting.
	ErrAlreadyStarted = errors.New("game already in progress")
	// ErrNoQuestions is returned when a game is started without questions.
	ErrNoQuestions = errors.New("no questions to play")
	// ErrTopicNotFound indicates the content catalog has no such topic.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrInvalidMode is returned for an unknown game mode.
	ErrInvalidMode = errors.New("invalid game mode")
	// ErrInvalidName is returned for an empty or overlong display name.
	ErrInvalidName = errors.New("invalid player name")
	// ErrEngineStopped is returned once the event loop is no longer running.
	ErrEngineStopped = errors.New("engine stopped")
)
