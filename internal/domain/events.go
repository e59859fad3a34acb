package domain

// Outbound event names.
const (
	EventConnected          = "connected"
	EventError              = "error"
	EventRoomCreated        = "room-created"
	EventRoomJoined         = "room-joined"
	EventPlayerJoined       = "player-joined"
	EventTopicSelected      = "topic-selected"
	EventGameStarted        = "game-started"
	EventRaceGameStarted    = "race-game-started"
	EventAnswerSubmitted    = "answer-submitted"
	EventRoundResults       = "round-results"
	EventGameOver           = "game-over"
	EventRaceWrongAnswer    = "race-wrong-answer"
	EventRaceRoundWinner    = "race-round-winner"
	EventRaceRoundNoWinner  = "race-round-no-winner"
	EventRaceQuestionStart  = "race-question-start"
	EventRaceGameOver       = "race-game-over"
	EventRematchStarted     = "rematch-started"
	EventPlayerLeft         = "player-left"
	EventPlayerDisconnected = "player-disconnected"
	EventHostChanged        = "host-changed"
)

// Event is one named message on a connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomPayload carries the room to its members. PlayerID is set only on
// room-created and room-joined, addressed to the requester.
type RoomPayload struct {
	Room     RoomSnapshot `json:"room"`
	PlayerID string       `json:"playerId,omitempty"`
}

type TopicSelectedPayload struct {
	TopicID string `json:"topicId"`
}

type GameStartedPayload struct {
	Room      RoomSnapshot `json:"room"`
	Questions []Question   `json:"questions"`
}

type AnswerSubmittedPayload struct {
	PlayerID string `json:"playerId"`
}

type RoundResult struct {
	QuestionIndex int            `json:"questionIndex"`
	CorrectIndex  int            `json:"correctIndex"`
	PlayerAnswers []PlayerAnswer `json:"playerAnswers"`
}

type RoundResultsPayload struct {
	Result  RoundResult   `json:"result"`
	Players []PlayerScore `json:"players"`
}

type GameOverPayload struct {
	Players []PlayerScore `json:"players"`
}

type RaceWrongAnswerPayload struct {
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	QuestionIndex int    `json:"questionIndex"`
	SelectedIndex int    `json:"selectedIndex"`
}

type RaceRoundWinnerPayload struct {
	WinnerID      string   `json:"winnerId"`
	WinnerName    string   `json:"winnerName"`
	QuestionIndex int      `json:"questionIndex"`
	CorrectIndex  int      `json:"correctIndex"`
	SelectedIndex int      `json:"selectedIndex"`
	ElapsedMs     int      `json:"timeMs"`
	Points        int      `json:"points"`
	Players       []Player `json:"players"`
}

type RaceNoWinnerPayload struct {
	QuestionIndex int `json:"questionIndex"`
	CorrectIndex  int `json:"correctIndex"`
}

type RaceQuestionStartPayload struct {
	QuestionIndex int `json:"questionIndex"`
}

type RaceGameOverPayload struct {
	Players []Player `json:"players"`
}

type PlayerLeftPayload struct {
	PlayerName string       `json:"playerName"`
	Room       RoomSnapshot `json:"room"`
}

type PlayerDisconnectedPayload struct {
	PlayerID string `json:"playerId"`
}

type HostChangedPayload struct {
	NewHostID string `json:"newHostId"`
}
