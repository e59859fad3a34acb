package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
	requestTimeout = 5 * time.Second
)

// GameService is the part of the engine the websocket layer drives.
type GameService interface {
	CreateRoom(ctx context.Context, connID, displayName string, mode domain.Mode) (domain.RoomSnapshot, error)
	JoinRoom(ctx context.Context, code, connID, displayName string) (domain.RoomSnapshot, error)
	Leave(ctx context.Context, connID string) (domain.Outcome, error)
	SelectTopic(ctx context.Context, code, connID, topicID string) (domain.Outcome, error)
	StartGame(ctx context.Context, code, connID string, questions []domain.Question, count int) (domain.Outcome, error)
	SubmitAnswer(ctx context.Context, connID string, sub domain.DuelSubmission) (domain.Outcome, error)
	SubmitRaceAnswer(ctx context.Context, connID string, sub domain.RaceSubmission) (domain.Outcome, error)
	AdvanceRaceQuestion(ctx context.Context, code, connID string, expected *int) (domain.Outcome, error)
	RequestRematch(ctx context.Context, code, connID string) (domain.Outcome, error)
}

// WSOptions tunes per-connection limits. Zero values get defaults.
type WSOptions struct {
	RateLimit    float64
	Burst        int
	PingInterval time.Duration
}

type WSHandler struct {
	service  GameService
	hub      *Hub
	log      zerolog.Logger
	opts     WSOptions
	upgrader websocket.Upgrader
}

func NewWSHandler(service GameService, hub *Hub, log zerolog.Logger, opts WSOptions) *WSHandler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 40
	}
	return &WSHandler{
		service: service,
		hub:     hub,
		log:     log,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound payloads accept both the browser client's field names and the
// longer aliases.
type createRoomPayload struct {
	PlayerName  string `json:"playerName"`
	DisplayName string `json:"displayName"`
	GameMode    string `json:"gameMode"`
	Mode        string `json:"mode"`
}

type joinRoomPayload struct {
	Code        string `json:"code"`
	PlayerName  string `json:"playerName"`
	DisplayName string `json:"displayName"`
}

type codePayload struct {
	Code string `json:"code"`
}

type selectTopicPayload struct {
	Code    string `json:"code"`
	TopicID string `json:"topicId"`
}

type startGamePayload struct {
	Code      string            `json:"code"`
	Questions []domain.Question `json:"questions"`
	Count     int               `json:"count"`
}

type answerPayload struct {
	Code          string `json:"code"`
	QuestionIndex int    `json:"questionIndex"`
	SelectedIndex *int   `json:"selectedIndex"`
	CorrectIndex  int    `json:"correctIndex"`
	TimeMs        int    `json:"timeMs"`
	ElapsedMs     int    `json:"elapsedMs"`
	IsCorrect     bool   `json:"isCorrect"`
	Points        int    `json:"points"`
}

// selected treats a missing selectedIndex as no answer.
func (p answerPayload) selected() int {
	if p.SelectedIndex == nil {
		return domain.NoAnswer
	}
	return *p.SelectedIndex
}

func (p answerPayload) elapsed() int {
	if p.ElapsedMs != 0 {
		return p.ElapsedMs
	}
	return p.TimeMs
}

type nextQuestionPayload struct {
	Code          string `json:"code"`
	QuestionIndex *int   `json:"questionIndex"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var errBadPayload = errors.New("invalid payload")

// ServeWS upgrades HTTP requests to websockets and feeds their events into the engine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	defaultName := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	c := newClient(uuid.NewString())
	h.hub.register(c)
	log := h.log.With().Str("conn", c.id).Logger()
	log.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	writerDone := make(chan struct{})
	go h.writePump(conn, c, writerDone)

	h.hub.Send(c.id, domain.Event{Type: domain.EventConnected, Payload: domain.ConnectedPayload{ConnectionID: c.id}})
	h.readPump(conn, c, defaultName, log)

	// disconnect counts as leaving whatever room the connection was in
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	if _, err := h.service.Leave(ctx, c.id); err != nil {
		log.Warn().Err(err).Msg("leave on disconnect")
	}
	cancel()

	h.hub.unregister(c)
	c.close()
	<-writerDone
	log.Info().Msg("client disconnected")
}

func (h *WSHandler) readPump(conn *websocket.Conn, c *client, defaultName string, log zerolog.Logger) {
	limit := rate.Limit(h.opts.RateLimit)
	if h.opts.RateLimit < 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, h.opts.Burst)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.opts.PingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.opts.PingInterval))
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("ws read")
			}
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
		if !limiter.Allow() {
			h.sendError(c, "rate limited")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		err := h.dispatch(ctx, c.id, defaultName, inbound)
		cancel()
		if err != nil {
			log.Debug().Err(err).Str("event", inbound.Type).Msg("request failed")
			h.sendError(c, err.Error())
		}
	}
}

// writePump is the only writer on conn.
func (h *WSHandler) writePump(conn *websocket.Conn, c *client, done chan<- struct{}) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug().Err(err).Str("conn", c.id).Msg("ws write")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (h *WSHandler) sendError(c *client, message string) {
	h.hub.Send(c.id, domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{Message: message}})
}

// dispatch maps one inbound event to an engine call. Ignored outcomes are
// already logged by the engine and produce nothing on the wire.
func (h *WSHandler) dispatch(ctx context.Context, connID, defaultName string, msg inboundMessage) error {
	switch msg.Type {
	case "create-room":
		var p createRoomPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		mode, err := domain.ParseMode(firstNonEmpty(p.GameMode, p.Mode))
		if err != nil {
			return err
		}
		_, err = h.service.CreateRoom(ctx, connID, firstNonEmpty(p.PlayerName, p.DisplayName, defaultName), mode)
		return err

	case "join-room":
		var p joinRoomPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.service.JoinRoom(ctx, p.Code, connID, firstNonEmpty(p.PlayerName, p.DisplayName, defaultName))
		return err

	case "leave-room":
		_, err := h.service.Leave(ctx, connID)
		return err

	case "select-topic":
		var p selectTopicPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.service.SelectTopic(ctx, p.Code, connID, p.TopicID)
		return err

	case "start-game":
		var p startGamePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.service.StartGame(ctx, p.Code, connID, p.Questions, p.Count)
		return err

	case "submit-answer":
		var p answerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.service.SubmitAnswer(ctx, connID, domain.DuelSubmission{
			Code:          p.Code,
			QuestionIndex: p.QuestionIndex,
			SelectedIndex: p.selected(),
			CorrectIndex:  p.CorrectIndex,
			ElapsedMs:     p.elapsed(),
			IsCorrect:     p.IsCorrect,
			Points:        p.Points,
		})
		return err

	case "race-answer":
		var p answerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.service.SubmitRaceAnswer(ctx, connID, domain.RaceSubmission{
			Code:          p.Code,
			QuestionIndex: p.QuestionIndex,
			SelectedIndex: p.selected(),
			CorrectIndex:  p.CorrectIndex,
			ElapsedMs:     p.elapsed(),
		})
		return err

	case "race-next-question":
		var p nextQuestionPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.service.AdvanceRaceQuestion(ctx, p.Code, connID, p.QuestionIndex)
		return err

	case "request-rematch":
		var p codePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.service.RequestRematch(ctx, p.Code, connID)
		return err

	default:
		return errors.New("unsupported message type")
	}
}

func decode(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errBadPayload
	}
	return nil
}
