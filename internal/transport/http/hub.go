package http

import (
	"encoding/json"
	"sync"

	"quiz-arena-service/internal/domain"

	"github.com/rs/zerolog"
)

const sendBuffer = 32

// client is the outbound side of one websocket connection.
type client struct {
	id   string
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(id string) *client {
	return &client{
		id:   id,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub routes engine events to connected clients. It implements app.Notifier
// and never blocks: a client whose queue is full is disconnected.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{log: log, clients: make(map[string]*client)}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Send(connID string, event domain.Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	c := h.clients[connID]
	h.mu.RUnlock()
	if c != nil {
		h.deliver(c, data)
	}
}

func (h *Hub) Broadcast(connIDs []string, event domain.Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}
	targets := make([]*client, 0, len(connIDs))
	h.mu.RLock()
	for _, id := range connIDs {
		if c := h.clients[id]; c != nil {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.deliver(c, data)
	}
}

func (h *Hub) deliver(c *client, data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		h.log.Warn().Str("conn", c.id).Msg("send queue full, dropping client")
		c.close()
	}
}

func (h *Hub) encode(event domain.Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Type).Msg("encode event")
		return nil, false
	}
	return data, true
}
