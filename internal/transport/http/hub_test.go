package http

import (
	"encoding/json"
	"testing"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastEncodesOnce(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, b := newClient("a"), newClient("b")
	hub.register(a)
	hub.register(b)

	hub.Broadcast([]string{"a", "b", "missing"}, domain.Event{
		Type:    domain.EventHostChanged,
		Payload: domain.HostChangedPayload{NewHostID: "b"},
	})

	for _, c := range []*client{a, b} {
		require.Len(t, c.send, 1)
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(<-c.send, &msg))
		assert.Equal(t, domain.EventHostChanged, msg.Type)
		assert.Equal(t, "b", msg.Payload["newHostId"])
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := newClient("slow")
	hub.register(slow)

	for i := 0; i < sendBuffer+1; i++ {
		hub.Send("slow", domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{Message: "x"}})
	}
	select {
	case <-slow.done:
	default:
		t.Fatal("expected slow client to be closed")
	}

	// delivering to a closed client is a no-op
	hub.Send("slow", domain.Event{Type: domain.EventError})
}

func TestHubUnregisterKeepsNewerClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	old, current := newClient("id"), newClient("id")
	hub.register(old)
	hub.register(current)
	hub.unregister(old)
	assert.Equal(t, 1, hub.Len())
}

const (
	timeout = 2 * time.Second
	tick    = 20 * time.Millisecond
)
