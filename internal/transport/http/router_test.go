package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"quiz-arena-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestRouterEndpoints(t *testing.T) {
	server := newTestServer(t, WSOptions{})

	resp, body := get(t, server.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	_, body = get(t, server.URL+"/version")
	assert.JSONEq(t, `{"version":"test"}`, string(body))

	_, body = get(t, server.URL+"/topics")
	var topics []topicSummary
	require.NoError(t, json.Unmarshal(body, &topics))
	require.Len(t, topics, 2)
	assert.Equal(t, "general", topics[0].ID)
	assert.Positive(t, topics[0].QuestionCount)

	resp, body = get(t, server.URL+"/progress/Alice")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var progress domain.Progress
	require.NoError(t, json.Unmarshal(body, &progress))
	assert.Equal(t, "alice", progress.Name)

	resp, _ = get(t, server.URL+"/rooms/NOPE/qr")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouterRoomsAndQR(t *testing.T) {
	server := newTestServer(t, WSOptions{})
	conn, _ := dial(t, server)
	send(t, conn, "create-room", map[string]any{"playerName": "Alice"})
	_, created := readNext(conn, t, domain.EventRoomCreated)
	code := roomCode(t, created)

	require.Eventually(t, func() bool {
		_, body := get(t, server.URL+"/rooms")
		return strings.Contains(string(body), code)
	}, timeout, tick)

	resp, body := get(t, server.URL+"/rooms/"+strings.ToLower(code)+"/qr")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestJoinURL(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "http://arena.local/rooms/ABCD/qr", nil)
	require.NoError(t, err)
	r.Header.Set("X-Forwarded-Proto", "https")

	assert.Equal(t, "https://arena.local/?room=ABCD", joinURL(r, "", "ABCD"))
	assert.Equal(t, "https://quiz.example/?room=ABCD", joinURL(r, "https://quiz.example/", "ABCD"))
}
