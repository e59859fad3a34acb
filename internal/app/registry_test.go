package app

import (
	"strings"
	"testing"
	"time"

	"quiz-arena-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRetriesTakenCodes(t *testing.T) {
	g := NewRegistry(&sequenceCodes{codes: []string{"AAAA", "AAAA", "AAAA", "BBBB"}})
	now := time.Now()

	first := g.CreateRoom("p1", "one", domain.ModeDuel, now)
	second := g.CreateRoom("p2", "two", domain.ModeDuel, now)

	assert.Equal(t, "AAAA", first.code)
	assert.Equal(t, "BBBB", second.code)
	assert.Equal(t, 2, g.Len())
}

func TestRegistryDeleteUnbindsMembers(t *testing.T) {
	g := NewRegistry(nil)
	room := g.CreateRoom("p1", "one", domain.ModeRace, time.Now())

	got, ok := g.RoomOf("p1")
	require.True(t, ok)
	assert.Same(t, room, got)

	g.DeleteRoom(room.code)
	g.DeleteRoom(room.code)
	_, ok = g.RoomOf("p1")
	assert.False(t, ok)
	_, ok = g.FindRoom(room.code)
	assert.False(t, ok)
}

func TestRandomCodesUseAlphabet(t *testing.T) {
	codes := RandomCodes{}
	for i := 0; i < 200; i++ {
		code := codes.Generate()
		require.Len(t, code, domain.CodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(domain.CodeAlphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestRoomResultMarksTopScorers(t *testing.T) {
	room := newRoom("ROOM", &domain.Player{ConnectionID: "a", DisplayName: "A", Score: 120}, domain.ModeDuel, time.Now())
	room.players = append(room.players,
		&domain.Player{ConnectionID: "b", DisplayName: "B", Score: 120},
		&domain.Player{ConnectionID: "c", DisplayName: "C", Score: 40},
	)

	res := room.result(time.Now())
	require.Len(t, res.Players, 3)
	assert.True(t, res.Players[0].Won)
	assert.True(t, res.Players[1].Won)
	assert.False(t, res.Players[2].Won)

	for _, p := range room.players {
		p.Score = 0
	}
	for _, p := range room.result(time.Now()).Players {
		assert.False(t, p.Won)
	}
}
