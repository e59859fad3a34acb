package app

import (
	"crypto/rand"
	"time"

	"quiz-arena-service/internal/domain"
)

// CodeGenerator produces candidate room codes. Uniqueness is the registry's job.
type CodeGenerator interface {
	Generate() string
}

// RandomCodes draws codes from domain.CodeAlphabet with crypto/rand.
type RandomCodes struct{}

func (RandomCodes) Generate() string {
	buf := make([]byte, domain.CodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, domain.CodeLength)
	for i := range out {
		out[i] = domain.CodeAlphabet[int(buf[i])%len(domain.CodeAlphabet)]
	}
	return string(out)
}

// Registry owns every active room and the connection -> room index.
// It is not safe for concurrent use; the engine loop is its only caller.
type Registry struct {
	rooms  map[string]*Room
	byConn map[string]string
	codes  CodeGenerator
}

func NewRegistry(codes CodeGenerator) *Registry {
	if codes == nil {
		codes = RandomCodes{}
	}
	return &Registry{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
		codes:  codes,
	}
}

// CreateRoom registers a single-member waiting room under a fresh code.
// A generated code that is already taken is simply drawn again.
func (g *Registry) CreateRoom(connID, displayName string, mode domain.Mode, now time.Time) *Room {
	code := g.codes.Generate()
	for {
		if _, taken := g.rooms[code]; !taken {
			break
		}
		code = g.codes.Generate()
	}
	room := newRoom(code, &domain.Player{ConnectionID: connID, DisplayName: displayName}, mode, now)
	g.rooms[code] = room
	g.byConn[connID] = code
	return room
}

func (g *Registry) FindRoom(code string) (*Room, bool) {
	room, ok := g.rooms[code]
	return room, ok
}

// DeleteRoom is idempotent.
func (g *Registry) DeleteRoom(code string) {
	room, ok := g.rooms[code]
	if !ok {
		return
	}
	for _, p := range room.players {
		if g.byConn[p.ConnectionID] == code {
			delete(g.byConn, p.ConnectionID)
		}
	}
	delete(g.rooms, code)
}

// RoomOf returns the room a connection currently belongs to.
func (g *Registry) RoomOf(connID string) (*Room, bool) {
	code, ok := g.byConn[connID]
	if !ok {
		return nil, false
	}
	return g.FindRoom(code)
}

func (g *Registry) bind(connID, code string) {
	g.byConn[connID] = code
}

func (g *Registry) unbind(connID string) {
	delete(g.byConn, connID)
}

// Len is the number of active rooms.
func (g *Registry) Len() int {
	return len(g.rooms)
}
