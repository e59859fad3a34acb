package app

import (
	"quiz-arena-service/internal/domain"
)

func (e *Engine) handleCreate(connID, name string, mode domain.Mode) domain.RoomSnapshot {
	if prev, ok := e.registry.RoomOf(connID); ok {
		e.depart(prev, connID)
	}
	room := e.registry.CreateRoom(connID, name, mode, e.now())
	e.touch(room)
	snap := room.snapshot()
	e.send(connID, domain.EventRoomCreated, domain.RoomPayload{Room: snap, PlayerID: connID})
	e.log.Info().Str("room", room.code).Str("conn", connID).Str("mode", string(mode)).Msg("room created")
	return snap
}

func (e *Engine) handleJoin(code, connID, name string) (domain.RoomSnapshot, error) {
	room, ok := e.registry.FindRoom(code)
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if room.player(connID) != nil {
		snap := room.snapshot()
		e.send(connID, domain.EventRoomJoined, domain.RoomPayload{Room: snap, PlayerID: connID})
		return snap, nil
	}
	if room.full() {
		return domain.RoomSnapshot{}, domain.ErrRoomFull
	}
	if room.status != domain.StatusWaiting {
		return domain.RoomSnapshot{}, domain.ErrAlreadyStarted
	}

	if prev, ok := e.registry.RoomOf(connID); ok {
		e.depart(prev, connID)
	}
	room.players = append(room.players, &domain.Player{ConnectionID: connID, DisplayName: name})
	e.registry.bind(connID, room.code)
	e.touch(room)

	snap := room.snapshot()
	e.send(connID, domain.EventRoomJoined, domain.RoomPayload{Room: snap, PlayerID: connID})
	e.broadcast(room, domain.EventPlayerJoined, domain.RoomPayload{Room: snap})
	e.log.Info().Str("room", room.code).Str("conn", connID).Int("players", len(room.players)).Msg("player joined")
	return snap, nil
}

func (e *Engine) handleLeave(connID string) domain.Outcome {
	room, ok := e.registry.RoomOf(connID)
	if !ok {
		return e.ignored(domain.IgnoredNotMember, "leave", "", connID)
	}
	e.depart(room, connID)
	return domain.Applied
}

// depart removes a member and repairs the room: teardown when empty, host
// handover, and re-evaluation of the open round against the smaller membership.
func (e *Engine) depart(room *Room, connID string) {
	player := room.removePlayer(connID)
	if player == nil {
		return
	}
	e.registry.unbind(connID)

	if len(room.players) == 0 {
		e.registry.DeleteRoom(room.code)
		e.closed(room.code)
		e.log.Info().Str("room", room.code).Msg("room deleted (empty)")
		return
	}

	e.broadcast(room, domain.EventPlayerLeft, domain.PlayerLeftPayload{PlayerName: player.DisplayName, Room: room.snapshot()})
	e.broadcast(room, domain.EventPlayerDisconnected, domain.PlayerDisconnectedPayload{PlayerID: connID})

	if room.isHost(connID) {
		room.hostID = room.players[0].ConnectionID
		e.broadcast(room, domain.EventHostChanged, domain.HostChangedPayload{NewHostID: room.hostID})
		e.log.Info().Str("room", room.code).Str("host", room.hostID).Msg("host changed")
	}

	if room.status == domain.StatusPlaying {
		switch room.mode {
		case domain.ModeDuel:
			delete(room.roundAnswers, connID)
			if len(room.roundAnswers) > 0 && len(room.roundAnswers) == len(room.players) {
				e.closeDuelRound(room)
			}
		case domain.ModeRace:
			delete(room.failed, connID)
			if !room.roundResolved && len(room.failed) > 0 && len(room.failed) == len(room.players) {
				e.resolveNoWinner(room)
			}
		}
	}
	e.touch(room)
	e.log.Info().Str("room", room.code).Str("conn", connID).Int("players", len(room.players)).Msg("player left")
}

// handleRematch is open to any member, unlike the other room-level controls.
func (e *Engine) handleRematch(code, connID string) (domain.Outcome, error) {
	room, ok := e.registry.FindRoom(code)
	if !ok {
		return domain.Applied, domain.ErrRoomNotFound
	}
	if room.player(connID) == nil {
		return e.ignored(domain.IgnoredNotMember, "request-rematch", code, connID), nil
	}
	room.status = domain.StatusWaiting
	room.questions = nil
	room.currentIndex = 0
	room.clearRound()
	room.resetScores()
	room.generation++
	e.touch(room)

	e.broadcast(room, domain.EventRematchStarted, domain.RoomPayload{Room: room.snapshot()})
	e.log.Info().Str("room", code).Str("by", connID).Msg("rematch started")
	return domain.Applied, nil
}

func (e *Engine) handleSelectTopic(code, connID, topicID string) (domain.Outcome, error) {
	room, ok := e.registry.FindRoom(code)
	if !ok {
		return domain.Applied, domain.ErrRoomNotFound
	}
	if !room.isHost(connID) {
		return e.ignored(domain.IgnoredNotHost, "select-topic", code, connID), nil
	}
	if room.status != domain.StatusWaiting {
		return e.ignored(domain.IgnoredStale, "select-topic", code, connID), nil
	}
	room.topicID = topicID
	e.touch(room)
	e.broadcast(room, domain.EventTopicSelected, domain.TopicSelectedPayload{TopicID: topicID})
	return domain.Applied, nil
}
