package game

import (
	"github.com/rs/zerolog/log"

	"github.com/clickarena/clickarena/internal/protocol"
	"github.com/clickarena/clickarena/internal/room"
	"github.com/clickarena/clickarena/internal/session"
)

// Broadcaster projects registry state into wire payloads and fans them out.
// Projections are snapshotted under the room lock inside the room package;
// by the time anything is sent here, no lock is held, so one slow or dead
// socket cannot stall game logic. Per-recipient send failures are swallowed:
// the broken connection's own read loop handles its teardown.
type Broadcaster struct {
	sessions *session.Registry
	rooms    *room.Registry
}

func NewBroadcaster(sessions *session.Registry, rooms *room.Registry) *Broadcaster {
	return &Broadcaster{sessions: sessions, rooms: rooms}
}

// RoomListPayload builds the lobby snapshot over every room.
func (b *Broadcaster) RoomListPayload() protocol.RoomListPayload {
	rooms := b.rooms.List()
	out := protocol.RoomListPayload{Rooms: make([]protocol.RoomSummary, 0, len(rooms))}
	for _, rm := range rooms {
		summary := rm.Summary()
		out.Rooms = append(out.Rooms, protocol.RoomSummary{
			RoomID:     rm.ID,
			RoomName:   rm.Name,
			Phase:      summary.Phase,
			Players:    summary.Players,
			Observers:  summary.Observers,
			MaxPlayers: room.MaxPlayers,
			BoardSize:  rm.BoardSize,
		})
	}
	return out
}

// BroadcastRoomList pushes the lobby snapshot to every authenticated
// session.
func (b *Broadcaster) BroadcastRoomList() {
	payload := b.RoomListPayload()
	for _, sess := range b.sessions.Authenticated() {
		if err := sess.Send(protocol.TypeRoomList, payload); err != nil {
			log.Debug().
				Err(err).
				Str("session_id", sess.ID).
				Msg("dropping room list for unreachable session")
		}
	}
}

// RoomStatePayload decorates a room snapshot with display names.
func (b *Broadcaster) RoomStatePayload(rm *room.Room) protocol.RoomStatePayload {
	snap := rm.Snapshot()

	players := make([]protocol.PlayerState, 0, len(snap.Players))
	for _, p := range snap.Players {
		players = append(players, protocol.PlayerState{
			SessionID:   p.SessionID,
			DisplayName: b.sessions.DisplayName(p.SessionID),
			IsReady:     p.Ready,
			IsMj:        p.IsMj,
		})
	}
	observers := make([]protocol.ObserverState, 0, len(snap.Observers))
	for _, id := range snap.Observers {
		observers = append(observers, protocol.ObserverState{
			SessionID:   id,
			DisplayName: b.sessions.DisplayName(id),
		})
	}
	return protocol.RoomStatePayload{
		RoomID:    rm.ID,
		Phase:     snap.Phase,
		BoardSize: rm.BoardSize,
		Players:   players,
		Observers: observers,
	}
}

// BroadcastRoomState pushes the room projection to every current member.
func (b *Broadcaster) BroadcastRoomState(rm *room.Room) {
	b.BroadcastRoomEvent(rm, protocol.TypeRoomState, b.RoomStatePayload(rm))
}

// BroadcastRoomEvent fans one message out to every member of a room.
func (b *Broadcaster) BroadcastRoomEvent(rm *room.Room, msgType string, payload any) {
	for _, id := range rm.MemberIDs() {
		sess, ok := b.sessions.Get(id)
		if !ok {
			continue
		}
		if err := sess.Send(msgType, payload); err != nil {
			log.Debug().
				Err(err).
				Str("session_id", id).
				Str("room_id", rm.ID).
				Str("msg_type", msgType).
				Msg("dropping room event for unreachable session")
		}
	}
}
