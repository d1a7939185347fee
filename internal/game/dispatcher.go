package game

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/clickarena/clickarena/internal/auth"
	"github.com/clickarena/clickarena/internal/protocol"
	"github.com/clickarena/clickarena/internal/room"
	"github.com/clickarena/clickarena/internal/session"
)

// Board sizes accepted on room.create; anything outside falls back to the
// server default.
const (
	minBoardSize = 3
	maxBoardSize = 9
)

// Dispatcher routes inbound envelopes to handlers and enforces every
// per-message precondition before any state mutates. A failed precondition
// answers with a structured error and leaves both the room and the
// connection untouched.
type Dispatcher struct {
	sessions    *session.Registry
	rooms       *room.Registry
	gateway     auth.Gateway
	broadcaster *Broadcaster
	scheduler   *Scheduler
	clock       clockwork.Clock
}

func NewDispatcher(
	sessions *session.Registry,
	rooms *room.Registry,
	gateway auth.Gateway,
	broadcaster *Broadcaster,
	clock clockwork.Clock,
	clickWindow time.Duration,
) *Dispatcher {
	d := &Dispatcher{
		sessions:    sessions,
		rooms:       rooms,
		gateway:     gateway,
		broadcaster: broadcaster,
		clock:       clock,
	}
	d.scheduler = NewScheduler(clock, clickWindow, d.finalizeRoomByID)
	return d
}

// Dispatch handles one inbound line. Malformed input is answered on the
// session; the connection stays open for anything short of a transport
// failure.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, line []byte) {
	env, err := protocol.Decode(line)
	if err != nil {
		sess.SendError(protocol.CodeInvalidJSON, "Invalid JSON payload.")
		return
	}
	if strings.TrimSpace(env.Type) == "" {
		sess.SendError(protocol.CodeInvalidMessage, "Message must include type.")
		return
	}

	switch env.Type {
	case protocol.TypeAuthLogin:
		d.handleLogin(ctx, sess, env.Payload)
	case protocol.TypeRoomList:
		d.handleRoomList(sess)
	case protocol.TypeRoomCreate:
		d.handleRoomCreate(sess, env.Payload)
	case protocol.TypeRoomJoin:
		d.handleRoomJoin(sess, env.Payload)
	case protocol.TypeRoomLeave:
		d.handleRoomLeave(sess)
	case protocol.TypeRoomReady:
		d.handleReady(sess, env.Payload)
	case protocol.TypeMjSelect:
		d.handleMjSelect(sess, env.Payload)
	case protocol.TypeClick:
		d.handleClick(sess, env.Payload)
	case protocol.TypePing:
		sess.Send(protocol.TypePong, protocol.PongPayload{NowUTC: d.clock.Now().UTC()})
	default:
		sess.SendError(protocol.CodeUnknownType, "Unknown message type '"+env.Type+"'.")
	}
}

func (d *Dispatcher) handleLogin(ctx context.Context, sess *session.Session, payload json.RawMessage) {
	if sess.Authenticated() {
		sess.SendError(protocol.CodeAlreadyAuthenticated, "Session is already authenticated.")
		return
	}

	var input protocol.LoginPayload
	if err := json.Unmarshal(payload, &input); err != nil {
		sess.SendError(protocol.CodeInvalidPayload, "auth.login payload is invalid.")
		return
	}
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		sess.SendError(protocol.CodeMissingCredentials, "Email and password are required.")
		return
	}

	result := d.gateway.Login(ctx, input.Email, input.Password)
	if !result.Success {
		log.Warn().
			Str("session_id", sess.ID).
			Str("reason", result.Message).
			Msg("login rejected")
		sess.SendError(protocol.CodeAuthFailed, "Authentication failed.")
		return
	}

	displayName := result.DisplayName
	if strings.TrimSpace(displayName) == "" {
		displayName = result.Email
	}
	token := sess.Authenticate(result.Email, displayName)

	log.Info().
		Str("session_id", sess.ID).
		Str("email", result.Email).
		Msg("session authenticated")

	sess.Send(protocol.TypeAuthOK, protocol.AuthOKPayload{
		Token:       token,
		Email:       result.Email,
		DisplayName: displayName,
	})
	d.broadcaster.BroadcastRoomList()
}

func (d *Dispatcher) handleRoomList(sess *session.Session) {
	if !sess.Authenticated() {
		sess.SendError(protocol.CodeNotAuthenticated, "Authenticate first.")
		return
	}
	sess.Send(protocol.TypeRoomList, d.broadcaster.RoomListPayload())
}

func (d *Dispatcher) handleRoomCreate(sess *session.Session, payload json.RawMessage) {
	if !sess.Authenticated() {
		sess.SendError(protocol.CodeNotAuthenticated, "Authenticate first.")
		return
	}

	var input protocol.CreateRoomPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &input); err != nil {
			sess.SendError(protocol.CodeInvalidPayload, "room.create payload is invalid.")
			return
		}
	}

	boardSize := 0 // registry default
	if input.BoardSize != nil && *input.BoardSize >= minBoardSize && *input.BoardSize <= maxBoardSize {
		boardSize = *input.BoardSize
	}

	rm := d.rooms.Create(input.RoomName, boardSize)
	log.Info().
		Str("session_id", sess.ID).
		Str("room_id", rm.ID).
		Int("board_size", rm.BoardSize).
		Msg("room created")

	sess.Send(protocol.TypeRoomCreated, protocol.RoomCreatedPayload{
		RoomID:     rm.ID,
		RoomName:   rm.Name,
		BoardSize:  rm.BoardSize,
		MaxPlayers: room.MaxPlayers,
	})
	d.broadcaster.BroadcastRoomList()
}

func (d *Dispatcher) handleRoomJoin(sess *session.Session, payload json.RawMessage) {
	if !sess.Authenticated() {
		sess.SendError(protocol.CodeNotAuthenticated, "Authenticate first.")
		return
	}

	var input protocol.JoinRoomPayload
	if err := json.Unmarshal(payload, &input); err != nil {
		sess.SendError(protocol.CodeInvalidPayload, "room.join payload is invalid.")
		return
	}
	if strings.TrimSpace(input.RoomID) == "" || strings.TrimSpace(input.Role) == "" {
		sess.SendError(protocol.CodeInvalidPayload, "roomId and role are required.")
		return
	}

	rm, ok := d.rooms.Get(input.RoomID)
	if !ok {
		sess.SendError(protocol.CodeRoomNotFound, "Room does not exist.")
		return
	}

	role := session.RolePlayer
	if strings.EqualFold(input.Role, string(session.RoleObserver)) {
		role = session.RoleObserver
	}

	// Joining is idempotent with respect to prior membership: any current
	// room is left first, exactly as room.leave would do.
	if sess.RoomID() != "" {
		d.leaveCurrentRoom(sess)
	}

	if role == session.RolePlayer {
		if err := rm.AddPlayer(sess.ID); err != nil {
			sess.SendError(protocol.CodeRoomFull, "Room already has 4 players.")
			return
		}
	} else {
		rm.AddObserver(sess.ID)
	}
	sess.JoinRoom(rm.ID, role)

	log.Info().
		Str("session_id", sess.ID).
		Str("room_id", rm.ID).
		Str("role", string(role)).
		Msg("session joined room")

	sess.Send(protocol.TypeRoomJoined, protocol.RoomJoinedPayload{
		RoomID:    rm.ID,
		Role:      string(role),
		BoardSize: rm.BoardSize,
	})
	d.broadcaster.BroadcastRoomState(rm)
	d.broadcaster.BroadcastRoomList()
}

func (d *Dispatcher) handleRoomLeave(sess *session.Session) {
	d.leaveCurrentRoom(sess)
	sess.Send(protocol.TypeRoomLeft, struct{}{})
}

func (d *Dispatcher) handleReady(sess *session.Session, payload json.RawMessage) {
	if !sess.Authenticated() || sess.RoomID() == "" || sess.Role() != session.RolePlayer {
		sess.SendError(protocol.CodeForbidden, "Only a player in a room can set ready.")
		return
	}

	var input protocol.ReadyPayload
	if err := json.Unmarshal(payload, &input); err != nil || len(payload) == 0 {
		sess.SendError(protocol.CodeInvalidPayload, "room.ready payload is invalid.")
		return
	}

	rm, ok := d.rooms.Get(sess.RoomID())
	if !ok {
		sess.SendError(protocol.CodeNotInRoom, "Join a room first.")
		return
	}

	if err := rm.SetReady(sess.ID, input.Ready); err != nil {
		sess.SendError(protocol.CodeInvalidPhase, "Readiness can only change while waiting.")
		return
	}
	sess.SetReady(input.Ready)

	d.broadcaster.BroadcastRoomState(rm)
	d.tryStartRound(rm)
}

func (d *Dispatcher) handleMjSelect(sess *session.Session, payload json.RawMessage) {
	if !sess.Authenticated() || sess.RoomID() == "" {
		sess.SendError(protocol.CodeNotInRoom, "Join a room first.")
		return
	}

	var input protocol.CellPayload
	if err := json.Unmarshal(payload, &input); err != nil || len(payload) == 0 {
		sess.SendError(protocol.CodeInvalidPayload, "game.mj.select payload is invalid.")
		return
	}

	rm, ok := d.rooms.Get(sess.RoomID())
	if !ok {
		sess.SendError(protocol.CodeNotInRoom, "Join a room first.")
		return
	}

	if err := rm.SelectTarget(sess.ID, input.Row, input.Col); err != nil {
		sess.SendError(protocol.CodeInvalidMjAction, "Only the current MJ can select a valid cell.")
		return
	}

	windowSeconds := int(d.scheduler.Window() / time.Second)
	log.Info().
		Str("room_id", rm.ID).
		Int("row", input.Row).
		Int("col", input.Col).
		Int("window_s", windowSeconds).
		Msg("target selected, click window open")

	d.broadcaster.BroadcastRoomEvent(rm, protocol.TypeRoundTarget, protocol.RoundTargetPayload{
		Row:                 input.Row,
		Col:                 input.Col,
		ClickTimeoutSeconds: windowSeconds,
	})
	d.scheduler.ScheduleFinalize(rm.ID)
}

func (d *Dispatcher) handleClick(sess *session.Session, payload json.RawMessage) {
	if !sess.Authenticated() || sess.RoomID() == "" || sess.Role() != session.RolePlayer {
		sess.SendError(protocol.CodeForbidden, "Only players can click.")
		return
	}

	var input protocol.CellPayload
	if err := json.Unmarshal(payload, &input); err != nil || len(payload) == 0 {
		sess.SendError(protocol.CodeInvalidPayload, "game.click payload is invalid.")
		return
	}

	rm, ok := d.rooms.Get(sess.RoomID())
	if !ok {
		sess.SendError(protocol.CodeNotInRoom, "Join a room first.")
		return
	}

	reactionMs, finished, err := rm.RegisterClick(sess.ID, input.Row, input.Col)
	if err != nil {
		if errors.Is(err, room.ErrClickRejected) {
			sess.SendError(protocol.CodeClickRejected, "Click rejected by room state.")
			return
		}
		sess.SendError(protocol.CodeClickRejected, "Click rejected.")
		return
	}

	log.Debug().
		Str("session_id", sess.ID).
		Str("room_id", rm.ID).
		Int64("reaction_ms", reactionMs).
		Msg("click accepted")
	sess.Send(protocol.TypeClickAccepted, struct{}{})

	if finished {
		d.finalizeRoom(rm)
	}
}

// tryStartRound fires Waiting -> MjSelecting when the room agrees, then
// announces the new round and the chosen MJ.
func (d *Dispatcher) tryStartRound(rm *room.Room) {
	mjID, started := rm.TryStartRound()
	if !started {
		return
	}

	log.Info().
		Str("room_id", rm.ID).
		Str("mj_session_id", mjID).
		Msg("round started")

	d.broadcaster.BroadcastRoomEvent(rm, protocol.TypeRoundStarted, protocol.RoundStartedPayload{
		MjSessionID:   mjID,
		MjDisplayName: d.sessions.DisplayName(mjID),
		BoardSize:     rm.BoardSize,
	})
	d.broadcaster.BroadcastRoomState(rm)
}

// finalizeRoomByID is the round timer's entry point.
func (d *Dispatcher) finalizeRoomByID(roomID string) {
	rm, ok := d.rooms.Get(roomID)
	if !ok {
		return
	}
	d.finalizeRoom(rm)
}

// finalizeRoom runs the shared finalize routine. Whichever trigger arrives
// first (timer or last click) performs the transition; the loser finds the
// phase already advanced and does nothing.
func (d *Dispatcher) finalizeRoom(rm *room.Room) {
	result, ok := rm.Finalize()
	if !ok {
		return
	}

	// Ready flags are round-scoped; clear the session side now that the
	// room already wiped its own set.
	for _, id := range result.PlayerIDs {
		if s, found := d.sessions.Get(id); found {
			s.SetReady(false)
		}
	}

	entries := make([]protocol.RoundResultEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entry := protocol.RoundResultEntry{
			SessionID:   e.SessionID,
			DisplayName: d.sessions.DisplayName(e.SessionID),
			IsValid:     e.IsValid,
		}
		if e.IsValid {
			ms := e.ReactionMs
			rank := e.Rank
			entry.ReactionMs = &ms
			entry.Rank = &rank
		}
		entries = append(entries, entry)
	}

	log.Info().
		Str("room_id", rm.ID).
		Str("mj_session_id", result.MjSessionID).
		Int("entries", len(entries)).
		Msg("round finalized")

	d.broadcaster.BroadcastRoomEvent(rm, protocol.TypeRoundResult, protocol.RoundResultPayload{
		MjSessionID:   result.MjSessionID,
		MjDisplayName: d.sessions.DisplayName(result.MjSessionID),
		Results:       entries,
	})
	d.broadcaster.BroadcastRoomState(rm)
	d.broadcaster.BroadcastRoomList()
}

// leaveCurrentRoom removes the session from its room, if any, resetting the
// round when the leaver was the MJ, then re-broadcasts the affected views.
// A leave that leaves every remaining eligible player clicked ends the
// round immediately instead of waiting for the timer.
func (d *Dispatcher) leaveCurrentRoom(sess *session.Session) {
	roomID := sess.RoomID()
	if roomID == "" {
		return
	}

	rm, ok := d.rooms.Get(roomID)
	sess.LeaveRoom()
	if !ok {
		return
	}

	mjReset, finished := rm.RemoveMember(sess.ID)
	if mjReset {
		log.Info().
			Str("room_id", rm.ID).
			Str("session_id", sess.ID).
			Msg("MJ left mid-round, room reset to waiting")
	}
	if finished {
		d.finalizeRoom(rm)
	}

	d.broadcaster.BroadcastRoomState(rm)
	d.broadcaster.BroadcastRoomList()
}

// Disconnect tears a session down after a transport failure or EOF: leave
// the room, drop it from the registry, and refresh everyone's lobby view.
func (d *Dispatcher) Disconnect(sess *session.Session) {
	d.leaveCurrentRoom(sess)
	d.sessions.Remove(sess.ID)
	sess.Close()
	log.Info().
		Str("session_id", sess.ID).
		Str("email", sess.Email()).
		Msg("session disconnected")
	d.broadcaster.BroadcastRoomList()
}
