package protocol

import "encoding/json"

// Envelope is the wire frame for every message in both directions:
// one JSON object per line, `{"type": string, "payload": object}`.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client-to-server message types
const (
	TypeAuthLogin  = "auth.login"
	TypeRoomList   = "room.list"
	TypeRoomCreate = "room.create"
	TypeRoomJoin   = "room.join"
	TypeRoomLeave  = "room.leave"
	TypeRoomReady  = "room.ready"
	TypeMjSelect   = "game.mj.select"
	TypeClick      = "game.click"
	TypePing       = "ping"
)

// Server-to-client message types
const (
	TypeServerHello   = "server.hello"
	TypeAuthOK        = "auth.ok"
	TypeRoomCreated   = "room.created"
	TypeRoomJoined    = "room.joined"
	TypeRoomLeft      = "room.left"
	TypeRoomState     = "room.state"
	TypeRoundStarted  = "round.started"
	TypeRoundTarget   = "round.target"
	TypeRoundResult   = "round.result"
	TypeClickAccepted = "click.accepted"
	TypePong          = "pong"
	TypeError         = "error"
)

// Encode marshals a typed payload into a single wire frame.
func Encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// Decode parses one wire line into an envelope. The payload stays raw so
// the dispatcher can deserialize it per message type.
func Decode(line []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
