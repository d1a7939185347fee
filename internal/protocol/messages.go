package protocol

import "time"

// Client payloads

// LoginPayload carries credentials for auth.login.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// JoinRoomPayload carries the target room and requested role for room.join.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Role   string `json:"role"`
}

// CreateRoomPayload carries optional overrides for room.create.
type CreateRoomPayload struct {
	RoomName  string `json:"roomName,omitempty"`
	BoardSize *int   `json:"boardSize,omitempty"`
}

// ReadyPayload toggles a player's readiness.
type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// CellPayload addresses one board cell; used by game.mj.select and
// game.click.
type CellPayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Server payloads

// HelloPayload greets a freshly accepted connection.
type HelloPayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Protocol  string `json:"protocol"`
}

// AuthOKPayload confirms a successful login.
type AuthOKPayload struct {
	Token       string `json:"token"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// RoomSummary is one row of the lobby room list.
type RoomSummary struct {
	RoomID     string `json:"roomId"`
	RoomName   string `json:"roomName"`
	Phase      string `json:"phase"`
	Players    int    `json:"players"`
	Observers  int    `json:"observers"`
	MaxPlayers int    `json:"maxPlayers"`
	BoardSize  int    `json:"boardSize"`
}

// RoomListPayload is the full lobby snapshot sent to authenticated sessions.
type RoomListPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomCreatedPayload acknowledges room.create.
type RoomCreatedPayload struct {
	RoomID     string `json:"roomId"`
	RoomName   string `json:"roomName"`
	BoardSize  int    `json:"boardSize"`
	MaxPlayers int    `json:"maxPlayers"`
}

// RoomJoinedPayload acknowledges room.join.
type RoomJoinedPayload struct {
	RoomID    string `json:"roomId"`
	Role      string `json:"role"`
	BoardSize int    `json:"boardSize"`
}

// PlayerState is one player inside a room.state snapshot.
type PlayerState struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	IsReady     bool   `json:"isReady"`
	IsMj        bool   `json:"isMj"`
}

// ObserverState is one observer inside a room.state snapshot.
type ObserverState struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

// RoomStatePayload is the full projection of one room, sent to its members.
type RoomStatePayload struct {
	RoomID    string          `json:"roomId"`
	Phase     string          `json:"phase"`
	BoardSize int             `json:"boardSize"`
	Players   []PlayerState   `json:"players"`
	Observers []ObserverState `json:"observers"`
}

// RoundStartedPayload announces the Waiting -> MjSelecting transition.
type RoundStartedPayload struct {
	MjSessionID   string `json:"mjSessionId"`
	MjDisplayName string `json:"mjDisplayName"`
	BoardSize     int    `json:"boardSize"`
}

// RoundTargetPayload reveals the target cell and opens the click window.
type RoundTargetPayload struct {
	Row                 int `json:"row"`
	Col                 int `json:"col"`
	ClickTimeoutSeconds int `json:"clickTimeoutSeconds"`
}

// RoundResultEntry is one player's outcome in a finished round.
type RoundResultEntry struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
	IsValid     bool   `json:"isValid"`
	ReactionMs  *int64 `json:"reactionMs,omitempty"`
	Rank        *int   `json:"rank,omitempty"`
}

// RoundResultPayload announces the Clicking -> Waiting transition with the
// final ranking.
type RoundResultPayload struct {
	MjSessionID   string             `json:"mjSessionId"`
	MjDisplayName string             `json:"mjDisplayName"`
	Results       []RoundResultEntry `json:"results"`
}

// PongPayload answers a ping.
type PongPayload struct {
	NowUTC time.Time `json:"nowUtc"`
}
