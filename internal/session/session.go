package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/clickarena/clickarena/internal/protocol"
)

// Role is a session's function inside a room.
type Role string

const (
	RoleNone     Role = ""
	RolePlayer   Role = "player"
	RoleObserver Role = "observer"
)

// Session owns one client connection for its whole lifetime. The read loop,
// the round timer, and broadcasts may all try to write concurrently, so
// every send goes through one exclusive lock; partial writes never
// interleave on the socket.
type Session struct {
	ID string

	transport Transport
	sendMu    sync.Mutex

	mu          sync.RWMutex
	authToken   string
	email       string
	displayName string
	roomID      string
	role        Role
	ready       bool
}

// New creates a session with a freshly generated opaque id.
func New(transport Transport) *Session {
	return &Session{
		ID:        uuid.New().String(),
		transport: transport,
	}
}

// ReadLine blocks for the next inbound frame. Any error is a disconnect
// signal for the caller.
func (s *Session) ReadLine() ([]byte, error) {
	return s.transport.ReadLine()
}

// Send encodes and writes one envelope under the session's send lock.
func (s *Session) Send(msgType string, payload any) error {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.transport.WriteLine(data)
}

// SendError reports a logical error without closing the connection.
func (s *Session) SendError(code, message string) error {
	return s.Send(protocol.TypeError, protocol.ErrorPayload{Code: code, Message: message})
}

func (s *Session) Close() error {
	return s.transport.Close()
}

func (s *Session) RemoteAddr() string {
	return s.transport.RemoteAddr()
}

// Authenticate stores the identity returned by the auth gateway together
// with a fresh opaque token.
func (s *Session) Authenticate(email, displayName string) string {
	token := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authToken = token
	s.email = email
	s.displayName = displayName
	return token
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authToken != ""
}

func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// DisplayName falls back to the session id until the gateway supplies a
// human name.
func (s *Session) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.displayName == "" {
		return s.ID
	}
	return s.displayName
}

// JoinRoom records room membership; readiness always starts false.
func (s *Session) JoinRoom(roomID string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
	s.role = role
	s.ready = false
}

// LeaveRoom clears membership, role, and readiness.
func (s *Session) LeaveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = ""
	s.role = RoleNone
	s.ready = false
}

func (s *Session) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

func (s *Session) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}
