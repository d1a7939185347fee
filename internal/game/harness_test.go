package game

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/clickarena/clickarena/internal/auth"
	"github.com/clickarena/clickarena/internal/protocol"
	"github.com/clickarena/clickarena/internal/room"
	"github.com/clickarena/clickarena/internal/session"
)

// fakeTransport records outbound envelopes; tests drive Dispatch directly
// so ReadLine is never used.
type fakeTransport struct {
	mu  sync.Mutex
	out []protocol.Envelope
}

func (f *fakeTransport) ReadLine() ([]byte, error) {
	return nil, context.Canceled
}

func (f *fakeTransport) WriteLine(data []byte) error {
	env, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, env)
	return nil
}

func (f *fakeTransport) Close() error       { return nil }
func (f *fakeTransport) RemoteAddr() string { return "fake:0" }

// messages snapshots every envelope of one type received so far.
func (f *fakeTransport) messages(msgType string) []protocol.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Envelope
	for _, env := range f.out {
		if env.Type == msgType {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeTransport) last(t *testing.T, msgType string) protocol.Envelope {
	t.Helper()
	msgs := f.messages(msgType)
	if len(msgs) == 0 {
		t.Fatalf("no %q message received", msgType)
	}
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) lastErrorCode(t *testing.T) string {
	t.Helper()
	var payload protocol.ErrorPayload
	decodePayload(t, f.last(t, protocol.TypeError), &payload)
	return payload.Code
}

func decodePayload(t *testing.T, env protocol.Envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Payload, out); err != nil {
		t.Fatalf("decode %q payload: %v", env.Type, err)
	}
}

// stubGateway authenticates everyone, deriving the display name from the
// email's local part.
type stubGateway struct {
	fail bool
}

func (g stubGateway) Login(_ context.Context, email, _ string) auth.LoginResult {
	if g.fail {
		return auth.LoginResult{Message: "stub rejection"}
	}
	name := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		name = email[:i]
	}
	return auth.LoginResult{Success: true, Email: email, DisplayName: name}
}

type harness struct {
	clock      *clockwork.FakeClock
	sessions   *session.Registry
	rooms      *room.Registry
	dispatcher *Dispatcher
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithGateway(t, stubGateway{})
}

func newHarnessWithGateway(t *testing.T, gateway auth.Gateway) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	sessions := session.NewRegistry()
	rooms := room.NewRegistry(clock, 5, 1)
	broadcaster := NewBroadcaster(sessions, rooms)
	dispatcher := NewDispatcher(sessions, rooms, gateway, broadcaster, clock, 10*time.Second)
	return &harness{
		clock:      clock,
		sessions:   sessions,
		rooms:      rooms,
		dispatcher: dispatcher,
	}
}

func (h *harness) connect(t *testing.T) (*session.Session, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	sess := session.New(ft)
	h.sessions.Add(sess)
	return sess, ft
}

func (h *harness) send(t *testing.T, sess *session.Session, msgType string, payload any) {
	t.Helper()
	line, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %q: %v", msgType, err)
	}
	h.dispatcher.Dispatch(context.Background(), sess, line)
}

func (h *harness) login(t *testing.T, sess *session.Session, email string) {
	t.Helper()
	h.send(t, sess, protocol.TypeAuthLogin, protocol.LoginPayload{Email: email, Password: "hunter2"})
	if !sess.Authenticated() {
		t.Fatalf("session %s did not authenticate", sess.ID)
	}
}

func (h *harness) joinPlayer(t *testing.T, sess *session.Session, roomID string) {
	t.Helper()
	h.send(t, sess, protocol.TypeRoomJoin, protocol.JoinRoomPayload{RoomID: roomID, Role: "player"})
	if sess.RoomID() != roomID {
		t.Fatalf("session %s is in room %q, want %q", sess.ID, sess.RoomID(), roomID)
	}
}

// waitFor polls a condition driven by a background goroutine, such as the
// round timer's finalize.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
