package room

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestRoom(t *testing.T) (*Room, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return New("room-1", "Room 1", 1, 5, clock), clock
}

func addReadyPlayers(t *testing.T, r *Room, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := r.AddPlayer(id); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
		if err := r.SetReady(id, true); err != nil {
			t.Fatalf("SetReady(%s): %v", id, err)
		}
	}
}

func TestPlayerCapacity(t *testing.T) {
	r, _ := newTestRoom(t)

	for i := 0; i < MaxPlayers; i++ {
		if err := r.AddPlayer(fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("player %d rejected: %v", i, err)
		}
	}
	if err := r.AddPlayer("p5"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("fifth player: got %v, want ErrRoomFull", err)
	}

	// Observers are unbounded.
	for i := 0; i < 20; i++ {
		r.AddObserver(fmt.Sprintf("o%d", i))
	}
	if got := r.Summary().Observers; got != 20 {
		t.Fatalf("observers = %d, want 20", got)
	}
}

func TestRoundStartsWhenAllPlayersReady(t *testing.T) {
	r, _ := newTestRoom(t)

	if err := r.AddPlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetReady("alice", true); err != nil {
		t.Fatal(err)
	}
	if _, started := r.TryStartRound(); started {
		t.Fatal("round started with a single player")
	}

	if err := r.AddPlayer("bob"); err != nil {
		t.Fatal(err)
	}
	if _, started := r.TryStartRound(); started {
		t.Fatal("round started before everyone was ready")
	}

	if err := r.SetReady("bob", true); err != nil {
		t.Fatal(err)
	}
	mj, started := r.TryStartRound()
	if !started {
		t.Fatal("round did not start with two ready players")
	}
	if mj != "alice" && mj != "bob" {
		t.Fatalf("MJ %q is not a room player", mj)
	}
	if got := r.CurrentPhase(); got != PhaseMjSelecting {
		t.Fatalf("phase = %v, want MjSelecting", got)
	}
}

func TestReadyToggleRejectedOutsideWaiting(t *testing.T) {
	r, _ := newTestRoom(t)
	addReadyPlayers(t, r, "alice", "bob")
	if _, started := r.TryStartRound(); !started {
		t.Fatal("round did not start")
	}

	if err := r.SetReady("alice", false); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("SetReady mid-round: got %v, want ErrWrongPhase", err)
	}
}

func TestMjChoiceIsUniform(t *testing.T) {
	r, _ := newTestRoom(t)
	addReadyPlayers(t, r, "alice", "bob", "carol")

	r.pickIndex = func(n int) int {
		if n != 3 {
			t.Fatalf("pickIndex over %d players, want 3", n)
		}
		return 2
	}
	mj, started := r.TryStartRound()
	if !started || mj != "carol" {
		t.Fatalf("mj = %q started = %v, want carol via index 2", mj, started)
	}
}

func TestSelectTargetValidation(t *testing.T) {
	cases := []struct {
		name    string
		session string
		row     int
		col     int
		wantErr bool
	}{
		{name: "mj in bounds", session: "", row: 2, col: 3, wantErr: false},
		{name: "not the mj", session: "other", row: 2, col: 3, wantErr: true},
		{name: "row out of bounds", session: "", row: 5, col: 0, wantErr: true},
		{name: "negative col", session: "", row: 0, col: -1, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRoom(t)
			addReadyPlayers(t, r, "alice", "bob")
			mj, started := r.TryStartRound()
			if !started {
				t.Fatal("round did not start")
			}

			sessionID := tc.session
			if sessionID == "" {
				sessionID = mj
			} else {
				// Any non-MJ player.
				sessionID = other(mj, "alice", "bob")
			}

			err := r.SelectTarget(sessionID, tc.row, tc.col)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !tc.wantErr && r.CurrentPhase() != PhaseClicking {
				t.Fatalf("phase = %v after select, want Clicking", r.CurrentPhase())
			}
		})
	}
}

func TestSelectTargetRequiresSelectingPhase(t *testing.T) {
	r, _ := newTestRoom(t)
	addReadyPlayers(t, r, "alice", "bob")

	if err := r.SelectTarget("alice", 1, 1); !errors.Is(err, ErrInvalidSelect) {
		t.Fatalf("select while Waiting: got %v, want ErrInvalidSelect", err)
	}
}

func TestMjLeavingMidRoundResetsRoom(t *testing.T) {
	r, _ := newTestRoom(t)
	addReadyPlayers(t, r, "alice", "bob", "carol")
	mj, started := r.TryStartRound()
	if !started {
		t.Fatal("round did not start")
	}
	if err := r.SelectTarget(mj, 1, 1); err != nil {
		t.Fatal(err)
	}

	if reset, _ := r.RemoveMember(mj); !reset {
		t.Fatal("removing the MJ mid-round did not reset the room")
	}
	if got := r.CurrentPhase(); got != PhaseWaiting {
		t.Fatalf("phase = %v after MJ left, want Waiting", got)
	}
	if r.MjSessionID() != "" {
		t.Fatal("MJ still set after reset")
	}

	// Ready flags were cleared, so the remaining players can start fresh.
	snap := r.Snapshot()
	for _, p := range snap.Players {
		if p.Ready {
			t.Fatalf("player %s still ready after reset", p.SessionID)
		}
	}
}

func TestNonMjLeavingDoesNotReset(t *testing.T) {
	r, clock := newTestRoom(t)
	addReadyPlayers(t, r, "alice", "bob", "carol")
	mj, _ := r.TryStartRound()
	if err := r.SelectTarget(mj, 1, 1); err != nil {
		t.Fatal(err)
	}

	leaver := other(mj, "alice", "bob", "carol")
	if reset, _ := r.RemoveMember(leaver); reset {
		t.Fatal("non-MJ leave reset the room")
	}
	if got := r.CurrentPhase(); got != PhaseClicking {
		t.Fatalf("phase = %v, want Clicking", got)
	}

	// The leaver no longer gates early finalize.
	clock.Advance(50 * time.Millisecond)
	remaining := other(mj, "alice", "bob", "carol")
	if remaining == leaver {
		remaining = lastOther(mj, leaver, "alice", "bob", "carol")
	}
	_, finished, err := r.RegisterClick(remaining, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !finished {
		t.Fatal("round not finished after the only remaining eligible player clicked")
	}
}

// other returns the first id that differs from excluded.
func other(excluded string, ids ...string) string {
	for _, id := range ids {
		if id != excluded {
			return id
		}
	}
	return ""
}

func lastOther(a, b string, ids ...string) string {
	for _, id := range ids {
		if id != a && id != b {
			return id
		}
	}
	return ""
}
