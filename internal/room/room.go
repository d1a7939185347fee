package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MaxPlayers is the hard player capacity of every room. Observers are
// unbounded.
const MaxPlayers = 4

// Phase is a room's position in the round cycle.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseMjSelecting
	PhaseClicking
)

func (p Phase) String() string {
	switch p {
	case PhaseMjSelecting:
		return "MjSelecting"
	case PhaseClicking:
		return "Clicking"
	default:
		return "Waiting"
	}
}

var (
	ErrRoomFull      = errors.New("room already has the maximum number of players")
	ErrWrongPhase    = errors.New("operation not allowed in current phase")
	ErrInvalidSelect = errors.New("only the current MJ may select a cell in bounds")
	ErrClickRejected = errors.New("click rejected by room state")
)

// Room is the bounded-membership game entity. Every read-decide-mutate
// sequence runs under one mutex; callers broadcast snapshots only after the
// lock is released so a slow client never stalls game logic.
type Room struct {
	ID        string
	Name      string
	BoardSize int

	seq   int64
	clock clockwork.Clock
	// pickIndex selects the MJ uniformly among n players; swapped for a
	// deterministic function in tests.
	pickIndex func(n int) int

	mu        sync.Mutex
	phase     Phase
	players   []string // join order; also the snapshot order
	observers []string
	ready     map[string]bool

	mjSessionID string
	targetRow   int
	targetCol   int
	clickStart  time.Time
	// eligible is the set of non-MJ players present when the click window
	// opened; only they gate early finalize and fill the result sheet.
	eligible map[string]bool
	clicks   []Click // arrival order, preserved for the stable ranking
	clicked  map[string]bool
}

// Click is one accepted click, timed from the start of the click window.
type Click struct {
	SessionID  string
	ReactionMs int64
}

// New creates a room in the Waiting phase.
func New(id, name string, seq int64, boardSize int, clock clockwork.Clock) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		BoardSize: boardSize,
		seq:       seq,
		clock:     clock,
		pickIndex: rand.Intn,
		ready:     make(map[string]bool),
		clicked:   make(map[string]bool),
	}
}

// AddPlayer admits a session as a player if capacity allows.
func (r *Room) AddPlayer(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) >= MaxPlayers {
		return ErrRoomFull
	}
	r.players = append(r.players, sessionID)
	return nil
}

// AddObserver admits a session as an observer; observer capacity is
// unbounded.
func (r *Room) AddObserver(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, sessionID)
}

// RemoveMember takes a session out of the room entirely. If the member was
// the current MJ mid-round, the room resets to Waiting instead of stalling.
// finished reports that the leave left every remaining eligible player
// clicked, so the caller can finalize without waiting for the timer.
func (r *Room) RemoveMember(sessionID string) (mjReset, finished bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players = remove(r.players, sessionID)
	r.observers = remove(r.observers, sessionID)
	delete(r.ready, sessionID)
	delete(r.eligible, sessionID)
	if r.clicked[sessionID] {
		delete(r.clicked, sessionID)
		for i, c := range r.clicks {
			if c.SessionID == sessionID {
				r.clicks = append(r.clicks[:i], r.clicks[i+1:]...)
				break
			}
		}
	}

	if r.mjSessionID == sessionID && r.phase != PhaseWaiting {
		r.resetRoundLocked()
		return true, false
	}

	if r.phase == PhaseClicking {
		finished = true
		for id := range r.eligible {
			if !r.clicked[id] {
				finished = false
				break
			}
		}
	}
	return false, finished
}

// SetReady records a player's readiness; only meaningful while Waiting.
func (r *Room) SetReady(sessionID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if ready {
		r.ready[sessionID] = true
	} else {
		delete(r.ready, sessionID)
	}
	return nil
}

// TryStartRound fires the Waiting -> MjSelecting transition when at least
// two players are present and every player is ready. The MJ is chosen
// uniformly at random among current players.
func (r *Room) TryStartRound() (mjSessionID string, started bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseWaiting || len(r.players) < 2 {
		return "", false
	}
	for _, id := range r.players {
		if !r.ready[id] {
			return "", false
		}
	}

	r.mjSessionID = r.players[r.pickIndex(len(r.players))]
	r.targetRow = 0
	r.targetCol = 0
	r.clickStart = time.Time{}
	r.clicks = nil
	r.clicked = make(map[string]bool)
	r.eligible = nil
	r.phase = PhaseMjSelecting
	return r.mjSessionID, true
}

// SelectTarget fires MjSelecting -> Clicking: records the target cell,
// snapshots the eligible clickers, and opens the click window.
func (r *Room) SelectTarget(sessionID string, row, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseMjSelecting ||
		r.mjSessionID != sessionID ||
		row < 0 || row >= r.BoardSize ||
		col < 0 || col >= r.BoardSize {
		return ErrInvalidSelect
	}

	r.targetRow = row
	r.targetCol = col
	r.clicks = nil
	r.clicked = make(map[string]bool)
	r.eligible = make(map[string]bool, len(r.players))
	for _, id := range r.players {
		if id != r.mjSessionID {
			r.eligible[id] = true
		}
	}
	r.clickStart = r.clock.Now()
	r.phase = PhaseClicking
	return nil
}

// RegisterClick validates and records one click. A click is accepted iff
// the window is open, the sender is not the MJ, the cell matches the
// target, and the sender has not clicked this round. finished reports that
// every eligible player has now clicked, the early-finalize trigger.
func (r *Room) RegisterClick(sessionID string, row, col int) (reactionMs int64, finished bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	valid := r.phase == PhaseClicking &&
		r.mjSessionID != sessionID &&
		r.isPlayerLocked(sessionID) &&
		r.targetRow == row &&
		r.targetCol == col &&
		!r.clicked[sessionID] &&
		!r.clickStart.IsZero()
	if !valid {
		return 0, false, ErrClickRejected
	}

	reactionMs = r.clock.Now().Sub(r.clickStart).Milliseconds()
	if reactionMs < 0 {
		reactionMs = 0
	}
	r.clicks = append(r.clicks, Click{SessionID: sessionID, ReactionMs: reactionMs})
	r.clicked[sessionID] = true

	finished = true
	for id := range r.eligible {
		if !r.clicked[id] {
			finished = false
			break
		}
	}
	return reactionMs, finished, nil
}

// resetRoundLocked returns the room to Waiting and wipes all round-scoped
// state including ready flags. Callers hold r.mu.
func (r *Room) resetRoundLocked() {
	r.phase = PhaseWaiting
	r.mjSessionID = ""
	r.targetRow = 0
	r.targetCol = 0
	r.clickStart = time.Time{}
	r.clicks = nil
	r.clicked = make(map[string]bool)
	r.eligible = nil
	r.ready = make(map[string]bool)
}

func (r *Room) isPlayerLocked(sessionID string) bool {
	for _, id := range r.players {
		if id == sessionID {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
