package room

// Summary is the lobby-facing projection of one room.
type Summary struct {
	Phase     string
	Players   int
	Observers int
}

// PlayerEntry is one player inside a room snapshot.
type PlayerEntry struct {
	SessionID string
	Ready     bool
	IsMj      bool
}

// Snapshot is the member-facing projection of one room, taken atomically
// under the room lock so broadcasts can run lock-free afterwards.
type Snapshot struct {
	Phase     string
	Players   []PlayerEntry
	Observers []string
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Phase:     r.phase.String(),
		Players:   len(r.players),
		Observers: len(r.observers),
	}
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]PlayerEntry, 0, len(r.players))
	for _, id := range r.players {
		players = append(players, PlayerEntry{
			SessionID: id,
			Ready:     r.ready[id],
			IsMj:      r.mjSessionID == id,
		})
	}
	return Snapshot{
		Phase:     r.phase.String(),
		Players:   players,
		Observers: append([]string(nil), r.observers...),
	}
}

// MemberIDs lists every current member, players then observers.
func (r *Room) MemberIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.players)+len(r.observers))
	ids = append(ids, r.players...)
	ids = append(ids, r.observers...)
	return ids
}

// CurrentPhase reads the phase for precondition checks and tests.
func (r *Room) CurrentPhase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// MjSessionID reads the current MJ, empty outside a round.
func (r *Room) MjSessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mjSessionID
}
