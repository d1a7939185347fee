package room

import "sort"

// ResultEntry is one player's line in a round result sheet.
type ResultEntry struct {
	SessionID  string
	IsValid    bool
	ReactionMs int64 // meaningful only when IsValid
	Rank       int   // 1..k over valid clicks; 0 when unranked
}

// RoundResult is the transient outcome of one Clicking -> Waiting
// transition. It is broadcast once and never stored.
type RoundResult struct {
	MjSessionID string
	Entries     []ResultEntry
	// PlayerIDs are the room's players at finalize time, so the caller can
	// clear their session-side ready flags after the lock is released.
	PlayerIDs []string
}

// Finalize fires Clicking -> Waiting. It is the single finalize routine
// shared by the round timer and the last-click path: both race freely
// because the phase re-check under the lock makes the loser a no-op, so
// state mutates and the result exists exactly once per round.
func (r *Room) Finalize() (RoundResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseClicking {
		return RoundResult{}, false
	}

	// Valid clicks in arrival order; the stable sort keeps that order as
	// the tie-break for exactly equal reaction times.
	ranked := make([]ResultEntry, 0, len(r.clicks))
	for _, c := range r.clicks {
		ranked = append(ranked, ResultEntry{
			SessionID:  c.SessionID,
			IsValid:    true,
			ReactionMs: c.ReactionMs,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ReactionMs < ranked[j].ReactionMs
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	entries := ranked
	for id := range r.eligible {
		if !r.clicked[id] {
			entries = append(entries, ResultEntry{SessionID: id})
		}
	}
	// Unranked entries in player join order, not map order.
	sort.SliceStable(entries[len(ranked):], func(i, j int) bool {
		return r.playerIndex(entries[len(ranked)+i].SessionID) < r.playerIndex(entries[len(ranked)+j].SessionID)
	})

	result := RoundResult{
		MjSessionID: r.mjSessionID,
		Entries:     entries,
		PlayerIDs:   append([]string(nil), r.players...),
	}
	r.resetRoundLocked()
	return result, true
}

func (r *Room) playerIndex(sessionID string) int {
	for i, id := range r.players {
		if id == sessionID {
			return i
		}
	}
	return len(r.players)
}
