package room

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
)

// Registry owns every room for the lifetime of the process. Ids come from
// an atomically incremented sequence, so dynamically created rooms never
// collide with the startup pool. Rooms are never deleted.
type Registry struct {
	clock            clockwork.Clock
	defaultBoardSize int

	seq atomic.Int64

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry seeds the fixed startup pool room-1..room-n.
func NewRegistry(clock clockwork.Clock, defaultBoardSize, initialCount int) *Registry {
	reg := &Registry{
		clock:            clock,
		defaultBoardSize: defaultBoardSize,
		rooms:            make(map[string]*Room),
	}
	for i := 1; i <= initialCount; i++ {
		id := fmt.Sprintf("room-%d", i)
		reg.rooms[id] = New(id, fmt.Sprintf("Room %d", i), int64(i), defaultBoardSize, clock)
	}
	reg.seq.Store(int64(initialCount))
	return reg
}

// Create allocates a room with the next sequential id. An empty name gets
// the default "Room N" label; boardSize zero means the server default.
func (reg *Registry) Create(name string, boardSize int) *Room {
	if boardSize == 0 {
		boardSize = reg.defaultBoardSize
	}
	for {
		seq := reg.seq.Add(1)
		id := fmt.Sprintf("room-%d", seq)
		roomName := strings.TrimSpace(name)
		if roomName == "" {
			roomName = fmt.Sprintf("Room %d", seq)
		}

		reg.mu.Lock()
		if _, exists := reg.rooms[id]; exists {
			reg.mu.Unlock()
			continue
		}
		rm := New(id, roomName, seq, boardSize, reg.clock)
		reg.rooms[id] = rm
		reg.mu.Unlock()
		return rm
	}
}

func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rm, ok := reg.rooms[id]
	return rm, ok
}

// List returns every room in creation order.
func (reg *Registry) List() []*Room {
	reg.mu.RLock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, rm := range reg.rooms {
		out = append(out, rm)
	}
	reg.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
