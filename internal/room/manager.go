package room

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/nebulaforge/shootercore/internal/adminhttp"
	"github.com/nebulaforge/shootercore/internal/level"
)

// Manager owns every live room in the process, keyed by a ULID so ids
// sort chronologically and never collide across restarts.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*GameInstance
}

// NewManager builds an empty room manager.
func NewManager() *Manager {
	return &Manager{rooms: make(map[string]*GameInstance)}
}

// CreateRoom builds a new GameInstance in the Lobby state and registers
// it under a freshly generated id.
func (m *Manager) CreateRoom(cfg RoomConfig, lvl *level.LevelData) (string, *GameInstance) {
	id := ulid.Make().String()
	g := NewGameInstance(cfg, lvl)

	m.mu.Lock()
	m.rooms[id] = g
	m.mu.Unlock()
	return id, g
}

// Room looks up a room by id.
func (m *Manager) Room(id string) (*GameInstance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.rooms[id]
	return g, ok
}

// Remove drops a finished room from the manager.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// ListRooms implements adminhttp.RoomLister.
func (m *Manager) ListRooms() []adminhttp.RoomSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]adminhttp.RoomSummary, 0, len(m.rooms))
	for id, g := range m.rooms {
		levelID := 0

		g.mu.Lock()
		state := g.State
		players := len(g.sessions)
		if g.Level != nil {
			levelID = g.Level.LevelID
		}
		g.mu.Unlock()

		summaries = append(summaries, adminhttp.RoomSummary{
			ID:          id,
			State:       stateString(state),
			PlayerCount: players,
			LevelID:     levelID,
		})
	}
	return summaries
}

func stateString(s State) string {
	switch s {
	case Lobby:
		return "lobby"
	case Countdown:
		return "countdown"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// ActivePlayerCount sums joined players across every room, for the
// active-players gauge.
func (m *Manager) ActivePlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, g := range m.rooms {
		g.mu.Lock()
		total += len(g.sessions)
		g.mu.Unlock()
	}
	return total
}

// RoomCount returns how many rooms are currently tracked.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
