// Package replication builds per-tick snapshot packets from live registry
// state, under an MTU budget, with periodic full-state fallback, per
// spec.md §4.6.
package replication

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
	"github.com/nebulaforge/shootercore/internal/protocol"
)

// MaxPacketBytes is the conservative MTU budget a single snapshot packet's
// payload must stay under (spec.md §4.6).
const MaxPacketBytes = 1400

// FullStateInterval is the tick period at which a full snapshot is
// emitted regardless of the delta cache, so new or lossy peers recover
// without server-side retransmit.
const FullStateInterval = 60

// entitySnapshot is the cached wire-equivalent state of one entity, used
// to diff against the current tick.
type entitySnapshot struct {
	state protocol.EntityState
}

// Manager tracks per-entity last-sent state and produces this tick's
// snapshot packet payloads.
type Manager struct {
	cache map[uint32]entitySnapshot
}

// NewManager builds an empty replication cache.
func NewManager() *Manager {
	return &Manager{cache: make(map[uint32]entitySnapshot)}
}

// SnapshotOf reads the wire-relevant fields off a live entity. Position,
// rotation and scale are always set; the velocity, health, tag and owner
// bits are set only when the entity has that component. The delta pass below
// decides which bits actually get re-sent. Exported so callers needing the
// same per-entity state (rollback.Ring.Capture, checksum computation) read
// exactly what replication would have sent.
func SnapshotOf(r *ecs.Registry, id ecs.EntityID) (protocol.EntityState, bool) {
	transform, err := ecs.Get[components.Transform](r, id)
	if err != nil {
		return protocol.EntityState{}, false
	}
	s := protocol.EntityState{
		EntityID: id.Index,
		Mask:     protocol.FieldPosition | protocol.FieldRotation | protocol.FieldScale,
		X:        transform.X, Y: transform.Y,
		Rotation: transform.Rotation,
		ScaleX:   transform.ScaleX, ScaleY: transform.ScaleY,
	}
	if v, err := ecs.Get[components.Velocity](r, id); err == nil {
		s.Mask |= protocol.FieldVelocity
		s.VX, s.VY = v.VX, v.VY
	}
	if h, err := ecs.Get[components.Health](r, id); err == nil {
		s.Mask |= protocol.FieldHealth
		s.Health = h.Current
	}
	if tag, err := ecs.Get[components.Tag](r, id); err == nil {
		s.Mask |= protocol.FieldTag
		s.Tag = tag.Bits
	}
	if own, err := ecs.Get[components.Ownership](r, id); err == nil {
		s.Mask |= protocol.FieldOwner
		s.OwnerID = own.OwnerID.Index
	}
	return s, true
}

func changed(prev, cur protocol.EntityState) bool {
	return prev != cur
}

// BuildTick computes this tick's snapshot payloads. If forceFull is true
// (tick % FullStateInterval == 0, or a peer just joined) every live
// entity is encoded; otherwise only spawned/despawned/modified entities
// are. Payloads are split so each stays within MaxPacketBytes.
func (m *Manager) BuildTick(r *ecs.Registry, liveIDs []ecs.EntityID, forceFull bool) [][]byte {
	live := make(map[uint32]bool, len(liveIDs))
	var states []protocol.EntityState

	for _, id := range liveIDs {
		cur, ok := SnapshotOf(r, id)
		if !ok {
			continue
		}
		live[id.Index] = true
		prev, existed := m.cache[id.Index]
		if forceFull || !existed || changed(prev.state, cur) {
			states = append(states, cur)
		}
		m.cache[id.Index] = entitySnapshot{state: cur}
	}

	if !forceFull {
		for entID := range m.cache {
			if !live[entID] {
				states = append(states, protocol.EntityState{EntityID: entID, Mask: protocol.FieldDespawned})
				delete(m.cache, entID)
			}
		}
	} else {
		for entID := range m.cache {
			if !live[entID] {
				delete(m.cache, entID)
			}
		}
	}

	return packStates(states)
}

// packStates splits states across as many payloads as needed to keep
// each under MaxPacketBytes.
func packStates(states []protocol.EntityState) [][]byte {
	if len(states) == 0 {
		return nil
	}
	var payloads [][]byte
	var batch []protocol.EntityState
	batchSize := 0

	flush := func() {
		if len(batch) > 0 {
			payloads = append(payloads, protocol.EncodeSnapshot(batch))
			batch = nil
			batchSize = 0
		}
	}

	for _, s := range states {
		entrySize := entrySizeOf(s)
		if batchSize+entrySize > MaxPacketBytes && len(batch) > 0 {
			flush()
		}
		batch = append(batch, s)
		batchSize += entrySize
	}
	flush()
	return payloads
}

func entrySizeOf(s protocol.EntityState) int {
	return len(protocol.EncodeSnapshot([]protocol.EntityState{s}))
}

// ShouldForceFull reports whether tick warrants a full snapshot per
// FullStateInterval, per spec.md §4.6.
func ShouldForceFull(tick uint64) bool {
	return tick%FullStateInterval == 0
}

// Reset forgets every cached entity, forcing a full snapshot on the next
// tick; used when a peer reconnects or falls too far behind to delta.
func (m *Manager) Reset() {
	m.cache = make(map[uint32]entitySnapshot)
}
