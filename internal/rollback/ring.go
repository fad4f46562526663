// Package rollback implements the state-snapshot ring buffer and the
// client-checksum desync detector of spec.md §4.7.
package rollback

import (
	"github.com/golang/snappy"

	"github.com/nebulaforge/shootercore/internal/ecs"
	"github.com/nebulaforge/shootercore/internal/protocol"
)

// DefaultCapacity is the worst-case-RTT-tuned ring size spec.md §4.5
// names: 120 frames at 60 Hz is 2 seconds of history.
const DefaultCapacity = 120

type ringEntry struct {
	tick       uint64
	compressed []byte
	valid      bool
}

// Ring is a bounded ring of (tick, compressed per-entity summary)
// entries. It holds no reference to a live ecs.Registry; callers capture
// a tick's state with Capture and look it up later with Lookup.
type Ring struct {
	entries []ringEntry
}

// NewRing builds a ring with the given capacity (DefaultCapacity if <= 0).
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]ringEntry, capacity)}
}

// Capture snapshots every id in live (via the same per-entity field set
// replication uses) and stores it snappy-compressed at tick's ring slot,
// evicting whatever previously occupied that slot.
func (rg *Ring) Capture(r *ecs.Registry, tick uint64, live []ecs.EntityID, stateOf func(*ecs.Registry, ecs.EntityID) (protocol.EntityState, bool)) {
	states := make([]protocol.EntityState, 0, len(live))
	for _, id := range live {
		if s, ok := stateOf(r, id); ok {
			states = append(states, s)
		}
	}
	raw := protocol.EncodeSnapshot(states)
	compressed := snappy.Encode(nil, raw)

	slot := int(tick % uint64(len(rg.entries)))
	rg.entries[slot] = ringEntry{tick: tick, compressed: compressed, valid: true}
}

// Lookup returns the decoded entity states captured at tick, or ok=false
// if that tick was never captured or has since been evicted by a newer
// tick landing on the same slot.
func (rg *Ring) Lookup(tick uint64) ([]protocol.EntityState, bool) {
	slot := int(tick % uint64(len(rg.entries)))
	entry := rg.entries[slot]
	if !entry.valid || entry.tick != tick {
		return nil, false
	}
	raw, err := snappy.Decode(nil, entry.compressed)
	if err != nil {
		return nil, false
	}
	states, err := protocol.DecodeSnapshot(raw)
	if err != nil {
		return nil, false
	}
	return states, true
}

// OldestTick reports the smallest tick still resident in the ring, or
// ok=false if the ring holds nothing yet.
func (rg *Ring) OldestTick() (tick uint64, ok bool) {
	best := uint64(0)
	found := false
	for _, e := range rg.entries {
		if e.valid && (!found || e.tick < best) {
			best = e.tick
			found = true
		}
	}
	return best, found
}
