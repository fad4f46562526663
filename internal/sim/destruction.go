package sim

import "github.com/nebulaforge/shootercore/internal/ecs"

// DestructionSystem destroys every still-live id in deadList and emits a
// DestroyEvent for each, per spec.md §4.2. The caller composes deadList
// each tick from health-reached-zero, expired missiles, and off-screen
// cleanup.
func DestructionSystem(r *ecs.Registry, bus *Bus, deadList []ecs.EntityID) {
	for _, id := range deadList {
		if !r.IsAlive(id) {
			continue
		}
		r.Destroy(id)
		bus.PublishDestroy(r, DestroyEvent{ID: id})
	}
}
