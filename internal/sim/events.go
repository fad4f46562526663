// Package sim implements the per-tick simulation systems of spec.md §4.2:
// pure functions over an ecs.Registry and a time delta, invoked in a fixed
// order each tick by the room's loop thread.
package sim

import "github.com/nebulaforge/shootercore/internal/ecs"

// DamageEvent is emitted by DamageSystem for every applied hit.
type DamageEvent struct {
	Attacker  ecs.EntityID
	Target    ecs.EntityID
	Amount    float64
	Remaining float64
}

// DestroyEvent is emitted by DestructionSystem for every entity it removes.
type DestroyEvent struct {
	ID ecs.EntityID
}

// Bus is the tick-local, single-threaded event bus described in spec.md
// §9: synchronous fan-out, subscribers are pure functions of the event and
// the registry, no cross-thread publishing.
type Bus struct {
	damageSubs  []func(*ecs.Registry, DamageEvent)
	destroySubs []func(*ecs.Registry, DestroyEvent)
}

// NewBus builds an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnDamage registers a DamageEvent subscriber.
func (b *Bus) OnDamage(fn func(*ecs.Registry, DamageEvent)) {
	b.damageSubs = append(b.damageSubs, fn)
}

// OnDestroy registers a DestroyEvent subscriber.
func (b *Bus) OnDestroy(fn func(*ecs.Registry, DestroyEvent)) {
	b.destroySubs = append(b.destroySubs, fn)
}

// PublishDamage fans e out to every DamageEvent subscriber, in registration
// order.
func (b *Bus) PublishDamage(r *ecs.Registry, e DamageEvent) {
	for _, fn := range b.damageSubs {
		fn(r, e)
	}
}

// PublishDestroy fans e out to every DestroyEvent subscriber.
func (b *Bus) PublishDestroy(r *ecs.Registry, e DestroyEvent) {
	for _, fn := range b.destroySubs {
		fn(r, e)
	}
}
