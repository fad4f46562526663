package sim

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// EnemyShootingSystem fires periodic projectiles for every
// (EnemyShooting, Transform, Tag∋Enemy) entity, per spec.md §4.2. Returns
// the ids of all projectiles spawned this tick; enemy-fired missiles are
// not tracked by any spawn group (unlike waves/bosses, they have no
// bounded group lifecycle a trigger would ever wait on), so most callers
// discard the result.
func EnemyShootingSystem(r *ecs.Registry, dt float64) []ecs.EntityID {
	view := ecs.NewView3[components.EnemyShooting, components.Transform, components.Tag](r)
	var ids []ecs.EntityID
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		ids = append(ids, id)
	}

	var spawned []ecs.EntityID
	for _, id := range ids {
		shooting, transform, tag := view.Get(id)
		if !tag.Has(components.TagEnemy) {
			continue
		}
		acc := shooting.TimeSinceLastShot + dt
		for shooting.Interval > 0 && acc >= shooting.Interval {
			acc -= shooting.Interval
			spawned = append(spawned, spawnEnemyMissile(r, transform, shooting, id))
		}
		shooting.TimeSinceLastShot = acc
		_ = ecs.Emplace(r, id, shooting)
	}
	return spawned
}

func spawnEnemyMissile(r *ecs.Registry, origin components.Transform, shooting components.EnemyShooting, owner ecs.EntityID) ecs.EntityID {
	id := r.Create()
	_ = ecs.Emplace(r, id, components.Transform{X: origin.X, Y: origin.Y, ScaleX: 1, ScaleY: 1})
	_ = ecs.Emplace(r, id, components.Velocity{VX: -shooting.Speed, VY: 0})
	_ = ecs.Emplace(r, id, components.Missile{
		Damage:     shooting.Damage,
		Lifetime:   shooting.Lifetime,
		FromPlayer: false,
	})
	_ = ecs.Emplace(r, id, components.Ownership{OwnerID: owner})
	_ = ecs.Emplace(r, id, components.Tag{Bits: uint32(components.TagProjectile)})
	_ = ecs.Emplace(r, id, components.Hitbox{W: 0.5, H: 0.5, Active: true})
	return id
}
