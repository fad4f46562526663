package sim

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// DamageSystem consumes CollisionSystem's pairs and applies health damage
// for every missile/health combination found, in either orientation, per
// spec.md §4.2. Damage events are published to bus as each pair is
// resolved; this satisfies the spec's "dispatched synchronously after all
// pairs are processed" within the tick (ScoreSystem, the only subscriber,
// is order-insensitive). friendlyFire gates whether a player-owned
// missile can damage another player, per SPEC_FULL.md §7's per-room
// friendly-fire toggle.
func DamageSystem(r *ecs.Registry, bus *Bus, pairs []Pair, friendlyFire bool) {
	for _, p := range pairs {
		tryDamage(r, bus, p.A, p.B, friendlyFire)
		tryDamage(r, bus, p.B, p.A, friendlyFire)
	}
}

func tryDamage(r *ecs.Registry, bus *Bus, attackerSide, targetSide ecs.EntityID, friendlyFire bool) {
	missile, err := ecs.Get[components.Missile](r, attackerSide)
	if err != nil {
		return
	}
	health, err := ecs.Get[components.Health](r, targetSide)
	if err != nil {
		return
	}
	if inv, err := ecs.Get[components.InvincibilityTimer](r, targetSide); err == nil && inv.Remaining > 0 {
		return
	}
	if missile.FromPlayer && !friendlyFire {
		if targetTag, err := ecs.Get[components.Tag](r, targetSide); err == nil && targetTag.Has(components.TagPlayer) {
			return
		}
	}

	dmg := missile.Damage
	if otherMissile, err := ecs.Get[components.Missile](r, targetSide); err == nil {
		if otherMissile.Damage > dmg {
			dmg = otherMissile.Damage
		}
	}

	applied := health.Damage(dmg)
	_ = ecs.Emplace(r, targetSide, health)

	attacker := attackerSide
	if own, err := ecs.Get[components.Ownership](r, attackerSide); err == nil {
		attacker = own.OwnerID
	}

	bus.PublishDamage(r, DamageEvent{
		Attacker:  attacker,
		Target:    targetSide,
		Amount:    applied,
		Remaining: health.Current,
	})
}
