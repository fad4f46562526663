package sim

import (
	"math"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// WeaponStats configures one weapon slot's missile archetype, per
// SPEC_FULL.md §7 (per-weapon missile archetypes, room-configured rather
// than hardcoded).
type WeaponStats struct {
	MissileSpeed    float64
	MissileLifetime float64
	MissileDamage   float64
}

// InputSystemConfig bundles per-room tunables PlayerInputSystem needs.
type InputSystemConfig struct {
	PlayerSpeed float64
	Weapons     map[components.WeaponSlot]WeaponStats
}

// InputEvent is one accepted-or-rejected client input, already demuxed to
// a player entity by the caller (the room holds the player-id -> EntityID
// map; spec.md's wire PlayerId is resolved before reaching this system).
type InputEvent struct {
	Player     ecs.EntityID
	SequenceID uint32
	Flags      components.InputFlag
	X, Y       float64
	Angle      float64
	Weapon     components.WeaponSlot
}

// PlayerInputSystem applies one input event per spec.md §4.2. It returns
// the spawned missile id (if Fire was set and a missile was created) and
// whether the event was applied at all (false means dropped as
// late-or-duplicate, or the player entity being dead/gone).
func PlayerInputSystem(r *ecs.Registry, ev InputEvent, cfg InputSystemConfig) (missile ecs.EntityID, applied bool) {
	if !r.IsAlive(ev.Player) {
		return ecs.Nil, false
	}
	if ecs.Has[components.RespawnTimer](r, ev.Player) {
		return ecs.Nil, false
	}
	if cur, err := ecs.Get[components.PlayerInput](r, ev.Player); err == nil {
		if ev.SequenceID <= cur.SequenceID {
			return ecs.Nil, false
		}
	}

	dx, dy := 0.0, 0.0
	if ev.Flags&components.InputMoveUp != 0 {
		dy -= 1
	}
	if ev.Flags&components.InputMoveDown != 0 {
		dy += 1
	}
	if ev.Flags&components.InputMoveLeft != 0 {
		dx -= 1
	}
	if ev.Flags&components.InputMoveRight != 0 {
		dx += 1
	}
	if dx != 0 && dy != 0 {
		inv := 1.0 / math.Sqrt2
		dx *= inv
		dy *= inv
	}

	_ = ecs.Emplace(r, ev.Player, components.PlayerInput{
		SequenceID: ev.SequenceID,
		Flags:      ev.Flags,
		X:          ev.X,
		Y:          ev.Y,
		Angle:      ev.Angle,
	})
	_ = ecs.Emplace(r, ev.Player, components.Velocity{
		VX: dx * cfg.PlayerSpeed,
		VY: dy * cfg.PlayerSpeed,
	})

	missile = ecs.Nil
	if ev.Flags&components.InputFire != 0 {
		missile = spawnPlayerMissile(r, ev, cfg)
	}
	return missile, true
}

func spawnPlayerMissile(r *ecs.Registry, ev InputEvent, cfg InputSystemConfig) ecs.EntityID {
	transform, err := ecs.Get[components.Transform](r, ev.Player)
	if err != nil {
		return ecs.Nil
	}
	stats, ok := cfg.Weapons[ev.Weapon]
	if !ok {
		stats = cfg.Weapons[components.WeaponPrimary]
	}

	id := r.Create()
	_ = ecs.Emplace(r, id, components.Transform{X: transform.X, Y: transform.Y, ScaleX: 1, ScaleY: 1})
	_ = ecs.Emplace(r, id, components.Velocity{
		VX: math.Cos(ev.Angle) * stats.MissileSpeed,
		VY: math.Sin(ev.Angle) * stats.MissileSpeed,
	})
	_ = ecs.Emplace(r, id, components.Missile{
		Damage:     stats.MissileDamage,
		Lifetime:   stats.MissileLifetime,
		FromPlayer: true,
	})
	_ = ecs.Emplace(r, id, components.Ownership{OwnerID: ev.Player})
	_ = ecs.Emplace(r, id, components.Tag{Bits: uint32(components.TagProjectile)})
	_ = ecs.Emplace(r, id, components.Hitbox{W: 0.5, H: 0.5, Active: true})
	return id
}
