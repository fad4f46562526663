package sim

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// DefaultRespawnDelay is how long a dead player's RespawnTimer counts
// down before respawn, per spec.md §3.
const DefaultRespawnDelay = 2.0

// DefaultInvincibilityDuration is how long a just-respawned player's
// InvincibilityTimer lasts.
const DefaultInvincibilityDuration = 2.0

// RespawnPoint is where a respawning player's Transform is reinitialized
// to, per spec.md §4.3's Checkpoint "respawn point" wording.
type RespawnPoint struct {
	X, Y float64
}

// KillPlayer starts a dying player's respawn countdown instead of letting
// DestructionSystem destroy the entity, per spec.md §3: "kept alive with
// RespawnTimer". The caller must exclude id from DestructionSystem's
// deadList when calling this.
func KillPlayer(r *ecs.Registry, id ecs.EntityID) {
	ecs.Remove[components.InvincibilityTimer](r, id)
	_ = ecs.Emplace(r, id, components.RespawnTimer{Remaining: DefaultRespawnDelay})
}

// RespawnSystem counts down every live player's RespawnTimer and
// InvincibilityTimer. On RespawnTimer expiry it reinitializes Transform to
// point, refills Health, clears RespawnTimer, and grants a fresh
// InvincibilityTimer, per spec.md §3's "respawn reinitializes transform
// and grants a brief InvincibilityTimer".
func RespawnSystem(r *ecs.Registry, dt float64, point RespawnPoint) {
	view := ecs.NewView1[components.Tag](r)
	var players []ecs.EntityID
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		if view.Get(id).Has(components.TagPlayer) {
			players = append(players, id)
		}
	}

	for _, id := range players {
		if timer, err := ecs.Get[components.RespawnTimer](r, id); err == nil {
			timer.Remaining -= dt
			if timer.Remaining > 0 {
				_ = ecs.Emplace(r, id, timer)
				continue
			}
			respawnPlayer(r, id, point)
			continue
		}
		tickInvincibility(r, id, dt)
	}
}

func respawnPlayer(r *ecs.Registry, id ecs.EntityID, point RespawnPoint) {
	ecs.Remove[components.RespawnTimer](r, id)
	if health, err := ecs.Get[components.Health](r, id); err == nil {
		health.Current = health.Max
		_ = ecs.Emplace(r, id, health)
	}
	if transform, err := ecs.Get[components.Transform](r, id); err == nil {
		transform.X, transform.Y = point.X, point.Y
		_ = ecs.Emplace(r, id, transform)
	}
	_ = ecs.Emplace(r, id, components.InvincibilityTimer{Remaining: DefaultInvincibilityDuration})
}

func tickInvincibility(r *ecs.Registry, id ecs.EntityID, dt float64) {
	inv, err := ecs.Get[components.InvincibilityTimer](r, id)
	if err != nil || inv.Remaining <= 0 {
		return
	}
	inv.Remaining -= dt
	if inv.Remaining < 0 {
		inv.Remaining = 0
	}
	_ = ecs.Emplace(r, id, inv)
}
