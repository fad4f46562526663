package sim

import (
	"testing"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

func TestFriendlyFireOffProtectsPlayers(t *testing.T) {
	r := ecs.NewRegistry()
	bus := NewBus()

	attacker := r.Create()
	_ = ecs.Emplace(r, attacker, components.Missile{Damage: 10, FromPlayer: true})

	victim := r.Create()
	_ = ecs.Emplace(r, victim, components.Health{Current: 20, Max: 20})
	_ = ecs.Emplace(r, victim, components.Tag{Bits: uint32(components.TagPlayer)})

	DamageSystem(r, bus, []Pair{{A: attacker, B: victim}}, false)

	health, _ := ecs.Get[components.Health](r, victim)
	if health.Current != 20 {
		t.Fatalf("expected no damage with friendly fire off, got health %v", health.Current)
	}
}

func TestFriendlyFireOnAppliesDamage(t *testing.T) {
	r := ecs.NewRegistry()
	bus := NewBus()

	attacker := r.Create()
	_ = ecs.Emplace(r, attacker, components.Missile{Damage: 10, FromPlayer: true})

	victim := r.Create()
	_ = ecs.Emplace(r, victim, components.Health{Current: 20, Max: 20})
	_ = ecs.Emplace(r, victim, components.Tag{Bits: uint32(components.TagPlayer)})

	DamageSystem(r, bus, []Pair{{A: attacker, B: victim}}, true)

	health, _ := ecs.Get[components.Health](r, victim)
	if health.Current != 10 {
		t.Fatalf("expected friendly fire to apply damage, got health %v", health.Current)
	}
}

func TestEnemyDamageUnaffectedByFriendlyFireToggle(t *testing.T) {
	r := ecs.NewRegistry()
	bus := NewBus()

	attacker := r.Create()
	_ = ecs.Emplace(r, attacker, components.Missile{Damage: 10, FromPlayer: true})

	enemy := r.Create()
	_ = ecs.Emplace(r, enemy, components.Health{Current: 20, Max: 20})
	_ = ecs.Emplace(r, enemy, components.Tag{Bits: uint32(components.TagEnemy)})

	DamageSystem(r, bus, []Pair{{A: attacker, B: enemy}}, false)

	health, _ := ecs.Get[components.Health](r, enemy)
	if health.Current != 10 {
		t.Fatalf("expected enemy damage regardless of friendly-fire toggle, got health %v", health.Current)
	}
}
