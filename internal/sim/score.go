package sim

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// ScoreMultiplier scales awarded score, e.g. from a room's difficulty
// preset (RoomConfig.ScoreMultiplier).
type ScoreMultiplier float64

// RegisterScoreSystem wires ScoreSystem into bus as the DamageEvent
// subscriber spec.md §4.2 describes: on remaining==0, an Enemy target with
// ScoreValue, and a Player attacker, credit the attacker's Score.
func RegisterScoreSystem(bus *Bus, multiplier ScoreMultiplier) {
	bus.OnDamage(func(r *ecs.Registry, e DamageEvent) {
		if e.Remaining != 0 {
			return
		}
		targetTag, err := ecs.Get[components.Tag](r, e.Target)
		if err != nil || !targetTag.Has(components.TagEnemy) {
			return
		}
		scoreValue, err := ecs.Get[components.ScoreValue](r, e.Target)
		if err != nil {
			return
		}
		attackerTag, err := ecs.Get[components.Tag](r, e.Attacker)
		if err != nil || !attackerTag.Has(components.TagPlayer) {
			return
		}

		score, _ := ecs.Get[components.Score](r, e.Attacker) // zero value if absent
		score.Total += int64(float64(scoreValue.V) * float64(multiplier))
		_ = ecs.Emplace(r, e.Attacker, score)
	})
}
