package sim

import (
	"math"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// collapse zeroes out a non-finite value, per spec.md's "non-finite
// results collapse to 0" rule for MonsterMovementSystem.
func collapse(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nearestPlayer(r *ecs.Registry, from components.Transform) (components.Transform, bool) {
	view := ecs.NewView2[components.Tag, components.Transform](r)
	best := components.Transform{}
	bestDistSq := math.Inf(1)
	found := false
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		tag, transform := view.Get(id)
		if !tag.Has(components.TagPlayer) {
			continue
		}
		dx, dy := transform.X-from.X, transform.Y-from.Y
		distSq := dx*dx + dy*dy
		if distSq < bestDistSq {
			bestDistSq = distSq
			best = transform
			found = true
		}
	}
	return best, found
}

// MonsterMovementSystem updates Velocity from Movement per spec.md §4.2's
// per-pattern rules, then advances Movement.Time.
func MonsterMovementSystem(r *ecs.Registry, dt float64) {
	view := ecs.NewView2[components.Movement, components.Transform](r)
	var ids []ecs.EntityID
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		movement, transform := view.Get(id)
		var vx, vy float64

		switch movement.Pattern {
		case components.MovementLinear:
			vx, vy = -movement.Speed, 0

		case components.MovementZigzag:
			vx = -movement.Speed
			if movement.Frequency <= 0 {
				vy = 0
			} else {
				period := 1.0 / movement.Frequency
				half := period / 2
				phase := math.Mod(movement.Time, period)
				if phase < half {
					vy = movement.Amplitude
				} else {
					vy = -movement.Amplitude
				}
			}

		case components.MovementSine:
			vx = -movement.Speed
			if math.IsNaN(movement.Amplitude) || math.IsInf(movement.Amplitude, 0) ||
				math.IsNaN(movement.Frequency) || math.IsInf(movement.Frequency, 0) {
				vy = 0
			} else {
				vy = movement.Amplitude * math.Sin(movement.Phase+2*math.Pi*movement.Frequency*movement.Time)
			}

		case components.MovementFollowPlayer:
			if target, found := nearestPlayer(r, transform); found {
				dx, dy := target.X-transform.X, target.Y-transform.Y
				dist := math.Hypot(dx, dy)
				if dist > 0 {
					vx = dx / dist * movement.Speed
					vy = dy / dist * movement.Speed
				}
			} else {
				vx, vy = -movement.Speed, 0
			}
		}

		vx, vy = collapse(vx), collapse(vy)
		movement.Time += dt
		_ = ecs.Emplace(r, id, movement)
		_ = ecs.Emplace(r, id, components.Velocity{VX: vx, VY: vy})
	}
}
