package sim

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
	"github.com/nebulaforge/shootercore/internal/geom"
)

// MovementSystem advances every (Transform, Velocity) pair by v*dt. Entities
// with non-finite velocity are skipped rather than corrupting position
// (spec.md testable property 3).
func MovementSystem(r *ecs.Registry, dt float64) {
	view := ecs.NewView2[components.Transform, components.Velocity](r)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		transform, vel := view.Get(id)
		v := geom.New(vel.VX, vel.VY)
		if !geom.IsFinite(v) {
			continue
		}
		transform.X += vel.VX * dt
		transform.Y += vel.VY * dt
		_ = ecs.Emplace(r, id, transform)
	}
}
