package sim

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// BoundarySystem clamps every (Transform, Boundary) entity without a
// RespawnTimer into its boundary rectangle, per spec.md §4.2.
func BoundarySystem(r *ecs.Registry) {
	view := ecs.NewView2[components.Transform, components.Boundary](r)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		if ecs.Has[components.RespawnTimer](r, id) {
			continue
		}
		transform, boundary := view.Get(id)
		transform.X = clamp(transform.X, boundary.MinX, boundary.MaxX)
		transform.Y = clamp(transform.Y, boundary.MinY, boundary.MaxY)
		_ = ecs.Emplace(r, id, transform)
	}
}

// PlayerBoundsSystem applies the level director's currently-active camera
// bounds as a per-player Boundary, or the level-default bounds when no
// override is active, per spec.md §4.2.
func PlayerBoundsSystem(r *ecs.Registry, active *components.Boundary, levelDefault components.Boundary) {
	bounds := levelDefault
	if active != nil {
		bounds = *active
	}
	view := ecs.NewView1[components.Tag](r)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		tag := view.Get(id)
		if !tag.Has(components.TagPlayer) {
			continue
		}
		_ = ecs.Emplace(r, id, bounds)
	}
}
