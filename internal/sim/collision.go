package sim

import (
	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
	"github.com/nebulaforge/shootercore/internal/geom"
)

// Pair is an unordered collision result with A.Index < B.Index, stable for
// tests per spec.md §4.2.
type Pair struct {
	A, B ecs.EntityID
}

func less(a, b ecs.EntityID) bool {
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return a.Generation < b.Generation
}

// buildShape projects a Transform plus its Collider/Hitbox onto a
// world-space geom.Shape. Prefers Collider when present and active,
// falling back to Hitbox. Returns ok=false for non-collidable entities
// (neither component, or failing spec.md's validity checks).
func buildShape(r *ecs.Registry, id ecs.EntityID) (geom.Shape, bool) {
	transform, err := ecs.Get[components.Transform](r, id)
	if err != nil {
		return geom.Shape{}, false
	}

	if collider, err := ecs.Get[components.Collider](r, id); err == nil && collider.Active {
		return shapeFromCollider(transform, collider), true
	}
	if hitbox, err := ecs.Get[components.Hitbox](r, id); err == nil && hitbox.Active {
		return shapeFromHitbox(transform, hitbox), true
	}
	return geom.Shape{}, false
}

func shapeFromHitbox(t components.Transform, h components.Hitbox) geom.Shape {
	center := geom.New(
		t.X+h.OffsetX*t.ScaleX,
		t.Y+h.OffsetY*t.ScaleY,
	)
	halfW := h.W * t.ScaleX / 2
	halfH := h.H * t.ScaleY / 2
	return geom.NewBox(center, halfW, halfH, t.Rotation)
}

func shapeFromCollider(t components.Transform, c components.Collider) geom.Shape {
	offset := geom.Rotate(geom.New(c.OffsetX*t.ScaleX, c.OffsetY*t.ScaleY), t.Rotation)
	center := geom.Add(geom.New(t.X, t.Y), offset)

	switch c.Shape {
	case components.ColliderCircle:
		return geom.NewCircle(center, c.DimX*t.ScaleX)
	case components.ColliderPolygon:
		points := make([]geom.Vec2, len(c.Points))
		for i, p := range c.Points {
			local := geom.New(p.X*t.ScaleX, p.Y*t.ScaleY)
			points[i] = geom.Add(center, geom.Rotate(local, t.Rotation))
		}
		return geom.NewPolygon(points)
	default: // ColliderBox
		return geom.NewBox(center, c.DimX*t.ScaleX, c.DimY*t.ScaleY, t.Rotation)
	}
}

// CollisionSystem detects all overlapping collidable pairs this tick. It
// has no side effects: callers (DamageSystem) decide what a collision
// means. Detection is two-pass: AABB prune, then exact SAT/circle test.
func CollisionSystem(r *ecs.Registry) []Pair {
	type entry struct {
		id    ecs.EntityID
		shape geom.Shape
	}

	var entries []entry
	view := ecs.NewView1[components.Transform](r)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		if !ecs.Has[components.Hitbox](r, id) && !ecs.Has[components.Collider](r, id) {
			continue
		}
		shape, ok := buildShape(r, id)
		if !ok || !shape.Valid() {
			continue
		}
		entries = append(entries, entry{id: id, shape: shape})
	}

	var pairs []Pair
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if !geom.AABBOverlap(a.shape, b.shape) {
				continue
			}
			if !geom.Intersects(a.shape, b.shape) {
				continue
			}
			if less(a.id, b.id) {
				pairs = append(pairs, Pair{A: a.id, B: b.id})
			} else {
				pairs = append(pairs, Pair{A: b.id, B: a.id})
			}
		}
	}
	return pairs
}
