// Package geom supplies the 2D primitives the simulation and collision
// systems are built on. It wraps golang/geo's r2.Point rather than
// reinventing vector math, and adds the handful of operations r2 doesn't
// carry (rotation, perpendicular, finiteness checks, shape types).
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Vec2 is a 2D point/vector. Aliased directly to r2.Point so Add, Sub, Mul,
// Dot and Norm come from golang/geo.
type Vec2 = r2.Point

// New builds a Vec2.
func New(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Zero is the additive identity.
var Zero = Vec2{}

// IsFinite reports whether both components are finite (not NaN/Inf).
func IsFinite(v Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Scale multiplies v by s. (r2.Point.Mul exists but reads awkwardly at
// call sites mixed with our own helpers, so we expose a symmetric name.)
func Scale(v Vec2, s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Add is a free-function mirror of r2.Point.Add for call sites that prefer it.
func Add(a, b Vec2) Vec2 {
	return Vec2{X: a.X + b.X, Y: a.Y + b.Y}
}

// Sub is a free-function mirror of r2.Point.Sub.
func Sub(a, b Vec2) Vec2 {
	return Vec2{X: a.X - b.X, Y: a.Y - b.Y}
}

// Cross returns the 2D scalar cross product (z-component of the 3D cross).
func Cross(a, b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Dot returns the dot product.
func Dot(a, b Vec2) float64 {
	return a.X*b.X + a.Y*b.Y
}

// Length returns the Euclidean norm.
func Length(v Vec2) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit vector in the direction of v, or the zero
// vector if v has zero length.
func Normalize(v Vec2) Vec2 {
	l := Length(v)
	if l == 0 {
		return Zero
	}
	return Scale(v, 1/l)
}

// Perp returns v rotated 90 degrees counter-clockwise.
func Perp(v Vec2) Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Rotate rotates v by angle radians counter-clockwise.
func Rotate(v Vec2, angle float64) Vec2 {
	s, c := math.Sin(angle), math.Cos(angle)
	return Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// ShapeKind tags the variant held by a Shape.
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeCircle
	ShapePolygon
)

// Shape is a world-space collision shape, produced by projecting a
// Transform + Collider/Hitbox pair. Polygon holds the box corners too, so
// downstream SAT code only has to special-case circles.
type Shape struct {
	Kind     ShapeKind
	Center   Vec2 // circle center; also used as a cheap AABB-prune anchor
	Radius   float64
	Polygon  []Vec2 // ordered vertices, box corners for ShapeBox
	AABBMin  Vec2
	AABBMax  Vec2
}

// Valid reports whether the shape passes the basic sanity checks spec'd
// for CollisionSystem: finite geometry, positive extents, polygon arity.
func (s Shape) Valid() bool {
	if !IsFinite(s.Center) {
		return false
	}
	switch s.Kind {
	case ShapeCircle:
		return s.Radius > 0 && !math.IsNaN(s.Radius) && !math.IsInf(s.Radius, 0)
	case ShapeBox, ShapePolygon:
		if len(s.Polygon) < 3 {
			return false
		}
		for _, p := range s.Polygon {
			if !IsFinite(p) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func computeAABB(points []Vec2) (min, max Vec2) {
	min = Vec2{X: math.Inf(1), Y: math.Inf(1)}
	max = Vec2{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range points {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// NewBox builds an axis-aligned (pre-rotation) box shape centered at
// center with the given half-extents, rotated by angle radians.
func NewBox(center Vec2, halfW, halfH, angle float64) Shape {
	corners := []Vec2{
		{X: -halfW, Y: -halfH},
		{X: halfW, Y: -halfH},
		{X: halfW, Y: halfH},
		{X: -halfW, Y: halfH},
	}
	poly := make([]Vec2, len(corners))
	for i, c := range corners {
		poly[i] = Add(center, Rotate(c, angle))
	}
	min, max := computeAABB(poly)
	return Shape{Kind: ShapeBox, Center: center, Polygon: poly, AABBMin: min, AABBMax: max}
}

// NewCircle builds a circle shape.
func NewCircle(center Vec2, radius float64) Shape {
	return Shape{
		Kind:    ShapeCircle,
		Center:  center,
		Radius:  radius,
		AABBMin: Vec2{X: center.X - radius, Y: center.Y - radius},
		AABBMax: Vec2{X: center.X + radius, Y: center.Y + radius},
	}
}

// NewPolygon builds a polygon shape from world-space vertices.
func NewPolygon(points []Vec2) Shape {
	min, max := computeAABB(points)
	var centroid Vec2
	for _, p := range points {
		centroid = Add(centroid, p)
	}
	if len(points) > 0 {
		centroid = Scale(centroid, 1/float64(len(points)))
	}
	return Shape{Kind: ShapePolygon, Center: centroid, Polygon: points, AABBMin: min, AABBMax: max}
}

// AABBOverlap is the broad-phase prune: true if the two AABBs overlap
// (touching edges count as overlap, matching spec's touching-box case).
func AABBOverlap(a, b Shape) bool {
	return a.AABBMin.X <= b.AABBMax.X && a.AABBMax.X >= b.AABBMin.X &&
		a.AABBMin.Y <= b.AABBMax.Y && a.AABBMax.Y >= b.AABBMin.Y
}
