package geom

import "math"

// Intersects runs the exact narrow-phase test for two valid, AABB-overlapping
// shapes: circle/circle by distance, polygon/polygon by SAT, circle/polygon
// by SAT against the polygon's edge normals plus the axis through the
// circle center and the nearest polygon vertex. Boxes are polygons with
// four corners, so they fall into the polygon/polygon and circle/polygon
// cases without special-casing.
func Intersects(a, b Shape) bool {
	if a.Kind == ShapeCircle && b.Kind == ShapeCircle {
		return circleCircle(a, b)
	}
	if a.Kind == ShapeCircle {
		return circlePolygon(a, b)
	}
	if b.Kind == ShapeCircle {
		return circlePolygon(b, a)
	}
	return polygonPolygon(a, b)
}

func circleCircle(a, b Shape) bool {
	d := Sub(a.Center, b.Center)
	r := a.Radius + b.Radius
	return Dot(d, d) <= r*r
}

// axes returns the unit edge normals of a polygon (each edge rotated 90
// degrees counter-clockwise, so whether they point outward or inward
// depends on the winding; SAT only needs the axis), skipping zero-length
// edges so a degenerate/duplicated vertex never corrupts the axis set
// (preserved per spec.md's note on orientation-agnostic SAT).
func axes(poly []Vec2) []Vec2 {
	out := make([]Vec2, 0, len(poly))
	n := len(poly)
	for i := 0; i < n; i++ {
		edge := Sub(poly[(i+1)%n], poly[i])
		if edge.X == 0 && edge.Y == 0 {
			continue
		}
		out = append(out, Normalize(Perp(edge)))
	}
	return out
}

func projectPolygon(poly []Vec2, axis Vec2) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, p := range poly {
		d := Dot(p, axis)
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return
}

func overlapOnAxis(min1, max1, min2, max2 float64) bool {
	return min1 <= max2 && max1 >= min2
}

func polygonPolygon(a, b Shape) bool {
	for _, axis := range axes(a.Polygon) {
		min1, max1 := projectPolygon(a.Polygon, axis)
		min2, max2 := projectPolygon(b.Polygon, axis)
		if !overlapOnAxis(min1, max1, min2, max2) {
			return false
		}
	}
	for _, axis := range axes(b.Polygon) {
		min1, max1 := projectPolygon(a.Polygon, axis)
		min2, max2 := projectPolygon(b.Polygon, axis)
		if !overlapOnAxis(min1, max1, min2, max2) {
			return false
		}
	}
	return true
}

func nearestVertex(poly []Vec2, point Vec2) Vec2 {
	best := poly[0]
	bestDistSq := math.Inf(1)
	for _, p := range poly {
		d := Sub(p, point)
		distSq := Dot(d, d)
		if distSq < bestDistSq {
			bestDistSq = distSq
			best = p
		}
	}
	return best
}

func circlePolygon(circle, poly Shape) bool {
	testAxes := axes(poly.Polygon)
	nearest := nearestVertex(poly.Polygon, circle.Center)
	centerAxis := Sub(circle.Center, nearest)
	if centerAxis.X != 0 || centerAxis.Y != 0 {
		testAxes = append(testAxes, Normalize(centerAxis))
	}
	for _, axis := range testAxes {
		pmin, pmax := projectPolygon(poly.Polygon, axis)
		c := Dot(circle.Center, axis)
		cmin, cmax := c-circle.Radius, c+circle.Radius
		if !overlapOnAxis(pmin, pmax, cmin, cmax) {
			return false
		}
	}
	return true
}
