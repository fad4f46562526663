package geom

import "testing"

func TestAABBOverlapTouchingBoxes(t *testing.T) {
	a := NewBox(New(0, 0), 1, 1, 0)  // spans [-1,1]
	b := NewBox(New(2, 0), 1, 1, 0)  // spans [1,3], touches at x=1
	if !AABBOverlap(a, b) {
		t.Fatalf("expected touching boxes to overlap on AABB prune")
	}
	if !Intersects(a, b) {
		t.Fatalf("expected touching boxes to intersect (edge-coincident counts)")
	}
}

func TestIntersectsSymmetric(t *testing.T) {
	shapes := []Shape{
		NewCircle(New(0, 0), 2),
		NewBox(New(1, 1), 1.5, 1.5, 0.3),
		NewPolygon([]Vec2{New(0, 0), New(3, 0), New(3, 3), New(0, 3)}),
		NewCircle(New(10, 10), 1),
	}
	for i := range shapes {
		for j := range shapes {
			if i == j {
				continue
			}
			if Intersects(shapes[i], shapes[j]) != Intersects(shapes[j], shapes[i]) {
				t.Fatalf("intersection test not symmetric for pair %d,%d", i, j)
			}
		}
	}
}

func TestNonOverlappingShapesNoCollision(t *testing.T) {
	a := NewCircle(New(0, 0), 1)
	b := NewCircle(New(100, 100), 1)
	if AABBOverlap(a, b) {
		t.Fatalf("distant circles should not even pass the AABB prune")
	}
}

func TestShapeValidRejectsDegenerate(t *testing.T) {
	if (Shape{Kind: ShapeCircle, Radius: 0}).Valid() {
		t.Fatalf("zero-radius circle must be invalid")
	}
	if (Shape{Kind: ShapePolygon, Polygon: []Vec2{New(0, 0), New(1, 1)}}).Valid() {
		t.Fatalf("2-point polygon must be invalid")
	}
	if (Shape{Kind: ShapeCircle, Center: New(1, 0), Radius: 1}).Valid() == false {
		t.Fatalf("finite unit circle must be valid")
	}
}
