package components

import "testing"

func TestHealthDamageClamps(t *testing.T) {
	cases := []struct {
		current, max, dmg, wantRemaining, wantApplied float64
	}{
		{10, 10, 3, 7, 3},
		{5, 10, 100, 0, 5},
		{0, 10, 5, 0, 0},
		{10, 10, -5, 10, 0},
	}
	for _, c := range cases {
		h := Health{Current: c.current, Max: c.max}
		applied := h.Damage(c.dmg)
		if h.Current != c.wantRemaining {
			t.Errorf("Damage(%v) on current=%v: remaining = %v, want %v", c.dmg, c.current, h.Current, c.wantRemaining)
		}
		if applied != c.wantApplied {
			t.Errorf("Damage(%v) on current=%v: applied = %v, want %v", c.dmg, c.current, applied, c.wantApplied)
		}
	}
}

func TestTagHasBit(t *testing.T) {
	tag := Tag{Bits: uint32(TagEnemy) | uint32(TagBoss)}
	if !tag.Has(TagEnemy) || !tag.Has(TagBoss) {
		t.Fatalf("expected both bits set")
	}
	if tag.Has(TagPlayer) {
		t.Fatalf("did not expect player bit set")
	}
}

func TestBoundaryContains(t *testing.T) {
	b := Boundary{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	if !b.Contains(0, 0) || !b.Contains(10, 10) {
		t.Fatalf("boundary edges should be inclusive")
	}
	if b.Contains(-1, 5) || b.Contains(5, 11) {
		t.Fatalf("out of range points should not be contained")
	}
}
