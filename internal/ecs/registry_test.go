package ecs

import "testing"

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }

func TestDestroyThenReuse(t *testing.T) {
	r := NewRegistry()
	id := r.Create()
	if err := Emplace(r, id, position{1, 2}); err != nil {
		t.Fatalf("emplace on live id: %v", err)
	}

	r.Destroy(id)
	if r.IsAlive(id) {
		t.Fatalf("expected id dead after destroy")
	}
	if Has[position](r, id) {
		t.Fatalf("expected component storage to no longer contain destroyed id")
	}

	next := r.Create()
	if next.Index != id.Index {
		t.Fatalf("expected index reuse from free list, got %d want %d", next.Index, id.Index)
	}
	if next.Generation == id.Generation {
		t.Fatalf("expected generation bump on reuse, both are %d", next.Generation)
	}
	if !r.IsAlive(next) {
		t.Fatalf("expected reused id to be alive")
	}
	if r.IsAlive(id) {
		t.Fatalf("stale handle must not resolve to the reused slot (ABA)")
	}
}

func TestEmplaceOnDeadFails(t *testing.T) {
	r := NewRegistry()
	id := r.Create()
	r.Destroy(id)
	if err := Emplace(r, id, position{}); err != ErrRegistryError {
		t.Fatalf("expected ErrRegistryError, got %v", err)
	}
}

func TestGetMissingComponentFails(t *testing.T) {
	r := NewRegistry()
	id := r.Create()
	if _, err := Get[position](r, id); err != ErrComponentNotFound {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
}

func TestDestroyDeadIsNoop(t *testing.T) {
	r := NewRegistry()
	id := r.Create()
	r.Destroy(id)
	r.Destroy(id) // must not panic or double-free the index
}

func TestRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	id := r.Create()
	Remove[position](r, id)
	Emplace(r, id, position{1, 1})
	Remove[position](r, id)
	Remove[position](r, id)
	if Has[position](r, id) {
		t.Fatalf("component should be gone after remove")
	}
}

func TestViewAscendingOrderAndIntersection(t *testing.T) {
	r := NewRegistry()
	var withBoth, posOnly []EntityID
	for i := 0; i < 10; i++ {
		id := r.Create()
		Emplace(r, id, position{float64(i), 0})
		if i%2 == 0 {
			Emplace(r, id, velocity{1, 0})
			withBoth = append(withBoth, id)
		} else {
			posOnly = append(posOnly, id)
		}
	}
	// Kill one entity that had both components; it must vanish from the view.
	r.Destroy(withBoth[0])
	withBoth = withBoth[1:]

	view := NewView2[position, velocity](r)
	var got []EntityID
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		got = append(got, id)
	}

	if len(got) != len(withBoth) {
		t.Fatalf("expected %d entities in view, got %d", len(withBoth), len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Index <= got[i-1].Index {
			t.Fatalf("view must iterate in ascending id order, got %v", got)
		}
	}
	for i, id := range got {
		if id != withBoth[i] {
			t.Fatalf("view returned unexpected id at %d: got %v want %v", i, id, withBoth[i])
		}
	}
	_ = posOnly
}
