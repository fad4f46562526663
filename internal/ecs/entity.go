// Package ecs implements the entity/component registry described in
// spec.md §4.1: a mapping from component type to a sparse container keyed
// by EntityID, plus a lazy, order-preserving view mechanism.
package ecs

// EntityID is a dense handle widened with a generation counter, per the
// design note in spec.md §9: raw-index reuse after destroy/recreate risks
// ABA bugs for outside subscribers (rollback ring, desync maps) that hold
// an id across a destroy/recreate cycle. Every invariant in spec.md stated
// on "live id" holds unchanged under this widening.
type EntityID struct {
	Index      uint32
	Generation uint32
}

// Nil is the zero value; never issued by Registry.Create.
var Nil = EntityID{}

// IsNil reports whether id is the zero value.
func (id EntityID) IsNil() bool {
	return id == Nil
}
