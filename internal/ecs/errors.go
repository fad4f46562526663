package ecs

import "errors"

// ErrComponentNotFound is returned by Get when a live entity lacks the
// requested component (spec.md §4.1 failure contract).
var ErrComponentNotFound = errors.New("ecs: component not found")

// ErrRegistryError is returned by Emplace when the target id is dead.
var ErrRegistryError = errors.New("ecs: operation on dead entity")
