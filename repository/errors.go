// Package repository defines the data store contract shared by the
// managers. The sentinel errors below let higher layers tell store
// outcomes apart without knowing which driver produced them.
package repository

import "errors"

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("record not found")

// ErrStaleVersion is returned when a versioned update matched no row,
// either because the row changed since it was read or because it is gone.
var ErrStaleVersion = errors.New("stale record version")

// ErrDuplicate is returned when a write violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// ErrForeignKey is returned when a write references a missing row or a
// delete would orphan dependent rows.
var ErrForeignKey = errors.New("foreign key violation")
