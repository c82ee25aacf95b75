// Package blockstate decides which geometry variants apply to a placed
// block. A blockstate definition is a set of parts; each part carries a
// condition over the block's properties (and optionally its neighbours)
// and the weighted, rotated geometry it contributes when the condition
// holds.
//
// Parts are immutable after construction and safe for concurrent use.
package blockstate

import (
	"errors"

	"voxelexport.ai/internal/model"
	"voxelexport.ai/internal/nbt"
)

var (
	ErrMissingModel      = errors.New("geometry spec missing model")
	ErrBadSpec           = errors.New("geometry spec must be an object or an array of objects")
	ErrNoNeighbors       = errors.New("condition needs connection info but no neighbour tester is set")
	ErrInvalidDefinition = errors.New("invalid blockstate definition")
	ErrUnsupportedForm   = errors.New("unsupported blockstate form")
)

// Part is one rule of a blockstate definition.
type Part interface {
	// NeedsConnectionInfo reports whether UsePart consults neighbours.
	// Callers may skip neighbour resolution when it is false.
	NeedsConnectionInfo() bool
	// UsePart reports whether the part applies to the block at (x, y, z)
	// with the given properties.
	UsePart(props nbt.Compound, x, y, z int) bool
	// Entries is the part's geometry in declaration order.
	Entries() []Entry
}

// NeighborTester answers a single connection key for the block at
// (x, y, z). Implementations must be safe for concurrent calls.
type NeighborTester interface {
	TestConnection(key, expected string, x, y, z int) bool
}

// NeighborFunc adapts a function to NeighborTester.
type NeighborFunc func(key, expected string, x, y, z int) bool

func (f NeighborFunc) TestConnection(key, expected string, x, y, z int) bool {
	return f(key, expected, x, y, z)
}

// ModelSource resolves geometry names. Copy must return geometry that shares
// no mutable state with the source's own copy.
type ModelSource interface {
	IDForName(name string, doubleSided bool) (model.ID, error)
	Copy(id model.ID) (*model.Model, error)
}

// Deps are the collaborators a part is built with.
type Deps struct {
	Models    ModelSource
	Neighbors NeighborTester
	// Strict makes a clause fail when it names a property the block does
	// not have. By default such keys are never visited and cannot fail.
	Strict bool
}

// Entry is one candidate geometry of a part.
type Entry struct {
	ModelID model.ID
	// Model is owned by the entry and already rotated.
	Model  *model.Model
	RotX   int
	RotY   int
	UVLock bool
	Weight int
}
