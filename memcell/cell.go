// Package memcell implements the heap store: the mapping from allocation
// identifier to memory cell, plus the bounds-checked, refcount-agnostic
// slot primitives that package refcount and package gc build on.
package memcell

import (
	"github.com/tlclang/rtmem/value"
)

// FlagMarked is bit 0 of Cell.Flags: the major-GC reachability mark.
const FlagMarked uint8 = 1 << 0

// Cell is the heap entity keyed by an allocation identifier: an ordered,
// zero-based sequence of Values, an inbound-reference count, and GC flags.
type Cell struct {
	Data     []value.Value
	RefCount int32
	Flags    uint8
}

// Marked reports whether the major-GC reachability bit is set.
func (c *Cell) Marked() bool {
	return c.Flags&FlagMarked != 0
}

// Mark sets the major-GC reachability bit.
func (c *Cell) Mark() {
	c.Flags |= FlagMarked
}

// Unmark clears the major-GC reachability bit. Called once per cell at the
// start of every major GC cycle (the Reset phase).
func (c *Cell) Unmark() {
	c.Flags &^= FlagMarked
}
