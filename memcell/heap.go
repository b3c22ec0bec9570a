package memcell

import (
	"github.com/cockroachdb/errors"
	pkgerrors "github.com/pkg/errors"

	"github.com/dolthub/swiss"

	"github.com/tlclang/rtmem/value"
)

// Sentinel errors for the heap store. Call sites that need positional
// context wrap these with errors.Wrapf rather than minting new error
// values, so callers can keep classifying failures with errors.Is.
var (
	// InvalidHandle is returned whenever an operation is handed a Value
	// that is not Handle-tagged, or whose id is not present in the heap.
	InvalidHandle error = pkgerrors.New("invalid memory handle")
	// OutOfBounds is returned by Read/RawSet/index-taking operations when
	// the index falls outside [0, len(data)).
	OutOfBounds error = pkgerrors.New("index out of bounds")
	// BadSize is returned by Alloc when size < 0.
	BadSize error = pkgerrors.New("size must be >= 0")
	// EmptyPop is returned by RawPop against an empty array.
	EmptyPop error = pkgerrors.New("cannot pop from empty array")
)

// Heap is the mapping from allocation identifier to memory cell. It owns
// the monotonic allocation counter and provides bounds-checked,
// refcount-agnostic slot access; reference-count maintenance is layered
// on top by package refcount.
type Heap struct {
	cells  *swiss.Map[int64, *Cell]
	nextID int64
}

// New returns an empty Heap with its allocation counter starting at 1.
// Zero is reserved as "never issued", so a zero-valued Value can never be
// mistaken for a live handle.
func New() *Heap {
	return &Heap{
		cells:  swiss.NewMap[int64, *Cell](64),
		nextID: 1,
	}
}

// Len returns the number of live cells. Diagnostic use only.
func (h *Heap) Len() int {
	return h.cells.Count()
}

// Alloc installs a new cell of size slots, all Int(0), with RefCount 0, and
// returns a Handle Value naming it. The returned handle carries zero
// inbound references: the caller must install it into a root or a cell to
// retain it across a GC.
func (h *Heap) Alloc(size int) (value.Value, error) {
	if size < 0 {
		return value.Value{}, errors.Wrapf(BadSize, "alloc size %d", size)
	}

	id := h.nextID
	h.nextID++

	h.cells.Put(id, &Cell{Data: make([]value.Value, size)})
	return value.HandleOf(id), nil
}

// Lookup returns the cell for a raw allocation id, if still present.
func (h *Heap) Lookup(id int64) (*Cell, bool) {
	return h.cells.Get(id)
}

// Valid reports whether v is Handle-tagged and names a cell still present
// in the heap.
func (h *Heap) Valid(v value.Value) bool {
	if !v.IsHandle() {
		return false
	}
	_, ok := h.cells.Get(v.Payload)
	return ok
}

// Delete removes a cell by id, if present. Used by the shared release
// routine in package gc; a no-op if the id is already gone.
func (h *Heap) Delete(id int64) {
	h.cells.Delete(id)
}

// EachCell visits every live cell. visit returning false stops iteration
// early. Used by the major collector's Reset/Sweep phases and by
// rtmem.Context.Validate.
func (h *Heap) EachCell(visit func(id int64, c *Cell) bool) {
	h.cells.Iter(func(id int64, c *Cell) (stop bool) {
		return !visit(id, c)
	})
}

func (h *Heap) cellFor(v value.Value) (*Cell, error) {
	if !v.IsHandle() {
		return nil, errors.Wrapf(InvalidHandle, "value tag %s is not a handle", v.Tag)
	}
	c, ok := h.cells.Get(v.Payload)
	if !ok {
		return nil, errors.Wrapf(InvalidHandle, "handle %d is not present in the heap", v.Payload)
	}
	return c, nil
}

// Read returns the Value at index within arr's data. It is non-mutating:
// no refcount change. The returned Value is a transient view; the caller
// is responsible for installing it before the next GC if it must survive.
func (h *Heap) Read(arr value.Value, index int) (value.Value, error) {
	c, err := h.cellFor(arr)
	if err != nil {
		return value.Value{}, err
	}
	if index < 0 || index >= len(c.Data) {
		return value.Value{}, errors.Wrapf(OutOfBounds, "index %d for data chunk of size %d", index, len(c.Data))
	}
	return c.Data[index], nil
}

// RawSet stores v at index within arr's data with no refcount side
// effects; it is the mechanical half of the Write operation, used by
// package refcount after it has already resolved the old value and
// updated reference counts.
func (h *Heap) RawSet(arr value.Value, index int, v value.Value) error {
	c, err := h.cellFor(arr)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Data) {
		return errors.Wrapf(OutOfBounds, "index %d for data chunk of size %d", index, len(c.Data))
	}
	c.Data[index] = v
	return nil
}

// RawAppend appends v to arr's data with no refcount side effects.
func (h *Heap) RawAppend(arr value.Value, v value.Value) error {
	c, err := h.cellFor(arr)
	if err != nil {
		return err
	}
	c.Data = append(c.Data, v)
	return nil
}

// RawPop removes and returns the last element of arr's data with no
// refcount side effects. EmptyPop if the array is empty.
func (h *Heap) RawPop(arr value.Value) (value.Value, error) {
	c, err := h.cellFor(arr)
	if err != nil {
		return value.Value{}, err
	}
	if len(c.Data) == 0 {
		return value.Value{}, errors.Wrapf(EmptyPop, "array %d is empty", arr.Payload)
	}
	last := c.Data[len(c.Data)-1]
	c.Data = c.Data[:len(c.Data)-1]
	return last, nil
}
