// Package refcount implements the reference-count discipline woven into
// every mutating heap operation, and the GC candidate list it deposits
// into rather than freeing eagerly.
package refcount

import (
	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/value"
)

// Tracker layers reference-count maintenance on top of a memcell.Heap's
// raw slot primitives. It owns the GC candidate list: a multiset of
// allocation ids that have, at some point, had their RefCount driven to
// <= 0. Freeing is deferred to the next Minor GC pass; the list may
// contain duplicates and stale ids, both of which the collector must
// tolerate.
type Tracker struct {
	Heap       *memcell.Heap
	Candidates []int64
}

// New returns a Tracker with an empty candidate list over h.
func New(h *memcell.Heap) *Tracker {
	return &Tracker{Heap: h}
}

func (t *Tracker) cellFor(v value.Value) (*memcell.Cell, error) {
	if !v.IsHandle() {
		return nil, memcell.InvalidHandle
	}
	c, ok := t.Heap.Lookup(v.Payload)
	if !ok {
		return nil, memcell.InvalidHandle
	}
	return c, nil
}

// Incref increments the refcount of the cell named by v. v must be a valid
// handle.
func (t *Tracker) Incref(v value.Value) error {
	c, err := t.cellFor(v)
	if err != nil {
		return err
	}
	c.RefCount++
	return nil
}

// Decref decrements the refcount of the cell named by v. If the result is
// <= 0, the cell's id is appended to the candidate list; it is not freed
// here. v must be a valid handle.
func (t *Tracker) Decref(v value.Value) error {
	c, err := t.cellFor(v)
	if err != nil {
		return err
	}
	c.RefCount--
	if c.RefCount <= 0 {
		t.Candidates = append(t.Candidates, v.Payload)
	}
	return nil
}

// Write stores v at index within arr's data, maintaining refcounts: the
// new value is increfed before the old one is decrefed, so overwriting a
// slot with the handle it already holds never observes a transient zero.
// Inputs are fully validated before any refcount change is made, so a
// failure here leaves the heap untouched.
func (t *Tracker) Write(arr value.Value, index int, v value.Value) error {
	old, err := t.Heap.Read(arr, index)
	if err != nil {
		return err
	}

	if v.IsHandle() {
		if err := t.Incref(v); err != nil {
			return err
		}
	}
	if old.IsHandle() {
		if err := t.Decref(old); err != nil {
			return err
		}
	}

	return t.Heap.RawSet(arr, index, v)
}

// Push appends v to arr's data, increffing v first if it is a handle.
func (t *Tracker) Push(arr value.Value, v value.Value) error {
	if !t.Heap.Valid(arr) {
		return memcell.InvalidHandle
	}
	if v.IsHandle() {
		if err := t.Incref(v); err != nil {
			return err
		}
	}
	return t.Heap.RawAppend(arr, v)
}

// Pop removes and returns the last element of arr's data, decreffing it
// first if it is a handle. The returned Value is handed back without an
// implicit increment, mirroring Read.
func (t *Tracker) Pop(arr value.Value) (value.Value, error) {
	v, err := t.Heap.RawPop(arr)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsHandle() {
		if err := t.Decref(v); err != nil {
			return value.Value{}, err
		}
	}
	return v, nil
}

// Retarget runs the decref(old)/incref(new) dance shared by root-table
// Assign and heap Write: new is increfed before old is decrefed.
func (t *Tracker) Retarget(old value.Value, hadOld bool, v value.Value) error {
	if v.IsHandle() {
		if err := t.Incref(v); err != nil {
			return err
		}
	}
	if hadOld && old.IsHandle() {
		if err := t.Decref(old); err != nil {
			return err
		}
	}
	return nil
}
