// Package rtmem composes package value, memcell, roots, refcount, and gc
// into a flat operation surface: a single Context an embedder allocates
// once and drives through alloc, read, write, push, pop, assign, erase,
// define_function, erase_function, var_is_defined, fun_is_defined,
// minor_gc, and major_gc.
package rtmem

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"

	"github.com/tlclang/rtmem/gc"
	"github.com/tlclang/rtmem/internal/validate"
	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/refcount"
	"github.com/tlclang/rtmem/roots"
	"github.com/tlclang/rtmem/value"
)

// Context owns the heap store, the variable and function tables, the
// reference-count tracker, and the incremental major collector's scratch
// state. It is single-threaded and single-owner: every operation runs to
// completion, restoring internal consistency, before the next may begin.
// Nothing here is safe for concurrent use, by design of the system it
// implements rather than as an oversight of this package.
type Context struct {
	heap    *memcell.Heap
	roots   *roots.Table
	tracker *refcount.Tracker
	major   *gc.Major
	logger  *slog.Logger
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithLogger attaches a structured logger. GC passes are reported through
// it at Debug level; nil (the default) disables logging entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// New returns a Context with an empty heap and empty root tables.
func New(opts ...Option) *Context {
	c := &Context{
		heap:  memcell.New(),
		roots: roots.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tracker = refcount.New(c.heap)
	c.major = gc.NewMajor(c.heap, c.roots, c.tracker, c.logger)
	return c
}

// Alloc reserves a new cell of n slots and returns a handle to it. Every
// slot reads as value.Int64(0) until written. The new cell
// starts with a RefCount of 0: it survives only once a caller roots it via
// Assign or links it into an already-rooted structure via Write/Push.
func (c *Context) Alloc(n int) (value.Value, error) {
	return c.heap.Alloc(n)
}

// Read returns the value stored at index within the cell named by h. It
// does not affect any refcount; the returned value is not retained on the
// caller's behalf.
func (c *Context) Read(h value.Value, index int) (value.Value, error) {
	return c.heap.Read(h, index)
}

// Write stores v at index within the cell named by h, maintaining
// refcounts as it goes.
func (c *Context) Write(h value.Value, index int, v value.Value) error {
	if err := c.tracker.Write(h, index, v); err != nil {
		return err
	}
	validate.DebugValidate(c)
	return nil
}

// Push appends v to the cell named by h.
func (c *Context) Push(h value.Value, v value.Value) error {
	if err := c.tracker.Push(h, v); err != nil {
		return err
	}
	validate.DebugValidate(c)
	return nil
}

// Pop removes and returns the last slot of the cell named by h.
func (c *Context) Pop(h value.Value) (value.Value, error) {
	v, err := c.tracker.Pop(h)
	if err != nil {
		return value.Value{}, err
	}
	validate.DebugValidate(c)
	return v, nil
}

// Assign stores v under variable id, running the incref(new)/decref(old)
// dance around the swap. Assigning to an id that already holds a value
// overwrites it; there is no Undefined case on the write side, only on
// Erase.
func (c *Context) Assign(id int64, v value.Value) error {
	old, hadOld := c.roots.Assign(id, v)
	if err := c.tracker.Retarget(old, hadOld, v); err != nil {
		return err
	}
	validate.DebugValidate(c)
	return nil
}

// Erase removes variable id, decreffing its value if it held a handle.
// Undefined if id was never assigned.
func (c *Context) Erase(id int64) error {
	old, err := c.roots.Erase(id)
	if err != nil {
		return err
	}
	if old.IsHandle() {
		if err := c.tracker.Decref(old); err != nil {
			return err
		}
	}
	validate.DebugValidate(c)
	return nil
}

// DefineFunction installs exec as the executable body of function id,
// overwriting whatever was previously defined there. Functions hold no
// references and are never GC roots.
func (c *Context) DefineFunction(id int64, exec any) {
	c.roots.DefineFunction(id, exec)
}

// EraseFunction removes function id. Undefined if it was never defined.
func (c *Context) EraseFunction(id int64) error {
	return c.roots.EraseFunction(id)
}

// VarIsDefined reports whether variable id currently holds a value.
func (c *Context) VarIsDefined(id int64) bool {
	return c.roots.VarIsDefined(id)
}

// FunIsDefined reports whether function id is currently defined.
func (c *Context) FunIsDefined(id int64) bool {
	return c.roots.FunIsDefined(id)
}

// GetFunction returns the executable body registered under function id, if
// any. An embedder needs this to actually invoke a defined function.
func (c *Context) GetFunction(id int64) (any, bool) {
	return c.roots.GetFunction(id)
}

// MinorGC runs the eager reference-count sweep. It never blocks and is
// idempotent when nothing is pending release.
func (c *Context) MinorGC() {
	gc.Minor(c.heap, c.tracker, c.logger)
	validate.DebugValidate(c)
}

// MajorGC drives the incremental mark-and-sweep collector. maxSteps == -1
// (the default the embedder should pass when in doubt) runs an entire
// cycle to completion synchronously. maxSteps >=
// 0 caps the work performed by this call; if the cycle is still in
// progress when MajorGC returns, calling it again resumes exactly where
// the previous call stopped. See gc.Major.Run for the exact cost model.
func (c *Context) MajorGC(maxSteps int64) {
	c.major.Run(maxSteps)
	validate.DebugValidate(c)
}

// MajorGCState reports which phase of an incremental major cycle is
// currently in progress. StateIdle means no cycle is underway.
func (c *Context) MajorGCState() gc.State {
	return c.major.State()
}

// CellCount returns the number of live cells in the heap. Diagnostic use
// only; package diag builds on this.
func (c *Context) CellCount() int {
	return c.heap.Len()
}

// CandidateCount returns the number of pending entries in the minor
// collector's candidate list. It may overcount live garbage: the list is
// a multiset of hints, not facts, until the next MinorGC call revalidates
// it.
func (c *Context) CandidateCount() int {
	return len(c.tracker.Candidates)
}

// EachCell visits every live cell for diagnostic purposes. It grants read
// access to the same *memcell.Cell the collectors mutate; callers must
// not write through it.
func (c *Context) EachCell(visit func(id int64, cell *memcell.Cell) bool) {
	c.heap.EachCell(visit)
}

// Validate brute-force re-derives the refcount invariant every ref_count
// equals the number of live handle-tagged slots pointing at that cell,
// across both the heap and the variable table, by recomputing every
// cell's expected refcount from scratch and comparing it against the
// tracked one. It is for debug builds and tests, not the hot path; the
// rtmem_debug build tag wires it into Write, Push, Pop, Assign, Erase,
// MinorGC and MajorGC automatically via internal/validate.DebugValidate.
func (c *Context) Validate() error {
	expected := make(map[int64]int32)
	c.heap.EachCell(func(id int64, _ *memcell.Cell) bool {
		expected[id] = 0
		return true
	})

	countHandle := func(v value.Value) {
		if v.IsHandle() {
			expected[v.Payload]++
		}
	}

	for _, id := range c.roots.Variables() {
		expected[id]++
	}
	c.heap.EachCell(func(_ int64, cell *memcell.Cell) bool {
		for _, slot := range cell.Data {
			countHandle(slot)
		}
		return true
	})

	var mismatch error
	c.heap.EachCell(func(id int64, cell *memcell.Cell) bool {
		if want := expected[id]; want != cell.RefCount {
			mismatch = refcountMismatch(id, cell.RefCount, want)
			return false
		}
		return true
	})
	return mismatch
}

var _ validate.Validatable = (*Context)(nil)

func refcountMismatch(id int64, got, want int32) error {
	return errors.Newf("cell %d: ref_count is %d, want %d", id, got, want)
}
