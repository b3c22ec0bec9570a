// Package roots implements the variable table and function table: the
// variable table is the sole GC root set, and the function table is
// incidental state that holds no references at all.
package roots

import (
	"sort"

	"github.com/cockroachdb/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/dolthub/swiss"

	"github.com/tlclang/rtmem/value"
)

// Undefined is returned by Erase/EraseFunction when the id was never
// defined, or is no longer defined.
var Undefined error = pkgerrors.New("identifier is not defined")

// Table owns the variable table and the function table. It deliberately
// has no dependency on package memcell: incref/decref bookkeeping around
// Assign/Erase is the caller's responsibility (package rtmem composes
// Table with a refcount.Tracker), which keeps Table reusable by anything
// that only needs named-slot storage semantics.
type Table struct {
	vars *swiss.Map[int64, value.Value]
	funs *swiss.Map[int64, any]
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		vars: swiss.NewMap[int64, value.Value](16),
		funs: swiss.NewMap[int64, any](16),
	}
}

// Assign stores value under var id, returning whatever was previously
// stored (and whether anything was). The caller is expected to run the
// decref(old)/incref(new) dance around this call.
func (t *Table) Assign(id int64, v value.Value) (old value.Value, hadOld bool) {
	old, hadOld = t.vars.Get(id)
	t.vars.Put(id, v)
	return old, hadOld
}

// Erase removes var id, returning the Value it held. Undefined if id was
// never assigned.
func (t *Table) Erase(id int64) (value.Value, error) {
	v, ok := t.vars.Get(id)
	if !ok {
		return value.Value{}, errors.Wrapf(Undefined, "variable %d", id)
	}
	t.vars.Delete(id)
	return v, nil
}

// VarIsDefined reports whether id currently has an assigned Value.
func (t *Table) VarIsDefined(id int64) bool {
	_, ok := t.vars.Get(id)
	return ok
}

// Get returns the current Value of var id, if defined.
func (t *Table) Get(id int64) (value.Value, bool) {
	return t.vars.Get(id)
}

// Variables returns a deterministic, sorted snapshot of every allocation id
// referenced by a variable currently holding a Handle-tagged Value. This is
// the seed set for the major collector's mark phase.
func (t *Table) Variables() []int64 {
	ids := make([]int64, 0, t.vars.Count())
	t.vars.Iter(func(id int64, v value.Value) (stop bool) {
		if v.IsHandle() {
			ids = append(ids, v.Payload)
		}
		return false
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DefineFunction installs an opaque executable reference under fun id.
// Functions are not GC roots and hold no references.
func (t *Table) DefineFunction(id int64, exec any) {
	t.funs.Put(id, exec)
}

// EraseFunction removes fun id. Undefined if it was never defined.
func (t *Table) EraseFunction(id int64) error {
	if _, ok := t.funs.Get(id); !ok {
		return errors.Wrapf(Undefined, "function %d", id)
	}
	t.funs.Delete(id)
	return nil
}

// FunIsDefined reports whether id currently names a function.
func (t *Table) FunIsDefined(id int64) bool {
	_, ok := t.funs.Get(id)
	return ok
}

// GetFunction returns the executable reference registered under id.
func (t *Table) GetFunction(id int64) (any, bool) {
	return t.funs.Get(id)
}
