// Package gc implements the minor (refcount-sweep) and major
// (mark-and-sweep) collectors, and the two-pass release routine they
// share.
package gc

import (
	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/refcount"
)

// Release frees a batch of garbage cell ids in two passes: first decouple
// (decref every handle-tagged slot of every still-present cell in the
// batch, tolerating targets already gone), then destroy (remove every
// still-present cell in the batch). Decoupling before destroying ensures
// that a two-cycle within the same batch never observes a half-destroyed
// peer.
//
// Decoupling may push further ids onto the tracker's candidate list; those
// are left for the next Minor pass, not processed here.
func Release(h *memcell.Heap, t *refcount.Tracker, garbage []int64) {
	for _, id := range garbage {
		c, ok := h.Lookup(id)
		if !ok {
			continue
		}
		for _, slot := range c.Data {
			if !slot.IsHandle() {
				continue
			}
			if _, live := h.Lookup(slot.Payload); !live {
				continue
			}
			_ = t.Decref(slot)
		}
	}

	for _, id := range garbage {
		if _, ok := h.Lookup(id); ok {
			h.Delete(id)
		}
	}
}
