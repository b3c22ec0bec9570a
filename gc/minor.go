package gc

import (
	"golang.org/x/exp/slog"

	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/refcount"
)

// Minor runs the reference-count sweep: it walks the tracker's candidate
// list, and for each id still present in the heap whose current RefCount
// is <= 0, schedules it for release, then clears the candidate list. It
// does not detect cycles; those are left for Major. Back-to-back calls
// with no intervening mutation are a no-op after the first (the candidate
// list is already empty).
func Minor(h *memcell.Heap, t *refcount.Tracker, logger *slog.Logger) {
	if len(t.Candidates) == 0 {
		return
	}

	garbage := make([]int64, 0, len(t.Candidates))
	seen := make(map[int64]struct{}, len(t.Candidates))
	for _, id := range t.Candidates {
		// Duplicate candidates are batched once, so Release decouples each
		// cell's slots exactly once.
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		c, ok := h.Lookup(id)
		if !ok {
			// Already invalidated by a preceding major GC; candidates are
			// hints, not facts.
			continue
		}
		if c.RefCount <= 0 {
			garbage = append(garbage, id)
		}
	}

	Release(h, t, garbage)
	t.Candidates = t.Candidates[:0]

	if logger != nil {
		logger.Debug("minor gc", "released", len(garbage))
	}
}
