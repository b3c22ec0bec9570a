package gc

import (
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"

	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/refcount"
	"github.com/tlclang/rtmem/roots"
)

// State identifies where an incremental Major cycle currently is.
type State int

const (
	// StateIdle means no cycle is in progress; the next Run call starts a
	// fresh one.
	StateIdle State = iota
	// StateReset clears the reachability mark on every cell.
	StateReset
	// StateSeed builds the initial frontier from the variable table.
	StateSeed
	// StateMarkTransfer moves the current frontier into the visited set.
	StateMarkTransfer
	// StateMarkVisit marks each handle in the frontier and expands the new
	// frontier, charging one step per data slot examined.
	StateMarkVisit
	// StateSwap promotes the new frontier and loops, or falls through to
	// sweep once it is empty.
	StateSwap
)

// Major implements the incremental, resumable mark-and-sweep collector. A
// single Major is meant to live for the lifetime of a Context: its scratch
// state (frontier, visited set, cursors) must persist across budgeted
// calls so a later call can resume exactly where the previous one left
// off.
type Major struct {
	Heap    *memcell.Heap
	Roots   *roots.Table
	Tracker *refcount.Tracker
	Logger  *slog.Logger

	state       State
	frontier    []int64
	newFrontier []int64
	visited     map[int64]struct{}
	pending     map[int64]struct{}

	// lastHandle indexes into frontier; lastHandleEntry indexes into the
	// Data slice of the cell frontier[lastHandle] currently being
	// examined. Together they let a budgeted call resume at the exact
	// unexamined slot.
	lastHandle      int64
	lastHandleEntry int64
}

// NewMajor returns an idle Major collector over the given heap, roots, and
// tracker.
func NewMajor(h *memcell.Heap, r *roots.Table, t *refcount.Tracker, logger *slog.Logger) *Major {
	return &Major{Heap: h, Roots: r, Tracker: t, Logger: logger}
}

// State returns the collector's current phase. Idle between cycles and
// after a cycle completes.
func (m *Major) State() State {
	return m.state
}

// Run performs a mark-and-sweep pass. maxSteps == -1 runs the entire cycle
// to completion synchronously. maxSteps >= 0 caps the number of steps
// performed by this call: one step for a StateReset pass over the heap,
// plus one step per data slot examined in StateMarkVisit. When the budget
// runs out, Run returns immediately with State() reporting exactly where
// it stopped (mid-frontier cursors included), and the next call resumes
// there rather than restarting the cycle. Sweep only runs once the mark
// fixed-point is reached within an unexhausted call, and is itself never
// work-bounded. Run never fails and is idempotent on a garbage-free heap.
func (m *Major) Run(maxSteps int64) {
	unlimited := maxSteps < 0
	var stepsUsed int64

	for {
		if !unlimited && stepsUsed >= maxSteps {
			return
		}

		switch m.state {
		case StateIdle:
			m.resetScratch()
			m.state = StateReset

		case StateReset:
			m.Heap.EachCell(func(_ int64, c *memcell.Cell) bool {
				c.Unmark()
				return true
			})
			m.logDebug("reset")
			// Reset touches every cell in the heap, so a budgeted caller
			// pays one step for it, the same way a slot examination costs
			// one step in StateMarkVisit. This keeps a single call from
			// running an entire cycle to completion behind an empty root
			// set (see DESIGN.md's "incremental phase cost" entry).
			if !unlimited {
				stepsUsed++
			}
			m.state = StateSeed

		case StateSeed:
			m.frontier = append(m.frontier[:0], m.Roots.Variables()...)
			m.logDebug("seed", "roots", len(m.frontier))
			m.state = StateMarkTransfer

		case StateMarkTransfer:
			for _, id := range m.frontier {
				m.visited[id] = struct{}{}
			}
			m.pending = make(map[int64]struct{}, len(m.frontier))
			m.newFrontier = m.newFrontier[:0]
			m.lastHandle = 0
			m.lastHandleEntry = 0
			m.state = StateMarkVisit

		case StateMarkVisit:
			if !m.markVisit(&stepsUsed, maxSteps, unlimited) {
				return
			}
			m.state = StateSwap

		case StateSwap:
			slices.Sort(m.newFrontier)
			m.frontier, m.newFrontier = m.newFrontier, m.frontier[:0]
			if len(m.frontier) == 0 {
				m.sweep()
				m.resetScratch()
				m.state = StateIdle
				return
			}
			m.state = StateMarkTransfer
		}
	}
}

func (m *Major) resetScratch() {
	m.frontier = nil
	m.newFrontier = nil
	m.visited = make(map[int64]struct{})
	m.pending = nil
	m.lastHandle = 0
	m.lastHandleEntry = 0
}

// markVisit marks every handle in the current frontier (resuming from the
// stored cursor) and expands newFrontier with every reachable id not yet
// in the visited set. See DESIGN.md for why "not yet visited" rather than
// "already visited" is the correct fixed-point rule here. It returns false
// if the step budget ran out before the frontier was exhausted.
func (m *Major) markVisit(stepsUsed *int64, maxSteps int64, unlimited bool) bool {
	for hi := m.lastHandle; hi < int64(len(m.frontier)); hi++ {
		id := m.frontier[hi]

		c, ok := m.Heap.Lookup(id)
		if !ok {
			// The minor collector may have freed this cell mid-cycle; the
			// major collector's mark must tolerate absent ids.
			m.lastHandle = hi + 1
			m.lastHandleEntry = 0
			continue
		}
		c.Mark()

		data := c.Data
		for ei := m.lastHandleEntry; ei < int64(len(data)); ei++ {
			if !unlimited && *stepsUsed >= maxSteps {
				m.lastHandle = hi
				m.lastHandleEntry = ei
				return false
			}
			*stepsUsed++

			slot := data[ei]
			if !slot.IsHandle() {
				continue
			}
			if _, seen := m.visited[slot.Payload]; seen {
				continue
			}
			if _, queued := m.pending[slot.Payload]; queued {
				continue
			}
			m.pending[slot.Payload] = struct{}{}
			m.newFrontier = append(m.newFrontier, slot.Payload)
		}

		m.lastHandleEntry = 0
		m.lastHandle = hi + 1
	}
	return true
}

// sweep collects every cell whose reachability mark is still clear and
// releases it. Not work-bounded.
func (m *Major) sweep() {
	var garbage []int64
	m.Heap.EachCell(func(id int64, c *memcell.Cell) bool {
		if !c.Marked() {
			garbage = append(garbage, id)
		}
		return true
	})
	Release(m.Heap, m.Tracker, garbage)
	m.logDebug("sweep", "garbage", len(garbage))
}

func (m *Major) logDebug(msg string, args ...any) {
	if m.Logger != nil {
		m.Logger.Debug(msg, args...)
	}
}
