// Package diag provides introspection into a rtmem.Context's heap for
// embedders that want statistics or a JSON dump without reaching into
// package-private state: a point-in-time Stats summary, and a streaming
// JSON export of the same data plus a per-cell array.
package diag

import (
	"io"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/tlclang/rtmem/gc"
	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/rtmem"
)

// Stats is a point-in-time summary of a Context's heap.
type Stats struct {
	CellCount      int
	LiveRefTotal   int64
	CandidateCount int
	MajorGCState   gc.State
}

// Snapshot computes a Stats for ctx's current state.
func Snapshot(ctx *rtmem.Context) Stats {
	s := Stats{
		CellCount:      ctx.CellCount(),
		CandidateCount: ctx.CandidateCount(),
		MajorGCState:   ctx.MajorGCState(),
	}
	ctx.EachCell(func(_ int64, cell *memcell.Cell) bool {
		s.LiveRefTotal += int64(cell.RefCount)
		return true
	})
	return s
}

// WriteJSON streams ctx's Stats plus a "Cells" array of per-cell objects
// (Id, Size, RefCount, Marked) to w.
func WriteJSON(w io.Writer, ctx *rtmem.Context) error {
	jw := jwriter.NewWriter()
	obj := jw.Object()

	stats := Snapshot(ctx)
	obj.Name("CellCount").Int(stats.CellCount)
	obj.Name("LiveRefTotal").Int(int(stats.LiveRefTotal))
	obj.Name("CandidateCount").Int(stats.CandidateCount)
	obj.Name("MajorGCState").Int(int(stats.MajorGCState))

	cells := obj.Name("Cells").Array()
	ctx.EachCell(func(id int64, cell *memcell.Cell) bool {
		cellObj := cells.Object()
		cellObj.Name("Id").Int(int(id))
		cellObj.Name("Size").Int(len(cell.Data))
		cellObj.Name("RefCount").Int(int(cell.RefCount))
		cellObj.Name("Marked").Bool(cell.Marked())
		cellObj.End()
		return true
	})
	cells.End()

	obj.End()

	if err := jw.Error(); err != nil {
		return err
	}
	_, err := w.Write(jw.Bytes())
	return err
}
