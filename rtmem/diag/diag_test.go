package diag_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tlclang/rtmem/rtmem"
	"github.com/tlclang/rtmem/rtmem/diag"
	"github.com/tlclang/rtmem/value"
)

func TestSnapshotCountsLiveCellsAndRefs(t *testing.T) {
	ctx := rtmem.New()
	a, err := ctx.Alloc(1)
	require.NoError(t, err)
	b, err := ctx.Alloc(1)
	require.NoError(t, err)
	require.NoError(t, ctx.Write(a, 0, b))
	require.NoError(t, ctx.Assign(1, a))

	stats := diag.Snapshot(ctx)
	require.Equal(t, 2, stats.CellCount)
	require.Equal(t, int64(2), stats.LiveRefTotal) // b referenced by a.data[0], a referenced by variable 1
}

func TestWriteJSONProducesNonEmptyOutput(t *testing.T) {
	ctx := rtmem.New()
	h, err := ctx.Alloc(2)
	require.NoError(t, err)
	require.NoError(t, ctx.Write(h, 0, value.Int64(7)))
	require.NoError(t, ctx.Assign(1, h))

	var buf bytes.Buffer
	require.NoError(t, diag.WriteJSON(&buf, ctx))
	require.NotEmpty(t, buf.Bytes())
	require.Contains(t, buf.String(), "CellCount")
	require.Contains(t, buf.String(), "Cells")
}

func TestWriteJSONOnEmptyHeap(t *testing.T) {
	ctx := rtmem.New()
	var buf bytes.Buffer
	require.NoError(t, diag.WriteJSON(&buf, ctx))
	require.Contains(t, buf.String(), `"CellCount":0`)
}
