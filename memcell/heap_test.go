package memcell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/value"
)

func TestAllocIdsStrictlyIncreasing(t *testing.T) {
	h := memcell.New()
	a, err := h.Alloc(1)
	require.NoError(t, err)
	b, err := h.Alloc(1)
	require.NoError(t, err)
	require.Less(t, a.Payload, b.Payload)
}

func TestAllocNegativeSizeFails(t *testing.T) {
	h := memcell.New()
	_, err := h.Alloc(-1)
	require.ErrorIs(t, err, memcell.BadSize)
}

func TestAllocFillsSlotsWithIntZero(t *testing.T) {
	h := memcell.New()
	arr, err := h.Alloc(3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		v, err := h.Read(arr, i)
		require.NoError(t, err)
		require.Equal(t, value.Int64(0), v)
	}
}

func TestReadOutOfBounds(t *testing.T) {
	h := memcell.New()
	arr, err := h.Alloc(2)
	require.NoError(t, err)
	_, err = h.Read(arr, 2)
	require.ErrorIs(t, err, memcell.OutOfBounds)
	_, err = h.Read(arr, -1)
	require.ErrorIs(t, err, memcell.OutOfBounds)
}

func TestReadInvalidHandle(t *testing.T) {
	h := memcell.New()
	_, err := h.Read(value.Int64(5), 0)
	require.ErrorIs(t, err, memcell.InvalidHandle)

	_, err = h.Read(value.HandleOf(999), 0)
	require.ErrorIs(t, err, memcell.InvalidHandle)
}

func TestRawSetAndRead(t *testing.T) {
	h := memcell.New()
	arr, err := h.Alloc(1)
	require.NoError(t, err)
	require.NoError(t, h.RawSet(arr, 0, value.Int64(7)))
	v, err := h.Read(arr, 0)
	require.NoError(t, err)
	require.Equal(t, value.Int64(7), v)
}

func TestRawAppendAndPop(t *testing.T) {
	h := memcell.New()
	arr, err := h.Alloc(0)
	require.NoError(t, err)
	require.NoError(t, h.RawAppend(arr, value.Int64(1)))
	require.NoError(t, h.RawAppend(arr, value.Int64(2)))

	v, err := h.RawPop(arr)
	require.NoError(t, err)
	require.Equal(t, value.Int64(2), v)

	v, err = h.RawPop(arr)
	require.NoError(t, err)
	require.Equal(t, value.Int64(1), v)

	_, err = h.RawPop(arr)
	require.ErrorIs(t, err, memcell.EmptyPop)
}

func TestValid(t *testing.T) {
	h := memcell.New()
	arr, err := h.Alloc(1)
	require.NoError(t, err)
	require.True(t, h.Valid(arr))
	require.False(t, h.Valid(value.Int64(1)))

	h.Delete(arr.Payload)
	require.False(t, h.Valid(arr))
}

func TestEachCellVisitsEveryLiveCell(t *testing.T) {
	h := memcell.New()
	a, err := h.Alloc(1)
	require.NoError(t, err)
	b, err := h.Alloc(1)
	require.NoError(t, err)

	seen := map[int64]bool{}
	h.EachCell(func(id int64, _ *memcell.Cell) bool {
		seen[id] = true
		return true
	})
	require.True(t, seen[a.Payload])
	require.True(t, seen[b.Payload])
}

func TestEachCellStopsEarly(t *testing.T) {
	h := memcell.New()
	_, err := h.Alloc(1)
	require.NoError(t, err)
	_, err = h.Alloc(1)
	require.NoError(t, err)

	visits := 0
	h.EachCell(func(_ int64, _ *memcell.Cell) bool {
		visits++
		return false
	})
	require.Equal(t, 1, visits)
}

func TestMarkUnmark(t *testing.T) {
	c := &memcell.Cell{}
	require.False(t, c.Marked())
	c.Mark()
	require.True(t, c.Marked())
	c.Unmark()
	require.False(t, c.Marked())
}
