package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tlclang/rtmem/gc"
	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/refcount"
)

func TestReleaseDestroysBatch(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	a, err := h.Alloc(1)
	require.NoError(t, err)
	b, err := h.Alloc(1)
	require.NoError(t, err)

	gc.Release(h, tr, []int64{a.Payload, b.Payload})

	require.False(t, h.Valid(a))
	require.False(t, h.Valid(b))
}

func TestReleaseDecouplesBeforeDestroyingCycle(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	a, err := h.Alloc(1)
	require.NoError(t, err)
	b, err := h.Alloc(1)
	require.NoError(t, err)
	require.NoError(t, tr.Write(a, 0, b))
	require.NoError(t, tr.Write(b, 0, a))

	// Both cells reference each other and neither is reachable from a root;
	// releasing the pair as a single batch must not panic or leave a
	// dangling decref against an already-destroyed peer.
	gc.Release(h, tr, []int64{a.Payload, b.Payload})

	require.False(t, h.Valid(a))
	require.False(t, h.Valid(b))
}

func TestReleaseToleratesAlreadyGoneId(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	gc.Release(h, tr, []int64{999})
}

func TestReleaseDecrefsSurvivingReferent(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	target, err := h.Alloc(1)
	require.NoError(t, err)
	garbage, err := h.Alloc(1)
	require.NoError(t, err)
	require.NoError(t, tr.Write(garbage, 0, target))

	gc.Release(h, tr, []int64{garbage.Payload})

	c, ok := h.Lookup(target.Payload)
	require.True(t, ok)
	require.EqualValues(t, 0, c.RefCount)
	require.Equal(t, []int64{target.Payload}, tr.Candidates)
}
