package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tlclang/rtmem/gc"
	"github.com/tlclang/rtmem/memcell"
	"github.com/tlclang/rtmem/refcount"
)

func TestMinorReleasesZeroRefcountCandidates(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	arr, err := h.Alloc(1)
	require.NoError(t, err)
	require.NoError(t, tr.Incref(arr))
	require.NoError(t, tr.Decref(arr))

	gc.Minor(h, tr, nil)

	require.False(t, h.Valid(arr))
	require.Empty(t, tr.Candidates)
}

func TestMinorSkipsCandidatesThatRoseAgain(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	arr, err := h.Alloc(1)
	require.NoError(t, err)
	require.NoError(t, tr.Incref(arr))
	require.NoError(t, tr.Decref(arr))
	require.NoError(t, tr.Incref(arr))

	gc.Minor(h, tr, nil)

	require.True(t, h.Valid(arr))
	require.Empty(t, tr.Candidates)
}

func TestMinorIdempotentWithNoMutation(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	gc.Minor(h, tr, nil)
	gc.Minor(h, tr, nil)
	require.Empty(t, tr.Candidates)
}

func TestMinorToleratesAlreadyFreedCandidate(t *testing.T) {
	h := memcell.New()
	tr := refcount.New(h)

	arr, err := h.Alloc(1)
	require.NoError(t, err)
	tr.Candidates = append(tr.Candidates, arr.Payload, arr.Payload)
	h.Delete(arr.Payload)

	gc.Minor(h, tr, nil)
	require.Empty(t, tr.Candidates)
}
