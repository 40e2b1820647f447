package storageengine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ValuePool/storage_engine/metaroot"
	"ValuePool/types"
	"ValuePool/values"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFind(t *testing.T, vp *ValuePool, v types.Value) int64 {
	t.Helper()
	node, err := vp.FindNode(v)
	require.NoError(t, err)
	return node
}

func TestPrepareCommitWithoutChanges(t *testing.T) {
	vp := newTestPool(t)

	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())
	assert.ErrorIs(t, vp.Commit(), ErrProtocolViolation)

	st := vp.Stats()
	assert.True(t, st.HasCommitted)
	assert.Equal(t, uint32(2), st.CommittedPhase)
	assert.False(t, st.Dirty)
}

func TestDoublePrepare(t *testing.T) {
	vp := newTestPool(t)
	require.NoError(t, vp.Prepare())
	assert.ErrorIs(t, vp.Prepare(), ErrProtocolViolation)

	// mutations after a prepare belong to the next phase
	_, err := vp.Put(lit("next"))
	require.NoError(t, err)
	require.NoError(t, vp.Commit())
	assert.True(t, vp.Dirty())
}

func TestClearOnlyOnce(t *testing.T) {
	vp := newTestPool(t)
	assert.ErrorIs(t, vp.Clear(0), ErrProtocolViolation)
	_, err := vp.Recover()
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestReopenAfterCommit(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pool")
	vp, err := Open(base, testConfig())
	require.NoError(t, err)
	require.NoError(t, vp.Clear(0))

	big := lit(strings.Repeat("overflow ", 30))
	bigNode, err := vp.Put(big)
	require.NoError(t, err)
	nodes := putLongs(t, vp, 1, 50)
	removed, err := vp.Remove(nodes[25])
	require.NoError(t, err)
	require.True(t, removed)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())
	require.NoError(t, vp.Close())

	vp = openTestPool(t, base)
	phases, err := vp.Recover()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, phases)
	require.NoError(t, vp.SelectPhase(1))
	require.NoError(t, vp.CheckIntegrity())

	assert.Equal(t, bigNode, mustFind(t, vp, big))
	assert.Equal(t, nodes[10], mustFind(t, vp, values.NewLong(10)))
	assert.Equal(t, types.NoNode, mustFind(t, vp, values.NewLong(25)))
	got, err := vp.FindValue(bigNode)
	require.NoError(t, err)
	assert.Equal(t, big.Bytes(), got.Bytes())

	// the default allocator continues past every stored node
	node, err := vp.Put(lit("fresh"))
	require.NoError(t, err)
	assert.Greater(t, node, nodes[1])
	assert.Greater(t, node, bigNode)
}

// snapshotPool copies the pool files as they are on disk at this moment, the way a crash leaves them.
func snapshotPool(t *testing.T, base string) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), filepath.Base(base))
	entries, err := os.ReadDir(filepath.Dir(base))
	require.NoError(t, err)
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(filepath.Dir(base), e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dst), e.Name()), data, 0644))
	}
	return dst
}

func TestCrashBetweenSlotForces(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pool")
	vp := openTestPool(t, base)
	require.NoError(t, vp.Clear(0))

	_, err := vp.Put(lit("committed"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	inFlight, err := vp.Put(lit("in flight"))
	require.NoError(t, err)
	var crashed string
	vp.meta.FaultHook = func(step metaroot.Step) error {
		if step == metaroot.StepRecordForced && crashed == "" {
			crashed = snapshotPool(t, base)
		}
		return nil
	}
	require.NoError(t, vp.Prepare())
	require.NotEmpty(t, crashed)

	// the copy holds the record with valid=0 and the node table already applied
	after := openTestPool(t, crashed)
	phases, err := after.Recover()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, phases)
	require.NoError(t, after.SelectPhase(1))
	assert.NotEqual(t, types.NoNode, mustFind(t, after, lit("committed")))
	assert.Equal(t, types.NoNode, mustFind(t, after, lit("in flight")))
	v, err := after.FindValue(inFlight)
	require.NoError(t, err)
	assert.Nil(t, v)
	require.NoError(t, after.CheckIntegrity())
}

func TestCommitFailureClosesPool(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pool")
	vp := openTestPool(t, base)
	require.NoError(t, vp.Clear(0))
	_, err := vp.Put(lit("first"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	second, err := vp.Put(lit("second"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	fail := errors.New("lost power")
	vp.meta.FaultHook = func(step metaroot.Step) error {
		if step == metaroot.StepInvalidForced {
			return fail
		}
		return nil
	}
	err = vp.Commit()
	require.Error(t, err)
	assert.ErrorIs(t, err, fail)

	_, err = vp.Put(lit("third"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = vp.FindNode(lit("first"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = vp.FindValue(second)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = vp.Scan(nil, false, nil, false)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = vp.NewReadOnlyView()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, vp.Prepare(), ErrClosed)
	assert.ErrorIs(t, vp.Commit(), ErrClosed)
	assert.ErrorIs(t, vp.Rollback(), ErrClosed)
	assert.NoError(t, vp.Close())

	// the prepared slot was complete, so the files reopen at the second phase
	again := openTestPool(t, base)
	phases, err := again.Recover()
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, phases)
	require.NoError(t, again.SelectPhase(2))
	assert.Equal(t, second, mustFind(t, again, lit("second")))
	require.NoError(t, again.CheckIntegrity())
}

func TestPrepareFailureKeepsChanges(t *testing.T) {
	vp := newTestPool(t)
	node, err := vp.Put(lit("pending"))
	require.NoError(t, err)

	vp.meta.FaultHook = func(step metaroot.Step) error {
		if step == metaroot.StepValidForced {
			return errors.New("disk full")
		}
		return nil
	}
	require.Error(t, vp.Prepare())
	vp.meta.FaultHook = nil

	assert.Equal(t, node, mustFind(t, vp, lit("pending")))
	assert.Equal(t, 1, vp.Stats().StagedRecords)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())
	assert.Equal(t, node, mustFind(t, vp, lit("pending")))
}

func TestSelectOlderPhaseUndoesPreparedNodes(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pool")
	vp, err := Open(base, testConfig())
	require.NoError(t, err)
	require.NoError(t, vp.Clear(0))

	first, err := vp.Put(lit("first"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	_, err = vp.Remove(first)
	require.NoError(t, err)
	second, err := vp.Put(lit("second"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	// no commit: both slots stay valid
	require.NoError(t, vp.Close())

	vp = openTestPool(t, base)
	phases, err := vp.Recover()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, phases)
	require.NoError(t, vp.SelectPhase(1))

	assert.Equal(t, first, mustFind(t, vp, lit("first")))
	v, err := vp.FindValue(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), v.Bytes())
	v, err = vp.FindValue(second)
	require.NoError(t, err)
	assert.Nil(t, v)
	require.NoError(t, vp.CheckIntegrity())

	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())
	require.NoError(t, vp.Close())

	vp = openTestPool(t, base)
	phases, err = vp.Recover()
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, phases)
}

func TestSelectUnknownPhase(t *testing.T) {
	vp := openTestPool(t, filepath.Join(t.TempDir(), "pool"))
	phases, err := vp.Recover()
	require.NoError(t, err)
	assert.Empty(t, phases)
	assert.ErrorIs(t, vp.SelectPhase(3), ErrProtocolViolation)
}

func TestViewIsolation(t *testing.T) {
	vp := newTestPool(t)
	_, err := vp.NewReadOnlyView()
	assert.ErrorIs(t, err, ErrProtocolViolation)

	alpha, err := vp.Put(lit("alpha"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	view, err := vp.NewReadOnlyView()
	require.NoError(t, err)
	defer view.Close()

	bravo, err := vp.Put(lit("bravo"))
	require.NoError(t, err)
	_, err = vp.Remove(alpha)
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())

	v, err := view.FindValue(alpha)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, []byte("alpha"), v.Bytes())

	require.NoError(t, vp.Commit())

	v, err = view.FindValue(alpha)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, []byte("alpha"), v.Bytes())

	node, err := view.FindNode(lit("bravo"))
	require.NoError(t, err)
	assert.Equal(t, types.NoNode, node)
	node, err = view.FindNode(lit("alpha"))
	require.NoError(t, err)
	assert.Equal(t, alpha, node)
	v, err = view.FindValue(bravo)
	require.NoError(t, err)
	assert.Nil(t, v)
	c, err := view.ScanByType(types.CategoryAny, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{alpha}, collect(t, c))

	require.NoError(t, view.Refresh())
	assert.Equal(t, uint32(2), view.Phase())
	node, err = view.FindNode(lit("bravo"))
	require.NoError(t, err)
	assert.Equal(t, bravo, node)
	node, err = view.FindNode(lit("alpha"))
	require.NoError(t, err)
	assert.Equal(t, types.NoNode, node)
	v, err = view.FindValue(bravo)
	require.NoError(t, err)
	assert.Equal(t, []byte("bravo"), v.Bytes())
}

func TestViewKeepsValueOfReusedNode(t *testing.T) {
	vp := newTestPool(t)
	alpha, err := vp.Put(lit("alpha"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	view, err := vp.NewReadOnlyView()
	require.NoError(t, err)
	defer view.Close()

	for _, next := range []string{"bravo", "charlie"} {
		_, err = vp.Remove(alpha)
		require.NoError(t, err)
		require.NoError(t, vp.PutNode(alpha, lit(next)))
		require.NoError(t, vp.Prepare())
		require.NoError(t, vp.Commit())
	}

	v, err := view.FindValue(alpha)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, []byte("alpha"), v.Bytes())

	got, err := vp.FindValue(alpha)
	require.NoError(t, err)
	assert.Equal(t, []byte("charlie"), got.Bytes())

	require.NoError(t, view.Refresh())
	v, err = view.FindValue(alpha)
	require.NoError(t, err)
	assert.Equal(t, []byte("charlie"), v.Bytes())
}

func TestViewRejectsMutation(t *testing.T) {
	vp := newTestPool(t)
	node, err := vp.Put(lit("alpha"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	view, err := vp.NewReadOnlyView()
	require.NoError(t, err)
	defer view.Close()

	_, err = view.Put(lit("x"))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, view.PutNode(40, lit("x")), ErrReadOnly)
	_, err = view.Remove(node)
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = view.FindOrCreateNode(lit("x"))
	assert.ErrorIs(t, err, ErrReadOnly)
	found, err := view.FindOrCreateNode(lit("alpha"))
	require.NoError(t, err)
	assert.Equal(t, node, found)
}

func TestRollbackPrepared(t *testing.T) {
	vp := newTestPool(t)
	alpha, err := vp.Put(lit("alpha"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	bravo, err := vp.Put(lit("bravo"))
	require.NoError(t, err)
	_, err = vp.Remove(alpha)
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	_, err = vp.Put(lit("charlie"))
	require.NoError(t, err)
	require.NoError(t, vp.Rollback())

	assert.Equal(t, alpha, mustFind(t, vp, lit("alpha")))
	assert.Equal(t, types.NoNode, mustFind(t, vp, lit("bravo")))
	assert.Equal(t, types.NoNode, mustFind(t, vp, lit("charlie")))
	v, err := vp.FindValue(bravo)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.False(t, vp.Dirty())
	require.NoError(t, vp.CheckIntegrity())
	assert.ErrorIs(t, vp.Commit(), ErrProtocolViolation)

	// the invalidated slot is written again by the next prepare
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())
	assert.Equal(t, uint32(2), vp.Stats().CommittedPhase)
}

func TestRollbackAbandonsCursors(t *testing.T) {
	vp := newTestPool(t)
	putLongs(t, vp, 1, 5)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())

	putLongs(t, vp, 6, 10)
	c, err := vp.Scan(nil, false, nil, false)
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.Next())

	require.NoError(t, vp.Rollback())
	assert.False(t, c.Next())
	assert.ErrorIs(t, c.Err(), ErrPhaseAbandoned)

	c, err = vp.Scan(nil, false, nil, false)
	require.NoError(t, err)
	assert.Len(t, collect(t, c), 5)
	assert.Equal(t, types.NoNode, mustFind(t, vp, values.NewLong(7)))
}

func TestClosedPool(t *testing.T) {
	vp := newTestPool(t)
	_, err := vp.Put(lit("a"))
	require.NoError(t, err)
	require.NoError(t, vp.Prepare())
	require.NoError(t, vp.Commit())
	view, err := vp.NewReadOnlyView()
	require.NoError(t, err)
	require.NoError(t, vp.Close())

	_, err = vp.Put(lit("b"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = view.FindNode(lit("a"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, vp.Close())
}
