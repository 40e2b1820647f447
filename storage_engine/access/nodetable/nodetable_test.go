package nodetable

import (
	"path/filepath"
	"testing"

	"ValuePool/storage_engine/catalog"
	walmanager "ValuePool/storage_engine/wal_manager"
	"ValuePool/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestTable(t *testing.T, base string) *NodeTable {
	t.Helper()
	cat, err := catalog.NewCatalog(base)
	require.NoError(t, err)
	j, err := walmanager.OpenJournal(cat.JournalFile().Path, nil)
	require.NoError(t, err)
	nt, err := Open(cat.NodeFile(), j, true, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		nt.Close()
		j.Close()
	})
	return nt
}

func literal(s string) types.Record {
	return types.Record{Category: types.CategoryUntypedLiteral, Size: len(s), Data: []byte(s)}
}

func TestStagedWritesAreInvisibleToDurableReads(t *testing.T) {
	nt := openTestTable(t, filepath.Join(t.TempDir(), "pool"))

	require.NoError(t, nt.Write(11, literal("alpha")))

	rec, ok, err := nt.Read(11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", string(rec.Data))

	_, ok, err = nt.ReadDurable(11)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, nt.Apply(1))
	rec, ok, err = nt.ReadDurable(11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", string(rec.Data))
	assert.Zero(t, nt.Staged())
}

func TestMarkFreeAndDiscard(t *testing.T) {
	nt := openTestTable(t, filepath.Join(t.TempDir(), "pool"))
	require.NoError(t, nt.Write(5, literal("x")))
	require.NoError(t, nt.Apply(1))

	require.NoError(t, nt.MarkFree(5))
	_, ok, err := nt.Read(5)
	require.NoError(t, err)
	assert.False(t, ok)

	nt.Discard()
	_, ok, err = nt.Read(5)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = nt.Read(0)
	assert.ErrorIs(t, err, ErrBadNode)
}

func TestApplyGrowsMapping(t *testing.T) {
	nt := openTestTable(t, filepath.Join(t.TempDir(), "pool"))
	far := int64(initialRecords*3 + 7)

	require.NoError(t, nt.Write(far, literal("far away")))
	require.NoError(t, nt.Apply(1))
	assert.Equal(t, int64(initialRecords*4), nt.Capacity())

	rec, ok, err := nt.ReadDurable(far)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "far away", string(rec.Data))
}

func TestUndoRestoresBeforeImages(t *testing.T) {
	nt := openTestTable(t, filepath.Join(t.TempDir(), "pool"))
	require.NoError(t, nt.Write(3, literal("old")))
	require.NoError(t, nt.Apply(1))
	require.NoError(t, nt.Settle())

	require.NoError(t, nt.Write(3, literal("new")))
	require.NoError(t, nt.Write(4, literal("added")))
	require.NoError(t, nt.Apply(2))
	require.NoError(t, nt.Undo())

	rec, ok, err := nt.ReadDurable(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "old", string(rec.Data))

	_, ok, err = nt.ReadDurable(4)
	require.NoError(t, err)
	assert.False(t, ok)

	// the undone writes are staged again
	rec, ok, err = nt.Read(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", string(rec.Data))
	assert.Equal(t, 2, nt.Staged())

	nt.Discard()
	assert.Zero(t, nt.Staged())
}

func TestHighest(t *testing.T) {
	nt := openTestTable(t, filepath.Join(t.TempDir(), "pool"))
	assert.Zero(t, nt.Highest())

	require.NoError(t, nt.Write(40, literal("a")))
	require.NoError(t, nt.Apply(1))
	require.NoError(t, nt.Write(12, literal("b")))
	assert.Equal(t, int64(40), nt.Highest())

	require.NoError(t, nt.MarkFree(40))
	assert.Equal(t, int64(12), nt.Highest())
}

func TestRecoverUndoesOnlyUncommittedPhase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pool")
	nt := openTestTable(t, base)
	require.NoError(t, nt.Write(3, literal("old")))
	require.NoError(t, nt.Apply(1))
	require.NoError(t, nt.Settle())
	require.NoError(t, nt.Write(3, literal("new")))
	require.NoError(t, nt.Apply(2))

	// journal names phase 2, which did commit
	require.NoError(t, nt.Recover(2))
	rec, _, err := nt.ReadDurable(3)
	require.NoError(t, err)
	assert.Equal(t, "new", string(rec.Data))

	require.NoError(t, nt.Write(3, literal("newer")))
	require.NoError(t, nt.Apply(3))

	// crash before phase 3 committed
	require.NoError(t, nt.Recover(2))
	rec, _, err = nt.ReadDurable(3)
	require.NoError(t, err)
	assert.Equal(t, "new", string(rec.Data))
}

func TestContentSurvivesReopen(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pool")
	nt := openTestTable(t, base)
	require.NoError(t, nt.Write(9, literal("kept")))
	require.NoError(t, nt.Apply(1))
	require.NoError(t, nt.Close())

	again := openTestTable(t, base)
	rec, ok, err := again.ReadDurable(9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "kept", string(rec.Data))

	require.NoError(t, again.Reset())
	_, ok, err = again.ReadDurable(9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOlderPhaseReadsOverwrittenRecord(t *testing.T) {
	nt := openTestTable(t, filepath.Join(t.TempDir(), "pool"))
	horizon := uint64(1)
	nt.SetHorizon(func() uint64 { return horizon })

	nt.Begin(1)
	require.NoError(t, nt.Write(7, literal("alpha")))
	require.NoError(t, nt.Apply(1))
	require.NoError(t, nt.Settle())

	nt.Begin(2)
	require.NoError(t, nt.MarkFree(7))
	require.NoError(t, nt.Apply(2))

	rec, ok, err := nt.ReadAsOf(7, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", string(rec.Data))
	_, ok, err = nt.ReadAsOf(7, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	// undoing the free forgets the kept copy along with it
	require.NoError(t, nt.Undo())
	rec, ok, err = nt.ReadAsOf(7, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", string(rec.Data))
	assert.Empty(t, nt.superseded)

	nt.Discard()
	nt.Begin(3)
	require.NoError(t, nt.Write(7, literal("bravo")))
	require.NoError(t, nt.Apply(3))
	require.NoError(t, nt.Settle())
	assert.Len(t, nt.superseded[7], 1)

	// once no phase older than 3 is live the copy goes at the next apply
	horizon = 3
	nt.Begin(4)
	require.NoError(t, nt.Apply(4))
	assert.Empty(t, nt.superseded)
	rec, _, err = nt.ReadAsOf(7, 1)
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(rec.Data))
}
