package avltree

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"path/filepath"
	"testing"

	blockstore "ValuePool/storage_engine/block_store"
	"ValuePool/storage_engine/bufferpool"
	diskmanager "ValuePool/storage_engine/disk_manager"
	"ValuePool/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, frames int) (*Tree, *bufferpool.BufferPool) {
	t.Helper()
	dm := diskmanager.NewDiskManager(nil, false)
	t.Cleanup(func() { dm.CloseAll() })
	_, err := dm.OpenFileWithID(filepath.Join(t.TempDir(), "idx.sp_avl"), 2, PageSize)
	require.NoError(t, err)

	region := blockstore.NewRegion("idx", 2, PageSize, types.PageTypeAVLNode, dm, nil)
	region.Begin(1)
	bp := bufferpool.NewBufferPool(frames, dm, nil)
	tree, err := NewTree(region, bp, nil)
	require.NoError(t, err)
	return tree, bp
}

func key(k int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(k))
	return b
}

func entry(k int64) []byte {
	rec := types.Record{Category: types.CategoryUntypedLiteral, Size: 8, Data: key(k)}
	return EncodePayload(rec, k)
}

func target(k int64) Target {
	want := key(k)
	return func(n *Node) (int, error) {
		return bytes.Compare(want, n.Record().Data), nil
	}
}

func keys(t *testing.T, tree *Tree, root int64) []int64 {
	t.Helper()
	var out []int64
	require.NoError(t, tree.Walk(root, func(n *Node) error {
		out = append(out, n.GraphNode())
		return nil
	}))
	return out
}

// checkBalanced verifies stored heights and the balance bound, returning the subtree height.
func checkBalanced(t *testing.T, tree *Tree, id int64) int {
	t.Helper()
	if id == 0 {
		return 0
	}
	n, err := tree.Load(id)
	require.NoError(t, err)
	defer n.Release()

	hl := checkBalanced(t, tree, n.Left())
	hr := checkBalanced(t, tree, n.Right())
	require.LessOrEqual(t, hl-hr, 1, "node %d left heavy", id)
	require.LessOrEqual(t, hr-hl, 1, "node %d right heavy", id)
	require.Equal(t, 1+max(hl, hr), n.Height(), "node %d height", id)
	return n.Height()
}

func TestInsertKeepsOrderAndBalance(t *testing.T) {
	tree, bp := newTestTree(t, 64)

	var root int64
	var err error
	for _, k := range rand.New(rand.NewSource(1)).Perm(300) {
		root, err = tree.Insert(root, target(int64(k+1)), entry(int64(k+1)))
		require.NoError(t, err)
	}

	got := keys(t, tree, root)
	require.Len(t, got, 300)
	for i, k := range got {
		assert.Equal(t, int64(i+1), k)
	}
	checkBalanced(t, tree, root)
	assert.Zero(t, bp.GetStats().PinnedPages)

	_, err = tree.Insert(root, target(42), entry(42))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestDeleteKeepsOrderAndBalance(t *testing.T) {
	tree, bp := newTestTree(t, 64)

	var root int64
	var err error
	for k := int64(1); k <= 200; k++ {
		root, err = tree.Insert(root, target(k), entry(k))
		require.NoError(t, err)
	}
	for k := int64(2); k <= 200; k += 2 {
		root, err = tree.Delete(root, target(k))
		require.NoError(t, err)
	}
	checkBalanced(t, tree, root)

	got := keys(t, tree, root)
	require.Len(t, got, 100)
	for _, k := range got {
		assert.Equal(t, int64(1), k%2)
	}

	_, err = tree.Delete(root, target(2))
	assert.ErrorIs(t, err, ErrNotFound)

	for k := int64(1); k <= 200; k += 2 {
		root, err = tree.Delete(root, target(k))
		require.NoError(t, err)
	}
	assert.Zero(t, root)
	assert.Zero(t, bp.GetStats().PinnedPages)
}

func TestOlderRootsSurviveLaterPhases(t *testing.T) {
	tree, _ := newTestTree(t, 16)

	var v1 int64
	var err error
	for k := int64(1); k <= 50; k++ {
		v1, err = tree.Insert(v1, target(k), entry(k))
		require.NoError(t, err)
	}

	// a new phase may not touch the pages of v1
	tree.Region().Begin(2)
	v2, err := tree.Insert(v1, target(51), entry(51))
	require.NoError(t, err)
	v2, err = tree.Delete(v2, target(10))
	require.NoError(t, err)

	assert.Len(t, keys(t, tree, v1), 50)
	assert.Contains(t, keys(t, tree, v1), int64(10))
	assert.NotContains(t, keys(t, tree, v1), int64(51))

	assert.Len(t, keys(t, tree, v2), 50)
	assert.NotContains(t, keys(t, tree, v2), int64(10))
	assert.Contains(t, keys(t, tree, v2), int64(51))
	checkBalanced(t, tree, v1)
	checkBalanced(t, tree, v2)
}

func TestFindAndNeighbours(t *testing.T) {
	tree, bp := newTestTree(t, 32)

	var root int64
	var err error
	for k := int64(10); k <= 100; k += 10 {
		root, err = tree.Insert(root, target(k), entry(k))
		require.NoError(t, err)
	}

	res, err := tree.Find(root, target(40))
	require.NoError(t, err)
	require.NotNil(t, res.Exact)
	assert.Equal(t, int64(40), res.Exact.GraphNode())
	res.Release()

	res, err = tree.Find(root, target(45))
	require.NoError(t, err)
	assert.Nil(t, res.Exact)
	require.NotNil(t, res.Pred)
	require.NotNil(t, res.Succ)
	assert.Equal(t, int64(40), res.Pred.GraphNode())
	assert.Equal(t, int64(50), res.Succ.GraphNode())
	res.Release()

	res, err = tree.Find(0, target(45))
	require.NoError(t, err)
	assert.Equal(t, FindResult{}, res)

	id, err := tree.LowerBound(root, target(40), false)
	require.NoError(t, err)
	n, err := tree.Load(id)
	require.NoError(t, err)
	assert.Equal(t, int64(40), n.GraphNode())
	n.Release()

	succ, err := tree.Successor(root, target(40))
	require.NoError(t, err)
	assert.Equal(t, int64(50), succ.GraphNode())
	succ.Release()

	pred, err := tree.Predecessor(root, target(40))
	require.NoError(t, err)
	assert.Equal(t, int64(30), pred.GraphNode())
	pred.Release()

	none, err := tree.Successor(root, target(100))
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := tree.Min(root)
	require.NoError(t, err)
	assert.Equal(t, int64(10), first.GraphNode())
	first.Release()

	assert.Zero(t, bp.GetStats().PinnedPages)
}

func TestSeekStartsAtBound(t *testing.T) {
	tree, _ := newTestTree(t, 32)

	var root int64
	var err error
	for k := int64(1); k <= 20; k++ {
		root, err = tree.Insert(root, target(k), entry(k))
		require.NoError(t, err)
	}

	collect := func(cur *Cursor) []int64 {
		defer cur.Close()
		var out []int64
		for cur.Next() {
			out = append(out, cur.Node().GraphNode())
		}
		require.NoError(t, cur.Err())
		return out
	}

	cur, err := tree.Seek(root, target(15), false)
	require.NoError(t, err)
	assert.Equal(t, []int64{15, 16, 17, 18, 19, 20}, collect(cur))

	cur, err = tree.Seek(root, target(15), true)
	require.NoError(t, err)
	assert.Equal(t, []int64{16, 17, 18, 19, 20}, collect(cur))

	cur, err = tree.Seek(root, target(99), false)
	require.NoError(t, err)
	assert.Empty(t, collect(cur))
}
