package avltree

import (
	blockstore "ValuePool/storage_engine/block_store"
	"ValuePool/storage_engine/bufferpool"
	"ValuePool/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	ErrDuplicate = errors.New("entry already in index")
	ErrNotFound  = errors.New("entry not in index")
)

func NewTree(region *blockstore.Region, pool *bufferpool.BufferPool, log *zap.SugaredLogger) (*Tree, error) {
	if region.PageSize < PageSize {
		return nil, errors.Newf("region %s pages hold %d bytes, index nodes need %d", region.Name, region.PageSize, PageSize)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Tree{region: region, pool: pool, log: log}, nil
}

func (t *Tree) Region() *blockstore.Region { return t.region }

// Load pins node id.
func (t *Tree) Load(id int64) (*Node, error) {
	if id <= 0 {
		return nil, errors.AssertionFailedf("load of index node %d", id)
	}
	pg, err := t.pool.FetchPage(t.region.GlobalID(id), types.PageTypeAVLNode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load index node %d", id)
	}
	return &Node{ID: id, tree: t, pg: pg}, nil
}

// newNode allocates a page owned by the current phase and pins a zeroed frame for it.
func (t *Tree) newNode() (*Node, error) {
	id, err := t.region.Allocate()
	if err != nil {
		return nil, err
	}
	pg, err := t.pool.NewPage(t.region.GlobalID(id), types.PageTypeAVLNode)
	if err != nil {
		_ = t.region.Free(id)
		return nil, err
	}
	return &Node{ID: id, tree: t, pg: pg, dirty: true}, nil
}

// own returns a node the current phase may modify holding the content of n.
// A shared node is copied to a fresh page and its old page freed, n is consumed either way.
func (t *Tree) own(n *Node) (*Node, error) {
	if t.region.IsWritable(n.ID) {
		return n, nil
	}
	c, err := t.newNode()
	if err != nil {
		n.Release()
		return nil, err
	}
	copy(c.pg.Data, n.pg.Data[:PageSize])
	old := n.ID
	n.Release()
	if err := t.region.Free(old); err != nil {
		c.Release()
		return nil, err
	}
	t.log.Debugf("[AVL] COPY node=%d -> %d", old, c.ID)
	return c, nil
}

// ownID loads and owns node id.
func (t *Tree) ownID(id int64) (*Node, error) {
	n, err := t.Load(id)
	if err != nil {
		return nil, err
	}
	return t.own(n)
}

// release frees the page of a node that left the tree.
func (t *Tree) release(n *Node) error {
	id := n.ID
	n.Release()
	return t.region.Free(id)
}

// Flush writes every dirty index page back and forces the region.
func (t *Tree) Flush() error {
	if err := t.pool.FlushFile(t.region.FileID); err != nil {
		return err
	}
	return t.region.Force()
}
