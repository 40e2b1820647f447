// Structure of the ordered index
/*
Tree (no stored root, every phase keeps its own)
 ├── Node page (left, right, payload)
 │      ├── left subtree  (entries ordering before the payload)
 │      └── right subtree (entries ordering after it)

- one page per entry, PageSize bytes
- |height(left) - height(right)| <= 1 for every node
- pages are copied before they are modified unless the current phase allocated them,
  so every root ever handed out keeps describing the same set of entries
*/
package avltree

import (
	blockstore "ValuePool/storage_engine/block_store"
	"ValuePool/storage_engine/bufferpool"
	"ValuePool/storage_engine/page"
	"ValuePool/types"

	"go.uber.org/zap"
)

const (
	idxLeft    = 0
	idxRight   = 8
	idxPayload = 16
	idxHeight  = idxPayload // the reserved payload byte

	PageSize = idxPayload + types.PayloadSize
)

// Target orders the value being searched for against the entry of n:
// negative when the target sorts before n, zero when equal, positive after.
type Target func(n *Node) (int, error)

// Node is a pinned handle on one tree page. Release it when done.
type Node struct {
	ID    int64
	tree  *Tree
	pg    *page.Page
	dirty bool
}

// Tree reads and writes index nodes of one region through the buffer pool.
type Tree struct {
	region *blockstore.Region
	pool   *bufferpool.BufferPool
	log    *zap.SugaredLogger
}

// FindResult is the outcome of Find. Exact is set on a match, otherwise Pred and
// Succ are the neighbours of the target (either may be nil). All nil means an empty tree.
type FindResult struct {
	Exact *Node
	Pred  *Node
	Succ  *Node
}

// Release unpins every node of the result.
func (r FindResult) Release() {
	r.Exact.Release()
	r.Pred.Release()
	r.Succ.Release()
}

// Cursor walks entries in order starting from a lower bound.
type Cursor struct {
	tree  *Tree
	stack []int64 // ancestors still to visit, innermost last
	cur   *Node
	err   error
}
