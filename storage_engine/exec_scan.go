package storageengine

import (
	"sync"

	"ValuePool/storage_engine/access/avltree"
	"ValuePool/types"

	"github.com/cockroachdb/errors"
)

/*
A scan is positioned once: the first entry comes from a lower bound search and the entry just past
the upper bound is located up front. After that the cursor only follows in order successors and
stops when it reaches that entry, so a scan costs O(log n) plus one step per result.
*/

// bound is one end of a scan. For the low end strict excludes entries equal to the target,
// for the high end strict includes them.
type bound struct {
	target avltree.Target
	strict bool
}

var everything = bound{target: func(*avltree.Node) (int, error) { return -1, nil }}

// NodeCursor iterates the graph nodes of a scan in value order.
// It pins the phase it was opened on until Close.
type NodeCursor struct {
	pool  *ValuePool
	token *Token
	root  int64
	start bound
	endID int64 // index entry the scan stops at, 0 runs to the end
	empty bool

	cur  *avltree.Cursor
	node int64
	done bool
	err  error
	mu   sync.Mutex
}

// Scan returns the nodes whose values lie between low and high, in order. A nil bound leaves that
// end open up to the limit of the other bound's type, both nil scans every value.
func (vp *ValuePool) Scan(low types.Value, lowInclusive bool, high types.Value, highInclusive bool) (*NodeCursor, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckReadable(); err != nil {
		return nil, err
	}
	return vp.openCursor(vp.current, true, func(tok *Token) (*NodeCursor, error) {
		return vp.rangeCursor(tok, low, lowInclusive, high, highInclusive)
	})
}

// ScanByType returns every node whose value has the given category and datatype.
// types.CategoryAny with an empty URI selects everything, an empty URI alone selects the whole category.
func (vp *ValuePool) ScanByType(category types.TypeCategory, typeURI string) (*NodeCursor, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckReadable(); err != nil {
		return nil, err
	}
	return vp.openCursor(vp.current, true, func(tok *Token) (*NodeCursor, error) {
		return vp.typeCursor(tok, category, typeURI)
	})
}

// openCursor pins p for a cursor built by build. A writer scan marks the current phase clean
// so the next mutation leaves the scanned version alone. Writers hold mu.
func (vp *ValuePool) openCursor(p *Phase, writer bool, build func(*Token) (*NodeCursor, error)) (*NodeCursor, error) {
	tok := vp.acquire(p)
	c, err := build(tok)
	if err != nil {
		tok.Release()
		return nil, err
	}
	if writer {
		p.dirty = false
	}
	vp.registerCursor(c)
	return c, nil
}

func (vp *ValuePool) rangeCursor(tok *Token, low types.Value, lowInclusive bool, high types.Value, highInclusive bool) (*NodeCursor, error) {
	var start, end bound
	switch {
	case low == nil && high == nil:
		return vp.newCursor(tok, everything, nil)

	case low != nil && high != nil:
		if keyOf(low) != keyOf(high) {
			return nil, errors.Wrapf(ErrProtocolViolation, "scan bounds of different types: %s/%d and %s/%d",
				low.Category(), low.TypeID(), high.Category(), high.TypeID())
		}
		c, err := vp.comparatorFor(low.Category(), low.TypeID())
		if err != nil {
			return nil, err
		}
		r := c.Compare(low.Bytes(), low.SubtypeID(), high.Bytes(), high.SubtypeID())
		if r > 0 || (r == 0 && !(lowInclusive && highInclusive)) {
			return &NodeCursor{pool: vp, token: tok, empty: true}, nil
		}
	}

	if low != nil {
		t, err := vp.targetOf(low)
		if err != nil {
			return nil, err
		}
		start = bound{target: t, strict: !lowInclusive}
	} else {
		start = bound{target: typeBound(keyOf(high), false)}
	}
	if high != nil {
		t, err := vp.targetOf(high)
		if err != nil {
			return nil, err
		}
		end = bound{target: t, strict: highInclusive}
	} else {
		end = bound{target: typeBound(keyOf(low), true)}
	}
	return vp.newCursor(tok, start, &end)
}

func (vp *ValuePool) typeCursor(tok *Token, category types.TypeCategory, typeURI string) (*NodeCursor, error) {
	var key typeKey
	switch {
	case category == types.CategoryAny:
		if typeURI != "" {
			return nil, errors.Wrapf(ErrProtocolViolation, "datatype %s without a category", typeURI)
		}
		return vp.newCursor(tok, everything, nil)
	case category == types.CategoryFree:
		return nil, errors.Wrapf(ErrUnsupportedType, "category %s", category)
	case typeURI == "":
		key = typeKey{category: category, anyType: true}
	case category != types.CategoryTypedLiteral:
		return nil, errors.Wrapf(ErrProtocolViolation, "datatype %s on a %s", typeURI, category)
	default:
		typeID, ok := vp.cfg.Factory.TypeID(typeURI)
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedType, "datatype %s", typeURI)
		}
		key = typeKey{category: category, typeID: typeID}
	}
	end := bound{target: typeBound(key, true)}
	return vp.newCursor(tok, bound{target: typeBound(key, false)}, &end)
}

// newCursor locates the end of the scan. A nil end runs to the last entry.
func (vp *ValuePool) newCursor(tok *Token, start bound, end *bound) (*NodeCursor, error) {
	c := &NodeCursor{pool: vp, token: tok, root: tok.phase.avlRoot, start: start}
	if end != nil {
		id, err := vp.avl.LowerBound(c.root, end.target, end.strict)
		if err != nil {
			return nil, classify(err)
		}
		c.endID = id
	}
	return c, nil
}

// Next advances to the next node. It returns false at the end of the scan or on error, see Err.
func (c *NodeCursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil || c.done || c.empty {
		return false
	}
	if err := c.check(); err != nil {
		c.fail(err)
		return false
	}
	if c.cur == nil {
		cur, err := c.pool.avl.Seek(c.root, c.start.target, c.start.strict)
		if err != nil {
			c.fail(classify(err))
			return false
		}
		c.cur = cur
	}
	if !c.cur.Next() {
		if err := c.cur.Err(); err != nil {
			c.fail(classify(err))
			return false
		}
		c.finish()
		return false
	}
	n := c.cur.Node()
	if n.ID == c.endID {
		c.finish()
		return false
	}
	c.node = n.GraphNode()
	return true
}

// Node is the graph node the cursor is on.
func (c *NodeCursor) Node() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.node
}

func (c *NodeCursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Reset moves the cursor back before the first node.
func (c *NodeCursor) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(); err != nil {
		c.fail(err)
		return err
	}
	c.closeCursor()
	c.done = false
	c.err = nil
	c.node = types.NoNode
	return nil
}

// Count is the number of nodes the whole scan yields, whatever the cursor position.
func (c *NodeCursor) Count() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.empty {
		return 0, nil
	}
	if err := c.check(); err != nil {
		return 0, err
	}
	cur, err := c.pool.avl.Seek(c.root, c.start.target, c.start.strict)
	if err != nil {
		return 0, classify(err)
	}
	defer cur.Close()

	var n int64
	for cur.Next() {
		if cur.Node().ID == c.endID {
			break
		}
		n++
	}
	return n, classify(cur.Err())
}

// Close releases the cursor and the phase it pinned.
func (c *NodeCursor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCursor()
	c.done = true
	c.release()
}

// abandon stops a cursor whose phase was rolled back.
func (c *NodeCursor) abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail(ErrPhaseAbandoned)
}

func (c *NodeCursor) check() error {
	if c.token == nil || c.token.released.Load() {
		return errors.New("cursor closed")
	}
	if c.token.phase.abandoned.Load() {
		return ErrPhaseAbandoned
	}
	return c.pool.checkOpen()
}

// fail records err and lets go of everything the cursor pins. Caller holds c.mu.
func (c *NodeCursor) fail(err error) {
	c.err = err
	c.closeCursor()
	c.release()
}

func (c *NodeCursor) finish() {
	c.done = true
	c.closeCursor()
}

func (c *NodeCursor) closeCursor() {
	if c.cur != nil {
		c.cur.Close()
		c.cur = nil
	}
}

func (c *NodeCursor) release() {
	if c.token != nil && !c.token.released.Load() {
		c.pool.unregisterCursor(c)
		c.token.Release()
	}
}
