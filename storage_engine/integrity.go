package storageengine

import (
	"ValuePool/storage_engine/access/avltree"
	"ValuePool/types"

	"github.com/cockroachdb/errors"
)

var errStopWalk = errors.New("stop walk")

// CheckIntegrity walks the index of the current phase in order and checks every entry against
// the node table and against its neighbour. The first problem is returned as ErrCorruption
// naming the position of the entry.
func (vp *ValuePool) CheckIntegrity() error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckReadable(); err != nil {
		return err
	}

	var (
		pos     int64
		prev    types.Value
		problem error
	)
	err := vp.avl.Walk(vp.current.avlRoot, func(n *avltree.Node) error {
		defer func() { pos++ }()

		rec, node := n.Record(), n.GraphNode()
		stored, ok, err := vp.nodes.Read(node)
		switch {
		case err != nil:
			problem = corruptf("entry %d: node %d unreadable: %v", pos, node, err)
		case !ok:
			problem = corruptf("entry %d: node %d is indexed but holds no value", pos, node)
		case !stored.SameValue(rec):
			problem = corruptf("entry %d: node %d records %s/%d size %d, index has %s/%d size %d",
				pos, node, stored.Category, stored.TypeID, stored.Size, rec.Category, rec.TypeID, rec.Size)
		}
		if problem != nil {
			return errStopWalk
		}

		v, err := vp.decodeValue(rec)
		if err != nil {
			problem = errors.Wrapf(err, "entry %d: node %d", pos, node)
			return errStopWalk
		}
		if prev != nil {
			if ok, err := vp.ordered(prev, v); err != nil {
				problem = errors.Wrapf(err, "entry %d", pos)
				return errStopWalk
			} else if !ok {
				problem = corruptf("entry %d: node %d is out of order after its predecessor", pos, node)
				return errStopWalk
			}
		}
		prev = v
		return nil
	})
	if problem != nil {
		return problem
	}
	if err != nil {
		return errors.Mark(errors.Wrapf(classify(err), "index walk stopped at entry %d", pos), ErrCorruption)
	}
	if pos != vp.current.avlNodes {
		return corruptf("index holds %d entries, phase records %d", pos, vp.current.avlNodes)
	}
	vp.log.Infof("[Pool] INTEGRITY ok entries=%d", pos)
	return nil
}

// ordered reports whether a sorts strictly before b in the index.
func (vp *ValuePool) ordered(a, b types.Value) (bool, error) {
	if ka, kb := keyOf(a), keyOf(b); ka != kb {
		if ka.category != kb.category {
			return ka.category < kb.category, nil
		}
		return ka.typeID < kb.typeID, nil
	}
	c, err := vp.comparatorFor(a.Category(), a.TypeID())
	if err != nil {
		return false, err
	}
	return c.Compare(a.Bytes(), a.SubtypeID(), b.Bytes(), b.SubtypeID()) < 0, nil
}
