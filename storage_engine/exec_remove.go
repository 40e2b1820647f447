package storageengine

import (
	"ValuePool/storage_engine/access/avltree"

	"github.com/cockroachdb/errors"
)

// Remove drops the value of node. It reports false when node had no value.
func (vp *ValuePool) Remove(node int64) (bool, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckMutable(); err != nil {
		return false, err
	}
	rec, ok, err := vp.nodes.Read(node)
	if err != nil {
		return false, classify(err)
	}
	if !ok {
		return false, nil
	}
	target, err := vp.targetOfRecord(rec)
	if err != nil {
		return false, err
	}
	v, decodeErr := vp.decodeValue(rec)

	p := vp.writablePhase()
	root, err := vp.avl.Delete(p.avlRoot, target)
	if errors.Is(err, avltree.ErrNotFound) {
		return false, corruptf("node %d has a %s value missing from the index", node, rec.Category)
	}
	if err != nil {
		return false, classify(err)
	}
	p.avlRoot = root
	p.avlNodes--

	if err := vp.freeBlock(rec); err != nil {
		return false, err
	}
	if err := vp.nodes.MarkFree(node); err != nil {
		return false, classify(err)
	}
	vp.txns.Active().RecordRemove(node)

	if decodeErr == nil {
		vp.valueCache.Delete(v)
	} else {
		vp.valueCache.Clear()
	}
	vp.nodeCache.Delete(node)
	vp.log.Debugf("[Pool] REMOVE node=%d", node)
	return true, nil
}
