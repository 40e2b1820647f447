package storageengine

import (
	"ValuePool/storage_engine/access/avltree"
	"ValuePool/types"

	"github.com/cockroachdb/errors"
)

// Put stores v under a node from the allocator and returns the node.
func (vp *ValuePool) Put(v types.Value) (int64, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckMutable(); err != nil {
		return types.NoNode, err
	}
	node, err := vp.allocate()
	if err != nil {
		return types.NoNode, err
	}
	if err := vp.put(node, v); err != nil {
		return types.NoNode, err
	}
	return node, nil
}

// PutNode stores v under node. Fails with ErrAlreadyExists when node already has a value
// or v is already stored under another node.
func (vp *ValuePool) PutNode(node int64, v types.Value) error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckMutable(); err != nil {
		return err
	}
	if node < types.MinNode {
		return errors.Wrapf(ErrProtocolViolation, "node %d is below the first graph node %d", node, types.MinNode)
	}
	return vp.put(node, v)
}

// FindOrCreateNode returns the node of v, storing v under a new node when it is absent.
func (vp *ValuePool) FindOrCreateNode(v types.Value) (int64, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckMutable(); err != nil {
		return types.NoNode, err
	}
	node, err := vp.findNode(v)
	if err != nil || node != types.NoNode {
		return node, err
	}
	if node, err = vp.allocate(); err != nil {
		return types.NoNode, err
	}
	if err := vp.put(node, v); err != nil {
		return types.NoNode, err
	}
	return node, nil
}

func (vp *ValuePool) allocate() (int64, error) {
	if vp.allocator == nil {
		return types.NoNode, errors.Wrap(ErrProtocolViolation, "no node allocator configured")
	}
	node, err := vp.allocator.NewNode()
	if err != nil {
		return types.NoNode, errors.Wrap(err, "node allocator failed")
	}
	if node < types.MinNode {
		return types.NoNode, errors.AssertionFailedf("allocator returned node %d", node)
	}
	return node, nil
}

// put indexes v and records it under node. Caller holds mu.
func (vp *ValuePool) put(node int64, v types.Value) error {
	target, err := vp.targetOf(v)
	if err != nil {
		return err
	}
	if err := checkSize(len(v.Bytes())); err != nil {
		return err
	}
	if _, ok, err := vp.nodes.Read(node); err != nil {
		return classify(err)
	} else if ok {
		return errors.Wrapf(ErrAlreadyExists, "node %d already has a value", node)
	}

	p := vp.writablePhase()
	rec, err := vp.encodeValue(v)
	if err != nil {
		return err
	}
	root, err := vp.avl.Insert(p.avlRoot, target, avltree.EncodePayload(rec, node))
	if err != nil {
		if ferr := vp.freeBlock(rec); ferr != nil {
			err = errors.WithSecondaryError(err, ferr)
		}
		return classify(err)
	}
	if err := vp.nodes.Write(node, rec); err != nil {
		// the index already holds the entry, the phase is no longer consistent
		return errors.Wrapf(classify(err), "node %d indexed but not recorded", node)
	}
	p.avlRoot = root
	p.avlNodes++
	if seq, ok := vp.allocator.(*SequentialAllocator); ok {
		seq.Observe(node)
	}
	vp.txns.Active().RecordPut(node)

	vp.valueCache.Set(v, node)
	// a blank marker for node may still be buffered
	vp.nodeCache.Delete(node)
	vp.nodeCache.Set(node, v)
	if vp.filter != nil {
		vp.filter.Add(v)
	}
	vp.log.Debugf("[Pool] PUT node=%d %s size=%d", node, v.Category(), rec.Size)
	return nil
}
