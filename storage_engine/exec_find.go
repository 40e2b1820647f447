package storageengine

import (
	"ValuePool/types"
)

// FindNode returns the node holding v, types.NoNode when v is not stored.
func (vp *ValuePool) FindNode(v types.Value) (int64, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckReadable(); err != nil {
		return types.NoNode, err
	}
	return vp.findNode(v)
}

// findNode looks v up in the current phase, caches first. Caller holds mu.
func (vp *ValuePool) findNode(v types.Value) (int64, error) {
	if node, ok := vp.valueCache.Get(v); ok {
		return node, nil
	}
	if vp.filter != nil && !vp.filter.MayContain(v) {
		return types.NoNode, nil
	}

	tok := vp.acquire(vp.current)
	defer tok.Release()
	node, err := vp.lookupNode(tok.phase.avlRoot, v)
	if err != nil || node == types.NoNode {
		return node, err
	}
	vp.valueCache.Set(v, node)
	return node, nil
}

// lookupNode searches the index rooted at root.
func (vp *ValuePool) lookupNode(root int64, v types.Value) (int64, error) {
	target, err := vp.targetOf(v)
	if err != nil {
		return types.NoNode, err
	}
	res, err := vp.avl.Find(root, target)
	if err != nil {
		return types.NoNode, classify(err)
	}
	defer res.Release()
	if res.Exact == nil {
		return types.NoNode, nil
	}
	return res.Exact.GraphNode(), nil
}

// FindValue returns the value of node, nil when the node holds none.
func (vp *ValuePool) FindValue(node int64) (types.Value, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.CheckReadable(); err != nil {
		return nil, err
	}
	if node < types.MinNode {
		return nil, nil
	}
	if v, blank, ok := vp.nodeCache.Get(node); ok {
		if blank {
			return nil, nil
		}
		return v, nil
	}

	rec, ok, err := vp.nodes.Read(node)
	if err != nil {
		return nil, classify(err)
	}
	if !ok {
		vp.nodeCache.SetBlank(node)
		return nil, nil
	}
	v, err := vp.decodeValue(rec)
	if err != nil {
		return nil, err
	}
	vp.nodeCache.Set(node, v)
	return v, nil
}

// lookupDurableValue reads node as the frozen phase p recorded it and keeps the value only when
// the index of p maps it back to node. Views use it.
func (vp *ValuePool) lookupDurableValue(p *Phase, node int64) (types.Value, error) {
	if node < types.MinNode {
		return nil, nil
	}
	root := p.avlRoot
	rec, ok, err := vp.nodes.ReadAsOf(node, p.seq)
	if err != nil || !ok {
		return nil, classify(err)
	}
	v, err := vp.decodeValue(rec)
	if err != nil {
		return nil, err
	}
	found, err := vp.lookupNode(root, v)
	if err != nil {
		return nil, err
	}
	if found != node {
		return nil, nil
	}
	return v, nil
}
