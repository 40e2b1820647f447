package avltree

import (
	"ValuePool/types"

	"github.com/cockroachdb/errors"
)

// Insert adds payload at the position target describes and returns the root of the new tree.
// The tree rooted at root is left intact unless its pages belong to the current phase.
// An entry comparing equal fails with ErrDuplicate.
func (t *Tree) Insert(root int64, target Target, payload []byte) (int64, error) {
	if len(payload) != types.PayloadSize {
		return 0, errors.AssertionFailedf("index payload of %d bytes", len(payload))
	}
	return t.insert(root, target, payload)
}

func (t *Tree) insert(id int64, target Target, payload []byte) (int64, error) {
	if id == 0 {
		n, err := t.newNode()
		if err != nil {
			return 0, err
		}
		defer n.Release()
		n.setPayload(payload)
		n.setHeight(1)
		t.log.Debugf("[AVL] INSERT node=%d graphNode=%d", n.ID, n.GraphNode())
		return n.ID, nil
	}

	n, err := t.Load(id)
	if err != nil {
		return 0, err
	}
	c, err := target(n)
	if err != nil {
		n.Release()
		return 0, err
	}
	if c == 0 {
		existing := n.GraphNode()
		n.Release()
		return 0, errors.Wrapf(ErrDuplicate, "value held by graph node %d", existing)
	}

	child := n.Right()
	if c < 0 {
		child = n.Left()
	}
	// descend without holding the pin, the subtree is reached again through its new id
	n.Release()
	newChild, err := t.insert(child, target, payload)
	if err != nil {
		return 0, err
	}

	n, err = t.ownID(id)
	if err != nil {
		return 0, err
	}
	if c < 0 {
		n.setLeft(newChild)
	} else {
		n.setRight(newChild)
	}
	return t.rebalance(n)
}
