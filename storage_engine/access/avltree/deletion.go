package avltree

import "github.com/cockroachdb/errors"

// Delete removes the entry matching target and returns the root of the new tree.
// A missing entry fails with ErrNotFound and leaves the tree unchanged.
func (t *Tree) Delete(root int64, target Target) (int64, error) {
	return t.delete(root, target)
}

func (t *Tree) delete(id int64, target Target) (int64, error) {
	if id == 0 {
		return 0, ErrNotFound
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

	if c != 0 {
		child := n.Right()
		if c < 0 {
			child = n.Left()
		}
		n.Release()
		newChild, err := t.delete(child, target)
		if err != nil {
			return 0, err
		}
		if n, err = t.ownID(id); err != nil {
			return 0, err
		}
		if c < 0 {
			n.setLeft(newChild)
		} else {
			n.setRight(newChild)
		}
		return t.rebalance(n)
	}

	left, right := n.Left(), n.Right()
	switch {
	case left == 0:
		t.log.Debugf("[AVL] DELETE node=%d", id)
		return right, t.release(n)
	case right == 0:
		t.log.Debugf("[AVL] DELETE node=%d", id)
		return left, t.release(n)
	}
	n.Release()

	// two children: the in order successor takes this node's place
	succ, err := t.Min(right)
	if err != nil {
		return 0, err
	}
	if succ == nil {
		return 0, errors.AssertionFailedf("index node %d has right child %d but no minimum", id, right)
	}
	payload := append([]byte(nil), succ.Payload()...)
	succ.Release()

	newRight, err := t.removeMin(right)
	if err != nil {
		return 0, err
	}
	if n, err = t.ownID(id); err != nil {
		return 0, err
	}
	n.setPayload(payload)
	n.setRight(newRight)
	t.log.Debugf("[AVL] DELETE node=%d replaced by successor", id)
	return t.rebalance(n)
}

// removeMin unlinks the smallest entry of a non empty subtree and frees its page.
func (t *Tree) removeMin(id int64) (int64, error) {
	n, err := t.Load(id)
	if err != nil {
		return 0, err
	}
	left := n.Left()
	if left == 0 {
		right := n.Right()
		return right, t.release(n)
	}
	n.Release()

	newLeft, err := t.removeMin(left)
	if err != nil {
		return 0, err
	}
	if n, err = t.ownID(id); err != nil {
		return 0, err
	}
	n.setLeft(newLeft)
	return t.rebalance(n)
}
