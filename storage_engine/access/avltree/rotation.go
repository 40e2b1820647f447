package avltree

// height of a subtree, 0 for the empty one.
func (t *Tree) height(id int64) (int, error) {
	if id == 0 {
		return 0, nil
	}
	n, err := t.Load(id)
	if err != nil {
		return 0, err
	}
	defer n.Release()
	return n.Height(), nil
}

func (t *Tree) fixHeight(n *Node) error {
	hl, err := t.height(n.Left())
	if err != nil {
		return err
	}
	hr, err := t.height(n.Right())
	if err != nil {
		return err
	}
	n.setHeight(1 + max(hl, hr))
	return nil
}

// rotateRight lifts the left child of the owned node n. n is consumed, the new subtree root returned.
//
//	    n           l
//	   / \         / \
//	  l   c  =>   a   n
//	 / \             / \
//	a   b           b   c
func (t *Tree) rotateRight(n *Node) (int64, error) {
	defer n.Release()
	l, err := t.ownID(n.Left())
	if err != nil {
		return 0, err
	}
	defer l.Release()

	n.setLeft(l.Right())
	if err := t.fixHeight(n); err != nil {
		return 0, err
	}
	l.setRight(n.ID)
	if err := t.fixHeight(l); err != nil {
		return 0, err
	}
	return l.ID, nil
}

// rotateLeft is the mirror of rotateRight.
func (t *Tree) rotateLeft(n *Node) (int64, error) {
	defer n.Release()
	r, err := t.ownID(n.Right())
	if err != nil {
		return 0, err
	}
	defer r.Release()

	n.setRight(r.Left())
	if err := t.fixHeight(n); err != nil {
		return 0, err
	}
	r.setLeft(n.ID)
	if err := t.fixHeight(r); err != nil {
		return 0, err
	}
	return r.ID, nil
}

// rebalance restores the AVL balance at the owned node n, whose subtrees are balanced
// and differ in height by at most two. n is consumed, the new subtree root returned.
func (t *Tree) rebalance(n *Node) (int64, error) {
	if err := t.fixHeight(n); err != nil {
		n.Release()
		return 0, err
	}
	hl, err := t.height(n.Left())
	if err != nil {
		n.Release()
		return 0, err
	}
	hr, err := t.height(n.Right())
	if err != nil {
		n.Release()
		return 0, err
	}

	switch {
	case hl-hr > 1:
		l, err := t.Load(n.Left())
		if err != nil {
			n.Release()
			return 0, err
		}
		if err := t.straighten(n, l, true); err != nil {
			n.Release()
			return 0, err
		}
		return t.rotateRight(n)
	case hr-hl > 1:
		r, err := t.Load(n.Right())
		if err != nil {
			n.Release()
			return 0, err
		}
		if err := t.straighten(n, r, false); err != nil {
			n.Release()
			return 0, err
		}
		return t.rotateLeft(n)
	}
	id := n.ID
	n.Release()
	return id, nil
}

// straighten turns a left-right (or right-left) shape below n into a left-left
// (right-right) one by rotating the heavy child c. c is consumed.
func (t *Tree) straighten(n, c *Node, left bool) error {
	inner, outer := c.Right(), c.Left()
	if !left {
		inner, outer = c.Left(), c.Right()
	}
	hi, err := t.height(inner)
	if err != nil {
		c.Release()
		return err
	}
	ho, err := t.height(outer)
	if err != nil {
		c.Release()
		return err
	}
	if hi <= ho {
		c.Release()
		return nil
	}

	c, err = t.own(c)
	if err != nil {
		return err
	}
	var id int64
	if left {
		id, err = t.rotateLeft(c)
	} else {
		id, err = t.rotateRight(c)
	}
	if err != nil {
		return err
	}
	if left {
		n.setLeft(id)
	} else {
		n.setRight(id)
	}
	return nil
}
