package avltree

// Seek positions a cursor before the first entry LowerBound would return.
// The cursor holds the current node pinned, call Close when done.
func (t *Tree) Seek(root int64, target Target, strict bool) (*Cursor, error) {
	cur := &Cursor{tree: t}
	id := root
	for id != 0 {
		n, err := t.Load(id)
		if err != nil {
			return nil, err
		}
		c, err := target(n)
		if err != nil {
			n.Release()
			return nil, err
		}
		if c < 0 || (c == 0 && !strict) {
			cur.stack = append(cur.stack, id)
			id = n.Left()
		} else {
			id = n.Right()
		}
		n.Release()
	}
	return cur, nil
}

// First positions a cursor before the smallest entry under root.
func (t *Tree) First(root int64) (*Cursor, error) {
	return t.Seek(root, func(*Node) (int, error) { return -1, nil }, false)
}

// Next moves to the following entry. It returns false at the end or on error.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	c.cur.Release()
	c.cur = nil
	if len(c.stack) == 0 {
		return false
	}

	id := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	n, err := c.tree.Load(id)
	if err != nil {
		c.err = err
		return false
	}
	// the next entries after n are the left spine of its right subtree
	for child := n.Right(); child != 0; {
		c.stack = append(c.stack, child)
		ch, err := c.tree.Load(child)
		if err != nil {
			n.Release()
			c.err = err
			return false
		}
		child = ch.Left()
		ch.Release()
	}
	c.cur = n
	return true
}

// Node is the entry the cursor is on. It stays pinned until the next call to Next or Close.
func (c *Cursor) Node() *Node { return c.cur }

func (c *Cursor) Err() error { return c.err }

// Close releases the current node.
func (c *Cursor) Close() {
	c.cur.Release()
	c.cur = nil
	c.stack = nil
}

// Walk calls fn for every entry under root in order, stopping at the first error.
func (t *Tree) Walk(root int64, fn func(n *Node) error) error {
	cur, err := t.First(root)
	if err != nil {
		return err
	}
	defer cur.Close()
	for cur.Next() {
		if err := fn(cur.Node()); err != nil {
			return err
		}
	}
	return cur.Err()
}
