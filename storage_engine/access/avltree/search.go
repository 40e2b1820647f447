package avltree

// Find looks target up under root. See FindResult.
func (t *Tree) Find(root int64, target Target) (FindResult, error) {
	var pred, succ int64
	id := root
	for id != 0 {
		n, err := t.Load(id)
		if err != nil {
			return FindResult{}, err
		}
		c, err := target(n)
		if err != nil {
			n.Release()
			return FindResult{}, err
		}
		switch {
		case c == 0:
			return FindResult{Exact: n}, nil
		case c < 0:
			succ, id = id, n.Left()
		default:
			pred, id = id, n.Right()
		}
		n.Release()
	}

	var res FindResult
	var err error
	if pred != 0 {
		if res.Pred, err = t.Load(pred); err != nil {
			return FindResult{}, err
		}
	}
	if succ != 0 {
		if res.Succ, err = t.Load(succ); err != nil {
			res.Release()
			return FindResult{}, err
		}
	}
	return res, nil
}

// Min returns the first entry under root, nil for an empty tree.
func (t *Tree) Min(root int64) (*Node, error) {
	if root == 0 {
		return nil, nil
	}
	n, err := t.Load(root)
	if err != nil {
		return nil, err
	}
	for n.Left() != 0 {
		left := n.Left()
		n.Release()
		if n, err = t.Load(left); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// LowerBound returns the id of the first entry ordering after target, or equal to it
// when strict is false. 0 when there is none.
func (t *Tree) LowerBound(root int64, target Target, strict bool) (int64, error) {
	var best int64
	id := root
	for id != 0 {
		n, err := t.Load(id)
		if err != nil {
			return 0, err
		}
		c, err := target(n)
		if err != nil {
			n.Release()
			return 0, err
		}
		if c < 0 || (c == 0 && !strict) {
			best, id = id, n.Left()
		} else {
			id = n.Right()
		}
		n.Release()
	}
	return best, nil
}

// Successor returns the first entry ordering strictly after target, nil if none.
func (t *Tree) Successor(root int64, target Target) (*Node, error) {
	id, err := t.LowerBound(root, target, true)
	if err != nil || id == 0 {
		return nil, err
	}
	return t.Load(id)
}

// Predecessor returns the last entry ordering strictly before target, nil if none.
func (t *Tree) Predecessor(root int64, target Target) (*Node, error) {
	var best int64
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
		if c > 0 {
			best, id = id, n.Right()
		} else {
			id = n.Left()
		}
		n.Release()
	}
	if best == 0 {
		return nil, nil
	}
	return t.Load(best)
}
