package storageengine

import (
	"sync"

	"ValuePool/types"

	"github.com/cockroachdb/errors"
)

// ReadOnlyView reads the phase that was committed when it was created or last refreshed.
// It never sees the writer's later changes and never blocks on the writer lock.
type ReadOnlyView struct {
	pool  *ValuePool
	token *Token
	mu    sync.Mutex
}

// NewReadOnlyView binds a view to the committed phase. Fails when nothing was committed yet.
func (vp *ValuePool) NewReadOnlyView() (*ReadOnlyView, error) {
	tok, err := vp.acquireCommitted()
	if err != nil {
		return nil, err
	}
	vp.log.Debugf("[View] OPEN phase=%d", tok.phase.number)
	return &ReadOnlyView{pool: vp, token: tok}, nil
}

func (vp *ValuePool) acquireCommitted() (*Token, error) {
	if err := vp.checkOpen(); err != nil {
		return nil, err
	}
	vp.committedMu.RLock()
	defer vp.committedMu.RUnlock()
	if vp.committed == nil {
		return nil, errors.Wrap(ErrProtocolViolation, "no committed phase to read")
	}
	return vp.acquire(vp.committed), nil
}

// Refresh rebinds the view to the phase committed now.
func (rv *ReadOnlyView) Refresh() error {
	rv.mu.Lock()
	defer rv.mu.Unlock()

	if rv.token == nil {
		return errors.New("view closed")
	}
	tok, err := rv.pool.acquireCommitted()
	if err != nil {
		return err
	}
	old := rv.token
	rv.token = tok
	old.Release()
	rv.pool.log.Debugf("[View] REFRESH phase=%d->%d", old.phase.number, tok.phase.number)
	return nil
}

// Phase is the number of the phase the view reads.
func (rv *ReadOnlyView) Phase() uint32 {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	if rv.token == nil {
		return 0
	}
	return rv.token.phase.number
}

// Close releases the view. Cursors opened from it stay usable until closed.
func (rv *ReadOnlyView) Close() {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	rv.token.Release()
	rv.token = nil
}

// bound returns the phase the view reads, with the view locked. Callers unlock.
func (rv *ReadOnlyView) bound() (*Phase, error) {
	rv.mu.Lock()
	if rv.token == nil {
		rv.mu.Unlock()
		return nil, errors.New("view closed")
	}
	if err := rv.pool.checkOpen(); err != nil {
		rv.mu.Unlock()
		return nil, err
	}
	return rv.token.phase, nil
}

func (rv *ReadOnlyView) FindNode(v types.Value) (int64, error) {
	p, err := rv.bound()
	if err != nil {
		return types.NoNode, err
	}
	defer rv.mu.Unlock()
	return rv.pool.lookupNode(p.avlRoot, v)
}

func (rv *ReadOnlyView) FindValue(node int64) (types.Value, error) {
	p, err := rv.bound()
	if err != nil {
		return nil, err
	}
	defer rv.mu.Unlock()
	return rv.pool.lookupDurableValue(p, node)
}

// FindOrCreateNode only finds: a missing value fails with ErrReadOnly.
func (rv *ReadOnlyView) FindOrCreateNode(v types.Value) (int64, error) {
	node, err := rv.FindNode(v)
	if err != nil || node != types.NoNode {
		return node, err
	}
	return types.NoNode, errors.Wrap(ErrReadOnly, "create node")
}

func (rv *ReadOnlyView) Scan(low types.Value, lowInclusive bool, high types.Value, highInclusive bool) (*NodeCursor, error) {
	p, err := rv.bound()
	if err != nil {
		return nil, err
	}
	defer rv.mu.Unlock()
	return rv.pool.openCursor(p, false, func(tok *Token) (*NodeCursor, error) {
		return rv.pool.rangeCursor(tok, low, lowInclusive, high, highInclusive)
	})
}

func (rv *ReadOnlyView) ScanByType(category types.TypeCategory, typeURI string) (*NodeCursor, error) {
	p, err := rv.bound()
	if err != nil {
		return nil, err
	}
	defer rv.mu.Unlock()
	return rv.pool.openCursor(p, false, func(tok *Token) (*NodeCursor, error) {
		return rv.pool.typeCursor(tok, category, typeURI)
	})
}

func (rv *ReadOnlyView) Put(types.Value) (int64, error) {
	return types.NoNode, errors.Wrap(ErrReadOnly, "put")
}

func (rv *ReadOnlyView) PutNode(int64, types.Value) error {
	return errors.Wrap(ErrReadOnly, "put node")
}

func (rv *ReadOnlyView) Remove(int64) (bool, error) {
	return false, errors.Wrap(ErrReadOnly, "remove")
}
