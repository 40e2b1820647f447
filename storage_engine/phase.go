package storageengine

import (
	blockstore "ValuePool/storage_engine/block_store"
	"ValuePool/storage_engine/metaroot"

	"github.com/cockroachdb/errors"
)

/*
Phases and tokens.

The current phase is the only one the writer changes. Deriving a phase freezes the current one
(its region allocation state is captured) and starts a new current phase with the same roots and a
higher sequence number. Pages allocated under that sequence are private to the new phase and are
updated in place, every other page is copied first (see avltree.Tree.own and blockstore.Region).

A phase is live while it is current, prepared or committed, or while a token holds it. Freed pages
are only reused once every live phase is at least as new as the phase that freed them, and the node
table keeps the records a prepare overwrote under the same rule.
*/

// newPhase starts a phase derived from base (nil for an empty pool). Caller holds mu.
func (vp *ValuePool) newPhase(base *Phase) *Phase {
	vp.nextSeq++
	p := &Phase{seq: vp.nextSeq, cursors: make(map[*NodeCursor]struct{})}
	if base != nil {
		p.avlRoot = base.avlRoot
		p.avlNodes = base.avlNodes
		p.number = base.number
	}
	return p
}

// freeze captures the allocation state of the current phase. Caller holds mu.
func (vp *ValuePool) freeze(p *Phase) {
	if p.frozen {
		return
	}
	p.regions = append([]blockstore.RegionState{vp.avl.Region().Snapshot()}, vp.blocks.Snapshot()...)
	p.frozen = true
}

// derive freezes the current phase and makes a successor current. Caller holds mu.
func (vp *ValuePool) derive() *Phase {
	old := vp.current
	vp.freeze(old)
	p := vp.newPhase(old)
	vp.setCurrent(p)
	vp.log.Debugf("[Pool] DERIVE seq=%d from seq=%d", p.seq, old.seq)
	return p
}

// setCurrent makes p the phase allowed to write. Caller holds mu.
func (vp *ValuePool) setCurrent(p *Phase) {
	vp.current = p
	vp.avl.Region().Begin(p.seq)
	vp.blocks.Begin(p.seq)
	vp.nodes.Begin(p.seq)
}

// restoreRegions resets allocation state to what frozen phase p recorded. Caller holds mu.
func (vp *ValuePool) restoreRegions(p *Phase) error {
	if len(p.regions) != metaroot.NumRegions {
		return errors.AssertionFailedf("phase seq=%d has %d region states", p.seq, len(p.regions))
	}
	vp.avl.Region().Restore(p.regions[0])
	return vp.blocks.Restore(p.regions[1:])
}

// writablePhase returns the phase a mutation may change, deriving one when a reader
// still holds the current phase as a consistent snapshot. Caller holds mu.
func (vp *ValuePool) writablePhase() *Phase {
	cur := vp.current
	if !cur.dirty && vp.tokenCount(cur) > 0 {
		cur = vp.derive()
	}
	cur.dirty = true
	return cur
}

// horizon is the sequence of the oldest live phase.
func (vp *ValuePool) horizon() uint64 {
	oldest := vp.current.seq
	for _, p := range []*Phase{vp.prepared, vp.committed, vp.origin} {
		if p != nil && p.seq < oldest {
			oldest = p.seq
		}
	}

	vp.liveMu.Lock()
	defer vp.liveMu.Unlock()
	for p := range vp.live {
		if p.seq < oldest {
			oldest = p.seq
		}
	}
	return oldest
}

// acquire pins p with a new token.
func (vp *ValuePool) acquire(p *Phase) *Token {
	vp.liveMu.Lock()
	p.tokens++
	vp.live[p] = struct{}{}
	vp.liveMu.Unlock()
	return &Token{pool: vp, phase: p}
}

func (vp *ValuePool) tokenCount(p *Phase) int {
	vp.liveMu.Lock()
	defer vp.liveMu.Unlock()
	return p.tokens
}

// Release drops the token. Releasing twice is a no-op.
func (t *Token) Release() {
	if t == nil || t.released.Swap(true) {
		return
	}
	vp := t.pool
	vp.liveMu.Lock()
	t.phase.tokens--
	if t.phase.tokens == 0 {
		delete(vp.live, t.phase)
	}
	vp.liveMu.Unlock()
}

func (t *Token) Phase() *Phase { return t.phase }

// abandonAfter marks every live phase newer than keep as rolled back and closes its cursors.
// Caller holds mu.
func (vp *ValuePool) abandonAfter(keep *Phase, extra ...*Phase) {
	var cursors []*NodeCursor
	mark := func(p *Phase) {
		if p == nil || p == keep || p.abandoned.Swap(true) {
			return
		}
		for c := range p.cursors {
			cursors = append(cursors, c)
		}
	}

	vp.liveMu.Lock()
	for p := range vp.live {
		if p.seq > keep.seq {
			mark(p)
		}
	}
	for _, p := range extra {
		mark(p)
	}
	vp.liveMu.Unlock()

	for _, c := range cursors {
		c.abandon()
	}
}

func (vp *ValuePool) registerCursor(c *NodeCursor) {
	vp.liveMu.Lock()
	c.token.phase.cursors[c] = struct{}{}
	vp.liveMu.Unlock()
}

func (vp *ValuePool) unregisterCursor(c *NodeCursor) {
	vp.liveMu.Lock()
	delete(c.token.phase.cursors, c)
	vp.liveMu.Unlock()
}

// record builds the metaroot record of a frozen phase.
func (p *Phase) record() metaroot.PhaseRecord {
	rec := metaroot.PhaseRecord{AVLRoot: p.avlRoot, AVLNodes: p.avlNodes}
	for i, s := range p.regions {
		rec.Regions[i] = metaroot.RegionRecord{NextPage: s.NextPage, FreeCount: int64(s.FreeCount())}
	}
	return rec
}
