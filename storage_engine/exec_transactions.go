package storageengine

import (
	"ValuePool/storage_engine/access/avltree"
	blockstore "ValuePool/storage_engine/block_store"
	checkpoint "ValuePool/storage_engine/checkpoint_manager"
	"ValuePool/storage_engine/metaroot"

	"github.com/cockroachdb/errors"
)

/*
Phase transitions. The committed phase lives in one metaroot slot, prepare writes the other:

	Prepare   force index + blocks, apply node table, save free lists, write slot (valid=0, force, valid=1, force)
	Commit    invalidate the old slot, then swap the committed phase under committedMu
	Rollback  invalidate the prepared slot, undo the node table, return to the committed phase

A crash between the two forces of a slot write leaves the slot invalid, so recovery only ever
finds phases that were completely recorded.
*/

// Clear discards everything in the pool files and starts an empty pool at phase.
func (vp *ValuePool) Clear(phase uint32) error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.Clear(phase); err != nil {
		return err
	}
	if err := vp.clearFiles(); err != nil {
		vp.forceClose(err)
		return classify(err)
	}

	origin := vp.newPhase(nil)
	origin.number = phase
	origin.frozen = true
	origin.regions = make([]blockstore.RegionState, metaroot.NumRegions)
	for i := range origin.regions {
		origin.regions[i] = blockstore.EmptyRegionState()
	}
	vp.origin = origin
	vp.prepared = nil
	vp.committedSlot = 1
	vp.setCommitted(nil)
	vp.setCurrent(vp.newPhase(origin))

	vp.resetLookups()
	if vp.cfg.Allocator == nil {
		vp.allocator = NewSequentialAllocator(vp.nodes.Highest() + 1)
	}
	vp.log.Infof("[Pool] CLEAR phase=%d path=%s", phase, vp.catalog.Base())
	return nil
}

func (vp *ValuePool) clearFiles() error {
	if err := vp.meta.Clear(); err != nil {
		return err
	}
	if err := vp.avl.Region().Reset(); err != nil {
		return err
	}
	vp.bufferPool.DropFile(vp.avl.Region().FileID)
	if err := vp.blocks.Reset(); err != nil {
		return err
	}
	if err := vp.nodes.Reset(); err != nil {
		return err
	}
	for slot := 0; slot < metaroot.NumSlots; slot++ {
		if err := vp.checkpoints.DeleteCheckpoint(slot); err != nil {
			return err
		}
	}
	return nil
}

// Prepare durably records the current phase in the free metaroot slot. Mutations made
// afterwards belong to the next phase.
func (vp *ValuePool) Prepare() error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	t, err := vp.txns.BeginPrepare()
	if err != nil {
		return err
	}
	cur, slot := vp.current, 1-vp.committedSlot
	if err := vp.prepare(cur, slot, t.Phase); err != nil {
		// the current phase stays current and keeps its writes
		cur.frozen, cur.regions, cur.number = false, nil, vp.origin.number
		if ierr := vp.meta.Invalidate(slot); ierr != nil {
			err = errors.WithSecondaryError(err, ierr)
		}
		if uerr := vp.nodes.Undo(); uerr != nil {
			err = errors.WithSecondaryError(err, uerr)
		}
		vp.log.Warnf("[Pool] PREPARE phase=%d slot=%d failed: %v", t.Phase, slot, err)
		return classify(err)
	}

	vp.prepared = cur
	vp.preparedSlot = slot
	vp.setCurrent(vp.newPhase(cur))
	vp.txns.Prepared()
	vp.log.Infof("[Pool] PREPARE phase=%d slot=%d entries=%d", t.Phase, slot, cur.avlNodes)
	return nil
}

func (vp *ValuePool) prepare(cur *Phase, slot int, number uint32) error {
	if err := vp.avl.Flush(); err != nil {
		return err
	}
	if err := vp.blocks.Force(); err != nil {
		return err
	}
	if err := vp.nodes.Apply(number); err != nil {
		return err
	}

	vp.freeze(cur)
	cur.number = number
	cp := &checkpoint.Checkpoint{Phase: number, Regions: make([][]int64, len(cur.regions))}
	for i, s := range cur.regions {
		cp.Regions[i] = s.FreePages()
	}
	if err := vp.checkpoints.SaveCheckpoint(slot, cp); err != nil {
		return err
	}
	return vp.meta.WriteSlot(slot, number, cur.record())
}

// Commit makes the prepared phase the committed one.
func (vp *ValuePool) Commit() error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	t, err := vp.txns.BeginCommit()
	if err != nil {
		return err
	}
	old := vp.committedSlot
	if err := vp.meta.Invalidate(old); err != nil {
		// both slots may now be valid, nothing this instance records can be trusted
		vp.forceClose(err)
		return errors.Wrapf(classify(err), "commit of phase %d", t.Phase)
	}

	var err2 error
	if err := vp.nodes.Settle(); err != nil {
		err2 = errors.CombineErrors(err2, err)
	}
	if err := vp.checkpoints.DeleteCheckpoint(old); err != nil {
		err2 = errors.CombineErrors(err2, err)
	}

	vp.setCommitted(vp.prepared)
	vp.origin = vp.prepared
	vp.committedSlot = vp.preparedSlot
	vp.prepared = nil
	vp.txns.Committed()
	vp.log.Infof("[Pool] COMMIT phase=%d slot=%d", t.Phase, vp.committedSlot)

	if err2 != nil {
		// the commit itself is durable, leftovers are cleaned by the next recovery
		vp.log.Warnf("[Pool] COMMIT phase=%d cleanup failed: %v", t.Phase, err2)
	}
	return nil
}

// Rollback returns the pool to the committed phase, or to the cleared one when nothing was
// committed yet. A prepared phase is dropped along with everything written after it.
func (vp *ValuePool) Rollback() error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	prepared, err := vp.txns.Rollback()
	if err != nil {
		return err
	}
	origin := vp.origin
	vp.abandonAfter(origin, vp.prepared, vp.current)

	var primary error
	if prepared != nil {
		if err := vp.meta.Invalidate(vp.preparedSlot); err != nil {
			primary = err
		}
		if err := vp.nodes.Undo(); err != nil {
			primary = errors.CombineErrors(primary, err)
		}
	}
	vp.nodes.Discard()
	vp.prepared = nil

	// rebuilding the writable phase must not hide why the rollback itself failed
	if err := vp.rebuildCurrent(origin); err != nil {
		if primary == nil {
			primary = err
		} else {
			primary = errors.WithSecondaryError(primary, err)
			vp.log.Warnf("[Pool] ROLLBACK secondary failure: %v", err)
		}
	}
	vp.resetLookups()

	if primary != nil {
		return classify(primary)
	}
	if prepared != nil {
		vp.log.Infof("[Pool] ROLLBACK phase=%d to=%d", prepared.Phase, origin.number)
	} else {
		vp.log.Infof("[Pool] ROLLBACK to=%d", origin.number)
	}
	return nil
}

// rebuildCurrent makes a fresh phase derived from origin current. Caller holds mu.
func (vp *ValuePool) rebuildCurrent(origin *Phase) error {
	vp.bufferPool.DropFile(vp.avl.Region().FileID)
	if err := vp.restoreRegions(origin); err != nil {
		return err
	}
	vp.setCurrent(vp.newPhase(origin))
	return nil
}

// setCommitted swaps the phase views bind to.
func (vp *ValuePool) setCommitted(p *Phase) {
	vp.committedMu.Lock()
	vp.committed = p
	vp.committedMu.Unlock()
}

// resetLookups forgets every cached lookup. The filter only loses entries, so it is rebuilt
// from the index of the current phase.
func (vp *ValuePool) resetLookups() {
	vp.valueCache.Clear()
	vp.nodeCache.Clear()
	if vp.filter == nil {
		return
	}
	vp.filter.Reset()
	if err := vp.avl.Walk(vp.current.avlRoot, func(n *avltree.Node) error {
		v, err := vp.decodeValue(n.Record())
		if err != nil {
			return err
		}
		vp.filter.Add(v)
		return nil
	}); err != nil {
		// an incomplete filter would hide stored values
		vp.log.Warnf("[Pool] filter rebuild failed, disabling it: %v", err)
		vp.filter = nil
	}
}
