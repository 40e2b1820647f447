package storageengine

import (
	"slices"

	blockstore "ValuePool/storage_engine/block_store"
	checkpoint "ValuePool/storage_engine/checkpoint_manager"
	"ValuePool/storage_engine/metaroot"
	txn "ValuePool/storage_engine/transaction_manager"

	"github.com/cockroachdb/errors"
)

/*
Recovery runs on a freshly opened pool:

	Recover       read both metaroot slots, report the phases recorded as valid
	SelectPhase   reload the chosen phase: free lists from its checkpoint, node table journal
	              undone unless it belongs to that phase, the other slot invalidated

Normally exactly one slot is valid. Two valid slots mean a crash between prepare and the
invalidation in commit, the caller picks the phase its own log says was committed.
*/

// Recover returns the phase numbers recorded in valid metaroot slots, in ascending order.
func (vp *ValuePool) Recover() ([]uint32, error) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if err := vp.txns.Recover(); err != nil {
		return nil, err
	}
	clear(vp.recovered)

	phases := make([]uint32, 0, metaroot.NumSlots)
	for slot := 0; slot < metaroot.NumSlots; slot++ {
		s, err := vp.meta.ReadSlot(slot)
		if err != nil {
			return nil, classify(err)
		}
		if !s.Valid {
			continue
		}
		if _, dup := vp.recovered[s.Phase]; dup {
			return nil, corruptf("both metaroot slots record phase %d", s.Phase)
		}
		vp.recovered[s.Phase] = slot
		phases = append(phases, s.Phase)
	}
	slices.Sort(phases)
	vp.log.Infof("[Pool] RECOVER path=%s phases=%v", vp.catalog.Base(), phases)
	return phases, nil
}

// SelectPhase resumes from phase n, one of the phases Recover reported.
func (vp *ValuePool) SelectPhase(n uint32) error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	if state := vp.txns.State(); state != txn.PoolRecovering {
		if state == txn.PoolClosed {
			return ErrClosed
		}
		return errors.Wrapf(ErrProtocolViolation, "select phase while %s", state)
	}
	slot, ok := vp.recovered[n]
	if !ok {
		return errors.Wrapf(ErrProtocolViolation, "phase %d is not recorded in a valid slot", n)
	}
	s, err := vp.meta.ReadSlot(slot)
	if err != nil {
		return classify(err)
	}
	if !s.Valid || s.Phase != n {
		return corruptf("metaroot slot %d changed since recovery", slot)
	}

	regions, err := vp.loadRegions(slot, s)
	if err != nil {
		return err
	}
	p := vp.newPhase(nil)
	p.number = n
	p.avlRoot = s.Record.AVLRoot
	p.avlNodes = s.Record.AVLNodes
	p.regions = regions
	p.frozen = true
	if err := vp.restoreRegions(p); err != nil {
		return classify(err)
	}

	if err := vp.nodes.Recover(n); err != nil {
		return classify(err)
	}
	other := 1 - slot
	if err := vp.meta.Invalidate(other); err != nil {
		return classify(err)
	}
	if err := vp.checkpoints.DeleteCheckpoint(other); err != nil {
		return classify(err)
	}

	vp.origin = p
	vp.prepared = nil
	vp.committedSlot = slot
	vp.setCommitted(p)
	vp.setCurrent(vp.newPhase(p))
	vp.resetLookups()
	if vp.cfg.Allocator == nil {
		vp.allocator = NewSequentialAllocator(vp.nodes.Highest() + 1)
	}
	if err := vp.txns.Select(n); err != nil {
		return err
	}
	clear(vp.recovered)
	vp.log.Infof("[Pool] SELECT phase=%d slot=%d entries=%d", n, slot, p.avlNodes)
	return nil
}

// loadRegions rebuilds the allocation state recorded with a slot. A slot whose regions had
// no free pages may have no checkpoint file at all.
func (vp *ValuePool) loadRegions(slot int, s metaroot.Slot) ([]blockstore.RegionState, error) {
	cp, err := vp.checkpoints.LoadCheckpoint(slot)
	switch {
	case errors.Is(err, checkpoint.ErrNoCheckpoint):
		for i, r := range s.Record.Regions {
			if r.FreeCount != 0 {
				return nil, corruptf("slot %d: region %d has %d free pages but no checkpoint", slot, i, r.FreeCount)
			}
		}
		cp = &checkpoint.Checkpoint{Phase: s.Phase, Regions: make([][]int64, metaroot.NumRegions)}
	case err != nil:
		return nil, errors.Mark(errors.Wrapf(err, "slot %d", slot), ErrCorruption)
	}

	if cp.Phase != s.Phase || len(cp.Regions) != metaroot.NumRegions {
		return nil, corruptf("slot %d: checkpoint of phase %d with %d regions, metaroot records phase %d",
			slot, cp.Phase, len(cp.Regions), s.Phase)
	}
	regions := make([]blockstore.RegionState, metaroot.NumRegions)
	for i, r := range s.Record.Regions {
		if int64(len(cp.Regions[i])) != r.FreeCount {
			return nil, corruptf("slot %d: region %d checkpoint has %d free pages, metaroot records %d",
				slot, i, len(cp.Regions[i]), r.FreeCount)
		}
		regions[i] = blockstore.NewRegionState(r.NextPage, cp.Regions[i])
	}
	return regions, nil
}
