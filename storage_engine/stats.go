package storageengine

import (
	"ValuePool/storage_engine/cache"
)

// Stats returns a snapshot of the pool counters.
func (vp *ValuePool) Stats() PoolStats {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	st := PoolStats{State: vp.txns.State().String()}
	st.CommittedPhase, st.HasCommitted = vp.txns.CommittedPhase()
	if vp.closed.Load() {
		return st
	}

	if vp.current != nil {
		st.Dirty = vp.dirty()
		st.IndexEntries = vp.current.avlNodes
	}
	st.IndexPages, st.IndexFreePages = vp.avl.Region().Stats()
	for class := range st.BlockPages {
		st.BlockPages[class], st.BlockFreePages[class] = vp.blocks.Region(class).Stats()
	}
	st.NodeCapacity = vp.nodes.Capacity()
	st.StagedRecords = vp.nodes.Staged()

	vp.liveMu.Lock()
	st.LivePhases = len(vp.live)
	vp.liveMu.Unlock()

	st.DiskBytes = vp.diskManager.TotalBytes()
	st.Cache = cache.Collect(vp.valueCache, vp.nodeCache)
	st.BufferPool = vp.bufferPool.GetStats()
	return st
}

// Dirty reports whether the pool holds changes no prepare has recorded yet.
func (vp *ValuePool) Dirty() bool {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	return vp.dirty()
}

func (vp *ValuePool) dirty() bool {
	t := vp.txns.Active()
	return t != nil && !t.Empty()
}
