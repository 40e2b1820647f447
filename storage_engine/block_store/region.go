package blockstore

import (
	diskmanager "ValuePool/storage_engine/disk_manager"
	"ValuePool/storage_engine/page"
	"ValuePool/types"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"go.uber.org/zap"
)

/*
A managed region hands out page numbers of one file and takes them back.

Copy on write rests on two rules enforced here:
  - only pages allocated by the current phase may be written in place (IsWritable),
    every other page is shared with an older phase and must be copied first
  - a shared page that is freed stays untouched until no live phase older than the
    phase that freed it remains, the pool reports that bound through the horizon callback

Page 0 is never allocated so 0 can mean "no page" in every pointer.
*/

var ErrBadPage = errors.New("page id outside region")

func NewRegion(name string, fileID uint32, pageSize int, pageType types.PageType, dm *diskmanager.DiskManager, log *zap.SugaredLogger) *Region {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Region{
		Name:     name,
		FileID:   fileID,
		PageSize: pageSize,
		pageType: pageType,
		dm:       dm,
		nextPage: 1,
		free:     btree.NewG(freeListDegree, freeItemLess),
		private:  make(map[int64]bool),
		horizon:  func() uint64 { return 0 },
		log:      log,
	}
}

// SetHorizon installs the callback reporting the sequence of the oldest live phase.
func (r *Region) SetHorizon(horizon func() uint64) {
	r.horizon = horizon
}

// Begin makes seq the phase allowed to write. Pages allocated before become shared.
func (r *Region) Begin(seq uint64) {
	r.seq = seq
	r.private = make(map[int64]bool)
}

// Allocate returns a page number that no live phase can observe.
func (r *Region) Allocate() (int64, error) {
	if item, ok := r.free.Min(); ok && item.freedAt <= r.horizon() {
		r.free.Delete(item)
		r.private[item.page] = true
		r.log.Debugf("[Region %s] ALLOC reuse page=%d freedAt=%d", r.Name, item.page, item.freedAt)
		return item.page, nil
	}
	if r.nextPage > 0xFFFFFFFF {
		return 0, errors.Newf("region %s is full", r.Name)
	}
	id := r.nextPage
	r.nextPage++
	r.private[id] = true
	return id, nil
}

// Free releases a page allocated earlier.
func (r *Region) Free(id int64) error {
	if id <= 0 || id >= r.nextPage {
		return errors.Wrapf(ErrBadPage, "free of page %d in region %s (next %d)", id, r.Name, r.nextPage)
	}
	item := freeItem{freedAt: r.seq, page: id}
	if r.private[id] {
		delete(r.private, id)
		item.freedAt = 0
	}
	if _, dup := r.free.ReplaceOrInsert(item); dup {
		return errors.AssertionFailedf("page %d freed twice in region %s", id, r.Name)
	}
	return nil
}

// IsWritable reports whether a page belongs to the current phase alone.
func (r *Region) IsWritable(id int64) bool {
	return r.private[id]
}

// GlobalID maps a local page number to the disk manager's global id.
func (r *Region) GlobalID(id int64) int64 {
	return page.GlobalID(r.FileID, id)
}

// Read reads the first len(buf) bytes of a page. Safe to call from readers of older phases.
func (r *Region) Read(id int64, buf []byte) error {
	if id <= 0 {
		return errors.Wrapf(ErrBadPage, "read of page %d in region %s", id, r.Name)
	}
	return r.dm.ReadAt(r.FileID, id, buf)
}

// Write stores data at the start of a page owned by the current phase.
func (r *Region) Write(id int64, data []byte) error {
	if !r.private[id] {
		return errors.AssertionFailedf("write to shared page %d in region %s", id, r.Name)
	}
	return r.dm.WriteAt(r.FileID, id, data)
}

// Force makes every page written so far durable.
func (r *Region) Force() error {
	return r.dm.Sync(r.FileID)
}

// Snapshot captures the allocation state of the phase that is about to be frozen.
func (r *Region) Snapshot() RegionState {
	return RegionState{NextPage: r.nextPage, free: r.free.Clone()}
}

// Restore resets allocation state to a snapshot. The snapshot stays usable.
func (r *Region) Restore(state RegionState) {
	r.nextPage = state.NextPage
	r.free = state.free.Clone()
	r.private = make(map[int64]bool)
}

// Reset empties the region and truncates its file.
func (r *Region) Reset() error {
	r.nextPage = 1
	r.free = btree.NewG(freeListDegree, freeItemLess)
	r.private = make(map[int64]bool)
	return r.dm.Truncate(r.FileID, 0)
}

// Stats returns the high water mark and the number of free pages.
func (r *Region) Stats() (nextPage int64, free int) {
	return r.nextPage, r.free.Len()
}

// NewRegionState rebuilds a state loaded from disk. Every free page is immediately reusable.
func NewRegionState(nextPage int64, freePages []int64) RegionState {
	free := btree.NewG(freeListDegree, freeItemLess)
	for _, p := range freePages {
		free.ReplaceOrInsert(freeItem{page: p})
	}
	return RegionState{NextPage: nextPage, free: free}
}

// EmptyRegionState is the state of a region that has never allocated.
func EmptyRegionState() RegionState {
	return NewRegionState(1, nil)
}

// FreeCount is the number of pages on the state's free list.
func (s RegionState) FreeCount() int {
	if s.free == nil {
		return 0
	}
	return s.free.Len()
}

// FreePages lists the free pages of a state in reuse order.
func (s RegionState) FreePages() []int64 {
	if s.free == nil {
		return nil
	}
	pages := make([]int64, 0, s.free.Len())
	s.free.Ascend(func(item freeItem) bool {
		pages = append(pages, item.page)
		return true
	})
	return pages
}
