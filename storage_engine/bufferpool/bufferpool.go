package bufferpool

import (
	diskmanager "ValuePool/storage_engine/disk_manager"
	"ValuePool/storage_engine/page"
	"ValuePool/types"
	"container/list"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
This file is the main file of the bufferpool
The buffer pool works on LRU based caching mechanism
and holds access to disk manager for flushing the pages in the cache onto the disk
similarly if page not found in the cache, disk manager loads the page from the disk and adds in the cache for future access

Pages are identified by globalPageID.
Only pages private to the writer's current phase are ever dirty, every page a snapshot can still
see is read only, so writing a dirty page back early (eviction) never disturbs a reader.
*/

var ErrPageNotCached = errors.New("page not in buffer pool")

// NewBufferPool creates a new buffer pool with the given capacity
func NewBufferPool(capacity int, diskManager *diskmanager.DiskManager, log *zap.SugaredLogger) *BufferPool {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &BufferPool{
		pages:       make(map[int64]*list.Element, capacity),
		capacity:    capacity,
		diskManager: diskManager,
		lru:         list.New(),
		log:         log,
	}
}

// FetchPage retrieves a page from the buffer pool, loading from disk if necessary
// Returns the page with pin count incremented
func (bp *BufferPool) FetchPage(pageID int64, pageType types.PageType) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	// Check if page is in buffer pool
	if elem, exists := bp.pages[pageID]; exists {
		pg := elem.Value.(*page.Page)
		bp.hits++
		bp.lru.MoveToFront(elem)
		pg.Lock()
		pg.PinCount++
		pg.Unlock()
		return pg, nil
	}

	bp.misses++
	bp.log.Debugf("[BufferPool] MISS pageID=%d, loading from disk", pageID)

	pg, err := bp.diskManager.ReadPage(pageID, pageType)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read page %d from disk", pageID)
	}

	// Add to buffer pool (may trigger eviction)
	if err := bp.addPage(pg); err != nil {
		return nil, errors.Wrap(err, "failed to add page to buffer pool")
	}

	pg.Lock()
	pg.PinCount++
	pg.Unlock()

	return pg, nil
}

// NewPage installs a zeroed, dirty, pinned frame for a page the caller has just allocated.
// A stale unpinned frame left by an earlier use of the same page id is replaced.
func (bp *BufferPool) NewPage(pageID int64, pageType types.PageType) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if elem, exists := bp.pages[pageID]; exists {
		pg := elem.Value.(*page.Page)
		pg.Lock()
		defer pg.Unlock()
		if pg.PinCount > 0 {
			return nil, errors.AssertionFailedf("page %d reallocated while pinned %d times", pageID, pg.PinCount)
		}
		clear(pg.Data)
		pg.PageType = pageType
		pg.IsDirty = true
		pg.PinCount = 1
		bp.lru.MoveToFront(elem)
		return pg, nil
	}

	fileID := uint32(pageID >> 32)
	size, err := bp.diskManager.PageSize(fileID)
	if err != nil {
		return nil, err
	}

	pg := page.New(pageID, fileID, size, pageType)
	pg.IsDirty = true
	pg.PinCount = 1

	if err := bp.addPage(pg); err != nil {
		return nil, errors.Wrap(err, "failed to add new page to buffer pool")
	}
	return pg, nil
}

// UnpinPage decrements the pin count for a page
func (bp *BufferPool) UnpinPage(pageID int64, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	elem, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrPageNotCached, "page %d", pageID)
	}
	pg := elem.Value.(*page.Page)

	pg.Lock()
	defer pg.Unlock()

	if pg.PinCount <= 0 {
		return errors.AssertionFailedf("unpin of page %d with pin count %d", pageID, pg.PinCount)
	}
	pg.PinCount--

	if isDirty {
		pg.IsDirty = true
	}
	return nil
}

// FlushFile writes every dirty page of one file to disk.
func (bp *BufferPool) FlushFile(fileID uint32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	flushed := 0
	for _, elem := range bp.pages {
		pg := elem.Value.(*page.Page)
		if pg.FileID != fileID {
			continue
		}
		if err := bp.flush(pg); err != nil {
			return err
		}
		flushed++
	}
	bp.log.Debugf("[BufferPool] FlushFile fileID=%d pages=%d", fileID, flushed)
	return nil
}

// flush assumes bp.mu is held
func (bp *BufferPool) flush(pg *page.Page) error {
	pg.Lock()
	defer pg.Unlock()

	if !pg.IsDirty {
		return nil
	}
	if err := bp.diskManager.WritePage(pg); err != nil {
		return errors.Wrapf(err, "failed to flush page %d", pg.ID)
	}
	return nil
}

// addPage adds a page to the buffer pool, evicting if necessary
// Assumes lock is already held
func (bp *BufferPool) addPage(pg *page.Page) error {
	if elem, exists := bp.pages[pg.ID]; exists {
		bp.lru.MoveToFront(elem)
		return nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLRU(); err != nil {
			return errors.Wrap(err, "failed to evict page")
		}
	}

	bp.pages[pg.ID] = bp.lru.PushFront(pg)
	return nil
}

// evictLRU evicts the least recently used unpinned page.
// When every page is pinned the pool grows past its capacity instead of failing the caller.
// Assumes lock is already held
func (bp *BufferPool) evictLRU() error {
	for elem := bp.lru.Back(); elem != nil; elem = elem.Prev() {
		pg := elem.Value.(*page.Page)

		pg.Lock()
		if pg.PinCount > 0 {
			pg.Unlock()
			continue
		}

		if pg.IsDirty {
			bp.log.Debugf("[BufferPool] EVICT pageID=%d dirty=true", pg.ID)
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return errors.Wrapf(err, "failed to write page %d during eviction", pg.ID)
			}
		}
		pg.Unlock()

		delete(bp.pages, pg.ID)
		bp.lru.Remove(elem)
		return nil
	}

	bp.log.Debugf("[BufferPool] all %d pages pinned, growing past capacity", len(bp.pages))
	return nil
}

// DeletePage drops a page from the pool without writing it back.
// Used for pages whose contents no snapshot will read again.
func (bp *BufferPool) DeletePage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	elem, exists := bp.pages[pageID]
	if !exists {
		return nil // Already not in pool
	}
	pg := elem.Value.(*page.Page)

	pg.Lock()
	if pg.PinCount > 0 {
		pg.Unlock()
		return errors.Newf("cannot delete pinned page %d", pageID)
	}
	pg.Unlock()

	delete(bp.pages, pageID)
	bp.lru.Remove(elem)
	return nil
}
