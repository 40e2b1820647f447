package bufferpool

import (
	"ValuePool/storage_engine/page"
	"container/list"

	"github.com/cockroachdb/errors"
)

/*
This file holds helper functions for the bufferpool
*/

// GetStats returns current buffer pool statistics
func (bp *BufferPool) GetStats() BufferPoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := BufferPoolStats{
		TotalPages: len(bp.pages),
		Capacity:   bp.capacity,
		Hits:       bp.hits,
		Misses:     bp.misses,
	}
	if total := bp.hits + bp.misses; total > 0 {
		stats.HitRate = float64(bp.hits) / float64(total)
	}

	for _, elem := range bp.pages {
		pg := elem.Value.(*page.Page)
		pg.RLock()
		if pg.PinCount > 0 {
			stats.PinnedPages++
		}
		if pg.IsDirty {
			stats.DirtyPages++
		}
		pg.RUnlock()
	}

	return stats
}

// Reset flushes dirty pages and empties the pool. Fails if any page is still pinned.
func (bp *BufferPool) Reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for _, elem := range bp.pages {
		pg := elem.Value.(*page.Page)
		pg.RLock()
		pinned := pg.PinCount > 0
		pg.RUnlock()
		if pinned {
			return errors.Newf("cannot reset buffer pool, page %d is pinned", pg.ID)
		}
		if err := bp.flush(pg); err != nil {
			return errors.Wrap(err, "failed to flush page during reset")
		}
	}

	bp.pages = make(map[int64]*list.Element, bp.capacity)
	bp.lru.Init()
	return nil
}

// DropFile forgets every unpinned frame of a file without writing it back.
func (bp *BufferPool) DropFile(fileID uint32) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for id, elem := range bp.pages {
		pg := elem.Value.(*page.Page)
		if pg.FileID != fileID {
			continue
		}
		pg.RLock()
		pinned := pg.PinCount > 0
		pg.RUnlock()
		if !pinned {
			delete(bp.pages, id)
			bp.lru.Remove(elem)
		}
	}
}

// Size returns the current number of pages in the buffer pool
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// Capacity returns the maximum capacity of the buffer pool
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// PinCount reports the pin count of a cached page, 0 when not cached.
func (bp *BufferPool) PinCount(pageID int64) int32 {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	elem, exists := bp.pages[pageID]
	if !exists {
		return 0
	}
	pg := elem.Value.(*page.Page)
	pg.RLock()
	defer pg.RUnlock()
	return pg.PinCount
}
