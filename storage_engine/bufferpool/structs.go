package bufferpool

import (
	diskmanager "ValuePool/storage_engine/disk_manager"
	"container/list"
	"sync"

	"go.uber.org/zap"
)

// BufferPool caches tree pages in memory with LRU eviction.
// A page's pin count doubles as the reference count of the tree node stored in it.
type BufferPool struct {
	pages       map[int64]*list.Element // pageID -> element holding *page.Page
	capacity    int
	diskManager *diskmanager.DiskManager
	lru         *list.List // front = most recently used
	hits        uint64
	misses      uint64
	log         *zap.SugaredLogger
	mu          sync.Mutex
}

// Stats returns buffer pool statistics
type BufferPoolStats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
	Hits        uint64
	Misses      uint64
	HitRate     float64
}
