package blockstore

import (
	diskmanager "ValuePool/storage_engine/disk_manager"
	"ValuePool/types"

	"github.com/google/btree"
	"go.uber.org/zap"
)

const (
	NumBlockClasses = 20
	MinBlockSize    = 16
	MaxBlockSize    = MinBlockSize << (NumBlockClasses - 1)

	freeListDegree = 16
)

// freeItem is a released page. Pages freed while private to the current phase carry
// freedAt 0 and are reusable at once, any other page waits for every phase older than freedAt.
type freeItem struct {
	freedAt uint64
	page    int64
}

func freeItemLess(a, b freeItem) bool {
	if a.freedAt != b.freedAt {
		return a.freedAt < b.freedAt
	}
	return a.page < b.page
}

// RegionState is the allocation state of a region as seen by one phase.
// The free tree is never mutated once it is held by a state.
type RegionState struct {
	NextPage int64
	free     *btree.BTreeG[freeItem]
}

// Region is one file of fixed size pages with a phase aware free list.
type Region struct {
	Name     string
	FileID   uint32
	PageSize int
	pageType types.PageType

	dm       *diskmanager.DiskManager
	nextPage int64
	free     *btree.BTreeG[freeItem]

	seq     uint64         // sequence of the phase allowed to write
	private map[int64]bool // pages allocated under seq, writable in place
	horizon func() uint64  // oldest live phase sequence
	log     *zap.SugaredLogger
}

// BlockStore holds one region per size class for value bytes that do not fit a record.
type BlockStore struct {
	regions [NumBlockClasses]*Region
	log     *zap.SugaredLogger
}
