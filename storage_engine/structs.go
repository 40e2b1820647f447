package storageengine

import (
	"sync"
	"sync/atomic"

	"ValuePool/storage_engine/access/avltree"
	"ValuePool/storage_engine/access/nodetable"
	blockstore "ValuePool/storage_engine/block_store"
	"ValuePool/storage_engine/bufferpool"
	"ValuePool/storage_engine/cache"
	"ValuePool/storage_engine/catalog"
	checkpoint "ValuePool/storage_engine/checkpoint_manager"
	diskmanager "ValuePool/storage_engine/disk_manager"
	"ValuePool/storage_engine/metaroot"
	txn "ValuePool/storage_engine/transaction_manager"
	walmanager "ValuePool/storage_engine/wal_manager"
	"ValuePool/types"

	"go.uber.org/zap"
)

// Phase is one version of the pool: an index root plus the allocation state of every region.
// Only the current phase changes, every other phase is frozen and describes the same entries forever.
type Phase struct {
	seq      uint64 // order of derivation, what region free lists are keyed by
	number   uint32 // durable phase number, set once the phase is prepared or selected
	avlRoot  int64
	avlNodes int64

	// regions is captured when the phase is frozen, index 0 is the AVL region
	regions []blockstore.RegionState
	frozen  bool
	dirty   bool // mutated since it became current or since the last scan of it

	tokens    int // guarded by ValuePool.liveMu
	cursors   map[*NodeCursor]struct{}
	abandoned atomic.Bool
}

// Token pins a phase so its pages are not reused while it is read.
type Token struct {
	pool     *ValuePool
	phase    *Phase
	released atomic.Bool
}

// ValuePool maps graph nodes to values and back.
type ValuePool struct {
	cfg       Config
	allocator types.NodeAllocator
	log       *zap.SugaredLogger

	catalog     *catalog.Catalog
	lock        *diskmanager.FileLock
	diskManager *diskmanager.DiskManager
	bufferPool  *bufferpool.BufferPool
	meta        *metaroot.Metaroot
	checkpoints *checkpoint.CheckpointManager
	journal     *walmanager.Journal
	nodes       *nodetable.NodeTable
	avl         *avltree.Tree
	blocks      *blockstore.BlockStore
	txns        *txn.TxnManager

	valueCache *cache.ValueCache
	nodeCache  *cache.NodeCache
	filter     *cache.ValueFilter // nil when disabled

	// mu serializes every writer operation and phase transition.
	mu       sync.Mutex
	current  *Phase
	prepared *Phase
	origin   *Phase // where a rollback returns to: the committed phase, or the cleared one
	nextSeq  uint64

	committedSlot int            // metaroot slot of the committed phase
	preparedSlot  int            // metaroot slot written by the last prepare
	recovered     map[uint32]int // valid phase -> slot, filled by Recover

	// committedMu guards the committed phase switch so views can bind without waiting on mu.
	committedMu sync.RWMutex
	committed   *Phase

	// liveMu guards token counts and the set of phases that hold them.
	liveMu sync.Mutex
	live   map[*Phase]struct{}

	closed atomic.Bool
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	State          string
	CommittedPhase uint32
	HasCommitted   bool
	Dirty          bool

	IndexEntries   int64
	IndexPages     int64 // high water mark of the index region
	IndexFreePages int
	BlockPages     [blockstore.NumBlockClasses]int64
	BlockFreePages [blockstore.NumBlockClasses]int
	NodeCapacity   int64
	StagedRecords  int
	LivePhases     int
	DiskBytes      int64

	Cache      cache.Stats
	BufferPool bufferpool.BufferPoolStats
}
