package storageengine

import (
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

	"github.com/cockroachdb/errors"
)

/*
The main file of the storage engine. It opens every file of a pool and wires the layers together:

	ValuePool
	 ├── Phase (current / prepared / committed)   roots and region states
	 ├── avltree.Tree     value -> node, pages through the buffer pool
	 ├── nodetable        node -> value, mmapped, staged until prepare
	 ├── blockstore       overflow tails in 20 size classes
	 ├── metaroot         two slot commit record
	 └── cache            ristretto lookup caches, bloom negative filter

Open only opens files. A pool is usable after Clear, or after Recover followed by SelectPhase.
*/

func Open(basePath string, cfg Config) (*ValuePool, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger

	cat, err := catalog.NewCatalog(basePath)
	if err != nil {
		return nil, classify(err)
	}
	lock, err := diskmanager.LockFile(cat.LockFile().Path)
	if err != nil {
		return nil, classify(err)
	}

	vp := &ValuePool{
		cfg:         cfg,
		allocator:   cfg.Allocator,
		log:         log,
		catalog:     cat,
		lock:        lock,
		diskManager: diskmanager.NewDiskManager(log, cfg.SyncWrites),
		checkpoints: checkpoint.NewCheckpointManager(cat, log),
		txns:        txn.NewTxnManager(),
		live:        make(map[*Phase]struct{}),
		recovered:   make(map[uint32]int),
	}
	if err := vp.openFiles(); err != nil {
		vp.closeAll()
		return nil, classify(err)
	}
	log.Infof("[Pool] OPEN path=%s", basePath)
	return vp, nil
}

func (vp *ValuePool) openFiles() error {
	cat, log := vp.catalog, vp.log

	meta, err := metaroot.Open(vp.diskManager, cat.MetarootFile())
	if err != nil {
		return err
	}
	vp.meta = meta

	f := cat.AVLFile()
	if _, err := vp.diskManager.OpenFileWithID(f.Path, f.FileID, avltree.PageSize); err != nil {
		return errors.Wrap(err, "failed to open index file")
	}
	region := blockstore.NewRegion(f.Name, f.FileID, avltree.PageSize, types.PageTypeAVLNode, vp.diskManager, log)
	region.SetHorizon(vp.horizon)
	vp.bufferPool = bufferpool.NewBufferPool(vp.cfg.PagePoolSize, vp.diskManager, log)
	if vp.avl, err = avltree.NewTree(region, vp.bufferPool, log); err != nil {
		return err
	}

	if vp.blocks, err = blockstore.Open(vp.diskManager, cat, log); err != nil {
		return err
	}
	vp.blocks.SetHorizon(vp.horizon)

	if vp.journal, err = walmanager.OpenJournal(cat.JournalFile().Path, log); err != nil {
		return err
	}
	if vp.nodes, err = nodetable.Open(cat.NodeFile(), vp.journal, vp.cfg.SyncWrites, log); err != nil {
		return err
	}
	vp.nodes.SetHorizon(vp.horizon)

	if vp.valueCache, err = cache.NewValueCache(vp.cfg.CacheSize); err != nil {
		return err
	}
	if vp.nodeCache, err = cache.NewNodeCache(vp.cfg.CacheSize); err != nil {
		return err
	}
	if vp.cfg.FilterCapacity > 0 {
		vp.filter = cache.NewValueFilter(vp.cfg.FilterCapacity, vp.cfg.FilterFalsePositive)
	}
	return nil
}

// Close releases every file of the pool. Open views and cursors fail afterwards.
func (vp *ValuePool) Close() error {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	if vp.closed.Load() {
		return nil
	}
	vp.log.Infof("[Pool] CLOSE path=%s", vp.catalog.Base())
	return vp.closeAll()
}

// forceClose shuts the pool after a failure that leaves the metaroot untrustworthy. Caller holds mu.
func (vp *ValuePool) forceClose(cause error) {
	vp.log.Errorf("[Pool] FORCED CLOSE path=%s: %v", vp.catalog.Base(), cause)
	if err := vp.closeAll(); err != nil {
		vp.log.Warnf("[Pool] errors while force closing: %v", err)
	}
}

func (vp *ValuePool) closeAll() error {
	vp.closed.Store(true)
	vp.txns.Close()

	var err error
	if vp.valueCache != nil {
		vp.valueCache.Close()
	}
	if vp.nodeCache != nil {
		vp.nodeCache.Close()
	}
	if vp.nodes != nil {
		err = errors.CombineErrors(err, vp.nodes.Close())
	}
	if vp.journal != nil {
		err = errors.CombineErrors(err, vp.journal.Close())
	}
	if vp.bufferPool != nil && vp.avl != nil {
		// dirty index pages belong to no prepared phase, dropping them loses nothing durable
		vp.bufferPool.DropFile(vp.avl.Region().FileID)
	}
	err = errors.CombineErrors(err, vp.diskManager.CloseAll())
	err = errors.CombineErrors(err, vp.lock.Release())
	return classify(err)
}

func (vp *ValuePool) checkOpen() error {
	if vp.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Path is the base path the pool files are named after.
func (vp *ValuePool) Path() string { return vp.catalog.Base() }

// Initialized reports whether the files were ever cleared. A pool that was not has nothing to recover.
func (vp *ValuePool) Initialized() bool { return vp.catalog.Exists() }
