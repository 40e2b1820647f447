package nodetable

import (
	"os"
	"sync"

	walmanager "ValuePool/storage_engine/wal_manager"

	"go.uber.org/zap"
)

const initialRecords = 1024

// NodeTable is the node id -> value record file, addressed directly by node id.
type NodeTable struct {
	path    string
	file    *os.File
	data    []byte // the mapping, capacity*recordSize bytes
	records int64  // capacity of the mapping in records

	// staged holds the records written since the last prepare, keyed by node.
	// nil slices stand for freed nodes.
	staged map[int64][]byte
	// applied holds the writes of the last Apply until it is settled, so Undo can stage them again.
	applied map[int64][]byte

	// superseded keeps the records Apply overwrote for as long as an older phase may read them,
	// oldest first per node.
	superseded map[int64][]version
	seq        uint64        // phase allowed to write
	appliedSeq uint64        // phase of the last Apply
	horizon    func() uint64 // oldest live phase sequence

	journal    *walmanager.Journal
	syncWrites bool
	log        *zap.SugaredLogger
	mu         sync.RWMutex
}

// version is a record that phases older than until still read.
type version struct {
	until uint64
	data  []byte
}
