package cache

import (
	"sync"

	"ValuePool/types"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/dgraph-io/ristretto/v2"
)

// ValueCache maps encoded values to the graph node holding them.
type ValueCache struct {
	c *ristretto.Cache[string, int64]
}

// nodeEntry is what the node cache remembers about a node. A blank entry records
// that the node holds no value.
type nodeEntry struct {
	value types.Value
	blank bool
}

// NodeCache maps graph nodes to their values.
type NodeCache struct {
	c *ristretto.Cache[int64, nodeEntry]
}

// ValueFilter answers "definitely never stored" for values. It only grows,
// so it stays a superset of the stored values until it is rebuilt.
type ValueFilter struct {
	f        *bloom.BloomFilter
	capacity uint
	fpRate   float64
	mu       sync.RWMutex
}

// Stats reports hit counters of the caches.
type Stats struct {
	ValueHits   uint64
	ValueMisses uint64
	NodeHits    uint64
	NodeMisses  uint64
}
