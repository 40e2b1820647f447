package cache

import (
	"ValuePool/types"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

func NewNodeCache(size int) (*NodeCache, error) {
	if size <= 0 {
		return nil, errors.Newf("cache size must be positive, got %d", size)
	}
	c, err := ristretto.NewCache(config[int64, nodeEntry](size))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create node cache")
	}
	return &NodeCache{c: c}, nil
}

// Get returns the cached value of node. blank is true when the node is known to hold no value.
func (nc *NodeCache) Get(node int64) (value types.Value, blank bool, ok bool) {
	e, ok := nc.c.Get(node)
	if !ok {
		return nil, false, false
	}
	return e.value, e.blank, true
}

func (nc *NodeCache) Set(node int64, v types.Value) {
	nc.c.Set(node, nodeEntry{value: v}, 1)
}

// SetBlank remembers that node holds no value.
func (nc *NodeCache) SetBlank(node int64) {
	nc.c.Set(node, nodeEntry{blank: true}, 1)
}

func (nc *NodeCache) Delete(node int64) {
	nc.c.Del(node)
	nc.c.Wait()
}

func (nc *NodeCache) Clear() { nc.c.Clear() }

func (nc *NodeCache) Wait() { nc.c.Wait() }

func (nc *NodeCache) Close() { nc.c.Close() }

func (nc *NodeCache) hitsMisses() (uint64, uint64) {
	return nc.c.Metrics.Hits(), nc.c.Metrics.Misses()
}

// Collect gathers the counters of both caches. Either may be nil.
func Collect(vc *ValueCache, nc *NodeCache) Stats {
	var s Stats
	if vc != nil {
		s.ValueHits, s.ValueMisses = vc.hitsMisses()
	}
	if nc != nil {
		s.NodeHits, s.NodeMisses = nc.hitsMisses()
	}
	return s
}
