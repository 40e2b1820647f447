package storageengine

import (
	"sync/atomic"

	"ValuePool/types"
)

// SequentialAllocator hands out increasing node ids. Pools opened without an allocator
// use one seeded past the highest node in the table.
type SequentialAllocator struct {
	next atomic.Int64
}

var _ types.NodeAllocator = (*SequentialAllocator)(nil)

func NewSequentialAllocator(next int64) *SequentialAllocator {
	a := &SequentialAllocator{}
	a.next.Store(max(next, types.MinNode))
	return a
}

func (a *SequentialAllocator) NewNode() (int64, error) {
	return a.next.Add(1) - 1, nil
}

// Observe moves the allocator past a node that was assigned explicitly.
func (a *SequentialAllocator) Observe(node int64) {
	for {
		next := a.next.Load()
		if node < next || a.next.CompareAndSwap(next, node+1) {
			return
		}
	}
}
