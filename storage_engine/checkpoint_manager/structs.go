package checkpoint

import (
	"ValuePool/storage_engine/catalog"
	"sync"

	"go.uber.org/zap"
)

// CheckpointManager persists the free lists that go with each metaroot slot.
type CheckpointManager struct {
	catalog *catalog.Catalog
	log     *zap.SugaredLogger
	mu      sync.RWMutex
}

// Checkpoint is the free list of every region of one recorded phase.
type Checkpoint struct {
	Phase   uint32    `cbor:"1,keyasint"`
	Regions [][]int64 `cbor:"2,keyasint"` // region index -> free page numbers
}
