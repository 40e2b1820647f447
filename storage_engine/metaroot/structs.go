package metaroot

import diskmanager "ValuePool/storage_engine/disk_manager"

const (
	Magic   uint32 = 0xa5f3f4f2
	Version uint32 = 10

	NumSlots   = 2
	SlotSize   = 512
	NumRegions = 21 // AVL region followed by the overflow classes

	idxMagic   = 0
	idxVersion = 4
	idxValid   = 8
	idxPhase   = 12
	idxRecord  = 16
)

// Step names the points of a slot write or invalidation at which a fault hook runs.
type Step int

const (
	StepRecordForced  Step = iota // record written with valid=0 and forced
	StepValidForced               // valid flag written and forced
	StepInvalidForced             // valid flag cleared and forced
)

// RegionRecord is the allocation high water mark and free list length of one region.
type RegionRecord struct {
	NextPage  int64
	FreeCount int64
}

// PhaseRecord is everything needed to reopen a committed phase.
type PhaseRecord struct {
	AVLRoot  int64
	AVLNodes int64
	Regions  [NumRegions]RegionRecord
}

// Slot is one decoded metaroot.
type Slot struct {
	Magic   uint32
	Version uint32
	Valid   bool
	Phase   uint32
	Record  PhaseRecord
}

// Metaroot is the two slot root file of a pool.
type Metaroot struct {
	dm     *diskmanager.DiskManager
	fileID uint32

	// FaultHook, when set, runs after each forced step of WriteSlot and Invalidate. A non nil
	// error aborts the write as a crash at that point would.
	FaultHook func(step Step) error
}
