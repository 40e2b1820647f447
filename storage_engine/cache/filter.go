package cache

import (
	"ValuePool/types"

	"github.com/bits-and-blooms/bloom/v3"
)

func NewValueFilter(capacity uint, fpRate float64) *ValueFilter {
	return &ValueFilter{
		f:        bloom.NewWithEstimates(capacity, fpRate),
		capacity: capacity,
		fpRate:   fpRate,
	}
}

func (vf *ValueFilter) Add(v types.Value) {
	vf.mu.Lock()
	vf.f.AddString(Key(v))
	vf.mu.Unlock()
}

// MayContain is false only for values never added since the last Reset.
func (vf *ValueFilter) MayContain(v types.Value) bool {
	vf.mu.RLock()
	defer vf.mu.RUnlock()
	return vf.f.TestString(Key(v))
}

// Reset empties the filter.
func (vf *ValueFilter) Reset() {
	vf.mu.Lock()
	vf.f = bloom.NewWithEstimates(vf.capacity, vf.fpRate)
	vf.mu.Unlock()
}

// Load is the estimated number of added values relative to the capacity the filter was sized for.
// Past 1 the false positive rate climbs above the configured one.
func (vf *ValueFilter) Load() float64 {
	vf.mu.RLock()
	defer vf.mu.RUnlock()
	return float64(vf.f.ApproximatedSize()) / float64(vf.capacity)
}
