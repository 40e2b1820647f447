package cache

import (
	"ValuePool/types"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

/*
Both caches are ristretto caches bounded by entry count (every entry costs 1).
They are hints for the writer's current phase only: the pool deletes entries on remove and
clears both caches whenever the current phase is replaced by anything but its own successor.
Sets are buffered by ristretto and may be dropped by its admission policy, which is fine for a hint.
A buffered set may still land after a Del of the same key, so Delete waits for the buffer to drain
and the key stays gone.
*/

const conflictSeed = 0x5f3759df

// Key is the cache and filter key of a value: its type tag followed by its bytes.
func Key(v types.Value) string {
	data := v.Bytes()
	buf := make([]byte, 3+len(data))
	buf[0] = byte(v.Category())
	buf[1] = v.TypeID()
	buf[2] = v.SubtypeID()
	copy(buf[3:], data)
	return string(buf)
}

func hashKey(key string) (uint64, uint64) {
	d := xxhash.NewWithSeed(conflictSeed)
	_, _ = d.WriteString(key)
	return xxhash.Sum64String(key), d.Sum64()
}

func config[K ristretto.Key, V any](size int) *ristretto.Config[K, V] {
	return &ristretto.Config[K, V]{
		NumCounters:        int64(size) * 10,
		MaxCost:            int64(size),
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	}
}

func NewValueCache(size int) (*ValueCache, error) {
	if size <= 0 {
		return nil, errors.Newf("cache size must be positive, got %d", size)
	}
	cfg := config[string, int64](size)
	cfg.KeyToHash = hashKey
	c, err := ristretto.NewCache(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create value cache")
	}
	return &ValueCache{c: c}, nil
}

// Get returns the node cached for v.
func (vc *ValueCache) Get(v types.Value) (int64, bool) {
	return vc.c.Get(Key(v))
}

func (vc *ValueCache) Set(v types.Value, node int64) {
	vc.c.Set(Key(v), node, 1)
}

func (vc *ValueCache) Delete(v types.Value) {
	vc.c.Del(Key(v))
	vc.c.Wait()
}

func (vc *ValueCache) Clear() { vc.c.Clear() }

// Wait blocks until buffered sets are applied.
func (vc *ValueCache) Wait() { vc.c.Wait() }

func (vc *ValueCache) Close() { vc.c.Close() }

func (vc *ValueCache) hitsMisses() (uint64, uint64) {
	return vc.c.Metrics.Hits(), vc.c.Metrics.Misses()
}
