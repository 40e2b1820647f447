package blockstore

import (
	"ValuePool/storage_engine/catalog"
	diskmanager "ValuePool/storage_engine/disk_manager"
	"ValuePool/types"
	"math/bits"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
The block store keeps the tail of values too long for a record.
Class c holds pages of MinBlockSize << c bytes and a value tail always goes to the smallest class
that fits it. Blocks are written once, when the value is stored, and never modified afterwards,
so they need no copy on write, only the phase aware free list of their region.
*/

var ErrValueTooLarge = errors.New("value too large for the largest block class")

// Open opens (or creates) the file of every size class.
func Open(dm *diskmanager.DiskManager, cat *catalog.Catalog, log *zap.SugaredLogger) (*BlockStore, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	bs := &BlockStore{log: log}
	for class := 0; class < NumBlockClasses; class++ {
		f := cat.BlockFile(class)
		size := MinBlockSize << class
		if _, err := dm.OpenFileWithID(f.Path, f.FileID, size); err != nil {
			return nil, errors.Wrapf(err, "failed to open block class %d", class)
		}
		bs.regions[class] = NewRegion(f.Name, f.FileID, size, types.PageTypeBlock, dm, log)
	}
	return bs, nil
}

// ClassFor returns the smallest class whose pages hold n bytes.
func ClassFor(n int) (int, error) {
	if n <= 0 {
		return 0, errors.Newf("no block class for %d bytes", n)
	}
	class := bits.Len64(uint64(n-1) >> bits.TrailingZeros(MinBlockSize))
	if class >= NumBlockClasses {
		return 0, errors.Wrapf(ErrValueTooLarge, "%d bytes exceed %d", n, MaxBlockSize)
	}
	return class, nil
}

// Store writes data to a fresh block and returns where it went.
func (bs *BlockStore) Store(data []byte) (int, int64, error) {
	class, err := ClassFor(len(data))
	if err != nil {
		return 0, 0, err
	}
	r := bs.regions[class]
	id, err := r.Allocate()
	if err != nil {
		return 0, 0, err
	}
	if err := r.Write(id, data); err != nil {
		_ = r.Free(id)
		return 0, 0, err
	}
	bs.log.Debugf("[BlockStore] STORE class=%d page=%d bytes=%d", class, id, len(data))
	return class, id, nil
}

// Load reads the first n bytes of a block.
func (bs *BlockStore) Load(class int, id int64, n int) ([]byte, error) {
	if class < 0 || class >= NumBlockClasses {
		return nil, errors.Newf("block class %d out of range", class)
	}
	if n > bs.regions[class].PageSize {
		return nil, errors.Newf("block of class %d cannot hold %d bytes", class, n)
	}
	buf := make([]byte, n)
	if err := bs.regions[class].Read(id, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Free releases a block.
func (bs *BlockStore) Free(class int, id int64) error {
	if class < 0 || class >= NumBlockClasses {
		return errors.Newf("block class %d out of range", class)
	}
	return bs.regions[class].Free(id)
}

func (bs *BlockStore) Region(class int) *Region {
	return bs.regions[class]
}

func (bs *BlockStore) SetHorizon(horizon func() uint64) {
	for _, r := range bs.regions {
		r.SetHorizon(horizon)
	}
}

func (bs *BlockStore) Begin(seq uint64) {
	for _, r := range bs.regions {
		r.Begin(seq)
	}
}

func (bs *BlockStore) Snapshot() []RegionState {
	states := make([]RegionState, NumBlockClasses)
	for i, r := range bs.regions {
		states[i] = r.Snapshot()
	}
	return states
}

func (bs *BlockStore) Restore(states []RegionState) error {
	if len(states) != NumBlockClasses {
		return errors.Newf("expected %d block region states, got %d", NumBlockClasses, len(states))
	}
	for i, r := range bs.regions {
		r.Restore(states[i])
	}
	return nil
}

// Force syncs every class file.
func (bs *BlockStore) Force() error {
	for _, r := range bs.regions {
		if err := r.Force(); err != nil {
			return err
		}
	}
	return nil
}

// Reset empties every class.
func (bs *BlockStore) Reset() error {
	for _, r := range bs.regions {
		if err := r.Reset(); err != nil {
			return err
		}
	}
	return nil
}
