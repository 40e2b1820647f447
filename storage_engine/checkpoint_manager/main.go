package checkpoint

import (
	"ValuePool/storage_engine/catalog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/golang/snappy"
	"go.uber.org/zap"
)

/*
This file is the main file of the CheckpointManager
A metaroot slot only has room for the size of each free list, the pages themselves go to a side
file per slot that is written, synced and renamed into place before the slot is marked valid.
A valid slot therefore always has a complete free list next to it.

Encoding: CBOR, snappy compressed.
*/

var ErrNoCheckpoint = errors.New("free list checkpoint missing")

func NewCheckpointManager(cat *catalog.Catalog, log *zap.SugaredLogger) *CheckpointManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CheckpointManager{catalog: cat, log: log}
}

// SaveCheckpoint atomically saves the free lists recorded with metaroot slot slot.
func (cm *CheckpointManager) SaveCheckpoint(slot int, cp *Checkpoint) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := cbor.Marshal(cp)
	if err != nil {
		return errors.Wrap(err, "failed to marshal free list checkpoint")
	}
	data = snappy.Encode(nil, data)

	// write temp, fsync, rename over the old file, fsync the directory
	path := cm.catalog.FreeListFile(slot).Path
	tempPath := path + ".tmp"

	tempFile, err := os.OpenFile(tempPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open temp checkpoint")
	}
	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return errors.Wrap(err, "failed to write temp checkpoint")
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return errors.Wrap(err, "failed to sync temp checkpoint")
	}
	if err := tempFile.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp checkpoint")
	}

	if err := os.Rename(tempPath, path); err != nil {
		return errors.Wrap(err, "failed to rename checkpoint")
	}

	if err := syncDir(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "checkpoint of slot %d renamed but not durable", slot)
	}

	cm.log.Debugf("[Checkpoint] saved slot=%d phase=%d bytes=%d", slot, cp.Phase, len(data))
	return nil
}

// syncDir forces the directory entries of dir, which makes a rename into it durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return errors.Wrap(err, "failed to open checkpoint directory")
	}
	err = d.Sync()
	if cerr := d.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "failed to sync checkpoint directory")
	}
	return nil
}

// LoadCheckpoint reads the free lists recorded with metaroot slot slot.
func (cm *CheckpointManager) LoadCheckpoint(slot int) (*Checkpoint, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	path := cm.catalog.FreeListFile(slot).Path
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNoCheckpoint, "slot %d", slot)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read checkpoint %s", path)
	}

	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decompress checkpoint %s", path)
	}
	var cp Checkpoint
	if err := cbor.Unmarshal(raw, &cp); err != nil {
		return nil, errors.Wrapf(err, "failed to decode checkpoint %s", path)
	}

	cm.log.Debugf("[Checkpoint] loaded slot=%d phase=%d", slot, cp.Phase)
	return &cp, nil
}

// DeleteCheckpoint removes the checkpoint of a slot
func (cm *CheckpointManager) DeleteCheckpoint(slot int) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := os.Remove(cm.catalog.FreeListFile(slot).Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete checkpoint")
	}
	return nil
}
