package nodetable

import (
	"os"

	"ValuePool/storage_engine/catalog"
	walmanager "ValuePool/storage_engine/wal_manager"
	"ValuePool/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

/*
The node table stores one fixed size record per graph node at offset node*RecordSize of a
memory mapped file, so node -> value never walks a tree.

The table is not versioned, so it cannot be written in place while older phases are readable.
Instead writes are staged in memory and only reach the mapping when a phase is prepared:

 1. Apply journals the current content of every staged node together with the phase being prepared
 2. the staged records are copied into the mapping and msynced
 3. after the commit the journal is dropped (Settle)

A rollback after Apply restores the journal (Undo), and on restart Recover restores it when the
metaroot that survived is not the phase the journal was written for.

Apply also keeps every record it overwrites in memory, tagged with the sequence of the phase that
replaced it, so ReadAsOf can answer for a read only view bound to an older phase. Those copies are
dropped once the horizon passes them.
*/

var ErrBadNode = errors.New("node id out of range")

func Open(f catalog.File, journal *walmanager.Journal, syncWrites bool, log *zap.SugaredLogger) (*NodeTable, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	file, err := os.OpenFile(f.Path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open node table %s", f.Path)
	}
	nt := &NodeTable{
		path:       f.Path,
		file:       file,
		staged:     make(map[int64][]byte),
		superseded: make(map[int64][]version),
		horizon:    func() uint64 { return 0 },
		journal:    journal,
		syncWrites: syncWrites,
		log:        log,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "failed to stat node table %s", f.Path)
	}
	records := max(info.Size()/types.RecordSize, initialRecords)
	if err := nt.remap(records); err != nil {
		file.Close()
		return nil, err
	}
	return nt, nil
}

// remap grows the file to records records and maps it again. Caller holds mu.
func (nt *NodeTable) remap(records int64) error {
	if nt.data != nil {
		if err := unix.Munmap(nt.data); err != nil {
			return errors.Wrap(err, "failed to unmap node table")
		}
		nt.data = nil
	}
	size := records * types.RecordSize
	info, err := nt.file.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat node table")
	}
	if info.Size() < size {
		if err := nt.file.Truncate(size); err != nil {
			return errors.Wrapf(err, "failed to grow node table to %d records", records)
		}
	}
	data, err := unix.Mmap(int(nt.file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrapf(err, "failed to map node table (%d bytes)", size)
	}
	nt.data = data
	nt.records = records
	nt.log.Debugf("[NodeTable] MAP records=%d", records)
	return nil
}

// SetHorizon installs the callback reporting the sequence of the oldest live phase.
func (nt *NodeTable) SetHorizon(horizon func() uint64) {
	nt.horizon = horizon
}

// Begin makes seq the phase whose writes the next Apply records.
func (nt *NodeTable) Begin(seq uint64) {
	nt.mu.Lock()
	nt.seq = seq
	nt.mu.Unlock()
}

// Write stages rec as the value of node.
func (nt *NodeTable) Write(node int64, rec types.Record) error {
	if node < types.MinNode {
		return errors.Wrapf(ErrBadNode, "write of node %d", node)
	}
	buf := make([]byte, types.RecordSize)
	rec.Encode(buf)

	nt.mu.Lock()
	nt.staged[node] = buf
	nt.mu.Unlock()
	return nil
}

// MarkFree stages the removal of node's value.
func (nt *NodeTable) MarkFree(node int64) error {
	if node < types.MinNode {
		return errors.Wrapf(ErrBadNode, "free of node %d", node)
	}
	nt.mu.Lock()
	nt.staged[node] = nil
	nt.mu.Unlock()
	return nil
}

// Read returns the record of node as the writer sees it, staged writes included.
// ok is false when the node holds no value.
func (nt *NodeTable) Read(node int64) (types.Record, bool, error) {
	nt.mu.RLock()
	defer nt.mu.RUnlock()

	if buf, staged := nt.staged[node]; staged {
		if buf == nil {
			return types.Record{}, false, nil
		}
		rec := types.DecodeRecord(buf)
		return rec, !rec.IsFree(), nil
	}
	return nt.readMapped(node)
}

// ReadDurable returns the record of node as of the last prepare, ignoring staged writes.
func (nt *NodeTable) ReadDurable(node int64) (types.Record, bool, error) {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return nt.readMapped(node)
}

// ReadAsOf returns the record of node as a phase with sequence seq saw it after its prepare.
// Records replaced by a later Apply are served from the copies Apply kept.
func (nt *NodeTable) ReadAsOf(node int64, seq uint64) (types.Record, bool, error) {
	nt.mu.RLock()
	defer nt.mu.RUnlock()

	for _, v := range nt.superseded[node] {
		if v.until > seq {
			rec := types.DecodeRecord(v.data)
			return rec, !rec.IsFree(), nil
		}
	}
	return nt.readMapped(node)
}

// prune drops the kept records no live phase can read any more. Caller holds mu.
func (nt *NodeTable) prune() {
	horizon := nt.horizon()
	for node, versions := range nt.superseded {
		i := 0
		for i < len(versions) && versions[i].until <= horizon {
			i++
		}
		if i == len(versions) {
			delete(nt.superseded, node)
		} else if i > 0 {
			nt.superseded[node] = versions[i:]
		}
	}
}

// readMapped copies a record out of the mapping. Caller holds mu.
func (nt *NodeTable) readMapped(node int64) (types.Record, bool, error) {
	if node < types.MinNode {
		return types.Record{}, false, errors.Wrapf(ErrBadNode, "read of node %d", node)
	}
	if node >= nt.records {
		return types.Record{}, false, nil
	}
	off := node * types.RecordSize
	buf := make([]byte, types.RecordSize)
	copy(buf, nt.data[off:off+types.RecordSize])
	rec := types.DecodeRecord(buf)
	return rec, !rec.IsFree(), nil
}

// Staged is the number of writes waiting for the next prepare.
func (nt *NodeTable) Staged() int {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return len(nt.staged)
}

// Apply makes the staged writes part of phase: journal, copy into the mapping, msync.
func (nt *NodeTable) Apply(phase uint32) error {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	nt.prune()
	if len(nt.staged) == 0 {
		// an empty journal still has to name the phase so Recover leaves the table alone
		nt.applied = nil
		return nt.journal.Write(phase, nil)
	}

	var highest int64
	images := make([]walmanager.BeforeImage, 0, len(nt.staged))
	for node := range nt.staged {
		highest = max(highest, node)
		img := make([]byte, types.RecordSize)
		if node < nt.records {
			off := node * types.RecordSize
			copy(img, nt.data[off:off+types.RecordSize])
		}
		images = append(images, walmanager.BeforeImage{Node: node, Record: img})
	}
	if err := nt.journal.Write(phase, images); err != nil {
		return errors.Wrap(err, "failed to journal node table")
	}

	if highest >= nt.records {
		records := nt.records
		for highest >= records {
			records *= 2
		}
		if err := nt.remap(records); err != nil {
			return err
		}
	}
	for _, img := range images {
		nt.superseded[img.Node] = append(nt.superseded[img.Node], version{until: nt.seq, data: img.Record})
	}
	for node, buf := range nt.staged {
		off := node * types.RecordSize
		if buf == nil {
			clear(nt.data[off : off+types.RecordSize])
		} else {
			copy(nt.data[off:off+types.RecordSize], buf)
		}
	}
	if err := nt.msync(); err != nil {
		return err
	}
	nt.log.Debugf("[NodeTable] APPLY phase=%d records=%d", phase, len(nt.staged))
	nt.applied = nt.staged
	nt.appliedSeq = nt.seq
	nt.staged = make(map[int64][]byte)
	return nil
}

// Discard drops every staged write.
func (nt *NodeTable) Discard() {
	nt.mu.Lock()
	nt.staged = make(map[int64][]byte)
	nt.mu.Unlock()
}

// Undo restores the records overwritten by the last Apply and stages its writes again,
// under any write staged since.
func (nt *NodeTable) Undo() error {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	_, images, ok, err := nt.journal.Read()
	if err != nil {
		return err
	}
	if ok {
		if err := nt.restore(images); err != nil {
			return err
		}
	}
	for node, buf := range nt.applied {
		if _, newer := nt.staged[node]; !newer {
			nt.staged[node] = buf
		}
		nt.dropSuperseded(node, nt.appliedSeq)
	}
	nt.applied = nil
	return nt.journal.Reset()
}

// dropSuperseded forgets the copy an undone Apply kept for node. Caller holds mu.
func (nt *NodeTable) dropSuperseded(node int64, until uint64) {
	versions := nt.superseded[node]
	if n := len(versions); n > 0 && versions[n-1].until == until {
		versions = versions[:n-1]
	}
	if len(versions) == 0 {
		delete(nt.superseded, node)
	} else {
		nt.superseded[node] = versions
	}
}

// Settle forgets the journal once the applied phase is committed.
func (nt *NodeTable) Settle() error {
	nt.mu.Lock()
	nt.applied = nil
	nt.mu.Unlock()
	return nt.journal.Reset()
}

// Highest returns the largest node holding a value, staged writes included. 0 for an empty table.
func (nt *NodeTable) Highest() int64 {
	nt.mu.RLock()
	defer nt.mu.RUnlock()

	var highest int64
	for node, buf := range nt.staged {
		if buf != nil && node > highest {
			highest = node
		}
	}
	for node := nt.records - 1; node > highest; node-- {
		off := node * types.RecordSize
		if types.TypeCategory(nt.data[off+types.IdxCategory]) != types.CategoryFree {
			if buf, staged := nt.staged[node]; staged && buf == nil {
				continue
			}
			return node
		}
	}
	return highest
}

// Recover undoes a journal left behind by a prepare of a phase other than committed.
func (nt *NodeTable) Recover(committed uint32) error {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	phase, images, ok, err := nt.journal.Read()
	if err != nil {
		return err
	}
	if ok && phase != committed {
		nt.log.Infof("[NodeTable] RECOVER undoing phase=%d images=%d committed=%d", phase, len(images), committed)
		if err := nt.restore(images); err != nil {
			return err
		}
	}
	nt.staged = make(map[int64][]byte)
	nt.applied = nil
	nt.superseded = make(map[int64][]version)
	return nt.journal.Reset()
}

// restore writes before images back into the mapping. Caller holds mu.
func (nt *NodeTable) restore(images []walmanager.BeforeImage) error {
	for _, img := range images {
		if img.Node < types.MinNode || len(img.Record) != types.RecordSize {
			return errors.Wrapf(walmanager.ErrJournalCorrupt, "bad before image for node %d", img.Node)
		}
		if img.Node >= nt.records {
			// the table grew after the image was taken, the record was never durable
			continue
		}
		off := img.Node * types.RecordSize
		copy(nt.data[off:off+types.RecordSize], img.Record)
	}
	return nt.msync()
}

func (nt *NodeTable) msync() error {
	if !nt.syncWrites {
		return nil
	}
	if err := unix.Msync(nt.data, unix.MS_SYNC); err != nil {
		return errors.Wrap(err, "failed to msync node table")
	}
	return nil
}

// Reset empties the table and its journal.
func (nt *NodeTable) Reset() error {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	nt.staged = make(map[int64][]byte)
	nt.applied = nil
	nt.superseded = make(map[int64][]version)
	if err := unix.Munmap(nt.data); err != nil {
		return errors.Wrap(err, "failed to unmap node table")
	}
	nt.data = nil
	if err := nt.file.Truncate(0); err != nil {
		return errors.Wrap(err, "failed to truncate node table")
	}
	if err := nt.remap(initialRecords); err != nil {
		return err
	}
	return nt.journal.Reset()
}

// Capacity is the number of records the mapping holds.
func (nt *NodeTable) Capacity() int64 {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return nt.records
}

// Close unmaps and closes the table. The journal belongs to the caller.
func (nt *NodeTable) Close() error {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	var err error
	if nt.data != nil {
		err = unix.Munmap(nt.data)
		nt.data = nil
	}
	if nt.file != nil {
		err = errors.CombineErrors(err, nt.file.Close())
		nt.file = nil
	}
	return err
}
