package metaroot

import (
	"ValuePool/storage_engine/catalog"
	diskmanager "ValuePool/storage_engine/disk_manager"
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

/*
The metaroot names the committed phase. It has two slots so a new phase can be written next to
the committed one: a slot is written with valid=0, forced, then flipped to valid=1 and forced again.
A crash anywhere in between leaves valid=0 and recovery ignores the half written slot.

	0..4    magic
	4..8    format version
	8..12   valid flag
	12..16  phase number
	16..    phase record: AVL root, AVL node count, per region {next page, free count}
*/

var (
	ErrBadMagic   = errors.New("metaroot magic mismatch")
	ErrBadVersion = errors.New("metaroot version mismatch")
)

func Open(dm *diskmanager.DiskManager, f catalog.File) (*Metaroot, error) {
	if _, err := dm.OpenFileWithID(f.Path, f.FileID, SlotSize); err != nil {
		return nil, errors.Wrap(err, "failed to open metaroot")
	}
	return &Metaroot{dm: dm, fileID: f.FileID}, nil
}

// Clear writes an empty, invalid slot 0 and a blank slot 1.
func (m *Metaroot) Clear() error {
	buf := make([]byte, SlotSize)
	binary.LittleEndian.PutUint32(buf[idxMagic:], Magic)
	binary.LittleEndian.PutUint32(buf[idxVersion:], Version)
	if err := m.dm.WriteAt(m.fileID, 0, buf); err != nil {
		return err
	}
	if err := m.dm.WriteAt(m.fileID, 1, make([]byte, SlotSize)); err != nil {
		return err
	}
	return m.dm.Sync(m.fileID)
}

// ReadSlot decodes slot i. A slot that was never written decodes as invalid.
func (m *Metaroot) ReadSlot(i int) (Slot, error) {
	buf := make([]byte, SlotSize)
	if err := m.dm.ReadAt(m.fileID, int64(i), buf); err != nil {
		return Slot{}, err
	}

	s := Slot{
		Magic:   binary.LittleEndian.Uint32(buf[idxMagic:]),
		Version: binary.LittleEndian.Uint32(buf[idxVersion:]),
		Valid:   binary.LittleEndian.Uint32(buf[idxValid:]) != 0,
		Phase:   binary.LittleEndian.Uint32(buf[idxPhase:]),
	}
	if s.Magic == 0 && !s.Valid {
		return s, nil
	}
	if s.Magic != Magic {
		return Slot{}, errors.Wrapf(ErrBadMagic, "slot %d has magic %#x", i, s.Magic)
	}
	if s.Version != Version {
		return Slot{}, errors.Wrapf(ErrBadVersion, "slot %d has version %d, expected %d", i, s.Version, Version)
	}
	s.Record = decodeRecord(buf[idxRecord:])
	return s, nil
}

// WriteSlot durably records phase in slot i using the valid flag double force.
func (m *Metaroot) WriteSlot(i int, phase uint32, rec PhaseRecord) error {
	buf := make([]byte, SlotSize)
	binary.LittleEndian.PutUint32(buf[idxMagic:], Magic)
	binary.LittleEndian.PutUint32(buf[idxVersion:], Version)
	binary.LittleEndian.PutUint32(buf[idxPhase:], phase)
	encodeRecord(buf[idxRecord:], rec)

	if err := m.dm.WriteAt(m.fileID, int64(i), buf); err != nil {
		return err
	}
	if err := m.dm.Sync(m.fileID); err != nil {
		return err
	}
	if err := m.fault(StepRecordForced); err != nil {
		return err
	}

	if err := m.writeValid(i, true); err != nil {
		return err
	}
	return m.fault(StepValidForced)
}

// Invalidate clears the valid flag of slot i and forces it.
func (m *Metaroot) Invalidate(i int) error {
	if err := m.writeValid(i, false); err != nil {
		return err
	}
	return m.fault(StepInvalidForced)
}

func (m *Metaroot) writeValid(i int, valid bool) error {
	buf := make([]byte, idxPhase)
	if err := m.dm.ReadAt(m.fileID, int64(i), buf); err != nil {
		return err
	}
	flag := uint32(0)
	if valid {
		flag = 1
	}
	binary.LittleEndian.PutUint32(buf[idxValid:], flag)
	if err := m.dm.WriteAt(m.fileID, int64(i), buf); err != nil {
		return err
	}
	return m.dm.Sync(m.fileID)
}

func (m *Metaroot) fault(step Step) error {
	if m.FaultHook == nil {
		return nil
	}
	return m.FaultHook(step)
}

func encodeRecord(buf []byte, rec PhaseRecord) {
	binary.LittleEndian.PutUint64(buf[0:], uint64(rec.AVLRoot))
	binary.LittleEndian.PutUint64(buf[8:], uint64(rec.AVLNodes))
	off := 16
	for _, r := range rec.Regions {
		binary.LittleEndian.PutUint64(buf[off:], uint64(r.NextPage))
		binary.LittleEndian.PutUint64(buf[off+8:], uint64(r.FreeCount))
		off += 16
	}
}

func decodeRecord(buf []byte) PhaseRecord {
	var rec PhaseRecord
	rec.AVLRoot = int64(binary.LittleEndian.Uint64(buf[0:]))
	rec.AVLNodes = int64(binary.LittleEndian.Uint64(buf[8:]))
	off := 16
	for i := range rec.Regions {
		rec.Regions[i].NextPage = int64(binary.LittleEndian.Uint64(buf[off:]))
		rec.Regions[i].FreeCount = int64(binary.LittleEndian.Uint64(buf[off+8:]))
		off += 16
	}
	return rec
}
