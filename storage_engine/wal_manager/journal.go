package wal_manager

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
The journal makes in place updates of the node table undoable across a crash.
Before a prepare copies staged records into the mapped table it writes one journal:

	begin  {phase}                  phase the prepare is recording
	image  {node, record}           one per record about to be overwritten
	end    {count}

and syncs it. Only then is the table touched. A journal without its end record was torn
before the table changed and is ignored. After commit the journal is truncated.
*/

var ErrJournalCorrupt = errors.New("node journal corrupt")

func OpenJournal(path string, log *zap.SugaredLogger) (*Journal, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	seg := InitializeWALSegment(path)
	if err := seg.Open(); err != nil {
		return nil, err
	}
	return &Journal{segment: seg, log: log}, nil
}

// Write replaces the journal with the before images for phase and syncs it.
func (j *Journal) Write(phase uint32, images []BeforeImage) error {
	if err := j.segment.Truncate(); err != nil {
		return err
	}

	seq := uint64(0)
	appendRec := func(data []byte) error {
		seq++
		_, err := j.segment.Append(newRecord(seq, data).Encode())
		return err
	}

	begin := make([]byte, 5)
	begin[0] = kindBegin
	binary.BigEndian.PutUint32(begin[1:], phase)
	if err := appendRec(begin); err != nil {
		return err
	}

	for _, img := range images {
		data := make([]byte, 9+len(img.Record))
		data[0] = kindImage
		binary.BigEndian.PutUint64(data[1:], uint64(img.Node))
		copy(data[9:], img.Record)
		if err := appendRec(data); err != nil {
			return err
		}
	}

	end := make([]byte, 9)
	end[0] = kindEnd
	binary.BigEndian.PutUint64(end[1:], uint64(len(images)))
	if err := appendRec(end); err != nil {
		return err
	}

	if err := j.segment.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync node journal")
	}
	j.log.Debugf("[Journal] WRITE phase=%d images=%d", phase, len(images))
	return nil
}

// Read returns the content of a complete journal. ok is false when the journal is empty or torn.
func (j *Journal) Read() (phase uint32, images []BeforeImage, ok bool, err error) {
	buf, err := j.segment.ReadAll()
	if err != nil {
		return 0, nil, false, err
	}
	records := decodeRecords(buf)
	if len(records) < 2 {
		return 0, nil, false, nil
	}

	first := records[0].Data
	if len(first) != 5 || first[0] != kindBegin {
		return 0, nil, false, errors.Wrap(ErrJournalCorrupt, "missing begin record")
	}
	phase = binary.BigEndian.Uint32(first[1:])

	for _, rec := range records[1:] {
		switch {
		case len(rec.Data) > 9 && rec.Data[0] == kindImage:
			images = append(images, BeforeImage{
				Node:   int64(binary.BigEndian.Uint64(rec.Data[1:9])),
				Record: append([]byte(nil), rec.Data[9:]...),
			})
		case len(rec.Data) == 9 && rec.Data[0] == kindEnd:
			if n := binary.BigEndian.Uint64(rec.Data[1:]); n != uint64(len(images)) {
				return 0, nil, false, errors.Wrapf(ErrJournalCorrupt, "end record counts %d images, found %d", n, len(images))
			}
			return phase, images, true, nil
		default:
			return 0, nil, false, errors.Wrapf(ErrJournalCorrupt, "unexpected record %d", rec.Seq)
		}
	}
	return 0, nil, false, nil
}

// Reset empties the journal.
func (j *Journal) Reset() error {
	return j.segment.Truncate()
}

func (j *Journal) Close() error {
	return j.segment.Close()
}
