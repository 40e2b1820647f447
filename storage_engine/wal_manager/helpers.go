package wal_manager

import (
	"encoding/binary"
	"hash/crc32"
)

func (r *WALRecord) Encode() []byte {
	buf := make([]byte, RecordHeaderSize+len(r.Data))

	binary.BigEndian.PutUint64(buf[0:8], r.Seq)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(r.Data)))
	binary.BigEndian.PutUint32(buf[12:16], r.CRC)
	copy(buf[16:], r.Data)

	return buf
}

func (r *WALRecord) ValidateCRC() bool {
	return calculateCRC(r.Seq, r.Data) == r.CRC
}

func newRecord(seq uint64, data []byte) *WALRecord {
	return &WALRecord{Seq: seq, CRC: calculateCRC(seq, data), Data: data}
}

// calculateCRC computes CRC32 checksum over the sequence number and data
func calculateCRC(seq uint64, data []byte) uint32 {
	hasher := crc32.NewIEEE()

	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	hasher.Write(seqBytes)
	hasher.Write(data)

	return hasher.Sum32()
}

// decodeRecords splits a segment into records, stopping at the first torn or corrupt one.
func decodeRecords(buf []byte) []*WALRecord {
	var records []*WALRecord
	for len(buf) >= RecordHeaderSize {
		seq := binary.BigEndian.Uint64(buf[0:8])
		n := int(binary.BigEndian.Uint32(buf[8:12]))
		crc := binary.BigEndian.Uint32(buf[12:16])
		if len(buf) < RecordHeaderSize+n {
			break
		}
		rec := &WALRecord{Seq: seq, CRC: crc, Data: buf[RecordHeaderSize : RecordHeaderSize+n]}
		if !rec.ValidateCRC() {
			break
		}
		records = append(records, rec)
		buf = buf[RecordHeaderSize+n:]
	}
	return records
}
