package types

import (
	"bytes"
	"encoding/binary"
)

/*
Geometry shared by the node table record and the AVL payload.
Both describe one encoded value with the same byte offsets, the payload only adds the owning graph node at the end.

	0      reserved (AVL height when embedded in a tree page)
	1      type category
	2      type id
	3      subtype id
	4..8   data length
	8..80  inline data, or 64 inline bytes followed by the overflow page id at 72..80
	80..88 graph node (payload only)
*/

const (
	IdxCategory  = 1
	IdxTypeID    = 2
	IdxSubtypeID = 3
	IdxDataSize  = 4
	IdxData      = 8

	MaxDirectDataBytes = 72 // values this long or shorter are stored entirely inline
	PointerSize        = 8
	InlinePrefixBytes  = MaxDirectDataBytes - PointerSize
	IdxBlockID         = IdxData + InlinePrefixBytes
	IdxGraphNode       = IdxData + MaxDirectDataBytes

	RecordSize  = IdxGraphNode     // node table record
	PayloadSize = IdxGraphNode + 8 // AVL payload
)

// Overflows reports whether a value of n bytes needs an overflow block.
func Overflows(n int) bool {
	return n > MaxDirectDataBytes
}

// OverflowBytes is the number of bytes of an n byte value that live outside the record.
func OverflowBytes(n int) int {
	if !Overflows(n) {
		return 0
	}
	return n - InlinePrefixBytes
}

// Record is the decoded form of the shared record layout.
// Data holds the whole value when it fits, otherwise its first InlinePrefixBytes bytes.
type Record struct {
	Category  TypeCategory
	TypeID    uint8
	SubtypeID uint8
	Size      int
	Data      []byte
	BlockID   int64 // overflow page, 0 when the value is inline
}

// IsFree reports whether the record holds no value.
func (r Record) IsFree() bool {
	return r.Category == CategoryFree
}

// Encode writes r into buf[1:RecordSize]. Byte 0 is left to the caller.
func (r Record) Encode(buf []byte) {
	clear(buf[IdxCategory:RecordSize])
	buf[IdxCategory] = byte(r.Category)
	buf[IdxTypeID] = r.TypeID
	buf[IdxSubtypeID] = r.SubtypeID
	binary.LittleEndian.PutUint32(buf[IdxDataSize:], uint32(r.Size))
	if Overflows(r.Size) {
		copy(buf[IdxData:IdxBlockID], r.Data)
		binary.LittleEndian.PutUint64(buf[IdxBlockID:], uint64(r.BlockID))
	} else {
		copy(buf[IdxData:IdxData+MaxDirectDataBytes], r.Data)
	}
}

// DecodeRecord reads a record from buf. The returned Data aliases buf.
func DecodeRecord(buf []byte) Record {
	r := Record{
		Category:  TypeCategory(buf[IdxCategory]),
		TypeID:    buf[IdxTypeID],
		SubtypeID: buf[IdxSubtypeID],
		Size:      int(binary.LittleEndian.Uint32(buf[IdxDataSize:])),
	}
	if Overflows(r.Size) {
		r.Data = buf[IdxData:IdxBlockID]
		r.BlockID = int64(binary.LittleEndian.Uint64(buf[IdxBlockID:]))
	} else {
		r.Data = buf[IdxData : IdxData+min(r.Size, MaxDirectDataBytes)]
	}
	return r
}

// SameValue reports whether two records describe the same stored value.
func (r Record) SameValue(o Record) bool {
	return r.Category == o.Category && r.TypeID == o.TypeID && r.SubtypeID == o.SubtypeID &&
		r.Size == o.Size && r.BlockID == o.BlockID && bytes.Equal(r.Data, o.Data)
}
