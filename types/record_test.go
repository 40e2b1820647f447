package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordInlineRoundTrip(t *testing.T) {
	buf := make([]byte, PayloadSize)
	buf[0] = 9 // reserved byte survives encoding

	rec := Record{Category: CategoryTypedLiteral, TypeID: 3, SubtypeID: 2, Size: 5, Data: []byte("hello")}
	rec.Encode(buf)

	back := DecodeRecord(buf)
	assert.True(t, rec.SameValue(back))
	assert.Equal(t, byte(9), buf[0])
	assert.False(t, back.IsFree())
}

func TestRecordOverflowKeepsPrefixAndPointer(t *testing.T) {
	value := bytes.Repeat([]byte("v"), MaxDirectDataBytes+1)
	buf := make([]byte, RecordSize)

	rec := Record{Category: CategoryURI, Size: len(value), Data: value[:InlinePrefixBytes], BlockID: 77}
	rec.Encode(buf)

	back := DecodeRecord(buf)
	assert.Equal(t, int64(77), back.BlockID)
	assert.Equal(t, value[:InlinePrefixBytes], back.Data)
	assert.Equal(t, 9, OverflowBytes(len(value)))
	assert.Equal(t, 0, OverflowBytes(MaxDirectDataBytes))
}

func TestZeroRecordIsFree(t *testing.T) {
	assert.True(t, DecodeRecord(make([]byte, RecordSize)).IsFree())
}
