package values

import (
	"ValuePool/types"
	"bytes"
)

var (
	lexical types.Comparator = lexicalComparator{}
	decimal types.Comparator = decimalComparator{}
)

// lexicalComparator orders encodings bytewise. Subtypes never differ for these types.
type lexicalComparator struct{}

func (lexicalComparator) ComparePrefix(data, prefix []byte, totalSize int) (int, bool) {
	n := min(len(data), len(prefix))
	if c := bytes.Compare(data[:n], prefix[:n]); c != 0 {
		return c, true
	}
	if len(data) < len(prefix) {
		return -1, true
	}
	if len(data) == totalSize && len(prefix) == totalSize {
		return 0, true
	}
	return 0, false
}

func (lexicalComparator) Compare(a []byte, _ uint8, b []byte, _ uint8) int {
	return bytes.Compare(a, b)
}

// decimalComparator compares the decimal family numerically whatever the physical encoding.
// Prefixes never decide because string and fixed-width encodings share the type id.
type decimalComparator struct{}

func (decimalComparator) ComparePrefix([]byte, []byte, int) (int, bool) {
	return 0, false
}

func (decimalComparator) Compare(a []byte, subtypeA uint8, b []byte, subtypeB uint8) int {
	ra, errA := decodeRat(a, subtypeA)
	rb, errB := decodeRat(b, subtypeB)
	switch {
	case errA != nil && errB != nil:
		return bytes.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	if c := ra.Cmp(rb); c != 0 {
		return c
	}
	switch {
	case subtypeA < subtypeB:
		return -1
	case subtypeA > subtypeB:
		return 1
	}
	return bytes.Compare(a, b)
}
