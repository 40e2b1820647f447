package types

import "fmt"

// Graph node identifiers. NoNode marks absence, real nodes start at MinNode.
const (
	NoNode  int64 = 0
	MinNode int64 = 1
)

type TypeCategory uint8

const (
	CategoryFree TypeCategory = iota
	CategoryURI
	CategoryUntypedLiteral
	CategoryTypedLiteral

	// CategoryAny selects every category in ScanByType. Never stored.
	CategoryAny TypeCategory = 0xff
)

func (c TypeCategory) String() string {
	switch c {
	case CategoryFree:
		return "FREE"
	case CategoryURI:
		return "URI"
	case CategoryUntypedLiteral:
		return "UNTYPED_LITERAL"
	case CategoryTypedLiteral:
		return "TYPED_LITERAL"
	case CategoryAny:
		return "ANY"
	default:
		return fmt.Sprintf("CATEGORY(%d)", uint8(c))
	}
}

// Comparator orders two encodings of the same category and type id.
//
// ComparePrefix compares a complete encoding against the first len(prefix) bytes of an
// encoding whose full length is totalSize. ok is false when the prefix cannot decide.
// Compare orders two complete encodings.
type Comparator interface {
	ComparePrefix(data, prefix []byte, totalSize int) (cmp int, ok bool)
	Compare(a []byte, subtypeA uint8, b []byte, subtypeB uint8) int
}

// Value is a typed value as the pool sees it.
type Value interface {
	Category() TypeCategory
	TypeID() uint8    // meaningful for typed literals only
	SubtypeID() uint8 // meaningful for typed literals only
	Bytes() []byte
	Comparator() Comparator
}

// ValueFactory rebuilds values from stored records and resolves datatype URIs.
type ValueFactory interface {
	NewValue(category TypeCategory, typeID, subtypeID uint8, data []byte) (Value, error)
	Comparator(category TypeCategory, typeID uint8) (Comparator, error)
	TypeID(typeURI string) (uint8, bool)
}

// NodeAllocator hands out fresh graph nodes for find-or-create lookups.
type NodeAllocator interface {
	NewNode() (int64, error)
}
