package types

type PageType uint8

const (
	PageTypeUnknown PageType = iota
	PageTypeAVLNode
	PageTypeBlock
	PageTypeMetadata
)

func (pt PageType) String() string {
	switch pt {
	case PageTypeAVLNode:
		return "avl"
	case PageTypeBlock:
		return "block"
	case PageTypeMetadata:
		return "meta"
	default:
		return "unknown"
	}
}
