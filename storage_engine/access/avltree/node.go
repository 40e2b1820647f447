package avltree

import (
	"encoding/binary"

	"ValuePool/types"
)

func (n *Node) Left() int64  { return int64(binary.LittleEndian.Uint64(n.pg.Data[idxLeft:])) }
func (n *Node) Right() int64 { return int64(binary.LittleEndian.Uint64(n.pg.Data[idxRight:])) }
func (n *Node) Height() int  { return int(n.pg.Data[idxHeight]) }

// Payload is the entry stored in the node. It aliases the page and is valid while n is pinned.
func (n *Node) Payload() []byte {
	return n.pg.Data[idxPayload:PageSize]
}

// Record decodes the value fields of the payload.
func (n *Node) Record() types.Record {
	return types.DecodeRecord(n.Payload())
}

// GraphNode is the graph node the entry maps to.
func (n *Node) GraphNode() int64 {
	return int64(binary.LittleEndian.Uint64(n.Payload()[types.IdxGraphNode:]))
}

func (n *Node) setLeft(id int64) {
	binary.LittleEndian.PutUint64(n.pg.Data[idxLeft:], uint64(id))
	n.dirty = true
}

func (n *Node) setRight(id int64) {
	binary.LittleEndian.PutUint64(n.pg.Data[idxRight:], uint64(id))
	n.dirty = true
}

func (n *Node) setHeight(h int) {
	n.pg.Data[idxHeight] = byte(h)
	n.dirty = true
}

// setPayload copies an entry in, keeping the height byte.
func (n *Node) setPayload(payload []byte) {
	copy(n.pg.Data[idxPayload+1:PageSize], payload[1:types.PayloadSize])
	n.dirty = true
}

// Release unpins the node. Safe on a nil node and on a node already released.
func (n *Node) Release() {
	if n == nil || n.pg == nil {
		return
	}
	if err := n.tree.pool.UnpinPage(n.pg.ID, n.dirty); err != nil {
		n.tree.log.Warnf("[AVL] unpin of node %d failed: %v", n.ID, err)
	}
	n.pg = nil
}

// EncodePayload builds the payload of an entry for rec owned by graph node node.
func EncodePayload(rec types.Record, node int64) []byte {
	buf := make([]byte, types.PayloadSize)
	rec.Encode(buf)
	binary.LittleEndian.PutUint64(buf[types.IdxGraphNode:], uint64(node))
	return buf
}
