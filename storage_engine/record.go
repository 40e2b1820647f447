package storageengine

import (
	"cmp"

	"ValuePool/storage_engine/access/avltree"
	blockstore "ValuePool/storage_engine/block_store"
	"ValuePool/types"

	"github.com/cockroachdb/errors"
)

/*
Values go to disk as types.Record. A value longer than types.MaxDirectDataBytes keeps its first
types.InlinePrefixBytes bytes in the record and the rest in one overflow block. The index entry and
the node table record of a value point at the same block.

Index order: category, then type id, then the comparator of the type (which may look at subtypes).
*/

// typeKey selects a type, or a whole category when anyType is set.
type typeKey struct {
	category types.TypeCategory
	typeID   uint8
	anyType  bool
}

func keyOf(v types.Value) typeKey {
	return typeKey{category: v.Category(), typeID: v.TypeID()}
}

func (k typeKey) compare(rec types.Record) int {
	if c := cmp.Compare(k.category, rec.Category); c != 0 || k.anyType {
		return c
	}
	return cmp.Compare(k.typeID, rec.TypeID)
}

// comparatorFor resolves the comparator the index orders values of v's type with.
func (vp *ValuePool) comparatorFor(category types.TypeCategory, typeID uint8) (types.Comparator, error) {
	if category == types.CategoryFree || category == types.CategoryAny {
		return nil, errors.Wrapf(ErrUnsupportedType, "category %s", category)
	}
	c, err := vp.cfg.Factory.Comparator(category, typeID)
	if err != nil {
		return nil, errors.Mark(err, ErrUnsupportedType)
	}
	return c, nil
}

// checkSize rejects values whose tail fits no block class.
func checkSize(n int) error {
	if !types.Overflows(n) {
		return nil
	}
	_, err := blockstore.ClassFor(types.OverflowBytes(n))
	return classify(err)
}

// encodeValue builds the record of v, storing its tail in a block when needed.
func (vp *ValuePool) encodeValue(v types.Value) (types.Record, error) {
	data := v.Bytes()
	rec := types.Record{
		Category:  v.Category(),
		TypeID:    v.TypeID(),
		SubtypeID: v.SubtypeID(),
		Size:      len(data),
		Data:      data,
	}
	if !types.Overflows(len(data)) {
		return rec, nil
	}
	_, id, err := vp.blocks.Store(data[types.InlinePrefixBytes:])
	if err != nil {
		return types.Record{}, classify(err)
	}
	rec.Data = data[:types.InlinePrefixBytes]
	rec.BlockID = id
	return rec, nil
}

// fullBytes returns the complete encoding a record describes.
func (vp *ValuePool) fullBytes(rec types.Record) ([]byte, error) {
	if !types.Overflows(rec.Size) {
		return append([]byte(nil), rec.Data...), nil
	}
	n := types.OverflowBytes(rec.Size)
	class, err := blockstore.ClassFor(n)
	if err != nil {
		return nil, corruptf("record of %d bytes has no block class", rec.Size)
	}
	tail, err := vp.blocks.Load(class, rec.BlockID, n)
	if err != nil {
		return nil, classify(err)
	}
	full := make([]byte, 0, rec.Size)
	full = append(full, rec.Data...)
	return append(full, tail...), nil
}

// freeBlock releases the overflow block of a record, if any.
func (vp *ValuePool) freeBlock(rec types.Record) error {
	if !types.Overflows(rec.Size) {
		return nil
	}
	class, err := blockstore.ClassFor(types.OverflowBytes(rec.Size))
	if err != nil {
		return classify(err)
	}
	return classify(vp.blocks.Free(class, rec.BlockID))
}

// decodeValue rebuilds the value a record describes.
func (vp *ValuePool) decodeValue(rec types.Record) (types.Value, error) {
	data, err := vp.fullBytes(rec)
	if err != nil {
		return nil, err
	}
	v, err := vp.cfg.Factory.NewValue(rec.Category, rec.TypeID, rec.SubtypeID, data)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "undecodable %s value", rec.Category), ErrCorruption)
	}
	return v, nil
}

// valueTarget orders a value of type key against index entries. Entries of the same type are
// compared on their inline prefix first and their tail is only read when the prefix cannot decide.
func (vp *ValuePool) valueTarget(key typeKey, subtype uint8, data []byte, c types.Comparator) avltree.Target {
	return func(n *avltree.Node) (int, error) {
		rec := n.Record()
		if r := key.compare(rec); r != 0 {
			return r, nil
		}
		if !types.Overflows(rec.Size) {
			return c.Compare(data, subtype, rec.Data, rec.SubtypeID), nil
		}
		if r, ok := c.ComparePrefix(data, rec.Data, rec.Size); ok {
			return r, nil
		}
		full, err := vp.fullBytes(rec)
		if err != nil {
			return 0, err
		}
		return c.Compare(data, subtype, full, rec.SubtypeID), nil
	}
}

// targetOf is valueTarget for a value object.
func (vp *ValuePool) targetOf(v types.Value) (avltree.Target, error) {
	c, err := vp.comparatorFor(v.Category(), v.TypeID())
	if err != nil {
		return nil, err
	}
	return vp.valueTarget(keyOf(v), v.SubtypeID(), v.Bytes(), c), nil
}

// targetOfRecord is valueTarget for a stored record.
func (vp *ValuePool) targetOfRecord(rec types.Record) (avltree.Target, error) {
	c, err := vp.comparatorFor(rec.Category, rec.TypeID)
	if err != nil {
		return nil, err
	}
	data, err := vp.fullBytes(rec)
	if err != nil {
		return nil, err
	}
	key := typeKey{category: rec.Category, typeID: rec.TypeID}
	return vp.valueTarget(key, rec.SubtypeID, data, c), nil
}

// typeBound orders a type boundary against entries: before every entry of the type,
// or after all of them when after is set.
func typeBound(key typeKey, after bool) avltree.Target {
	tie := -1
	if after {
		tie = 1
	}
	return func(n *avltree.Node) (int, error) {
		if r := key.compare(n.Record()); r != 0 {
			return r, nil
		}
		return tie, nil
	}
}
