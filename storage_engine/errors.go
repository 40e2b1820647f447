package storageengine

import (
	"io/fs"
	"syscall"

	"ValuePool/storage_engine/access/avltree"
	"ValuePool/storage_engine/access/nodetable"
	blockstore "ValuePool/storage_engine/block_store"
	"ValuePool/storage_engine/metaroot"
	txn "ValuePool/storage_engine/transaction_manager"
	walmanager "ValuePool/storage_engine/wal_manager"
	"ValuePool/values"

	"github.com/cockroachdb/errors"
)

var (
	ErrIO                = errors.New("i/o failure")
	ErrCorruption        = errors.New("pool corrupted")
	ErrAlreadyExists     = errors.New("already exists")
	ErrValueTooLarge     = errors.New("value too large")
	ErrProtocolViolation = txn.ErrProtocolViolation
	ErrReadOnly          = errors.New("read-only view")
	ErrClosed            = txn.ErrClosed
	ErrUnsupportedType   = errors.New("unsupported value type")
	ErrPhaseAbandoned    = errors.New("phase rolled back")
)

// classify marks an error from a lower layer with the pool error it belongs to.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, blockstore.ErrValueTooLarge):
		return errors.Mark(err, ErrValueTooLarge)
	case errors.Is(err, avltree.ErrDuplicate):
		return errors.Mark(err, ErrAlreadyExists)
	case errors.Is(err, metaroot.ErrBadMagic),
		errors.Is(err, metaroot.ErrBadVersion),
		errors.Is(err, walmanager.ErrJournalCorrupt),
		errors.Is(err, avltree.ErrNotFound):
		return errors.Mark(err, ErrCorruption)
	case errors.Is(err, values.ErrUnknownType):
		return errors.Mark(err, ErrUnsupportedType)
	case errors.Is(err, nodetable.ErrBadNode):
		return errors.Mark(err, ErrProtocolViolation)
	}

	var pathErr *fs.PathError
	var errno syscall.Errno
	if errors.As(err, &pathErr) || errors.As(err, &errno) {
		return errors.Mark(err, ErrIO)
	}
	return err
}

func corruptf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}
