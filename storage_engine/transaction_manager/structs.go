package txn

import "sync"

type TxnState uint8

const (
	TxnActive TxnState = iota
	TxnPrepared
	TxnCommitted
	TxnAborted
)

func (s TxnState) String() string {
	switch s {
	case TxnActive:
		return "active"
	case TxnPrepared:
		return "prepared"
	case TxnCommitted:
		return "committed"
	case TxnAborted:
		return "aborted"
	}
	return "unknown"
}

// PoolState is where the pool stands in the prepare/commit protocol.
type PoolState uint8

const (
	PoolUninitialized PoolState = iota // neither cleared nor resumed from a metaroot
	PoolRecovering                     // metaroots read, waiting for a phase to be selected
	PoolActive
	PoolPrepared
	PoolClosed
)

func (s PoolState) String() string {
	switch s {
	case PoolUninitialized:
		return "uninitialized"
	case PoolRecovering:
		return "recovering"
	case PoolActive:
		return "active"
	case PoolPrepared:
		return "prepared"
	case PoolClosed:
		return "closed"
	}
	return "unknown"
}

// Transaction is the set of mutations between two prepares.
type Transaction struct {
	ID    uint64
	State TxnState
	Phase uint32 // phase number the transaction becomes once prepared

	Puts    []int64 // nodes that gained a value
	Removes []int64 // nodes that lost one
}

// TxnManager enforces the order of clear, recover, prepare, commit and rollback.
type TxnManager struct {
	nextID    uint64
	state     PoolState
	active    *Transaction // collecting mutations
	prepared  *Transaction // waiting for commit
	committed uint32       // last committed phase number
	anyCommit bool         // a phase has been committed or selected
	mu        sync.RWMutex
}
